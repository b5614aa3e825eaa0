package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadpilot/internal/config"
	"leadpilot/internal/domain"
	"leadpilot/internal/repo"
)

// ResolveBusinessAndConfig picks the active business and ensures its row
// exists in the DB. Config comes from leadpilot.yml in the workspace when
// present, otherwise from defaults. Overrides win over config.
func ResolveBusinessAndConfig(ctx context.Context, workspace, businessOverride string, r repo.Repo) (string, *config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return "", nil, err
	}

	businessID := businessOverride
	if businessID == "" && cfg != nil {
		businessID = cfg.Business.ID
	}
	if businessID == "" {
		return "", nil, fmt.Errorf("business not specified; use --business or run lp init")
	}
	if cfg == nil {
		cfg = config.Default(businessID)
		cfg.Business.ID = businessID
	}

	if _, err := r.GetBusiness(ctx, businessID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		if err := createBusiness(ctx, r, businessID, cfg.Business.Name); err != nil {
			return "", nil, err
		}
	}
	return businessID, cfg, nil
}

// createBusiness inserts a minimal business row on first use.
func createBusiness(ctx context.Context, r repo.Repo, businessID, name string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if name == "" {
		name = businessID
	}
	b := domain.Business{ID: businessID, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := r.InsertBusiness(ctx, b); err != nil {
		return fmt.Errorf("create business %s: %w", businessID, err)
	}
	return nil
}
