package repo_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"leadpilot/internal/db"
	"leadpilot/internal/domain"
	"leadpilot/internal/migrate"
	"leadpilot/internal/repo"
	"leadpilot/internal/rules"
)

func newRepo(t *testing.T) (repo.Repo, context.Context) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := repo.Repo{DB: conn}
	ctx := context.Background()
	now := "2024-01-01T00:00:00Z"
	if err := r.InsertBusiness(ctx, domain.Business{ID: "biz-1", Name: "Acme", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("insert business: %v", err)
	}
	return r, ctx
}

func inTx(t *testing.T, r repo.Repo, ctx context.Context, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestRuleSetVersioning(t *testing.T) {
	r, ctx := newRepo(t)
	payload, _ := json.Marshal(rules.CompiledRuleSet{Rules: []rules.Rule{{ID: "r1", Action: rules.ActionAskQuestion}}})

	var v1, v2 int
	inTx(t, r, ctx, func(tx *sql.Tx) error {
		var err error
		v1, err = r.InsertRuleSet(ctx, tx, domain.RuleSetRecord{ID: "rs-1", BusinessID: "biz-1", PayloadJSON: string(payload), CompiledAt: "2024-01-01T00:00:00Z"})
		return err
	})
	inTx(t, r, ctx, func(tx *sql.Tx) error {
		var err error
		v2, err = r.InsertRuleSet(ctx, tx, domain.RuleSetRecord{ID: "rs-2", BusinessID: "biz-1", PayloadJSON: string(payload), CompiledAt: "2024-01-02T00:00:00Z"})
		return err
	})
	if v1 != 1 || v2 != 2 {
		t.Fatalf("versions must be sequential: %d, %d", v1, v2)
	}

	rs, err := r.GetActiveRuleSet(ctx, "biz-1")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if rs.Version != 2 {
		t.Fatalf("active rule set must be the newest version, got %d", rs.Version)
	}
	if len(rs.Rules) != 1 || rs.Rules[0].ID != "r1" {
		t.Fatalf("payload not decoded: %+v", rs)
	}
}

func TestGetActiveRuleSetNotFound(t *testing.T) {
	r, ctx := newRepo(t)
	if _, err := r.GetActiveRuleSet(ctx, "biz-1"); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFactUpsertIsLastWriteWins(t *testing.T) {
	r, ctx := newRepo(t)
	now := "2024-01-01T00:00:00Z"
	if err := r.InsertLead(ctx, domain.Lead{ID: "lead-1", BusinessID: "biz-1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}

	inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.UpsertFactTx(ctx, tx, domain.LeadFact{BusinessID: "biz-1", LeadID: "lead-1", Key: "budget", Value: "1000", Confidence: 0.5, UpdatedAt: now})
	})
	inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.UpsertFactTx(ctx, tx, domain.LeadFact{BusinessID: "biz-1", LeadID: "lead-1", Key: "budget", Value: "5000", Confidence: 0.9, UpdatedAt: now})
	})

	facts, err := r.ListFacts(ctx, "lead-1")
	if err != nil || len(facts) != 1 {
		t.Fatalf("expected one fact, got %d (%v)", len(facts), err)
	}
	if facts[0].Value != "5000" || facts[0].Confidence != 0.9 {
		t.Fatalf("upsert must be last-write-wins: %+v", facts[0])
	}
}

func TestRecommendationLedgerUniqueness(t *testing.T) {
	r, ctx := newRepo(t)
	now := "2024-01-01T00:00:00Z"
	if err := r.InsertLead(ctx, domain.Lead{ID: "lead-1", BusinessID: "biz-1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	ev := domain.StatusRecommendationEvent{
		ID: "rec-1", BusinessID: "biz-1", LeadID: "lead-1",
		Source: "assistant", SourceEventID: "evt-1",
		Reason: "applied", Applied: true, CreatedAt: now,
	}
	inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.InsertRecommendationTx(ctx, tx, ev)
	})

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	ev.ID = "rec-2"
	err = r.InsertRecommendationTx(ctx, tx, ev)
	if err == nil || !repo.IsUniqueViolation(err) {
		t.Fatalf("expected uniqueness violation, got %v", err)
	}

	got, err := r.GetRecommendation(ctx, "biz-1", "assistant", "evt-1")
	if err != nil || got.ID != "rec-1" || !got.Applied {
		t.Fatalf("ledger read mismatch: %+v (%v)", got, err)
	}
}

func TestSetLeadStatusBumpsSeq(t *testing.T) {
	r, ctx := newRepo(t)
	now := "2024-01-01T00:00:00Z"
	inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.ReplaceCatalogTx(ctx, tx, "biz-1", []domain.StatusCatalogEntry{
			{ID: "st-new", BusinessID: "biz-1", Label: "New", Canonical: "new", SortOrder: 0},
			{ID: "st-won", BusinessID: "biz-1", Label: "Won", Canonical: "won", SortOrder: 1},
		})
	})
	if err := r.InsertLead(ctx, domain.Lead{ID: "lead-1", BusinessID: "biz-1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}

	inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.SetLeadStatusTx(ctx, tx, "lead-1", "st-new", now)
	})
	inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.SetLeadStatusTx(ctx, tx, "lead-1", "st-won", now)
	})

	lead, err := r.GetLead(ctx, "lead-1")
	if err != nil {
		t.Fatal(err)
	}
	if lead.Seq != 2 || lead.StatusID == nil || *lead.StatusID != "st-won" {
		t.Fatalf("status/seq mismatch: %+v", lead)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	if err := r.SetLeadStatusTx(ctx, tx, "no-such-lead", "st-won", now); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
