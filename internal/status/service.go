package status

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadpilot/internal/config"
	"leadpilot/internal/domain"
	"leadpilot/internal/events"
	"leadpilot/internal/metrics"
	"leadpilot/internal/notify"
	"leadpilot/internal/repo"
)

// Outcome reasons recorded on the ledger. Stable strings: they feed the
// audit trail and the status_recommendations_total metric.
const (
	ReasonApplied          = "applied"
	ReasonNoRecommendation = "no_recommendation"
	ReasonUnknownLabel     = "unknown_label"
	ReasonLowConfidence    = "low_confidence"
	ReasonNoChange         = "no_change"
)

type Service struct {
	DB      *sql.DB
	Repo    repo.Repo
	Events  events.Writer
	Config  *config.Config
	Metrics *metrics.Set
	Notify  notify.Dispatcher
	Log     *slog.Logger
	Now     func() time.Time
}

// Input is one delivery of a status recommendation. (BusinessID, Source,
// SourceEventID) is the idempotency key; Confidence nil means the source
// asserts the change unconditionally.
type Input struct {
	BusinessID    string
	LeadID        string
	Source        string
	SourceEventID string
	ReplyText     string
	Confidence    *float64
	Channel       string
}

// Outcome reports what happened to one recommendation. Replayed deliveries
// return the outcome recorded for the first delivery.
type Outcome struct {
	Applied    bool   `json:"applied"`
	Reason     string `json:"reason"`
	Label      string `json:"label,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Replayed   bool   `json:"replayed,omitempty"`
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Service) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// Apply processes one recommendation exactly once. Every delivery writes a
// ledger row (including "no recommendation found"), so replays of any
// outcome are cheap lookups.
func (s Service) Apply(ctx context.Context, in Input) (Outcome, error) {
	if in.SourceEventID == "" {
		return Outcome{}, fmt.Errorf("source_event_id is required")
	}

	if prior, err := s.Repo.GetRecommendation(ctx, in.BusinessID, in.Source, in.SourceEventID); err == nil {
		return s.replayed(ctx, prior), nil
	} else if err != repo.ErrNotFound {
		return Outcome{}, err
	}

	label, found := Extract(in.ReplyText)
	if !found {
		return s.record(ctx, in, domain.StatusRecommendationEvent{
			Reason: ReasonNoRecommendation,
		})
	}

	catalog, err := s.Repo.ListCatalog(ctx, in.BusinessID)
	if err != nil {
		return Outcome{}, err
	}
	matches := Resolve(label, catalog)
	if len(matches) == 0 {
		s.log().Warn("recommended status not in catalog", "lead_id", in.LeadID, "label", label)
		return s.record(ctx, in, domain.StatusRecommendationEvent{
			RecommendedLabel: label,
			Reason:           ReasonUnknownLabel,
		})
	}
	target := matches[0]
	if len(matches) > 1 {
		var labels []string
		for _, m := range matches {
			labels = append(labels, m.Label)
		}
		s.log().Warn("ambiguous status label, using first by catalog order",
			"label", label, "candidates", strings.Join(labels, ", "), "chosen", target.Label)
	}

	confidence := 1.0
	if in.Confidence != nil {
		confidence = *in.Confidence
	}
	if confidence < s.Config.Status.ConfidenceThreshold {
		return s.record(ctx, in, domain.StatusRecommendationEvent{
			RecommendedLabel: label,
			ResolvedStatusID: &target.ID,
			Confidence:       confidence,
			Reason:           ReasonLowConfidence,
		})
	}

	lead, err := s.Repo.GetLead(ctx, in.LeadID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load lead %s: %w", in.LeadID, err)
	}
	if lead.StatusID != nil && *lead.StatusID == target.ID {
		out, err := s.record(ctx, in, domain.StatusRecommendationEvent{
			RecommendedLabel: label,
			ResolvedStatusID: &target.ID,
			Confidence:       confidence,
			Applied:          true,
			Reason:           ReasonNoChange,
		})
		out.ToStatus = target.Label
		return out, err
	}

	return s.apply(ctx, in, lead, target, label, confidence)
}

// apply performs the transactional status change: lead update with sequence
// bump, transition row, ledger row, event. Commit makes all four visible
// atomically; a uniqueness violation on the ledger means a concurrent
// duplicate won, so the recorded outcome is returned instead.
func (s Service) apply(ctx context.Context, in Input, lead domain.Lead, target domain.StatusCatalogEntry, label string, confidence float64) (Outcome, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, err
	}
	defer tx.Rollback()

	now := s.now().UTC().Format(time.RFC3339)
	fromLabel := ""
	if lead.StatusID != nil {
		if from, err := s.Repo.GetStatus(ctx, *lead.StatusID); err == nil {
			fromLabel = from.Label
		}
	}

	if err := s.Repo.SetLeadStatusTx(ctx, tx, lead.ID, target.ID, now); err != nil {
		return Outcome{}, fmt.Errorf("update lead status: %w", err)
	}

	transition := domain.StatusTransition{
		ID:           uuid.NewString(),
		BusinessID:   in.BusinessID,
		LeadID:       lead.ID,
		FromStatusID: lead.StatusID,
		ToStatusID:   target.ID,
		Reason:       "recommendation from " + in.Source,
		Confidence:   confidence,
		Channel:      in.Channel,
		CreatedAt:    now,
	}
	if err := s.Repo.InsertTransitionTx(ctx, tx, transition); err != nil {
		return Outcome{}, fmt.Errorf("record transition: %w", err)
	}

	ledger := domain.StatusRecommendationEvent{
		ID:               uuid.NewString(),
		BusinessID:       in.BusinessID,
		LeadID:           lead.ID,
		Source:           in.Source,
		SourceEventID:    in.SourceEventID,
		RecommendedLabel: label,
		ResolvedStatusID: &target.ID,
		Confidence:       confidence,
		Applied:          true,
		Reason:           ReasonApplied,
		CreatedAt:        now,
	}
	if err := s.Repo.InsertRecommendationTx(ctx, tx, ledger); err != nil {
		if repo.IsUniqueViolation(err) {
			tx.Rollback()
			return s.rereadLedger(ctx, in)
		}
		return Outcome{}, fmt.Errorf("record recommendation: %w", err)
	}

	if err := s.Events.Append(ctx, tx, "lead.status_changed", in.BusinessID, "lead", lead.ID, in.Source, events.EventPayload{
		"from":       fromLabel,
		"to":         target.Label,
		"confidence": confidence,
		"source":     in.Source,
	}); err != nil {
		return Outcome{}, err
	}

	if err := tx.Commit(); err != nil {
		if repo.IsUniqueViolation(err) {
			return s.rereadLedger(ctx, in)
		}
		return Outcome{}, err
	}

	s.Metrics.ObserveStatusOutcome(ReasonApplied)
	s.log().Info("lead status applied", "lead_id", lead.ID, "from", fromLabel, "to", target.Label, "confidence", confidence)

	notify.DispatchAsync(s.Notify, notify.Notification{
		BusinessID: in.BusinessID,
		LeadID:     lead.ID,
		Title:      "Lead status updated",
		Body:       fmt.Sprintf("%s moved to %s", leadDisplay(lead), target.Label),
		Metadata:   map[string]string{"from": fromLabel, "to": target.Label},
	}, s.Log, 10*time.Second)

	return Outcome{Applied: true, Reason: ReasonApplied, Label: label, FromStatus: fromLabel, ToStatus: target.Label}, nil
}

// record writes a non-applying ledger row so the idempotency key is consumed
// even when nothing changes. Concurrent duplicates fall back to the winner's
// recorded outcome.
func (s Service) record(ctx context.Context, in Input, ev domain.StatusRecommendationEvent) (Outcome, error) {
	ev.ID = uuid.NewString()
	ev.BusinessID = in.BusinessID
	ev.LeadID = in.LeadID
	ev.Source = in.Source
	ev.SourceEventID = in.SourceEventID
	if in.Confidence != nil && ev.Confidence == 0 {
		ev.Confidence = *in.Confidence
	}
	ev.CreatedAt = s.now().UTC().Format(time.RFC3339)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, err
	}
	defer tx.Rollback()

	if err := s.Repo.InsertRecommendationTx(ctx, tx, ev); err != nil {
		if repo.IsUniqueViolation(err) {
			tx.Rollback()
			return s.rereadLedger(ctx, in)
		}
		return Outcome{}, err
	}
	if err := tx.Commit(); err != nil {
		if repo.IsUniqueViolation(err) {
			return s.rereadLedger(ctx, in)
		}
		return Outcome{}, err
	}

	s.Metrics.ObserveStatusOutcome(ev.Reason)
	return Outcome{Applied: ev.Applied, Reason: ev.Reason, Label: ev.RecommendedLabel}, nil
}

func (s Service) rereadLedger(ctx context.Context, in Input) (Outcome, error) {
	prior, err := s.Repo.GetRecommendation(ctx, in.BusinessID, in.Source, in.SourceEventID)
	if err != nil {
		return Outcome{}, fmt.Errorf("duplicate delivery detected but ledger unreadable: %w", err)
	}
	return s.replayed(ctx, prior), nil
}

func (s Service) replayed(ctx context.Context, prior domain.StatusRecommendationEvent) Outcome {
	out := Outcome{Applied: prior.Applied, Reason: prior.Reason, Label: prior.RecommendedLabel, Replayed: true}
	if prior.ResolvedStatusID != nil {
		if st, err := s.Repo.GetStatus(ctx, *prior.ResolvedStatusID); err == nil {
			out.ToStatus = st.Label
		}
	}
	return out
}

func leadDisplay(l domain.Lead) string {
	if l.Name != "" {
		return l.Name
	}
	return "Lead " + l.ID
}
