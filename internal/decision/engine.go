package decision

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"leadpilot/internal/config"
	"leadpilot/internal/domain"
	"leadpilot/internal/events"
	"leadpilot/internal/metrics"
	"leadpilot/internal/oracle"
	"leadpilot/internal/prompt"
	"leadpilot/internal/repo"
	"leadpilot/internal/rules"
)

type Engine struct {
	DB      *sql.DB
	Repo    repo.Repo
	Events  events.Writer
	Oracle  oracle.Oracle
	Config  *config.Config
	Metrics *metrics.Set
	Log     *slog.Logger
	Now     func() time.Time
}

// DecideInput is one inbound turn.
type DecideInput struct {
	BusinessID     string
	LeadID         string
	Channel        string
	UserMessage    string
	HistorySummary string
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// Decide runs one turn. It never returns an error: oracle failures, double
// parse failures and store failures all degrade into a safe decision with
// Fallback set, so the caller always has a reply to send.
func (e Engine) Decide(ctx context.Context, in DecideInput) Decision {
	started := e.now()

	snap := e.gatherContext(ctx, in)
	segs := prompt.Build(prompt.Input{
		Channel:        in.Channel,
		UserMessage:    in.UserMessage,
		Rules:          snap.ruleset,
		KnownFacts:     snap.facts,
		LeadStatus:     snap.statusLabel,
		Catalog:        snap.catalog,
		HistorySummary: in.HistorySummary,
		BusinessPrompt: snap.persona,
		Constraints:    snap.constraints(),
	})

	d, ok := e.consult(ctx, segs)
	if !ok {
		d = Fallback(e.Config.Decisions.FallbackReply)
	} else {
		d = normalize(d)
		d = gate(d, e.Config.Decisions.ConfidenceThreshold)
		d = enforce(d, snap.ruleset, snap.statusLabel)
	}

	latency := e.now().Sub(started)
	d.LatencyMS = latency.Milliseconds()

	e.persist(ctx, in, snap, d)
	e.Metrics.ObserveDecision(d.Action, d.Fallback, latency)
	e.log().Info("decision", "lead_id", in.LeadID, "action", d.Action,
		"confidence", d.Confidence, "fallback", d.Fallback, "latency_ms", d.LatencyMS)
	return d
}

// consult calls the oracle and parses the result, with at most one repair
// round-trip. The repair appends the invalid payload as an assistant segment
// plus a corrective instruction, and is never itself repaired.
func (e Engine) consult(ctx context.Context, segs []oracle.Segment) (Decision, bool) {
	raw, err := e.Oracle.Generate(ctx, segs)
	if err != nil {
		e.log().Warn("oracle call failed", "error", err)
		return Decision{}, false
	}

	d, perr := parse(raw)
	if perr == nil {
		return d, true
	}
	e.log().Warn("decision payload invalid, attempting repair", "error", perr)

	repairSegs := append(append([]oracle.Segment{}, segs...),
		oracle.Segment{Role: oracle.RoleAssistant, Content: string(raw)},
		oracle.Segment{Role: oracle.RoleUser, Content: "Your previous output was invalid: " + perr.Error() +
			". Respond again with exactly one JSON object matching the required schema. Do not apologize or explain."})

	raw, err = e.Oracle.Generate(ctx, repairSegs)
	if err != nil {
		e.log().Warn("repair call failed", "error", err)
		return Decision{}, false
	}
	d, perr = parse(raw)
	if perr != nil {
		e.log().Warn("repair output still invalid", "error", perr)
		return Decision{}, false
	}
	return d, true
}

// snapshot is the best-effort read of everything a turn needs. Absent parts
// stay zero: a missing ruleset or unreadable lead narrows the prompt, it
// never blocks the decision.
type snapshot struct {
	lead        *domain.Lead
	statusLabel string
	ruleset     *rules.CompiledRuleSet
	facts       []domain.LeadFact
	catalog     []domain.StatusCatalogEntry
	persona     string
}

func (s snapshot) constraints() []string {
	if s.ruleset == nil {
		return nil
	}
	return s.ruleset.Constraints
}

func (e Engine) gatherContext(ctx context.Context, in DecideInput) snapshot {
	var snap snapshot

	if b, err := e.Repo.GetBusiness(ctx, in.BusinessID); err == nil {
		snap.persona = b.Persona
	} else {
		e.log().Warn("business unreadable, continuing without persona", "business_id", in.BusinessID, "error", err)
	}

	if lead, err := e.Repo.GetLead(ctx, in.LeadID); err == nil {
		snap.lead = &lead
		if lead.StatusID != nil {
			if st, err := e.Repo.GetStatus(ctx, *lead.StatusID); err == nil {
				snap.statusLabel = st.Label
			}
		}
	} else {
		e.log().Warn("lead unreadable, continuing without lead context", "lead_id", in.LeadID, "error", err)
	}

	if rs, err := e.Repo.GetActiveRuleSet(ctx, in.BusinessID); err == nil {
		snap.ruleset = rs
	} else if err != repo.ErrNotFound {
		e.log().Warn("ruleset unreadable, continuing without rules", "business_id", in.BusinessID, "error", err)
	}

	if facts, err := e.Repo.ListFacts(ctx, in.LeadID); err == nil {
		snap.facts = facts
	}
	if catalog, err := e.Repo.ListCatalog(ctx, in.BusinessID); err == nil {
		snap.catalog = catalog
	}
	return snap
}

// persist writes the audit row and upserts extracted facts in one
// transaction. A write failure is logged, never surfaced: the user already
// has their reply and the decision stands.
func (e Engine) persist(ctx context.Context, in DecideInput, snap snapshot, d Decision) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		e.log().Error("decision audit skipped", "lead_id", in.LeadID, "error", err)
		return
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	hits, _ := json.Marshal(d.RuleHits)
	missing, _ := json.Marshal(d.MissingFields)
	audit := domain.DecisionAudit{
		ID:           uuid.NewString(),
		BusinessID:   in.BusinessID,
		LeadID:       in.LeadID,
		Action:       d.Action,
		Confidence:   d.Confidence,
		RuleHitsJSON: string(hits),
		MissingJSON:  string(missing),
		StatusLabel:  snap.statusLabel,
		Fallback:     d.Fallback,
		LatencyMS:    d.LatencyMS,
		CreatedAt:    now,
	}
	if err := e.Repo.InsertDecisionAuditTx(ctx, tx, audit); err != nil {
		e.log().Error("decision audit failed", "lead_id", in.LeadID, "error", err)
		return
	}

	for _, f := range d.Facts {
		if f.Key == "" {
			continue
		}
		fact := domain.LeadFact{
			BusinessID: in.BusinessID,
			LeadID:     in.LeadID,
			Key:        f.Key,
			Value:      f.Value,
			Confidence: f.Confidence,
			Source:     in.Channel,
			UpdatedAt:  now,
		}
		if err := e.Repo.UpsertFactTx(ctx, tx, fact); err != nil {
			e.log().Error("fact upsert failed", "lead_id", in.LeadID, "key", f.Key, "error", err)
			return
		}
	}

	if err := e.Events.Append(ctx, tx, "decision.made", in.BusinessID, "lead", in.LeadID, "engine", events.EventPayload{
		"action":     d.Action,
		"confidence": d.Confidence,
		"fallback":   d.Fallback,
		"audit_id":   audit.ID,
	}); err != nil {
		e.log().Error("decision event append failed", "lead_id", in.LeadID, "error", err)
		return
	}

	if err := tx.Commit(); err != nil {
		e.log().Error("decision audit commit failed", "lead_id", in.LeadID, "error", err)
	}
}
