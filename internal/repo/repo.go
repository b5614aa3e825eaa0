package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leadpilot/internal/domain"
	"leadpilot/internal/rules"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// IsUniqueViolation reports whether err is a SQLite uniqueness constraint
// failure. Used by the status service to detect a losing concurrent writer
// on the idempotency ledger.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- businesses ---

func (r Repo) InsertBusiness(ctx context.Context, b domain.Business) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO businesses(id,name,persona,logic_text,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		b.ID, b.Name, nullable(b.Persona), nullable(b.LogicText), b.CreatedAt, b.UpdatedAt)
	return err
}

func (r Repo) GetBusiness(ctx context.Context, id string) (domain.Business, error) {
	var b domain.Business
	var persona, logicText sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,persona,logic_text,created_at,updated_at FROM businesses WHERE id=?`, id).
		Scan(&b.ID, &b.Name, &persona, &logicText, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	if persona.Valid {
		b.Persona = persona.String
	}
	if logicText.Valid {
		b.LogicText = logicText.String
	}
	return b, err
}

func (r Repo) UpdateBusinessLogic(ctx context.Context, id, logicText, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE businesses SET logic_text=?, updated_at=? WHERE id=?`, nullable(logicText), updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateBusinessPersona(ctx context.Context, id, persona, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE businesses SET persona=?, updated_at=? WHERE id=?`, nullable(persona), updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- status catalog ---

// ReplaceCatalogTx swaps the whole catalog for a business in one shot. The
// catalog is supplied by an external collaborator; ordering follows
// sort_order.
func (r Repo) ReplaceCatalogTx(ctx context.Context, tx *sql.Tx, businessID string, entries []domain.StatusCatalogEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM status_catalog WHERE business_id=?`, businessID); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO status_catalog(id,business_id,label,canonical,sort_order) VALUES (?,?,?,?,?)`,
			e.ID, businessID, e.Label, e.Canonical, e.SortOrder); err != nil {
			return fmt.Errorf("insert catalog entry %s: %w", e.Label, err)
		}
	}
	return nil
}

func (r Repo) ListCatalog(ctx context.Context, businessID string) ([]domain.StatusCatalogEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,business_id,label,canonical,sort_order FROM status_catalog WHERE business_id=? ORDER BY sort_order, label`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.StatusCatalogEntry
	for rows.Next() {
		var e domain.StatusCatalogEntry
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.Label, &e.Canonical, &e.SortOrder); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) GetStatus(ctx context.Context, id string) (domain.StatusCatalogEntry, error) {
	var e domain.StatusCatalogEntry
	err := r.DB.QueryRowContext(ctx, `SELECT id,business_id,label,canonical,sort_order FROM status_catalog WHERE id=?`, id).
		Scan(&e.ID, &e.BusinessID, &e.Label, &e.Canonical, &e.SortOrder)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

// --- leads ---

func (r Repo) InsertLead(ctx context.Context, l domain.Lead) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO leads(id,business_id,name,status_id,seq,created_at,updated_at) VALUES (?,?,?,?,?,?,?)`,
		l.ID, l.BusinessID, nullable(l.Name), nullableStringPtr(l.StatusID), l.Seq, l.CreatedAt, l.UpdatedAt)
	return err
}

func scanLead(scan func(dest ...any) error) (domain.Lead, error) {
	var l domain.Lead
	var name, statusID sql.NullString
	err := scan(&l.ID, &l.BusinessID, &name, &statusID, &l.Seq, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	if err != nil {
		return l, err
	}
	if name.Valid {
		l.Name = name.String
	}
	if statusID.Valid {
		l.StatusID = &statusID.String
	}
	return l, nil
}

const leadColumns = `id,business_id,name,status_id,seq,created_at,updated_at`

func (r Repo) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=?`, id)
	return scanLead(row.Scan)
}

func (r Repo) GetLeadTx(ctx context.Context, tx *sql.Tx, id string) (domain.Lead, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=?`, id)
	return scanLead(row.Scan)
}

func (r Repo) ListLeads(ctx context.Context, businessID string) ([]domain.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE business_id=? ORDER BY created_at DESC, id DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

// SetLeadStatusTx applies a status change and bumps the per-lead monotonic
// sequence token in the same statement.
func (r Repo) SetLeadStatusTx(ctx context.Context, tx *sql.Tx, leadID, statusID, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE leads SET status_id=?, seq=seq+1, updated_at=? WHERE id=?`, statusID, updatedAt, leadID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- rulesets ---

// InsertRuleSet persists a freshly compiled rule set as the next version for
// the business. Old versions are retained, never deleted.
func (r Repo) InsertRuleSet(ctx context.Context, tx *sql.Tx, rec domain.RuleSetRecord) (int, error) {
	var maxVersion sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(version) FROM rulesets WHERE business_id=?`, rec.BusinessID).Scan(&maxVersion); err != nil {
		return 0, err
	}
	version := 1
	if maxVersion.Valid {
		version = int(maxVersion.Int64) + 1
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO rulesets(id,business_id,version,payload_json,compiled_at,compile_error) VALUES (?,?,?,?,?,?)`,
		rec.ID, rec.BusinessID, version, rec.PayloadJSON, rec.CompiledAt, nullableStringPtr(rec.CompileErr))
	return version, err
}

// GetActiveRuleSet returns the newest compiled rule set for a business, or
// ErrNotFound when none was ever compiled.
func (r Repo) GetActiveRuleSet(ctx context.Context, businessID string) (*rules.CompiledRuleSet, error) {
	var payload string
	var version int
	err := r.DB.QueryRowContext(ctx, `SELECT payload_json,version FROM rulesets WHERE business_id=? AND compile_error IS NULL ORDER BY version DESC LIMIT 1`, businessID).
		Scan(&payload, &version)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rs rules.CompiledRuleSet
	if err := json.Unmarshal([]byte(payload), &rs); err != nil {
		return nil, fmt.Errorf("decode ruleset v%d: %w", version, err)
	}
	rs.Version = version
	return &rs, nil
}

func (r Repo) ListRuleSets(ctx context.Context, businessID string) ([]domain.RuleSetRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,business_id,version,payload_json,compiled_at,compile_error FROM rulesets WHERE business_id=? ORDER BY version DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.RuleSetRecord
	for rows.Next() {
		var rec domain.RuleSetRecord
		var compileErr sql.NullString
		if err := rows.Scan(&rec.ID, &rec.BusinessID, &rec.Version, &rec.PayloadJSON, &rec.CompiledAt, &compileErr); err != nil {
			return nil, err
		}
		if compileErr.Valid {
			rec.CompileErr = &compileErr.String
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// --- lead facts ---

// UpsertFactTx is last-write-wins per (lead_id, key); no cross-key merge.
func (r Repo) UpsertFactTx(ctx context.Context, tx *sql.Tx, f domain.LeadFact) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO lead_facts(business_id,lead_id,key,value,confidence,source,updated_at) VALUES (?,?,?,?,?,?,?)
ON CONFLICT(lead_id,key) DO UPDATE SET value=excluded.value, confidence=excluded.confidence, source=excluded.source, updated_at=excluded.updated_at`,
		f.BusinessID, f.LeadID, f.Key, f.Value, f.Confidence, nullable(f.Source), f.UpdatedAt)
	return err
}

func (r Repo) ListFacts(ctx context.Context, leadID string) ([]domain.LeadFact, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT business_id,lead_id,key,value,confidence,COALESCE(source,''),updated_at FROM lead_facts WHERE lead_id=? ORDER BY key`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.LeadFact
	for rows.Next() {
		var f domain.LeadFact
		if err := rows.Scan(&f.BusinessID, &f.LeadID, &f.Key, &f.Value, &f.Confidence, &f.Source, &f.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

// --- decision audits ---

func (r Repo) InsertDecisionAuditTx(ctx context.Context, tx *sql.Tx, a domain.DecisionAudit) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO decision_audits(id,business_id,lead_id,action,confidence,rule_hits_json,missing_fields_json,status_label,fallback,latency_ms,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.BusinessID, a.LeadID, a.Action, a.Confidence, nullable(a.RuleHitsJSON), nullable(a.MissingJSON),
		nullable(a.StatusLabel), boolInt(a.Fallback), a.LatencyMS, a.CreatedAt)
	return err
}

func (r Repo) ListDecisionAudits(ctx context.Context, leadID string, limit int) ([]domain.DecisionAudit, error) {
	query := `SELECT id,business_id,lead_id,action,confidence,COALESCE(rule_hits_json,''),COALESCE(missing_fields_json,''),COALESCE(status_label,''),fallback,latency_ms,created_at
FROM decision_audits WHERE lead_id=? ORDER BY created_at DESC, id DESC`
	args := []any{leadID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.DecisionAudit
	for rows.Next() {
		var a domain.DecisionAudit
		var fallback int
		if err := rows.Scan(&a.ID, &a.BusinessID, &a.LeadID, &a.Action, &a.Confidence, &a.RuleHitsJSON, &a.MissingJSON, &a.StatusLabel, &fallback, &a.LatencyMS, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Fallback = fallback != 0
		res = append(res, a)
	}
	return res, rows.Err()
}

// --- idempotency ledger ---

func (r Repo) GetRecommendation(ctx context.Context, businessID, source, sourceEventID string) (domain.StatusRecommendationEvent, error) {
	var ev domain.StatusRecommendationEvent
	var label, resolved sql.NullString
	var applied int
	err := r.DB.QueryRowContext(ctx, `SELECT id,business_id,lead_id,source,source_event_id,recommended_label,resolved_status_id,confidence,applied,reason,created_at
FROM status_recommendations WHERE business_id=? AND source=? AND source_event_id=?`, businessID, source, sourceEventID).
		Scan(&ev.ID, &ev.BusinessID, &ev.LeadID, &ev.Source, &ev.SourceEventID, &label, &resolved, &ev.Confidence, &applied, &ev.Reason, &ev.CreatedAt)
	if err == sql.ErrNoRows {
		return ev, ErrNotFound
	}
	if err != nil {
		return ev, err
	}
	if label.Valid {
		ev.RecommendedLabel = label.String
	}
	if resolved.Valid {
		ev.ResolvedStatusID = &resolved.String
	}
	ev.Applied = applied != 0
	return ev, nil
}

// InsertRecommendationTx inserts once per (business_id, source,
// source_event_id); a uniqueness violation means a concurrent duplicate
// delivery won the race.
func (r Repo) InsertRecommendationTx(ctx context.Context, tx *sql.Tx, ev domain.StatusRecommendationEvent) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO status_recommendations(id,business_id,lead_id,source,source_event_id,recommended_label,resolved_status_id,confidence,applied,reason,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		ev.ID, ev.BusinessID, ev.LeadID, ev.Source, ev.SourceEventID, nullable(ev.RecommendedLabel),
		nullableStringPtr(ev.ResolvedStatusID), ev.Confidence, boolInt(ev.Applied), ev.Reason, ev.CreatedAt)
	return err
}

// --- status transitions ---

func (r Repo) InsertTransitionTx(ctx context.Context, tx *sql.Tx, t domain.StatusTransition) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO status_transitions(id,business_id,lead_id,from_status_id,to_status_id,reason,confidence,channel,metadata_json,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.BusinessID, t.LeadID, nullableStringPtr(t.FromStatusID), t.ToStatusID, nullable(t.Reason),
		t.Confidence, nullable(t.Channel), nullable(t.MetadataJSON), t.CreatedAt)
	return err
}

func (r Repo) ListTransitions(ctx context.Context, leadID string) ([]domain.StatusTransition, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,business_id,lead_id,from_status_id,to_status_id,COALESCE(reason,''),confidence,COALESCE(channel,''),COALESCE(metadata_json,''),created_at
FROM status_transitions WHERE lead_id=? ORDER BY created_at DESC, id DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.StatusTransition
	for rows.Next() {
		var t domain.StatusTransition
		var from sql.NullString
		if err := rows.Scan(&t.ID, &t.BusinessID, &t.LeadID, &from, &t.ToStatusID, &t.Reason, &t.Confidence, &t.Channel, &t.MetadataJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		if from.Valid {
			t.FromStatusID = &from.String
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// --- events ---

func (r Repo) ListEvents(ctx context.Context, businessID string, limit int) ([]domain.Event, error) {
	query := `SELECT id,ts,type,COALESCE(business_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events`
	var args []any
	if businessID != "" {
		query += ` WHERE business_id=?`
		args = append(args, businessID)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.BusinessID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// --- helpers ---

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
