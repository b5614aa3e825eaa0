package domain

type Business struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Persona   string `json:"persona,omitempty"`
	LogicText string `json:"logic_text,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type StatusCatalogEntry struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Label      string `json:"label"`
	Canonical  string `json:"canonical"`
	SortOrder  int    `json:"sort_order"`
}

type Lead struct {
	ID         string  `json:"id"`
	BusinessID string  `json:"business_id"`
	Name       string  `json:"name,omitempty"`
	StatusID   *string `json:"status_id,omitempty"`
	// Seq is a monotonic token bumped on every applied status change.
	Seq       int64  `json:"seq"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// RuleSetRecord is one persisted version of a business's compiled rules.
// The payload is the serialized rules.CompiledRuleSet.
type RuleSetRecord struct {
	ID          string  `json:"id"`
	BusinessID  string  `json:"business_id"`
	Version     int     `json:"version"`
	PayloadJSON string  `json:"payload_json"`
	CompiledAt  string  `json:"compiled_at"`
	CompileErr  *string `json:"compile_error,omitempty"`
}

type LeadFact struct {
	BusinessID string  `json:"business_id"`
	LeadID     string  `json:"lead_id"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
	UpdatedAt  string  `json:"updated_at"`
}

// DecisionAudit is an immutable snapshot of one decision.
type DecisionAudit struct {
	ID           string  `json:"id"`
	BusinessID   string  `json:"business_id"`
	LeadID       string  `json:"lead_id"`
	Action       string  `json:"action"`
	Confidence   float64 `json:"confidence"`
	RuleHitsJSON string  `json:"rule_hits_json,omitempty"`
	MissingJSON  string  `json:"missing_fields_json,omitempty"`
	StatusLabel  string  `json:"status_label,omitempty"`
	Fallback     bool    `json:"fallback"`
	LatencyMS    int64   `json:"latency_ms"`
	CreatedAt    string  `json:"created_at"`
}

// StatusRecommendationEvent is the idempotency ledger row. The tuple
// (business_id, source, source_event_id) is unique; a key is marked
// applied=true at most once ever.
type StatusRecommendationEvent struct {
	ID               string  `json:"id"`
	BusinessID       string  `json:"business_id"`
	LeadID           string  `json:"lead_id"`
	Source           string  `json:"source"`
	SourceEventID    string  `json:"source_event_id"`
	RecommendedLabel string  `json:"recommended_label,omitempty"`
	ResolvedStatusID *string `json:"resolved_status_id,omitempty"`
	Confidence       float64 `json:"confidence"`
	Applied          bool    `json:"applied"`
	Reason           string  `json:"reason"`
	CreatedAt        string  `json:"created_at"`
}

// StatusTransition is append-only: one row per status change actually applied.
type StatusTransition struct {
	ID           string  `json:"id"`
	BusinessID   string  `json:"business_id"`
	LeadID       string  `json:"lead_id"`
	FromStatusID *string `json:"from_status_id,omitempty"`
	ToStatusID   string  `json:"to_status_id"`
	Reason       string  `json:"reason,omitempty"`
	Confidence   float64 `json:"confidence"`
	Channel      string  `json:"channel,omitempty"`
	MetadataJSON string  `json:"metadata_json,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	BusinessID string `json:"business_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
