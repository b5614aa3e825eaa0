package rules

import (
	"fmt"
	"strings"

	"leadpilot/internal/domain"
)

// Compile error codes. All are surfaced verbatim to the business owner,
// the only actor who can fix the free text.
const (
	CodeEmptyInput             = "EmptyInput"
	CodeSchemaViolation        = "SchemaViolation"
	CodeUnknownStatusReference = "UnknownStatusReference"
	CodeOracleReportedError    = "OracleReportedError"
	CodeMalformedOracleOutput  = "MalformedOracleOutput"
)

// CompileError is a structured, operator-facing compilation failure.
type CompileError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validate runs structural then referential checks against the status
// catalog supplied at compile time. All-or-nothing: the first violation
// fails the whole set.
func Validate(rs *CompiledRuleSet, catalog []domain.StatusCatalogEntry) *CompileError {
	if err := validateStructure(rs); err != nil {
		return err
	}
	return validateReferences(rs, catalog)
}

func validateStructure(rs *CompiledRuleSet) *CompileError {
	seen := map[string]bool{}
	for i, r := range rs.Rules {
		if strings.TrimSpace(r.ID) == "" {
			return &CompileError{Code: CodeSchemaViolation, Message: fmt.Sprintf("rule at index %d has no id", i)}
		}
		if seen[r.ID] {
			return &CompileError{Code: CodeSchemaViolation, Message: fmt.Sprintf("duplicate rule id %q", r.ID)}
		}
		seen[r.ID] = true
		if !ValidAction(r.Action) {
			return &CompileError{Code: CodeSchemaViolation, Message: fmt.Sprintf("rule %q has unknown action %q; allowed: %s", r.ID, r.Action, strings.Join(Actions(), ", "))}
		}
		for _, a := range r.Effects.AllowActions {
			if !ValidAction(a) {
				return &CompileError{Code: CodeSchemaViolation, Message: fmt.Sprintf("rule %q allow-lists unknown action %q", r.ID, a)}
			}
		}
		for _, a := range r.Effects.BlockActions {
			if !ValidAction(a) {
				return &CompileError{Code: CodeSchemaViolation, Message: fmt.Sprintf("rule %q block-lists unknown action %q", r.ID, a)}
			}
		}
	}
	return nil
}

// validateReferences checks every status literal against the catalog so the
// operator can self-correct; the message enumerates all available labels.
func validateReferences(rs *CompiledRuleSet, catalog []domain.StatusCatalogEntry) *CompileError {
	known := map[string]bool{}
	var labels []string
	for _, c := range catalog {
		known[strings.TrimSpace(c.Label)] = true
		labels = append(labels, c.Label)
	}
	var unknown []string
	for _, ref := range rs.StatusReferences() {
		if !known[ref] {
			unknown = append(unknown, ref)
		}
	}
	if len(unknown) > 0 {
		return &CompileError{
			Code: CodeUnknownStatusReference,
			Message: fmt.Sprintf("unknown status reference(s) %s; available statuses: %s",
				quoteJoin(unknown), strings.Join(labels, ", ")),
		}
	}
	return nil
}

func quoteJoin(in []string) string {
	quoted := make([]string, len(in))
	for i, s := range in {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
