package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leadpilot/internal/domain"
	"leadpilot/internal/oracle"
)

// Compiler turns free-text business policy into a validated CompiledRuleSet.
// Compilation is one-shot, idempotent and side-effect-free; the caller
// persists the result and owns versioning. Unlike the decision engine there
// is no repair round-trip: malformed oracle output is returned to the owner,
// who edits the text and resubmits.
type Compiler struct {
	Oracle oracle.Oracle
	Log    *slog.Logger
	Now    func() time.Time
}

// Result is the outcome of one compile call.
type Result struct {
	Success       bool             `json:"success"`
	Compiled      *CompiledRuleSet `json:"compiled,omitempty"`
	Err           *CompileError    `json:"error,omitempty"`
	CompileTimeMS int64            `json:"compile_time_ms"`
}

func NewCompiler(o oracle.Oracle, log *slog.Logger) Compiler {
	if log == nil {
		log = slog.Default()
	}
	return Compiler{Oracle: o, Log: log, Now: time.Now}
}

func (c Compiler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Compile compiles logicText against the status catalog supplied by the
// caller. Every failure is reported through Result.Err, never a panic or a
// plain error: the taxonomy is part of the operator contract.
func (c Compiler) Compile(ctx context.Context, logicText string, catalog []domain.StatusCatalogEntry) Result {
	started := c.now()
	fail := func(err *CompileError) Result {
		c.Log.Warn("rule compilation failed", "code", err.Code, "error", err.Message)
		return Result{Err: err, CompileTimeMS: c.now().Sub(started).Milliseconds()}
	}

	if strings.TrimSpace(logicText) == "" {
		return fail(&CompileError{Code: CodeEmptyInput, Message: "logic text is empty"})
	}

	raw, err := c.Oracle.Generate(ctx, compileSegments(logicText, catalog))
	if err != nil {
		return fail(&CompileError{Code: CodeMalformedOracleOutput, Message: fmt.Sprintf("oracle call failed: %v", err)})
	}

	// The oracle may report its own error object (e.g. unknown status
	// referenced); it has full catalog visibility at generation time, so
	// its message is propagated verbatim.
	var reported struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &reported); err == nil && reported.Error != "" {
		return fail(&CompileError{Code: CodeOracleReportedError, Message: reported.Error})
	}

	var rs CompiledRuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return fail(&CompileError{Code: CodeMalformedOracleOutput, Message: fmt.Sprintf("cannot parse oracle output: %v", err)})
	}

	if verr := Validate(&rs, catalog); verr != nil {
		return fail(verr)
	}

	rs.CompiledAt = c.now().UTC().Format(time.RFC3339)
	elapsed := c.now().Sub(started).Milliseconds()
	c.Log.Info("rules compiled", "rules", len(rs.Rules), "compile_time_ms", elapsed)
	return Result{Success: true, Compiled: &rs, CompileTimeMS: elapsed}
}

// compileSegments builds the fixed compile contract: the target schema, the
// closed action vocabulary and the catalog the rules must resolve against.
func compileSegments(logicText string, catalog []domain.StatusCatalogEntry) []oracle.Segment {
	var labels []string
	for _, c := range catalog {
		labels = append(labels, c.Label)
	}
	contract := fmt.Sprintf(`You compile business policy written in free text into a JSON rule set.

Output exactly one JSON object with this shape:
{
  "rules": [
    {
      "id": "unique snake_case id",
      "priority": 1,
      "when": {
        "status_in": ["status labels the lead must be in"],
        "fields_present": ["fact keys that must be known"],
        "fields_missing": ["fact keys that must be unknown"]
      },
      "action": "one of: %s",
      "effects": {
        "allow_actions": ["optional allow list for the matched status"],
        "block_actions": ["optional block list for the matched status"],
        "set_status": "optional status label to move the lead to"
      }
    }
  ],
  "constraints": ["plain-text constraints that apply to every reply"],
  "entities_schema": {"fact_key": "short description"}
}

Status labels may ONLY come from this catalog: %s.
If the policy references a status absent from the catalog, or cannot be
expressed, output {"error": "<explanation naming the problem>"} instead.
Never invent actions outside the listed vocabulary.`,
		strings.Join(Actions(), ", "), strings.Join(labels, ", "))

	return []oracle.Segment{
		{Role: oracle.RoleSystem, Content: contract},
		{Role: oracle.RoleUser, Content: logicText},
	}
}
