package harness

import (
	"fmt"

	"github.com/roach88/plansql/internal/querysql"
)

// ParamSnapshot is a bound parameter in comparable, serializable form.
type ParamSnapshot struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// snapshotParams converts generator parameters to snapshots. Values are
// rendered with fmt so that YAML scalars and Go values compare as text.
func snapshotParams(params []querysql.Parameter) []ParamSnapshot {
	out := make([]ParamSnapshot, len(params))
	for i, p := range params {
		out[i] = ParamSnapshot{
			Name:  p.Name,
			Type:  string(p.Type),
			Value: formatValue(p.Value),
		}
	}
	return out
}

func formatValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprint(v)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// SQL is the generated text; empty when generation failed.
	SQL string `json:"sql,omitempty"`

	// Params are the bound parameters in order.
	Params []ParamSnapshot `json:"params"`

	// ErrorCode is the generation error code when generation failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Params: []ParamSnapshot{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
