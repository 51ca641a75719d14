package cli

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/plansql/internal/querysql"
)

// Process exit statuses.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a plan, scenario or statement was rejected
	ExitCommandError = 2 // unusable input: catalog, plan file, DSN
)

// ExitError carries the exit status of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// exitf returns an ExitError with a formatted cause. %w is honored.
func exitf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// GetExitCode returns the status carried by err, or ExitFailure.
func GetExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

// Problem is a coded failure as it appears in command output.
type Problem struct {
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"` // generator category, e.g. UNSUPPORTED_NODE
	Node    string `json:"node,omitempty"`
	Message string `json:"message"`
}

// Text renders the problem without its CLI code.
func (p *Problem) Text() string {
	msg := p.Message
	if p.Kind != "" {
		msg = p.Kind + ": " + msg
	}
	if p.Node != "" {
		msg += " (node=" + p.Node + ")"
	}
	return msg
}

// generationProblem maps a generator failure onto its CLI code.
func generationProblem(err error) *Problem {
	var ge *querysql.GenerationError
	if !errors.As(err, &ge) {
		return &Problem{Code: ErrCodeGeneric, Message: err.Error()}
	}
	p := &Problem{Code: ErrCodeGeneric, Kind: string(ge.Code), Node: ge.Node, Message: ge.Message}
	switch ge.Code {
	case querysql.ErrCodeUnsupported:
		p.Code = ErrCodeUnsupported
	case querysql.ErrCodeMalformed:
		p.Code = ErrCodeMalformed
	}
	if ge.Err != nil {
		p.Message += ": " + ge.Err.Error()
	}
	return p
}

// loadProblem maps a catalog or plan load failure onto its CLI code.
func loadProblem(err error) *Problem {
	var le *LoadError
	if errors.As(err, &le) {
		return &Problem{Code: le.Code, Message: le.Located()}
	}
	return &Problem{Code: ErrCodeGeneric, Message: err.Error()}
}

// ParamOutput is one generated parameter in command output.
type ParamOutput struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func paramOutputs(params []querysql.Parameter) []ParamOutput {
	out := make([]ParamOutput, 0, len(params))
	for _, p := range params {
		out = append(out, ParamOutput{Name: p.Name, Kind: p.Kind.String(), Type: string(p.Type), Value: p.Value})
	}
	return out
}

// Statement is the generated output for one plan file.
type Statement struct {
	File   string        `json:"file"`
	SQL    string        `json:"sql,omitempty"`
	Params []ParamOutput `json:"params"`
	Error  *Problem      `json:"error,omitempty"`
}

// Envelope is the document written by every command under --format json.
type Envelope struct {
	Status string   `json:"status"` // "ok" | "error"
	Data   any      `json:"data,omitempty"`
	Error  *Problem `json:"error,omitempty"`
}

// printer writes command results to stdout and diagnostics to stderr.
type printer struct {
	out     io.Writer
	diag    io.Writer
	json    bool
	verbose bool
}

func newPrinter(opts *RootOptions, cmd *cobra.Command) *printer {
	return &printer{
		out:     cmd.OutOrStdout(),
		diag:    cmd.ErrOrStderr(),
		json:    opts.Format == "json",
		verbose: opts.Verbose,
	}
}

// ok writes data as a successful envelope.
func (p *printer) ok(data any) error {
	return p.encode(Envelope{Status: "ok", Data: data})
}

// fail writes data with the problem that failed the command.
func (p *printer) fail(data any, prob *Problem) error {
	return p.encode(Envelope{Status: "error", Data: data, Error: prob})
}

func (p *printer) encode(env Envelope) error {
	enc := json.NewEncoder(p.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// problem reports a command-level failure in either format.
func (p *printer) problem(prob *Problem) error {
	if p.json {
		return p.fail(nil, prob)
	}
	_, err := fmt.Fprintf(p.out, "Error [%s]: %s\n", prob.Code, prob.Text())
	return err
}

// notef writes a progress line to stderr under --verbose.
func (p *printer) notef(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.diag, format+"\n", args...)
	}
}

// statement writes one generated statement as a SQL script block.
func (p *printer) statement(s Statement) {
	fmt.Fprintf(p.out, "-- %s\n", s.File)
	if s.Error != nil {
		fmt.Fprintf(p.out, "-- error [%s]: %s\n\n", s.Error.Code, s.Error.Text())
		return
	}
	fmt.Fprintf(p.out, "%s;\n", s.SQL)
	for _, prm := range s.Params {
		fmt.Fprintf(p.out, "-- @%s %s = %s\n", prm.Name, prm.Type, formatValue(prm.Value))
	}
	fmt.Fprintln(p.out)
}

// formatValue renders a bound value the way the server receives it.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return "0"
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999")
	case time.Duration:
		return formatTime(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

// formatTime renders a duration as a MySQL TIME literal.
func formatTime(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign, d = "-", -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	out := fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
	if d > 0 {
		out += fmt.Sprintf(".%06d", d/time.Microsecond)
	}
	return out
}
