package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/plansql/internal/querysql"
	"github.com/roach88/plansql/internal/runner"
)

// openRunner is replaced in tests with a runner over sqlmock.
var openRunner = runner.Open

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	DSN        string
	Catalog    string
	Params     map[string]string // values for plan parameter references
	NoRewrites bool
	Timeout    time.Duration
}

// ExecResult is the JSON payload of the exec command.
type ExecResult struct {
	SQL    string         `json:"sql"`
	Params []ParamOutput  `json:"params"`
	Result *runner.Result `json:"result"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <plan.yaml>",
		Short: "Generate a plan and run it against MySQL",
		Long: `Generate SQL for one plan and execute it against a MySQL server.

Generated parameters are bound in the order they appear in the text.
Parameter references in the plan take their values from --param.

Exit codes:
  0 - Statement executed
  1 - Plan rejected or statement failed
  2 - Command error (bad DSN, catalog, etc.)

Examples:
  plansql exec --dsn "user:pass@tcp(localhost:3306)/shop" query.yaml
  plansql exec --dsn "$DSN" --catalog ./catalog --param minAmount=100 query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "MySQL data source name")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog directory")
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "plan parameter value (name=value)")
	cmd.Flags().BoolVar(&opts.NoRewrites, "no-rewrites", false, "disable LIKE, IN and GROUP BY rewrites")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "statement timeout")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}

func runExec(ctx context.Context, opts *ExecOptions, file string, cmd *cobra.Command) error {
	pr := newPrinter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	cat, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return reportLoadError(pr, err)
	}
	tree, err := LoadPlan(file, cat)
	if err != nil {
		return reportLoadError(pr, err)
	}

	gen := querysql.New(querysql.Config{Logger: logger, DisableRewrites: opts.NoRewrites})
	text, params, err := gen.Generate(tree)
	if err != nil {
		prob := generationProblem(err)
		_ = pr.problem(prob)
		return exitf(ExitFailure, "%s: %s", prob.Code, prob.Text())
	}
	pr.notef("%s", text)

	r, err := openRunner(opts.DSN, logger)
	if err != nil {
		_ = pr.problem(&Problem{Code: ErrCodeGeneric, Message: err.Error()})
		return exitf(ExitCommandError, "open database: %w", err)
	}
	defer r.Close()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	external := make(map[string]any, len(opts.Params))
	for k, v := range opts.Params {
		external[k] = v
	}
	res, err := r.Run(ctx, text, params, external)
	if err != nil {
		_ = pr.problem(&Problem{Code: ErrCodeExecFailed, Message: err.Error()})
		return exitf(ExitFailure, "%s: %w", ErrCodeExecFailed, err)
	}

	if pr.json {
		return pr.ok(ExecResult{SQL: text, Params: paramOutputs(params), Result: res})
	}
	writeExecText(pr, res)
	return nil
}

func writeExecText(pr *printer, res *runner.Result) {
	w := pr.out
	if len(res.Columns) == 0 {
		fmt.Fprintf(w, "✓ %d row(s) affected\n", res.RowsAffected)
		return
	}
	fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(w, "✓ %d row(s)\n", len(res.Rows))
}
