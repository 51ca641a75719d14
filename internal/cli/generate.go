package cli

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/plansql/internal/catalog"
	"github.com/roach88/plansql/internal/querysql"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Catalog    string // CUE catalog directory
	Prefix     string // generated parameter name stem
	NoRewrites bool   // disable LIKE/IN/GROUP BY rewrites
	Watch      bool   // regenerate when plan files change
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <plan.yaml>...",
		Short: "Generate MySQL text and parameters from plan files",
		Long: `Generate MySQL statement text and the parameter list for each plan file.

Plans are translated independently and concurrently; output follows the
argument order. With --watch the command keeps running and regenerates a
plan whenever its file changes.

Exit codes:
  0 - All plans generated
  1 - One or more plans were rejected by the generator
  2 - Command error (bad catalog, unreadable plan, etc.)

Examples:
  plansql generate query.yaml
  plansql generate --catalog ./catalog plans/*.yaml
  plansql generate --watch --catalog ./catalog query.yaml
  plansql generate --format json query.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog directory")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", querysql.DefaultParameterPrefix, "generated parameter name prefix")
	cmd.Flags().BoolVar(&opts.NoRewrites, "no-rewrites", false, "disable LIKE, IN and GROUP BY rewrites")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "regenerate plans when their files change")

	return cmd
}

func runGenerate(ctx context.Context, opts *GenerateOptions, files []string, cmd *cobra.Command) error {
	pr := newPrinter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	cat, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return reportLoadError(pr, err)
	}

	gen := querysql.New(querysql.Config{
		ParameterPrefix: opts.Prefix,
		Logger:          logger,
		DisableRewrites: opts.NoRewrites,
	})

	stmts, err := generateAll(ctx, gen, cat, files)
	if err != nil {
		return exitf(ExitCommandError, "generate: %w", err)
	}
	failed, err := writeStatements(pr, stmts)
	if err != nil {
		return err
	}

	if opts.Watch {
		return watchAndGenerate(ctx, gen, cat, files, pr, logger)
	}
	if failed > 0 {
		return exitf(ExitFailure, "%d plan(s) rejected", failed)
	}
	return nil
}

// generateAll translates every file concurrently, one Generate call per
// file on the shared Generator. Results keep the order of files.
func generateAll(ctx context.Context, gen *querysql.Generator, cat *catalog.Catalog, files []string) ([]Statement, error) {
	stmts := make([]Statement, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stmts[i] = generateFile(gen, cat, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stmts, nil
}

// generateFile loads and translates one plan. Failures are reported in
// the statement rather than returned.
func generateFile(gen *querysql.Generator, cat *catalog.Catalog, file string) Statement {
	stmt := Statement{File: file, Params: []ParamOutput{}}

	tree, err := LoadPlan(file, cat)
	if err != nil {
		stmt.Error = loadProblem(err)
		return stmt
	}

	sql, params, err := gen.Generate(tree)
	if err != nil {
		stmt.Error = generationProblem(err)
		return stmt
	}
	stmt.SQL = sql
	stmt.Params = paramOutputs(params)
	return stmt
}

// writeStatements writes statements and returns how many failed.
func writeStatements(pr *printer, stmts []Statement) (int, error) {
	failed := 0
	for _, s := range stmts {
		if s.Error != nil {
			failed++
		}
	}
	if pr.json {
		return failed, pr.ok(stmts)
	}
	for _, s := range stmts {
		pr.statement(s)
	}
	return failed, nil
}

// watchAndGenerate regenerates a plan each time its file changes, until
// ctx is cancelled.
func watchAndGenerate(ctx context.Context, gen *querysql.Generator, cat *catalog.Catalog, files []string, pr *printer, logger *slog.Logger) error {
	w, err := newPlanWatcher(files, logger)
	if err != nil {
		return exitf(ExitCommandError, "watch: %w", err)
	}
	defer w.Close()

	pr.notef("Watching %d plan file(s)", len(files))

	var mu sync.Mutex
	return w.Run(ctx, func(file string) {
		stmt := generateFile(gen, cat, file)
		mu.Lock()
		defer mu.Unlock()
		if _, err := writeStatements(pr, []Statement{stmt}); err != nil {
			logger.Warn("writing output failed", "file", file, "error", err)
		}
	})
}

// reportLoadError reports a catalog or plan load failure (exit code 2).
func reportLoadError(pr *printer, err error) error {
	prob := loadProblem(err)
	_ = pr.problem(prob)
	return exitf(ExitCommandError, "%s: %s", prob.Code, prob.Message)
}
