package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/plansql/internal/catalog"
	"github.com/roach88/plansql/internal/queryir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Catalog string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Plans []PlanValidation `json:"plans"`
}

// PlanValidation is the pre-flight report for one plan file.
type PlanValidation struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Code   string   `json:"code,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <plan.yaml>...",
		Short: "Check plans without generating SQL",
		Long: `Check plan files for unsupported nodes and structural mistakes
without generating SQL.

Unlike generate, which stops at the first problem in a plan, validate
reports every problem it finds. Faster feedback while writing plans.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog directory")

	return cmd
}

func runValidate(opts *ValidateOptions, files []string, cmd *cobra.Command) error {
	pr := newPrinter(opts.RootOptions, cmd)

	cat, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return reportLoadError(pr, err)
	}

	result := ValidationResult{Valid: true, Plans: make([]PlanValidation, 0, len(files))}
	for _, file := range files {
		pr.notef("Validating plan: %s", file)
		pv := validatePlan(file, cat)
		if !pv.Valid {
			result.Valid = false
		}
		result.Plans = append(result.Plans, pv)
	}

	if result.Valid {
		return writeValidateSuccess(pr, result)
	}
	return writeValidationErrors(pr, result)
}

func validatePlan(file string, cat *catalog.Catalog) PlanValidation {
	tree, err := LoadPlan(file, cat)
	if err != nil {
		prob := loadProblem(err)
		return PlanValidation{File: file, Code: prob.Code, Issues: []string{prob.Message}}
	}

	vr := queryir.Validate(tree)
	if vr.Valid {
		return PlanValidation{File: file, Valid: true}
	}
	return PlanValidation{File: file, Code: ErrCodePlanRejected, Issues: vr.Issues}
}

func writeValidateSuccess(pr *printer, result ValidationResult) error {
	if pr.json {
		return pr.ok(result)
	}
	for _, pv := range result.Plans {
		fmt.Fprintf(pr.out, "✓ %s\n", pv.File)
	}
	fmt.Fprintln(pr.out, "✓ All plans valid")
	return nil
}

// writeValidationErrors lists every plan with its issues. The envelope's
// error is the first issue of the first invalid plan.
func writeValidationErrors(pr *printer, result ValidationResult) error {
	invalid := 0
	var first PlanValidation
	for _, pv := range result.Plans {
		if pv.Valid {
			continue
		}
		if invalid == 0 {
			first = pv
		}
		invalid++
	}
	failed := exitf(ExitFailure, "validation failed for %d plan(s)", invalid)

	if pr.json {
		if err := pr.fail(result, &Problem{Code: first.Code, Message: first.Issues[0]}); err != nil {
			return err
		}
		return failed
	}

	for _, pv := range result.Plans {
		if pv.Valid {
			fmt.Fprintf(pr.out, "✓ %s\n", pv.File)
			continue
		}
		fmt.Fprintf(pr.out, "✗ %s\n", pv.File)
		for _, issue := range pv.Issues {
			fmt.Fprintf(pr.out, "  %s: %s\n", pv.Code, issue)
		}
	}
	fmt.Fprintf(pr.out, "\n✗ Validation failed for %d plan(s)\n", invalid)
	return failed
}
