package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/plansql/internal/catalog"
	"github.com/roach88/plansql/internal/queryir"
	"github.com/roach88/plansql/internal/querysql"
)

// Harness runs scenarios. It caches catalogs by directory so a suite that
// shares one catalog compiles it once. A Harness is safe for concurrent use.
type Harness struct {
	logger *slog.Logger

	mu       sync.Mutex
	catalogs map[string]*catalog.Catalog
}

// New creates a Harness. A nil logger discards generator logs.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{
		logger:   logger,
		catalogs: map[string]*catalog.Catalog{},
	}
}

// Run executes a scenario with a fresh Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Load the scenario's catalog, if any
// 2. Decode the plan against it
// 3. Generate SQL with a generator configured for the scenario
// 4. Compare against expect and evaluate assertions
//
// The returned error reports scenarios that cannot run (bad catalog, bad
// plan). Generation failures are outcomes and are compared like text.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	cat, err := h.catalog(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	tree, err := queryir.DecodeTree(&scenario.Plan, cat)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}

	gen := querysql.New(querysql.Config{
		Logger:          h.logger,
		DisableRewrites: !scenario.RewritesEnabled(),
	})
	sql, params, genErr := gen.Generate(tree)

	result := NewResult()
	if genErr != nil {
		var ge *querysql.GenerationError
		if !errors.As(genErr, &ge) {
			return nil, fmt.Errorf("generate: %w", genErr)
		}
		result.ErrorCode = string(ge.Code)
	} else {
		result.SQL = sql
		result.Params = snapshotParams(params)
	}

	for _, msg := range CompareExpectation(result, scenario.Expect, genErr) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"params", len(result.Params),
	)
	return result, nil
}

func (h *Harness) catalog(dir string) (queryir.Catalog, error) {
	if dir == "" {
		return nil, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if cat, ok := h.catalogs[dir]; ok {
		return cat, nil
	}
	cat, err := catalog.Load(dir)
	if err != nil {
		return nil, err
	}
	h.catalogs[dir] = cat
	return cat, nil
}
