package querysql

import (
	"fmt"
	"log/slog"

	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/fragment"
	"github.com/roach88/plansql/internal/queryir"
)

// DefaultParameterPrefix is the name stem of generated parameters.
const DefaultParameterPrefix = "gp"

// Parameter is one value bound to the generated text. The text refers to
// it as "@" + Name.
type Parameter struct {
	Name  string
	Kind  queryir.TypeKind
	Type  dialect.DbType
	Value any
}

// Placeholder returns the parameter as it appears in the SQL text.
func (p Parameter) Placeholder() string {
	return "@" + p.Name
}

// Config controls a Generator. The zero value is ready to use.
type Config struct {
	// ParameterPrefix is the stem of generated parameter names
	// (default "gp", giving @gp1, @gp2, ...).
	ParameterPrefix string

	// Logger receives debug events for wrapping and rewrites
	// (default slog.Default()).
	Logger *slog.Logger

	// DisableRewrites turns off LIKE promotion, OR→IN merging and
	// GROUP BY flattening.
	DisableRewrites bool
}

// Generator translates plan trees to MySQL. It holds configuration only;
// every Generate call runs in its own translation context.
type Generator struct {
	cfg Config
}

// New creates a Generator.
func New(cfg Config) *Generator {
	if cfg.ParameterPrefix == "" {
		cfg.ParameterPrefix = DefaultParameterPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{cfg: cfg}
}

// Generate translates one tree with the default configuration.
func Generate(tree queryir.Tree) (string, []Parameter, error) {
	return New(Config{}).Generate(tree)
}

// Generate translates tree into SQL text and the parameters it binds.
func (g *Generator) Generate(tree queryir.Tree) (string, []Parameter, error) {
	t := &translation{
		cfg:   g.cfg,
		log:   g.cfg.Logger,
		scope: newScope(),
	}

	var (
		sql string
		err error
	)
	switch tr := tree.(type) {
	case *queryir.QueryTree:
		var f fragment.Fragment
		f, err = t.generateQuery(tr)
		if err == nil {
			sql = fragment.SQL(f)
		}
	case *queryir.InsertTree:
		sql, err = t.generateInsert(tr)
	case *queryir.UpdateTree:
		sql, err = t.generateUpdate(tr)
	case *queryir.DeleteTree:
		sql, err = t.generateDelete(tr)
	case *queryir.FunctionTree:
		sql, err = t.generateFunction(tr)
	case nil:
		err = malformed(nil, "nil tree")
	default:
		err = malformed(tree, "unknown tree type")
	}
	if err != nil {
		return "", nil, fmt.Errorf("generate: %w", err)
	}

	t.log.Debug("generated sql", "params", len(t.params), "sql", sql)
	return sql, t.params, nil
}

// translation is the per-Generate state threaded through every visit.
type translation struct {
	cfg Config
	log *slog.Logger

	scope         *scope
	params        []Parameter
	paramCount    int
	propertyLevel int
	derivedCount  int
}

// addParameter binds value and returns the placeholder that refers to it.
func (t *translation) addParameter(kind queryir.TypeKind, value any) (fragment.Fragment, error) {
	v, err := dialect.NormalizeValue(kind, value)
	if err != nil {
		return nil, &GenerationError{Code: ErrCodeMalformed, Message: "cannot bind constant", Err: err}
	}
	t.paramCount++
	p := Parameter{
		Name:  fmt.Sprintf("%s%d", t.cfg.ParameterPrefix, t.paramCount),
		Kind:  kind,
		Type:  dialect.ParameterType(kind),
		Value: v,
	}
	t.params = append(t.params, p)
	return fragment.NewLiteral(p.Placeholder()), nil
}

func (t *translation) nextDerivedName() string {
	t.derivedCount++
	return fmt.Sprintf("Derived%d", t.derivedCount)
}

// generateQuery builds the top-level fragment of a read query.
func (t *translation) generateQuery(q *queryir.QueryTree) (fragment.Fragment, error) {
	if !isRelational(q.Query) {
		f, err := t.visit(q.Query)
		if err != nil {
			return nil, err
		}
		return &fragment.Select{Columns: []*fragment.Column{{Literal: f, Alias: "C1"}}}, nil
	}

	in, err := t.visitInput(q.Query)
	if err != nil {
		return nil, err
	}

	var sel *fragment.Select
	switch v := in.(type) {
	case *fragment.Union:
		return v, nil
	case *fragment.Select:
		sel = v
		if sel.Wrapped {
			sel = &fragment.Select{From: sel}
		}
	default:
		sel = &fragment.Select{From: in}
	}

	if !t.cfg.DisableRewrites {
		if flat, ok := flattenGroupBy(sel); ok {
			t.log.Debug("flattened nested group by", "select", flat.From.InputName())
			sel = flat
		}
	}
	if len(sel.Columns) == 0 {
		t.addDefaultColumns(sel)
	}
	return sel, nil
}

// isRelational reports whether n produces a collection of rows.
func isRelational(n queryir.Node) bool {
	switch n.(type) {
	case *queryir.Scan, *queryir.Project, *queryir.Filter, *queryir.Join,
		*queryir.GroupBy, *queryir.Sort, *queryir.Skip, *queryir.Limit,
		*queryir.Distinct, *queryir.Apply, *queryir.UnionAll, *queryir.NewRow,
		*queryir.Except, *queryir.Intersect, *queryir.OfType:
		return true
	}
	return false
}
