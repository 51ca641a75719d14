package querysql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/fragment"
	"github.com/roach88/plansql/internal/queryir"
)

// clause names the part of a select a relational node wants to fill.
// A select that already holds a conflicting part is wrapped first.
type clause int

const (
	clauseFilter clause = iota
	clauseProject
	clauseSort
	clauseSkip
	clauseLimit
	clauseGroupBy
	clauseDistinct
)

// isCompatible reports whether sel can absorb the clause without changing
// the meaning of what it already holds. A wrapped select is closed.
func isCompatible(sel *fragment.Select, c clause) bool {
	if sel.Wrapped {
		return false
	}
	bare := len(sel.Columns) == 0 && !sel.Distinct
	unpaged := sel.Limit == nil && sel.Skip == nil
	switch c {
	case clauseFilter:
		return bare && sel.Where == nil && len(sel.GroupBy) == 0 && unpaged
	case clauseProject:
		return bare
	case clauseSort, clauseGroupBy:
		return bare && len(sel.GroupBy) == 0 && len(sel.OrderBy) == 0 && unpaged
	case clauseSkip, clauseDistinct:
		return unpaged
	case clauseLimit:
		return sel.Limit == nil
	}
	return false
}

// visitInput translates a relational node into a FROM item.
func (t *translation) visitInput(n queryir.Node) (fragment.Input, error) {
	switch node := n.(type) {
	case *queryir.Scan:
		return t.visitScan(node)
	case *queryir.Project:
		return t.visitProject(node)
	case *queryir.Filter:
		return t.visitFilter(node)
	case *queryir.Join:
		return t.visitJoin(node)
	case *queryir.GroupBy:
		return t.visitGroupBy(node)
	case *queryir.Sort:
		return t.visitSort(node)
	case *queryir.Skip:
		return t.visitSkip(node)
	case *queryir.Limit:
		return t.visitLimit(node)
	case *queryir.Distinct:
		return t.visitDistinct(node)
	case *queryir.Apply:
		return t.visitApply(node)
	case *queryir.UnionAll:
		return t.visitUnionAll(node)
	case *queryir.NewRow:
		return t.visitRow(node)
	case *queryir.Except, *queryir.Intersect, *queryir.OfType:
		return nil, unsupported(node, "%T is not supported by the MySQL dialect", node)
	case nil:
		return nil, malformed(nil, "missing relational input")
	default:
		return nil, malformed(node, "expected a relational node")
	}
}

// visitInputExpression translates a binding's input, names it after the
// binding variable and registers it in scope.
func (t *translation) visitInputExpression(n queryir.Node, name string) (fragment.Input, error) {
	in, err := t.visitInput(n)
	if err != nil {
		return nil, err
	}
	if name != "" {
		switch v := in.(type) {
		case *fragment.Table:
			v.Name = name
		case *fragment.Select:
			v.Name = name
		case *fragment.Join:
			v.Name = name
		case *fragment.Union:
			v.Name = name
		}
		t.scope.add(name, in)
	}
	return in, nil
}

// visitInputExpressionEnsureSelect is visitInputExpression for nodes that
// extend a select. Tables and joins become the FROM of a new select;
// unions are wrapped as derived tables first.
func (t *translation) visitInputExpressionEnsureSelect(n queryir.Node, name string) (*fragment.Select, error) {
	in, err := t.visitInputExpression(n, name)
	if err != nil {
		return nil, err
	}
	switch v := in.(type) {
	case *fragment.Select:
		return v, nil
	case *fragment.Union:
		t.wrapUnion(v)
	}
	return &fragment.Select{From: in}, nil
}

// wrapIfNotCompatible returns sel when it can take the clause, otherwise
// a new select reading sel as a derived table.
func (t *translation) wrapIfNotCompatible(sel *fragment.Select, c clause) *fragment.Select {
	if isCompatible(sel, c) {
		return sel
	}
	t.wrap(sel)
	return &fragment.Select{From: sel}
}

// wrap turns sel into a derived table. Its inputs leave scope and it is
// reachable under its own name only.
func (t *translation) wrap(sel *fragment.Select) {
	if len(sel.Columns) == 0 {
		t.addDefaultColumns(sel)
	}
	sel.Wrapped = true
	if sel.Name == "" {
		sel.Name = t.nextDerivedName()
	}
	t.scope.removeInput(sel.From)
	t.scope.add(sel.Name, sel)
	t.log.Debug("wrapped select", "name", sel.Name)
}

func (t *translation) wrapUnion(u *fragment.Union) {
	u.Wrapped = true
	if u.Name == "" {
		u.Name = t.nextDerivedName()
	}
	t.scope.removeInput(u.Left)
	t.scope.removeInput(u.Right)
	t.scope.add(u.Name, u)
}

func (t *translation) visitScan(s *queryir.Scan) (fragment.Input, error) {
	if s.Target == nil {
		return nil, malformed(s, "scan without a target")
	}
	return newTable(s.Target), nil
}

func newTable(es *queryir.EntitySet) *fragment.Table {
	tbl := &fragment.Table{}
	if es.DefiningQuery != "" {
		tbl.DefiningQuery = es.DefiningQuery
	} else {
		tbl.Schema = es.Schema
		tbl.Table = es.TableName()
	}
	for _, c := range es.Columns {
		tbl.Columns = append(tbl.Columns, fragment.TableColumn{Name: c.Name, Nullable: c.Nullable})
	}
	return tbl
}

func (t *translation) visitProject(p *queryir.Project) (fragment.Input, error) {
	if p.Projection == nil {
		return nil, malformed(p, "project without a projection")
	}
	sel, err := t.visitInputExpressionEnsureSelect(p.Input.Expr, p.Input.Var)
	if err != nil {
		return nil, err
	}
	sel = t.wrapIfNotCompatible(sel, clauseProject)
	cols, err := t.visitColumns(p.Projection.Columns)
	if err != nil {
		return nil, err
	}
	sel.Columns = cols
	return sel, nil
}

// visitColumns translates row constructor columns into projected select
// columns. Plain column references keep their table qualification.
func (t *translation) visitColumns(cols []queryir.Column) ([]*fragment.Column, error) {
	out := make([]*fragment.Column, 0, len(cols))
	for i, c := range cols {
		f, err := t.visit(c.Expr)
		if err != nil {
			return nil, err
		}
		name := c.Name
		if name == "" {
			name = "C" + strconv.Itoa(i+1)
		}
		out = append(out, projected(f, name))
	}
	return out, nil
}

// projected makes f a select column visible as alias.
func projected(f fragment.Fragment, alias string) *fragment.Column {
	if c, ok := f.(*fragment.Column); ok && c.Literal == nil {
		cp := c.Clone()
		cp.Alias = alias
		cp.Path = nil
		return cp
	}
	return &fragment.Column{Literal: f, Alias: alias}
}

func (t *translation) visitFilter(f *queryir.Filter) (fragment.Input, error) {
	sel, err := t.visitInputExpressionEnsureSelect(f.Input.Expr, f.Input.Var)
	if err != nil {
		return nil, err
	}
	sel = t.wrapIfNotCompatible(sel, clauseFilter)
	if sel.Where, err = t.visit(f.Predicate); err != nil {
		return nil, err
	}
	return sel, nil
}

func (t *translation) visitJoin(j *queryir.Join) (fragment.Input, error) {
	kind, ok := dialect.JoinToken(j.Kind)
	if !ok {
		return nil, unsupported(j, "%s join is not supported by MySQL", j.Kind)
	}
	left, err := t.visitInputExpression(j.Left.Expr, j.Left.Var)
	if err != nil {
		return nil, err
	}
	left = t.wrapJoinInputIfNecessary(left, false)

	right, err := t.visitInputExpression(j.Right.Expr, j.Right.Var)
	if err != nil {
		return nil, err
	}
	right = t.wrapJoinInputIfNecessary(right, true)

	out := &fragment.Join{Kind: kind, Left: left, Right: right}
	if j.Kind != queryir.JoinCross && j.Condition != nil {
		if out.Condition, err = t.visit(j.Condition); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// wrapJoinInputIfNecessary makes selects and unions derived tables. A join
// nested on the right is wrapped too so that the ON clauses stay
// unambiguous.
func (t *translation) wrapJoinInputIfNecessary(in fragment.Input, right bool) fragment.Input {
	switch v := in.(type) {
	case *fragment.Select:
		t.wrap(v)
	case *fragment.Union:
		t.wrapUnion(v)
	case *fragment.Join:
		if right {
			sel := &fragment.Select{From: v, Name: v.Name}
			t.wrap(sel)
			return sel
		}
	}
	return in
}

func (t *translation) visitGroupBy(g *queryir.GroupBy) (fragment.Input, error) {
	inner, err := t.visitInputExpressionEnsureSelect(g.Input.Expr, g.Input.Var)
	if err != nil {
		return nil, err
	}
	t.scope.add(g.Input.GroupVar, inner)
	sel := t.wrapIfNotCompatible(inner, clauseGroupBy)

	for i, key := range g.Keys {
		f, err := t.visit(key.Expr)
		if err != nil {
			return nil, err
		}
		name := key.Name
		if name == "" {
			name = "K" + strconv.Itoa(i+1)
		}
		sel.GroupBy = append(sel.GroupBy, f)
		sel.Columns = append(sel.Columns, projected(f, name))
	}

	for i, agg := range g.Aggregates {
		fn, err := t.visitAggregate(g, agg)
		if err != nil {
			return nil, err
		}
		name := agg.Name
		if name == "" {
			name = "A" + strconv.Itoa(i+1)
		}
		sel.Columns = append(sel.Columns, &fragment.Column{Literal: fn, Alias: name})
	}
	if len(sel.Columns) == 0 {
		return nil, malformed(g, "group by without keys or aggregates")
	}
	return sel, nil
}

func (t *translation) visitAggregate(g *queryir.GroupBy, agg queryir.Aggregate) (fragment.Fragment, error) {
	if agg.Function == nil {
		return nil, malformed(g, "aggregate %q without a function", agg.Name)
	}
	if len(agg.Args) != 1 {
		return nil, malformed(g, "aggregate %s takes exactly one argument, got %d", agg.Function.FullName(), len(agg.Args))
	}
	name, err := dialect.AggregateName(agg.Function)
	if err != nil {
		if errors.Is(err, dialect.ErrUnsupportedAggregate) {
			return nil, &GenerationError{Code: ErrCodeUnsupported, Message: "aggregate", Node: nodeName(g), Err: err}
		}
		return nil, err
	}
	arg, err := t.visit(agg.Args[0])
	if err != nil {
		return nil, err
	}
	return &fragment.Function{Name: name, Distinct: agg.Distinct, Args: []fragment.Fragment{arg}}, nil
}

func (t *translation) visitSortKeys(keys []queryir.SortKey) ([]*fragment.Sort, error) {
	out := make([]*fragment.Sort, 0, len(keys))
	for _, k := range keys {
		f, err := t.visit(k.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, &fragment.Sort{Expr: f, Descending: k.Descending})
	}
	return out, nil
}

func (t *translation) visitSort(s *queryir.Sort) (fragment.Input, error) {
	sel, err := t.visitInputExpressionEnsureSelect(s.Input.Expr, s.Input.Var)
	if err != nil {
		return nil, err
	}
	sel = t.wrapIfNotCompatible(sel, clauseSort)
	if sel.OrderBy, err = t.visitSortKeys(s.Keys); err != nil {
		return nil, err
	}
	return sel, nil
}

func (t *translation) visitSkip(s *queryir.Skip) (fragment.Input, error) {
	sel, err := t.visitInputExpressionEnsureSelect(s.Input.Expr, s.Input.Var)
	if err != nil {
		return nil, err
	}
	sel = t.wrapIfNotCompatible(sel, clauseSort)
	if sel.OrderBy, err = t.visitSortKeys(s.Keys); err != nil {
		return nil, err
	}
	sel = t.wrapIfNotCompatible(sel, clauseSkip)
	if sel.Skip, err = t.visit(s.Count); err != nil {
		return nil, err
	}
	return sel, nil
}

func (t *translation) visitLimit(l *queryir.Limit) (fragment.Input, error) {
	sel, err := t.visitInputExpressionEnsureSelect(l.Input, "")
	if err != nil {
		return nil, err
	}
	sel = t.wrapIfNotCompatible(sel, clauseLimit)
	if sel.Limit, err = t.visit(l.Count); err != nil {
		return nil, err
	}
	return sel, nil
}

func (t *translation) visitDistinct(d *queryir.Distinct) (fragment.Input, error) {
	sel, err := t.visitInputExpressionEnsureSelect(d.Input, "")
	if err != nil {
		return nil, err
	}
	sel = t.wrapIfNotCompatible(sel, clauseDistinct)
	if len(sel.Columns) == 0 {
		t.addDefaultColumns(sel)
	}
	sel.Distinct = true
	return sel, nil
}

func (t *translation) visitUnionAll(u *queryir.UnionAll) (fragment.Input, error) {
	left, err := t.visitInputExpressionEnsureSelect(u.Left, "")
	if err != nil {
		return nil, err
	}
	right, err := t.visitInputExpressionEnsureSelect(u.Right, "")
	if err != nil {
		return nil, err
	}
	for _, side := range []*fragment.Select{left, right} {
		if len(side.Columns) == 0 {
			t.addDefaultColumns(side)
		}
	}
	return &fragment.Union{Left: left, Right: right}, nil
}

// visitRow translates a row constructor used as a one-row input.
func (t *translation) visitRow(r *queryir.NewRow) (fragment.Input, error) {
	if len(r.Columns) == 0 {
		return &fragment.Select{Columns: []*fragment.Column{{Literal: fragment.NewLiteral("NULL"), Alias: "X"}}}, nil
	}
	cols, err := t.visitColumns(r.Columns)
	if err != nil {
		return nil, err
	}
	return &fragment.Select{Columns: cols}, nil
}

// visitApply translates CROSS/OUTER APPLY of a single-row apply side into
// correlated scalar subqueries, one per apply column. CROSS APPLY also
// drops input rows the apply side yields nothing for.
func (t *translation) visitApply(a *queryir.Apply) (fragment.Input, error) {
	input, err := t.visitInputExpression(a.Input.Expr, a.Input.Var)
	if err != nil {
		return nil, err
	}
	switch v := input.(type) {
	case *fragment.Select:
		t.wrap(v)
	case *fragment.Union:
		t.wrapUnion(v)
	case *fragment.Join:
		sel := &fragment.Select{From: v, Name: a.Input.Var}
		t.wrap(sel)
		input = sel
	}

	side, err := t.visitInputExpressionEnsureSelect(a.Apply.Expr, a.Apply.Var)
	if err != nil {
		return nil, err
	}
	if side.Limit == nil {
		return nil, unsupported(a, "apply over a right side not limited to a single row")
	}
	if len(side.Columns) == 0 {
		t.addDefaultColumns(side)
	}
	if len(side.Columns) == 0 {
		return nil, unsupported(a, "apply over a right side with unknown columns")
	}

	outer := &fragment.Select{From: input}
	cols, ok := t.defaultColumns(input)
	if !ok {
		cols = []*fragment.Column{{Table: input.InputName(), Name: "*"}}
	}
	for _, c := range side.Columns {
		sub := *side
		sub.Name = ""
		sub.Wrapped = true
		sub.Columns = []*fragment.Column{bareColumn(c)}
		out := c.OutputName()
		cols = append(cols, &fragment.Column{Literal: &sub, Alias: out, Path: []string{a.Apply.Var, out}})
	}
	addColumnsDeduped(outer, cols)

	if a.Kind == queryir.ApplyCross {
		probe := *side
		probe.Name = ""
		probe.Wrapped = false
		outer.Where = &fragment.Exists{Select: &probe}
	}
	// apply outputs are reachable through the outer select only
	t.scope.removeInput(side)
	t.wrap(outer)
	return outer, nil
}

// bareColumn strips the projection alias of c.
func bareColumn(c *fragment.Column) *fragment.Column {
	if c.Literal != nil {
		return &fragment.Column{Literal: c.Literal}
	}
	cp := c.Clone()
	cp.Alias = ""
	return cp
}

// addDefaultColumns fills an empty select list with the columns of its
// FROM input. When they are unknown the list stays empty and renders as *.
func (t *translation) addDefaultColumns(sel *fragment.Select) {
	cols, ok := t.defaultColumns(sel.From)
	if !ok {
		return
	}
	addColumnsDeduped(sel, cols)
}

// addColumnsDeduped appends cols to sel, renaming repeated output names
// Name1, Name2, ...
func addColumnsDeduped(sel *fragment.Select, cols []*fragment.Column) {
	seen := make(map[string]bool, len(sel.Columns)+len(cols))
	for _, c := range sel.Columns {
		seen[strings.ToLower(c.OutputName())] = true
	}
	for _, c := range cols {
		out := c.OutputName()
		if seen[strings.ToLower(out)] {
			for i := 1; ; i++ {
				candidate := fmt.Sprintf("%s%d", out, i)
				if !seen[strings.ToLower(candidate)] {
					c.Alias = candidate
					break
				}
			}
		}
		seen[strings.ToLower(c.OutputName())] = true
		sel.Columns = append(sel.Columns, c)
	}
}

// defaultColumns lists the columns an input exposes. Each column keeps
// the path it is reachable through so that references from enclosing
// queries still find it after renaming.
func (t *translation) defaultColumns(in fragment.Input) ([]*fragment.Column, bool) {
	switch v := in.(type) {
	case *fragment.Table:
		if len(v.Columns) == 0 {
			return nil, false
		}
		cols := make([]*fragment.Column, 0, len(v.Columns))
		for _, c := range v.Columns {
			path := []string{c.Name}
			if v.Name != "" {
				path = []string{v.Name, c.Name}
			}
			cols = append(cols, &fragment.Column{Table: v.Name, Name: c.Name, Path: path})
		}
		return cols, true
	case *fragment.Select:
		if len(v.Columns) == 0 {
			return nil, false
		}
		return t.defaultColumnsOf(v), true
	case *fragment.Join:
		left, ok := t.defaultColumns(v.Left)
		if !ok {
			return nil, false
		}
		right, ok := t.defaultColumns(v.Right)
		if !ok {
			return nil, false
		}
		return append(left, right...), true
	case *fragment.Union:
		if len(v.Left.Columns) == 0 {
			return nil, false
		}
		cols := make([]*fragment.Column, 0, len(v.Left.Columns))
		for _, c := range v.Left.Columns {
			out := c.OutputName()
			cols = append(cols, &fragment.Column{Table: v.Name, Name: out, Path: []string{v.Name, out}})
		}
		return cols, true
	}
	return nil, false
}

// defaultColumnsOf lists the outputs of a derived table as references
// qualified with its name.
func (t *translation) defaultColumnsOf(sel *fragment.Select) []*fragment.Column {
	cols := make([]*fragment.Column, 0, len(sel.Columns))
	for _, c := range sel.Columns {
		out := c.OutputName()
		path := []string{sel.Name, out}
		if len(c.Path) >= 2 {
			path = append([]string(nil), c.Path...)
		}
		cols = append(cols, &fragment.Column{Table: sel.Name, Name: out, Path: path})
	}
	return cols
}

// resolveColumn turns a complete property path into a column reference
// qualified with the alias it is visible under at this point.
func (t *translation) resolveColumn(node queryir.Node, path []string) (*fragment.Column, error) {
	in, idx, ok := t.scope.findInputFromProperties(path)
	if !ok {
		return nil, malformed(node, "property %s does not refer to an input in scope", strings.Join(path, "."))
	}
	col := &fragment.Column{Name: path[len(path)-1], Path: path}
	rest := path[idx+1:]

	for {
		switch v := in.(type) {
		case *fragment.Table:
			col.Table = v.Name
			return col, nil
		case *fragment.Select:
			if !v.Wrapped {
				if v.From == nil {
					return nil, malformed(node, "property %s read from a select without FROM", strings.Join(path, "."))
				}
				in = v.From
				continue
			}
			col.Table = v.Name
			if c, found := v.FindColumn(rest); found {
				col.Name = c.OutputName()
			}
			return col, nil
		case *fragment.Union:
			col.Table = v.Name
			return col, nil
		case *fragment.Join:
			if len(rest) >= 2 {
				if leaf := findJoinInput(v, rest[0]); leaf != nil {
					in = leaf
					rest = rest[1:]
					continue
				}
			}
			return col, nil
		default:
			return nil, malformed(node, "property %s read from %T", strings.Join(path, "."), in)
		}
	}
}

// findJoinInput finds the join member named name, searching nested joins.
func findJoinInput(j *fragment.Join, name string) fragment.Input {
	for _, side := range []fragment.Input{j.Left, j.Right} {
		if strings.EqualFold(side.InputName(), name) {
			return side
		}
		if nested, ok := side.(*fragment.Join); ok {
			if found := findJoinInput(nested, name); found != nil {
				return found
			}
		}
	}
	return nil
}
