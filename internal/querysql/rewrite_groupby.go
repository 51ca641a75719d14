package querysql

import (
	"strings"

	"github.com/roach88/plansql/internal/fragment"
)

// aggregateNames are the functions a per-key subquery may compute.
var aggregateNames = map[string]bool{
	"AVG": true, "COUNT": true, "MAX": true, "MIN": true, "SUM": true,
	"STDDEV": true, "STDDEV_POP": true, "STDDEV_SAMP": true,
	"VARIANCE": true, "VAR_POP": true, "VAR_SAMP": true,
}

// flattenGroupBy recognises the nested form a plan builder produces for
// "group by key, aggregate per group":
//
//	SELECT ... FROM (
//	  SELECT `Keys`.`k` AS c0,
//	         (SELECT AGG(x) FROM `T` AS `B` WHERE `Keys`.`k` = `B`.`k`) AS c1
//	  FROM (SELECT DISTINCT `A`.`k` FROM `T` AS `A`) AS `Keys`
//	) AS `M`
//
// and returns a copy of outer reading the equivalent flat form instead:
//
//	SELECT ... FROM (
//	  SELECT `B`.`k` AS c0, AGG(x) AS c1 FROM `T` AS `B` GROUP BY `B`.`k`
//	) AS `M`
//
// The two forms differ for NULL keys unless the correlation is null-safe
// or the key column is NOT NULL, so only those cases are rewritten. On any
// mismatch outer is returned unchanged with ok false.
func flattenGroupBy(outer *fragment.Select) (*fragment.Select, bool) {
	if outer == nil {
		return outer, false
	}
	middle, ok := outer.From.(*fragment.Select)
	if !ok || !middle.Wrapped || len(middle.Columns) != 2 || !plain(middle) || middle.Distinct {
		return outer, false
	}

	keys, ok := middle.From.(*fragment.Select)
	if !ok || !keys.Wrapped || !keys.Distinct || len(keys.Columns) != 1 || !plain(keys) {
		return outer, false
	}
	keyTable, ok := keys.From.(*fragment.Table)
	if !ok {
		return outer, false
	}
	key := keys.Columns[0]
	if key.Literal != nil || !strings.EqualFold(key.Table, keyTable.Name) {
		return outer, false
	}

	keyOut := middle.Columns[0]
	if keyOut.Literal != nil || !strings.EqualFold(keyOut.Table, keys.Name) ||
		!strings.EqualFold(keyOut.Name, key.OutputName()) {
		return outer, false
	}

	aggOut := middle.Columns[1]
	sub, ok := aggOut.Literal.(*fragment.Select)
	if !ok || !sub.Wrapped || len(sub.Columns) != 1 || len(sub.GroupBy) > 0 ||
		len(sub.OrderBy) > 0 || sub.Limit != nil || sub.Skip != nil || sub.Distinct {
		return outer, false
	}
	aggTable, ok := sub.From.(*fragment.Table)
	if !ok || !aggTable.SameSource(keyTable) {
		return outer, false
	}
	agg, ok := sub.Columns[0].Literal.(*fragment.Function)
	if !ok || !isAggregateOver(agg, aggTable.Name) {
		return outer, false
	}

	outerKey := &fragment.Column{Table: keys.Name, Name: key.OutputName()}
	innerKey := &fragment.Column{Table: aggTable.Name, Name: key.Name}
	if !correlatesOnKey(sub.Where, outerKey, innerKey, aggTable) {
		return outer, false
	}

	flat := &fragment.Select{
		Name:    middle.Name,
		Wrapped: true,
		Columns: []*fragment.Column{
			{Table: aggTable.Name, Name: key.Name, Alias: keyOut.OutputName()},
			{Literal: agg, Alias: aggOut.OutputName()},
		},
		From:    aggTable,
		GroupBy: []fragment.Fragment{&fragment.Column{Table: aggTable.Name, Name: key.Name}},
	}
	cp := *outer
	cp.From = flat
	return &cp, true
}

// plain reports whether sel has no WHERE, grouping, ordering or paging.
func plain(sel *fragment.Select) bool {
	return sel.Where == nil && len(sel.GroupBy) == 0 && len(sel.OrderBy) == 0 &&
		sel.Limit == nil && sel.Skip == nil
}

// isAggregateOver reports whether fn is a known aggregate whose argument
// reads only table (or is a literal).
func isAggregateOver(fn *fragment.Function, table string) bool {
	if fn.Quoted || fn.Niladic || len(fn.Args) != 1 || !aggregateNames[strings.ToUpper(fn.Name)] {
		return false
	}
	switch a := fn.Args[0].(type) {
	case *fragment.Literal:
		return true
	case *fragment.Column:
		return a.Literal == nil && strings.EqualFold(a.Table, table)
	}
	return false
}

// correlatesOnKey matches the subquery predicate tying the aggregate to
// one key. Plain equality is accepted when the key column is NOT NULL;
// the null-safe form
//
//	(a = b) OR ((a IS NULL) AND (b IS NULL))
//
// is accepted for any column.
func correlatesOnKey(where fragment.Fragment, outerKey, innerKey *fragment.Column, table *fragment.Table) bool {
	if isKeyEquality(where, outerKey, innerKey) {
		col, ok := table.Column(innerKey.Name)
		return ok && !col.Nullable
	}

	or, ok := where.(*fragment.Binary)
	if !ok || or.Negated || !strings.EqualFold(or.Op, "OR") {
		return false
	}
	if !isKeyEquality(or.Left, outerKey, innerKey) {
		return false
	}
	and, ok := or.Right.(*fragment.Binary)
	if !ok || and.Negated || !strings.EqualFold(and.Op, "AND") {
		return false
	}
	l, lok := and.Left.(*fragment.IsNull)
	r, rok := and.Right.(*fragment.IsNull)
	if !lok || !rok || l.Negated || r.Negated {
		return false
	}
	return pairMatches(l.Arg, r.Arg, outerKey, innerKey)
}

func isKeyEquality(f fragment.Fragment, outerKey, innerKey *fragment.Column) bool {
	b, ok := f.(*fragment.Binary)
	if !ok || b.Negated || b.Op != "=" {
		return false
	}
	return pairMatches(b.Left, b.Right, outerKey, innerKey)
}

// pairMatches reports whether {x, y} is {a, b} in either order.
func pairMatches(x, y fragment.Fragment, a, b *fragment.Column) bool {
	return (sameColumn(x, a) && sameColumn(y, b)) || (sameColumn(x, b) && sameColumn(y, a))
}

func sameColumn(f fragment.Fragment, want *fragment.Column) bool {
	c, ok := f.(*fragment.Column)
	return ok && c.Literal == nil &&
		strings.EqualFold(c.Table, want.Table) && strings.EqualFold(c.Name, want.Name)
}
