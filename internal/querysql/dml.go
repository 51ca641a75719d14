package querysql

import (
	"strings"

	"github.com/roach88/plansql/internal/fragment"
	"github.com/roach88/plansql/internal/queryir"
)

// dmlTarget resolves the target of a modification. The table is left
// unnamed so that column references render unqualified.
func (t *translation) dmlTarget(node any, b queryir.Binding) (*fragment.Table, *queryir.EntitySet, error) {
	scan, ok := b.Expr.(*queryir.Scan)
	if !ok || scan.Target == nil {
		return nil, nil, malformed(node, "modification target must be a scan of an entity set")
	}
	if scan.Target.DefiningQuery != "" {
		return nil, nil, unsupported(node, "cannot modify %s: it is defined by a query", scan.Target.Name)
	}
	tbl := newTable(scan.Target)
	t.scope.add(b.Var, tbl)
	return tbl, scan.Target, nil
}

// setClauses renders the target columns and values of SET clauses.
func (t *translation) setClauses(node any, clauses []queryir.SetClause) ([]*fragment.Column, []fragment.Fragment, error) {
	cols := make([]*fragment.Column, 0, len(clauses))
	vals := make([]fragment.Fragment, 0, len(clauses))
	for _, sc := range clauses {
		f, err := t.visit(sc.Property)
		if err != nil {
			return nil, nil, err
		}
		col, ok := f.(*fragment.Column)
		if !ok || col.Literal != nil {
			return nil, nil, malformed(node, "set clause target is not a column")
		}
		v, err := t.visit(sc.Value)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, col)
		vals = append(vals, v)
	}
	return cols, vals, nil
}

func (t *translation) generateInsert(ins *queryir.InsertTree) (string, error) {
	tbl, es, err := t.dmlTarget(ins, ins.Target)
	if err != nil {
		return "", err
	}
	cols, vals, err := t.setClauses(ins, ins.SetClauses)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	tbl.WriteSQL(&b)
	if len(cols) == 0 {
		b.WriteString(" VALUES ()")
	} else {
		b.WriteByte('(')
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fragment.QuoteIdentifier(c.Name))
		}
		b.WriteString(") VALUES (")
		(&fragment.List{Items: vals}).WriteSQL(&b)
		b.WriteByte(')')
	}

	if ins.Returning != nil {
		id, ok := es.Identity()
		if !ok {
			return "", unsupported(ins, "reading back an insert into %s needs an identity column", es.Name)
		}
		where := &fragment.Binary{
			Left: fragment.NewLiteral("row_count() > 0"),
			Op:   "AND",
			Right: &fragment.Binary{
				Left:  &fragment.Column{Name: id.Name},
				Op:    "=",
				Right: fragment.NewLiteral("last_insert_id()"),
			},
		}
		if err := t.writeReturning(&b, ins, tbl, ins.Returning, where); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (t *translation) generateUpdate(up *queryir.UpdateTree) (string, error) {
	tbl, _, err := t.dmlTarget(up, up.Target)
	if err != nil {
		return "", err
	}
	if len(up.SetClauses) == 0 {
		return "", malformed(up, "update without set clauses")
	}
	cols, vals, err := t.setClauses(up, up.SetClauses)
	if err != nil {
		return "", err
	}
	var pred fragment.Fragment
	if up.Predicate != nil {
		if pred, err = t.visit(up.Predicate); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	tbl.WriteSQL(&b)
	b.WriteString(" SET ")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fragment.QuoteIdentifier(c.Name))
		b.WriteString(" = ")
		vals[i].WriteSQL(&b)
	}
	if pred != nil {
		b.WriteString(" WHERE ")
		pred.WriteSQL(&b)
	}

	if up.Returning != nil {
		var where fragment.Fragment = fragment.NewLiteral("row_count() > 0")
		if pred != nil {
			where = &fragment.Binary{Left: where, Op: "AND", Right: pred, WrapRight: true}
		}
		if err := t.writeReturning(&b, up, tbl, up.Returning, where); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (t *translation) generateDelete(del *queryir.DeleteTree) (string, error) {
	tbl, _, err := t.dmlTarget(del, del.Target)
	if err != nil {
		return "", err
	}
	if del.Predicate == nil {
		return "", malformed(del, "delete without a predicate")
	}
	pred, err := t.visit(del.Predicate)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("DELETE FROM ")
	tbl.WriteSQL(&b)
	b.WriteString(" WHERE ")
	pred.WriteSQL(&b)
	return b.String(), nil
}

// writeReturning appends the statement that reads back the modified row.
func (t *translation) writeReturning(b *strings.Builder, node any, tbl *fragment.Table, row *queryir.NewRow, where fragment.Fragment) error {
	cols, err := t.visitColumns(row.Columns)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return malformed(node, "returning row without columns")
	}
	sel := &fragment.Select{Columns: cols, From: tbl, Where: where}
	b.WriteString(";\n")
	sel.WriteSQL(b)
	return nil
}

// generateFunction renders a stored procedure call over caller-supplied
// parameters.
func (t *translation) generateFunction(fn *queryir.FunctionTree) (string, error) {
	if fn.Function == nil {
		return "", malformed(fn, "function call without a function")
	}
	name := fn.Function.StoreName
	if name == "" {
		name = fn.Function.Name
	}
	if !fn.Function.BuiltIn {
		name = fragment.QuoteIdentifier(name)
	}

	var b strings.Builder
	b.WriteString("CALL ")
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range fn.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("@" + p)
	}
	b.WriteByte(')')
	return b.String(), nil
}
