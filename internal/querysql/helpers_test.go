package querysql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/queryir"
)

// Test fixtures shared by the generator tests.

var (
	ordersSet = &queryir.EntitySet{Name: "orders", Columns: []queryir.ColumnInfo{
		{Name: "id", Type: queryir.TypeInt32, Identity: true},
		{Name: "amount", Type: queryir.TypeDecimal},
		{Name: "customer", Type: queryir.TypeString, Nullable: true},
	}}
	tSet = &queryir.EntitySet{Name: "t", Columns: []queryir.ColumnInfo{
		{Name: "id", Type: queryir.TypeInt32},
		{Name: "name", Type: queryir.TypeString, Nullable: true},
	}}
	aSet = &queryir.EntitySet{Name: "a", Columns: []queryir.ColumnInfo{
		{Name: "id", Type: queryir.TypeInt32},
		{Name: "name", Type: queryir.TypeString},
	}}
	bSet = &queryir.EntitySet{Name: "b", Columns: []queryir.ColumnInfo{
		{Name: "id", Type: queryir.TypeInt32},
		{Name: "aid", Type: queryir.TypeInt32},
	}}
)

func scan(es *queryir.EntitySet) *queryir.Scan {
	return &queryir.Scan{Target: es}
}

func bind(v string, n queryir.Node) queryir.Binding {
	return queryir.Binding{Var: v, Expr: n}
}

func i32(v int32) *queryir.Constant {
	return &queryir.Constant{Type: queryir.TypeInt32, Value: v}
}

func str(v string) *queryir.Constant {
	return &queryir.Constant{Type: queryir.TypeString, Value: v}
}

func cmp(op queryir.CompareOp, l, r queryir.Node) *queryir.Comparison {
	return &queryir.Comparison{Op: op, Left: l, Right: r}
}

func eq(l, r queryir.Node) *queryir.Comparison {
	return cmp(queryir.OpEqual, l, r)
}

func call(name string, args ...queryir.Node) *queryir.Call {
	return &queryir.Call{
		Function: &queryir.Function{Namespace: queryir.CanonicalNamespace, Name: name},
		Args:     args,
	}
}

func row(cols ...queryir.Column) *queryir.NewRow {
	return &queryir.NewRow{Columns: cols}
}

func col(name string, expr queryir.Node) queryir.Column {
	return queryir.Column{Name: name, Expr: expr}
}

func filterScan(es *queryir.EntitySet, v string, pred queryir.Node) *queryir.Filter {
	return &queryir.Filter{Input: bind(v, scan(es)), Predicate: pred}
}

// generate runs a read query through a fresh generator.
func generate(t *testing.T, q queryir.Node) (string, []Parameter) {
	t.Helper()
	sql, params, err := Generate(&queryir.QueryTree{Query: q})
	require.NoError(t, err)
	return sql, params
}

// whereOf returns the SQL of a filtered scan of t over pred.
func whereOf(t *testing.T, pred queryir.Node) (string, []Parameter) {
	t.Helper()
	return generate(t, filterScan(tSet, "Extent1", pred))
}

const tSelect = "SELECT `Extent1`.`id`, `Extent1`.`name` FROM `t` AS `Extent1`"
