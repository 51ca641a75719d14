package queryir

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCatalog struct {
	sets  map[string]*EntitySet
	funcs map[string]*Function
}

func (c mapCatalog) EntitySet(name string) (*EntitySet, bool) {
	s, ok := c.sets[name]
	return s, ok
}

func (c mapCatalog) Function(name string) (*Function, bool) {
	f, ok := c.funcs[name]
	return f, ok
}

func TestDecodeYAML_FilteredProjection(t *testing.T) {
	src := `
query:
  project:
    input:
      as: Filter1
      expr:
        filter:
          input:
            as: Extent1
            expr: {scan: orders}
          where:
            gt: [{prop: Extent1.amount}, {const: {type: int32, value: 100}}]
    columns:
      - {name: id, expr: {prop: Filter1.id}}
      - {name: amount, expr: {prop: Filter1.amount}}
`
	orders := &EntitySet{Name: "orders", Columns: []ColumnInfo{{Name: "id"}, {Name: "amount"}}}
	cat := mapCatalog{sets: map[string]*EntitySet{"orders": orders}}

	tree, err := DecodeYAML([]byte(src), cat)
	require.NoError(t, err)

	qt, ok := tree.(*QueryTree)
	require.True(t, ok)
	proj, ok := qt.Query.(*Project)
	require.True(t, ok)
	assert.Equal(t, "Filter1", proj.Input.Var)
	require.Len(t, proj.Projection.Columns, 2)
	assert.Equal(t, Prop("Filter1", "id"), proj.Projection.Columns[0].Expr)

	filter, ok := proj.Input.Expr.(*Filter)
	require.True(t, ok)
	scan, ok := filter.Input.Expr.(*Scan)
	require.True(t, ok)
	assert.Same(t, orders, scan.Target, "scan should resolve through the catalog")

	cmp, ok := filter.Predicate.(*Comparison)
	require.True(t, ok)
	assert.Equal(t, OpGreater, cmp.Op)
	assert.Equal(t, &Constant{Type: TypeInt32, Value: int32(100)}, cmp.Right)
}

func TestDecodeYAML_ConstantKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"int64", `{type: int64, value: 9007199254740993}`, int64(9007199254740993)},
		{"byte", `{type: byte, value: 255}`, uint8(255)},
		{"double", `{type: double, value: 0.1}`, 0.1},
		{"boolean", `{type: boolean, value: true}`, true},
		{"string", `{type: string, value: "O'Brien"}`, "O'Brien"},
		{"decimal", `{type: decimal, value: "12.3400"}`, decimal.RequireFromString("12.3400")},
		{"guid", `{type: guid, value: "6F9619FF-8B86-D011-B42D-00C04FC964FF"}`, uuid.MustParse("6f9619ff-8b86-d011-b42d-00c04fc964ff")},
		{"binary", `{type: binary, value: "AQID"}`, []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := DecodeYAML([]byte("query: {const: "+tt.src+"}"), nil)
			require.NoError(t, err)
			c, ok := tree.(*QueryTree).Query.(*Constant)
			require.True(t, ok)
			if dec, ok := tt.want.(decimal.Decimal); ok {
				assert.True(t, dec.Equal(c.Value.(decimal.Decimal)))
				return
			}
			assert.Equal(t, tt.want, c.Value)
		})
	}
}

func TestDecodeYAML_IntegerOutOfRange(t *testing.T) {
	_, err := DecodeYAML([]byte(`query: {const: {type: int16, value: 40000}}`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestDecodeYAML_UnknownField(t *testing.T) {
	_, err := DecodeYAML([]byte(`
query:
  filter:
    input: {as: e, expr: {scan: t}}
    predicate: {isNull: {prop: e.x}}
`), nil)
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Message, `unknown field "predicate"`)
	assert.Equal(t, 5, de.Line)
}

func TestDecodeYAML_OrChainFoldsLeft(t *testing.T) {
	tree, err := DecodeYAML([]byte(`
query:
  or:
    - eq: [{prop: e.a}, {const: {type: int32, value: 1}}]
    - eq: [{prop: e.a}, {const: {type: int32, value: 2}}]
    - eq: [{prop: e.a}, {const: {type: int32, value: 3}}]
`), nil)
	require.NoError(t, err)

	outer, ok := tree.(*QueryTree).Query.(*Or)
	require.True(t, ok)
	_, leftIsOr := outer.Left.(*Or)
	assert.True(t, leftIsOr, "a OR b OR c should decode as (a OR b) OR c")
}

func TestDecodeYAML_FunctionResolution(t *testing.T) {
	discount := &Function{Namespace: "Shop", Name: "Discount", StoreName: "discount_for", BuiltIn: false}
	cat := mapCatalog{funcs: map[string]*Function{"Shop.Discount": discount}}

	tree, err := DecodeYAML([]byte(`
query:
  call:
    function: Shop.Discount
    args: [{param: customer}]
`), cat)
	require.NoError(t, err)
	call := tree.(*QueryTree).Query.(*Call)
	assert.Same(t, discount, call.Function)
	assert.Equal(t, &ParamRef{Name: "customer"}, call.Args[0])

	tree, err = DecodeYAML([]byte(`query: {call: {function: Edm.Length, args: [{prop: e.name}]}}`), cat)
	require.NoError(t, err)
	fn := tree.(*QueryTree).Query.(*Call).Function
	assert.True(t, fn.IsCanonical())
	assert.Equal(t, "Length", fn.Name)
}

func TestDecodeYAML_InlineEntitySet(t *testing.T) {
	tree, err := DecodeYAML([]byte(`
query:
  scan:
    name: Orders
    table: order_rows
    columns:
      - id
      - {name: total, type: decimal, nullable: false}
`), nil)
	require.NoError(t, err)

	set := tree.(*QueryTree).Query.(*Scan).Target
	assert.Equal(t, "order_rows", set.TableName())
	require.Len(t, set.Columns, 2)
	assert.True(t, set.Columns[0].Nullable)
	assert.Equal(t, TypeDecimal, set.Columns[1].Type)
	assert.False(t, set.Columns[1].Nullable)
}

func TestDecodeYAML_DML(t *testing.T) {
	tree, err := DecodeYAML([]byte(`
update:
  target: {as: t, expr: {scan: accounts}}
  where: {eq: [{prop: t.id}, {const: {type: int32, value: 7}}]}
  set:
    - column: {prop: t.balance}
      value: {const: {type: decimal, value: "10.50"}}
`), nil)
	require.NoError(t, err)

	up, ok := tree.(*UpdateTree)
	require.True(t, ok)
	assert.Equal(t, "t", up.Target.Var)
	require.Len(t, up.SetClauses, 1)
	assert.Equal(t, Prop("t", "balance"), up.SetClauses[0].Property)
}

func TestParseTypeKind(t *testing.T) {
	k, err := ParseTypeKind("DateTimeOffset")
	require.NoError(t, err)
	assert.Equal(t, TypeDateTimeOffset, k)
	assert.Equal(t, "datetimeoffset", k.String())

	_, err = ParseTypeKind("varchar")
	assert.Error(t, err)
}
