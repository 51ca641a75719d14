package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/queryir"
)

func TestLoad_ShopCatalog(t *testing.T) {
	cat, err := Load("testdata/shop")
	require.NoError(t, err)

	assert.Equal(t, []string{"customers", "orders", "recent"}, cat.EntitySetNames())
	assert.Equal(t, []string{"Shop.Discount", "Store.CURRENT_USER"}, cat.FunctionNames())

	orders, ok := cat.EntitySet("Orders")
	require.True(t, ok, "lookup is case-insensitive")
	assert.Equal(t, "tbl_orders", orders.TableName())
	require.Len(t, orders.Columns, 4)
	assert.Equal(t, []string{"id", "amount", "customer", "placed"}, columnNames(orders), "declaration order is kept")

	id, ok := orders.Identity()
	require.True(t, ok)
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, queryir.TypeInt32, id.Type)

	customer, _ := orders.Column("customer")
	assert.True(t, customer.Nullable)

	customers, _ := cat.EntitySet("customers")
	assert.Equal(t, "crm", customers.Schema)

	recent, _ := cat.EntitySet("recent")
	assert.Contains(t, recent.DefiningQuery, "INTERVAL 7 DAY")

	fn, ok := cat.Function("shop.discount")
	require.True(t, ok)
	assert.Equal(t, "discount_for", fn.StoreName)
	assert.False(t, fn.BuiltIn)

	user, _ := cat.Function("Store.CURRENT_USER")
	assert.True(t, user.BuiltIn)
	assert.True(t, user.Niladic)
}

func columnNames(es *queryir.EntitySet) []string {
	names := make([]string, len(es.Columns))
	for i, c := range es.Columns {
		names[i] = c.Name
	}
	return names
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load("testdata/nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog directory")
}

func TestParse_UnknownColumnType(t *testing.T) {
	_, err := Parse("bad.cue", []byte(`
entitySet: t: columns: {
	id: {type: "int32"}
	price: {type: "money"}
}
`))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "type", ce.Field)
	assert.Contains(t, ce.Message, `"money"`)
	assert.True(t, ce.Pos.IsValid())
	assert.Equal(t, 4, ce.Pos.Line())
}

func TestParse_TwoIdentityColumns(t *testing.T) {
	_, err := Parse("ids.cue", []byte(`
entitySet: t: columns: {
	a: {type: "int32", identity: true}
	b: {type: "int32", identity: true}
}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most one identity column")
}

func TestParse_CanonicalNamespaceIsReserved(t *testing.T) {
	_, err := Parse("edm.cue", []byte(`function: Edm: Length: {}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be redefined")
}

func TestParse_CUEConflictHasPosition(t *testing.T) {
	_, err := Parse("conflict.cue", []byte(`
entitySet: t: table: "a"
entitySet: t: table: "b"
`))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
}

func TestParse_WrongFieldKind(t *testing.T) {
	_, err := Parse("kind.cue", []byte(`entitySet: t: columns: id: nullable: "yes"`))
	require.Error(t, err)
}

func TestEmpty(t *testing.T) {
	cat := Empty()
	_, ok := cat.EntitySet("orders")
	assert.False(t, ok)
	assert.Empty(t, cat.EntitySetNames())
}
