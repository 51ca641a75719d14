package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersScan() *Scan {
	return &Scan{Target: &EntitySet{Name: "orders"}}
}

func TestValidate_ValidQuery(t *testing.T) {
	tree := &QueryTree{Query: &Project{
		Input: Binding{Var: "Filter1", Expr: &Filter{
			Input:     Binding{Var: "Extent1", Expr: ordersScan()},
			Predicate: &Comparison{Op: OpGreater, Left: Prop("Extent1", "amount"), Right: &Constant{Type: TypeInt32, Value: int32(100)}},
		}},
		Projection: &NewRow{Columns: []Column{{Name: "id", Expr: Prop("Filter1", "id")}}},
	}}

	result := Validate(tree)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues)
}

func TestValidate_UnboundVariable(t *testing.T) {
	tree := &QueryTree{Query: &Filter{
		Input:     Binding{Var: "Extent1", Expr: ordersScan()},
		Predicate: &IsNull{Arg: Prop("Extent2", "amount")},
	}}

	result := Validate(tree)

	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], `variable "Extent2" is not bound`)
}

func TestValidate_CaseBranchMismatch(t *testing.T) {
	one := &Constant{Type: TypeInt32, Value: int32(1)}
	tree := &QueryTree{Query: &Case{
		When: []Node{&Comparison{Op: OpEqual, Left: one, Right: one}},
		Then: []Node{one, one},
	}}

	result := Validate(tree)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Issues[0], "1 WHEN branches but 2 THEN branches")
}

func TestValidate_UnsupportedKinds(t *testing.T) {
	tests := []struct {
		name string
		node Node
	}{
		{"except", &Except{Left: ordersScan(), Right: ordersScan()}},
		{"intersect", &Intersect{Left: ordersScan(), Right: ordersScan()}},
		{"deref", &Deref{Arg: &Null{}}},
		{"full outer join", &Join{
			Kind:      JoinFullOuter,
			Left:      Binding{Var: "a", Expr: ordersScan()},
			Right:     Binding{Var: "b", Expr: ordersScan()},
			Condition: &Comparison{Op: OpEqual, Left: Prop("a", "id"), Right: Prop("b", "id")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(&QueryTree{Query: tt.node})
			assert.False(t, result.Valid)
			assert.Contains(t, result.Issues[0], "not supported")
		})
	}
}

func TestValidate_NiladicWithArguments(t *testing.T) {
	tree := &QueryTree{Query: &Call{
		Function: &Function{Namespace: "Store", Name: "CURRENT_USER", BuiltIn: true, Niladic: true},
		Args:     []Node{&Constant{Type: TypeInt32, Value: int32(1)}},
	}}

	result := Validate(tree)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Issues[0], "niladic")
}

func TestValidate_GroupByScopes(t *testing.T) {
	tree := &QueryTree{Query: &GroupBy{
		Input: GroupBinding{Var: "Extent1", GroupVar: "Group1", Expr: ordersScan()},
		Keys:  []Column{{Name: "K1", Expr: Prop("Extent1", "customer")}},
		Aggregates: []Aggregate{{
			Name:     "A1",
			Function: &Function{Namespace: CanonicalNamespace, Name: "Sum"},
			// The key variable is not visible to aggregates.
			Args: []Node{Prop("Extent1", "amount")},
		}},
	}}

	result := Validate(tree)

	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], `"Extent1" is not bound`)
}

func TestValidate_DMLNeedsPredicate(t *testing.T) {
	tree := &DeleteTree{Target: Binding{Var: "t", Expr: ordersScan()}}

	result := Validate(tree)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Issues, "delete: predicate is required")
}
