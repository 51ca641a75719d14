package queryir

// Node is one operator of a query plan.
//
// This is a sealed interface - only types in this package implement it.
// Relational nodes (Scan, Project, Filter, ...) produce collections of rows;
// scalar nodes (VarRef, Property, Constant, ...) produce values.
type Node interface {
	planNode() // Marker method - seals interface to this package
}

// Binding names the rows of an input collection so that scalar
// expressions over the input can refer to them through VarRef.
type Binding struct {
	Expr Node
	Var  string
}

// GroupBinding is the input of a GroupBy. Var names each input row for the
// grouping keys; GroupVar names the rows of one group for aggregate
// arguments.
type GroupBinding struct {
	Expr     Node
	Var      string
	GroupVar string
}

// Column is a named expression of a row constructor or a grouping key.
type Column struct {
	Name string
	Expr Node
}

// Aggregate is one aggregate computed by a GroupBy.
type Aggregate struct {
	Name     string
	Function *Function
	Args     []Node
	Distinct bool
}

// SortKey is one ORDER BY item.
type SortKey struct {
	Expr       Node
	Descending bool
}

// ---------------------------------------------------------------------------
// Relational nodes
// ---------------------------------------------------------------------------

// Scan reads every row of a catalog entity set.
type Scan struct {
	Target *EntitySet
}

// Project computes one output row per input row.
//
//	SELECT <projection columns> FROM <input>
type Project struct {
	Input      Binding
	Projection *NewRow
}

// Filter keeps the input rows for which Predicate holds.
type Filter struct {
	Input     Binding
	Predicate Node
}

// Join combines two inputs. Condition is nil for JoinCross.
type Join struct {
	Kind      JoinKind
	Left      Binding
	Right     Binding
	Condition Node
}

// GroupBy groups the input by Keys and computes Aggregates per group.
// The output row lists the keys followed by the aggregates.
type GroupBy struct {
	Input      GroupBinding
	Keys       []Column
	Aggregates []Aggregate
}

// Sort orders its input.
type Sort struct {
	Input Binding
	Keys  []SortKey
}

// Skip orders its input by Keys and drops the first Count rows.
type Skip struct {
	Input Binding
	Keys  []SortKey
	Count Node
}

// Limit keeps the first Count rows of Input.
type Limit struct {
	Input Node
	Count Node
}

// Distinct removes duplicate rows.
type Distinct struct {
	Input Node
}

// Apply evaluates Apply once per row of Input. The apply side may refer to
// the input row variable.
type Apply struct {
	Kind  ApplyKind
	Input Binding
	Apply Binding
}

// UnionAll concatenates two inputs of the same row shape.
type UnionAll struct {
	Left  Node
	Right Node
}

// Element yields the single value of a one-row, one-column input as a
// scalar.
type Element struct {
	Input Node
}

// NewRow constructs a row. As the projection of a Project it lists the
// output columns; as a relational input it is a single-row collection.
type NewRow struct {
	Columns []Column
}

// Except is the set difference of two inputs. Not expressible in MySQL.
type Except struct {
	Left  Node
	Right Node
}

// Intersect is the set intersection of two inputs. Not expressible in MySQL.
type Intersect struct {
	Left  Node
	Right Node
}

// ---------------------------------------------------------------------------
// Scalar nodes
// ---------------------------------------------------------------------------

// VarRef refers to the row bound to a Binding variable.
type VarRef struct {
	Name string
}

// Property reads a named member of Instance, which is a VarRef or another
// Property.
type Property struct {
	Instance Node
	Name     string
}

// ParamRef refers to a parameter supplied by the caller at execution time.
type ParamRef struct {
	Name string
	Type TypeKind
}

// Constant is a typed literal value.
type Constant struct {
	Type  TypeKind
	Value any
}

// Null is a typed NULL.
type Null struct {
	Type TypeKind
}

// Call invokes a canonical or catalog function.
type Call struct {
	Function *Function
	Args     []Node
}

// Case is a searched CASE expression. When and Then must have equal length.
type Case struct {
	When []Node
	Then []Node
	Else Node
}

// Like matches Arg against Pattern. Escape is optional.
type Like struct {
	Arg     Node
	Pattern Node
	Escape  Node
}

// IsNull tests Arg for NULL.
type IsNull struct {
	Arg Node
}

// IsEmpty tests whether a relational input has no rows.
type IsEmpty struct {
	Input Node
}

// Not negates a boolean expression.
type Not struct {
	Arg Node
}

// And is boolean conjunction.
type And struct {
	Left  Node
	Right Node
}

// Or is boolean disjunction.
type Or struct {
	Left  Node
	Right Node
}

// Comparison compares two scalars.
type Comparison struct {
	Op    CompareOp
	Left  Node
	Right Node
}

// Arithmetic applies an arithmetic operator. OpNegate takes one argument,
// every other operator two.
type Arithmetic struct {
	Op   ArithOp
	Args []Node
}

// Cast converts Arg to Type. MySQL translation passes the operand through.
type Cast struct {
	Arg  Node
	Type TypeKind
}

// Navigate follows a relationship navigation. Not expressible in MySQL.
type Navigate struct {
	Source       Node
	Relationship string
}

// Deref dereferences an entity reference. Not expressible in MySQL.
type Deref struct {
	Arg Node
}

// Ref builds an entity reference. Not expressible in MySQL.
type Ref struct {
	Arg Node
}

// OfType filters an input by entity type. Not expressible in MySQL.
type OfType struct {
	Input Node
	Type  string
}

func (*Scan) planNode()       {}
func (*Project) planNode()    {}
func (*Filter) planNode()     {}
func (*Join) planNode()       {}
func (*GroupBy) planNode()    {}
func (*Sort) planNode()       {}
func (*Skip) planNode()       {}
func (*Limit) planNode()      {}
func (*Distinct) planNode()   {}
func (*Apply) planNode()      {}
func (*UnionAll) planNode()   {}
func (*Element) planNode()    {}
func (*NewRow) planNode()     {}
func (*Except) planNode()     {}
func (*Intersect) planNode()  {}
func (*VarRef) planNode()     {}
func (*Property) planNode()   {}
func (*ParamRef) planNode()   {}
func (*Constant) planNode()   {}
func (*Null) planNode()       {}
func (*Call) planNode()       {}
func (*Case) planNode()       {}
func (*Like) planNode()       {}
func (*IsNull) planNode()     {}
func (*IsEmpty) planNode()    {}
func (*Not) planNode()        {}
func (*And) planNode()        {}
func (*Or) planNode()         {}
func (*Comparison) planNode() {}
func (*Arithmetic) planNode() {}
func (*Cast) planNode()       {}
func (*Navigate) planNode()   {}
func (*Deref) planNode()      {}
func (*Ref) planNode()        {}
func (*OfType) planNode()     {}

// Prop builds a property path from a variable name and member names:
// Prop("Extent1", "amount") is Extent1.amount.
func Prop(v string, names ...string) Node {
	var n Node = &VarRef{Name: v}
	for _, name := range names {
		n = &Property{Instance: n, Name: name}
	}
	return n
}
