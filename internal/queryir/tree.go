package queryir

// Tree is a complete command handed to the generator.
//
// This is a sealed interface - only types in this package implement it.
type Tree interface {
	treeNode() // Marker method - seals interface to this package
}

// QueryTree is a read query.
type QueryTree struct {
	Query Node
}

// SetClause assigns Value to the target column named by Property.
type SetClause struct {
	Property Node
	Value    Node
}

// InsertTree inserts one row into Target. When Returning is set the
// generated batch reads back the inserted row.
type InsertTree struct {
	Target     Binding
	SetClauses []SetClause
	Returning  *NewRow
}

// UpdateTree updates the rows of Target matching Predicate.
type UpdateTree struct {
	Target     Binding
	Predicate  Node
	SetClauses []SetClause
	Returning  *NewRow
}

// DeleteTree deletes the rows of Target matching Predicate.
type DeleteTree struct {
	Target    Binding
	Predicate Node
}

// FunctionTree calls a stored procedure with caller-supplied parameters.
type FunctionTree struct {
	Function   *Function
	Parameters []string
}

func (*QueryTree) treeNode()    {}
func (*InsertTree) treeNode()   {}
func (*UpdateTree) treeNode()   {}
func (*DeleteTree) treeNode()   {}
func (*FunctionTree) treeNode() {}
