package queryir

import (
	"fmt"
)

// ValidationResult is the pre-flight report for a plan.
//
// The generator fails on the first problem it meets; Validate walks the
// whole tree and reports every problem it can find without generating SQL.
type ValidationResult struct {
	// Valid is true when no issues were found.
	Valid bool

	// Issues lists problems in traversal order.
	Issues []string
}

// Validate checks a tree for unsupported node kinds and structural
// mistakes: nil operands, mismatched CASE branches, wrong operator arity,
// aggregates without exactly one argument, and variable references that
// no enclosing binding introduces.
//
// Validate is a pure function with no side effects.
func Validate(tree Tree) ValidationResult {
	v := &validator{
		issues: []string{},
		bound:  map[string]int{},
	}
	v.validateTree(tree)

	return ValidationResult{
		Valid:  len(v.issues) == 0,
		Issues: v.issues,
	}
}

// validator accumulates issues during traversal.
type validator struct {
	issues []string
	bound  map[string]int
}

func (v *validator) addIssue(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func (v *validator) bind(names ...string) {
	for _, n := range names {
		if n != "" {
			v.bound[n]++
		}
	}
}

func (v *validator) unbind(names ...string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		v.bound[n]--
		if v.bound[n] <= 0 {
			delete(v.bound, n)
		}
	}
}

func (v *validator) validateTree(tree Tree) {
	switch t := tree.(type) {
	case nil:
		v.addIssue("nil tree")
	case *QueryTree:
		v.validateNode(t.Query, "query")
	case *InsertTree:
		v.validateDML("insert", t.Target, nil, t.SetClauses, t.Returning)
	case *UpdateTree:
		v.validateDML("update", t.Target, t.Predicate, t.SetClauses, t.Returning)
		if t.Predicate == nil {
			v.addIssue("update: predicate is required")
		}
	case *DeleteTree:
		v.validateDML("delete", t.Target, t.Predicate, nil, nil)
		if t.Predicate == nil {
			v.addIssue("delete: predicate is required")
		}
	case *FunctionTree:
		if t.Function == nil {
			v.addIssue("function: descriptor is required")
		}
	default:
		v.addIssue("unknown tree type %T", tree)
	}
}

func (v *validator) validateDML(what string, target Binding, pred Node, sets []SetClause, ret *NewRow) {
	if _, ok := target.Expr.(*Scan); !ok {
		v.addIssue("%s: target must be a scan, got %T", what, target.Expr)
	} else {
		v.validateNode(target.Expr, what+" target")
	}
	v.bind(target.Var)
	defer v.unbind(target.Var)

	if what == "insert" && len(sets) == 0 {
		v.addIssue("insert: at least one set clause is required")
	}
	for i, s := range sets {
		if _, ok := s.Property.(*Property); !ok {
			v.addIssue("%s: set clause %d must assign a property, got %T", what, i, s.Property)
		}
		v.validateNode(s.Value, fmt.Sprintf("%s set clause %d", what, i))
	}
	if pred != nil {
		v.validateNode(pred, what+" predicate")
	}
	if ret != nil {
		v.validateNode(ret, what+" returning")
	}
}

func (v *validator) validateBinding(b Binding, where string) {
	if b.Var == "" {
		v.addIssue("%s: binding has no variable name", where)
	}
	v.validateNode(b.Expr, where)
}

func (v *validator) validateNodes(nodes []Node, where string) {
	for i, n := range nodes {
		v.validateNode(n, fmt.Sprintf("%s[%d]", where, i))
	}
}

// validateNode recursively validates a node. where names the position of
// the node for messages.
func (v *validator) validateNode(n Node, where string) {
	switch node := n.(type) {
	case nil:
		v.addIssue("%s: missing operand", where)

	case *Scan:
		if node.Target == nil {
			v.addIssue("%s: scan without entity set", where)
		}

	case *Project:
		v.validateBinding(node.Input, where+" input")
		v.bind(node.Input.Var)
		if node.Projection == nil || len(node.Projection.Columns) == 0 {
			v.addIssue("%s: project without columns", where)
		} else {
			v.validateNode(node.Projection, where+" projection")
		}
		v.unbind(node.Input.Var)

	case *Filter:
		v.validateBinding(node.Input, where+" input")
		v.bind(node.Input.Var)
		v.validateNode(node.Predicate, where+" predicate")
		v.unbind(node.Input.Var)

	case *Join:
		if node.Kind == JoinFullOuter {
			v.addIssue("%s: FULL OUTER JOIN is not supported", where)
		}
		v.validateBinding(node.Left, where+" left")
		v.validateBinding(node.Right, where+" right")
		v.bind(node.Left.Var, node.Right.Var)
		if node.Kind == JoinCross {
			if node.Condition != nil {
				v.addIssue("%s: cross join takes no condition", where)
			}
		} else {
			v.validateNode(node.Condition, where+" condition")
		}
		v.unbind(node.Left.Var, node.Right.Var)

	case *GroupBy:
		v.validateNode(node.Input.Expr, where+" input")
		if node.Input.Var == "" || node.Input.GroupVar == "" {
			v.addIssue("%s: group binding needs both variable names", where)
		}
		v.bind(node.Input.Var)
		for i, k := range node.Keys {
			v.validateNode(k.Expr, fmt.Sprintf("%s key %d", where, i))
		}
		v.unbind(node.Input.Var)
		v.bind(node.Input.GroupVar)
		for i, a := range node.Aggregates {
			aw := fmt.Sprintf("%s aggregate %d", where, i)
			if a.Function == nil {
				v.addIssue("%s: missing function", aw)
			} else if !a.Function.IsCanonical() {
				v.addIssue("%s: aggregate %s is not canonical", aw, a.Function.FullName())
			}
			if len(a.Args) != 1 {
				v.addIssue("%s: expected 1 argument, got %d", aw, len(a.Args))
			}
			v.validateNodes(a.Args, aw)
		}
		v.unbind(node.Input.GroupVar)

	case *Sort:
		v.validateBinding(node.Input, where+" input")
		v.bind(node.Input.Var)
		if len(node.Keys) == 0 {
			v.addIssue("%s: sort without keys", where)
		}
		for i, k := range node.Keys {
			v.validateNode(k.Expr, fmt.Sprintf("%s key %d", where, i))
		}
		v.unbind(node.Input.Var)

	case *Skip:
		v.validateBinding(node.Input, where+" input")
		v.bind(node.Input.Var)
		for i, k := range node.Keys {
			v.validateNode(k.Expr, fmt.Sprintf("%s key %d", where, i))
		}
		v.unbind(node.Input.Var)
		v.validateNode(node.Count, where+" count")

	case *Limit:
		v.validateNode(node.Input, where+" input")
		v.validateNode(node.Count, where+" count")

	case *Distinct:
		v.validateNode(node.Input, where+" input")

	case *Apply:
		v.validateBinding(node.Input, where+" input")
		v.bind(node.Input.Var)
		v.validateBinding(node.Apply, where+" apply")
		v.unbind(node.Input.Var)

	case *UnionAll:
		v.validateNode(node.Left, where+" left")
		v.validateNode(node.Right, where+" right")

	case *Element:
		v.validateNode(node.Input, where+" input")

	case *NewRow:
		seen := map[string]bool{}
		for i, c := range node.Columns {
			if c.Name == "" {
				v.addIssue("%s: column %d has no name", where, i)
			} else if seen[c.Name] {
				v.addIssue("%s: duplicate column name %q", where, c.Name)
			}
			seen[c.Name] = true
			v.validateNode(c.Expr, fmt.Sprintf("%s column %q", where, c.Name))
		}

	case *VarRef:
		if _, ok := v.bound[node.Name]; !ok {
			v.addIssue("%s: variable %q is not bound", where, node.Name)
		}

	case *Property:
		if node.Name == "" {
			v.addIssue("%s: property without name", where)
		}
		switch node.Instance.(type) {
		case *VarRef, *Property:
			v.validateNode(node.Instance, where)
		default:
			v.addIssue("%s: property %q must be read from a variable or property, got %T", where, node.Name, node.Instance)
		}

	case *ParamRef:
		if node.Name == "" {
			v.addIssue("%s: parameter reference without name", where)
		}

	case *Constant:
		if node.Type == TypeUnknown {
			v.addIssue("%s: constant without type", where)
		}
		if node.Value == nil {
			v.addIssue("%s: constant without value (use null)", where)
		}

	case *Null:
		// always valid

	case *Call:
		if node.Function == nil {
			v.addIssue("%s: call without function", where)
		} else if node.Function.Niladic && len(node.Args) > 0 {
			v.addIssue("%s: niladic function %s called with %d arguments", where, node.Function.FullName(), len(node.Args))
		}
		v.validateNodes(node.Args, where+" args")

	case *Case:
		if len(node.When) != len(node.Then) {
			v.addIssue("%s: %d WHEN branches but %d THEN branches", where, len(node.When), len(node.Then))
		}
		if len(node.When) == 0 {
			v.addIssue("%s: case without branches", where)
		}
		v.validateNodes(node.When, where+" when")
		v.validateNodes(node.Then, where+" then")
		if node.Else != nil {
			v.validateNode(node.Else, where+" else")
		}

	case *Like:
		v.validateNode(node.Arg, where+" arg")
		v.validateNode(node.Pattern, where+" pattern")
		if node.Escape != nil {
			v.validateNode(node.Escape, where+" escape")
		}

	case *IsNull:
		v.validateNode(node.Arg, where)
	case *IsEmpty:
		v.validateNode(node.Input, where)
	case *Not:
		v.validateNode(node.Arg, where)
	case *And:
		v.validateNode(node.Left, where+" left")
		v.validateNode(node.Right, where+" right")
	case *Or:
		v.validateNode(node.Left, where+" left")
		v.validateNode(node.Right, where+" right")
	case *Comparison:
		v.validateNode(node.Left, where+" left")
		v.validateNode(node.Right, where+" right")

	case *Arithmetic:
		if len(node.Args) != node.Op.Arity() {
			v.addIssue("%s: operator %s expects %d operands, got %d", where, node.Op, node.Op.Arity(), len(node.Args))
		}
		v.validateNodes(node.Args, where)

	case *Cast:
		v.validateNode(node.Arg, where)

	case *Except, *Intersect, *Navigate, *Deref, *Ref, *OfType:
		v.addIssue("%s: %T is not supported by the MySQL dialect", where, n)

	default:
		v.addIssue("%s: unknown node type %T", where, n)
	}
}
