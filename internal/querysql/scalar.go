package querysql

import (
	"errors"
	"strings"

	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/fragment"
	"github.com/roach88/plansql/internal/queryir"
)

// visit translates a scalar node. Relational nodes are only valid here in
// the positions that consume them as scalars (Element, IsEmpty).
func (t *translation) visit(n queryir.Node) (fragment.Fragment, error) {
	switch node := n.(type) {
	case *queryir.VarRef:
		return &fragment.PropertyPath{Names: []string{node.Name}}, nil
	case *queryir.Property:
		return t.visitProperty(node)
	case *queryir.ParamRef:
		return fragment.NewLiteral("@" + node.Name), nil
	case *queryir.Constant:
		return t.visitConstant(node)
	case *queryir.Null:
		return fragment.NewLiteral("NULL"), nil
	case *queryir.Call:
		return t.visitCall(node)
	case *queryir.Case:
		return t.visitCase(node)
	case *queryir.Like:
		return t.visitLike(node)
	case *queryir.IsNull:
		arg, err := t.visit(node.Arg)
		if err != nil {
			return nil, err
		}
		return &fragment.IsNull{Arg: arg, Wrap: shouldWrap(node.Arg)}, nil
	case *queryir.IsEmpty:
		sel, err := t.visitInputExpressionEnsureSelect(node.Input, "")
		if err != nil {
			return nil, err
		}
		return &fragment.Exists{Select: sel, Negated: true}, nil
	case *queryir.Not:
		arg, err := t.visit(node.Arg)
		if err != nil {
			return nil, err
		}
		return fragment.Negate(arg), nil
	case *queryir.And:
		return t.visitBinary(node.Left, node.Right, "AND")
	case *queryir.Or:
		return t.visitBinary(node.Left, node.Right, "OR")
	case *queryir.Comparison:
		op, ok := dialect.CompareToken(node.Op)
		if !ok {
			return nil, malformed(node, "unknown comparison operator %s", node.Op)
		}
		return t.visitBinary(node.Left, node.Right, op)
	case *queryir.Arithmetic:
		return t.visitArithmetic(node)
	case *queryir.Cast:
		return t.visit(node.Arg)
	case *queryir.Element:
		return t.visitElement(node)
	case *queryir.Navigate, *queryir.Deref, *queryir.Ref, *queryir.OfType,
		*queryir.Except, *queryir.Intersect:
		return nil, unsupported(node, "%T is not supported by the MySQL dialect", node)
	case nil:
		return nil, malformed(nil, "missing expression")
	default:
		if isRelational(n) {
			return nil, malformed(node, "relational node used as a scalar expression")
		}
		return nil, malformed(node, "unknown node type")
	}
}

// visitProperty builds a property path. Only the outermost access of a
// chain resolves the path to a column; inner accesses return the path.
func (t *translation) visitProperty(p *queryir.Property) (fragment.Fragment, error) {
	t.propertyLevel++
	inst, err := t.visit(p.Instance)
	t.propertyLevel--
	if err != nil {
		return nil, err
	}

	base, ok := inst.(*fragment.PropertyPath)
	if !ok {
		return nil, malformed(p, "property %q read from a non-row expression", p.Name)
	}
	names := make([]string, 0, len(base.Names)+1)
	names = append(names, base.Names...)
	names = append(names, p.Name)

	if t.propertyLevel > 0 {
		return &fragment.PropertyPath{Names: names}, nil
	}
	return t.resolveColumn(p, names)
}

func (t *translation) visitConstant(c *queryir.Constant) (fragment.Fragment, error) {
	if c.Value == nil {
		return fragment.NewLiteral("NULL"), nil
	}
	text, ok, err := dialect.Literal(c.Type, c.Value)
	if err != nil {
		return nil, &GenerationError{Code: ErrCodeMalformed, Message: "invalid constant", Node: nodeName(c), Err: err}
	}
	if ok {
		return fragment.NewLiteral(text), nil
	}
	return t.addParameter(c.Type, c.Value)
}

func (t *translation) visitCall(c *queryir.Call) (fragment.Fragment, error) {
	if c.Function == nil {
		return nil, malformed(c, "call without a function")
	}
	args, err := t.visitAll(c.Args)
	if err != nil {
		return nil, err
	}
	f, err := dialect.RenderFunction(c.Function, args)
	if err != nil {
		if errors.Is(err, dialect.ErrMalformedCall) {
			return nil, &GenerationError{Code: ErrCodeMalformed, Message: "bad function call", Node: nodeName(c), Err: err}
		}
		return nil, err
	}
	return f, nil
}

func (t *translation) visitCase(c *queryir.Case) (fragment.Fragment, error) {
	if len(c.When) != len(c.Then) {
		return nil, malformed(c, "%d WHEN branches but %d THEN branches", len(c.When), len(c.Then))
	}
	if len(c.When) == 0 {
		return nil, malformed(c, "CASE without branches")
	}
	when, err := t.visitAll(c.When)
	if err != nil {
		return nil, err
	}
	then, err := t.visitAll(c.Then)
	if err != nil {
		return nil, err
	}
	out := &fragment.Case{When: when, Then: then}
	if c.Else != nil {
		if out.Else, err = t.visit(c.Else); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *translation) visitLike(l *queryir.Like) (fragment.Fragment, error) {
	arg, err := t.visit(l.Arg)
	if err != nil {
		return nil, err
	}
	pattern, err := t.visit(l.Pattern)
	if err != nil {
		return nil, err
	}
	out := &fragment.Like{Arg: arg, Pattern: pattern}
	if l.Escape != nil {
		if out.Escape, err = t.visit(l.Escape); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *translation) visitArithmetic(a *queryir.Arithmetic) (fragment.Fragment, error) {
	tok, ok := dialect.ArithToken(a.Op)
	if !ok {
		return nil, malformed(a, "unknown arithmetic operator %s", a.Op)
	}
	if len(a.Args) != a.Op.Arity() {
		return nil, malformed(a, "%s takes %d operands, got %d", a.Op, a.Op.Arity(), len(a.Args))
	}
	if a.Op == queryir.OpNegate {
		arg, err := t.visit(a.Args[0])
		if err != nil {
			return nil, err
		}
		return &fragment.Template{Format: "-({0})", Args: []fragment.Fragment{arg}}, nil
	}
	return t.visitBinary(a.Args[0], a.Args[1], tok)
}

// visitBinary is the single builder for every two-operand expression.
// Equality and greater-than comparisons are first offered to LIKE
// promotion; disjunctions of equalities are merged into IN lists.
func (t *translation) visitBinary(left, right queryir.Node, op string) (fragment.Fragment, error) {
	if !t.cfg.DisableRewrites {
		like, ok, err := t.tryPromoteToLike(left, right, op)
		if err != nil {
			return nil, err
		}
		if ok {
			t.log.Debug("promoted comparison to LIKE", "op", op)
			return like, nil
		}
	}

	lf, err := t.visit(left)
	if err != nil {
		return nil, err
	}
	rf, err := t.visit(right)
	if err != nil {
		return nil, err
	}
	b := &fragment.Binary{
		Left:      lf,
		Op:        op,
		Right:     rf,
		WrapLeft:  shouldWrap(left),
		WrapRight: shouldWrap(right),
	}
	if strings.EqualFold(op, "OR") && !t.cfg.DisableRewrites {
		if in, ok := tryPromoteToIn(b); ok {
			t.log.Debug("merged disjunction into IN", "values", len(in.Values))
			return in, nil
		}
	}
	return b, nil
}

// visitElement renders a one-row input as a scalar subquery.
func (t *translation) visitElement(e *queryir.Element) (fragment.Fragment, error) {
	sel, err := t.visitInputExpressionEnsureSelect(e.Input, "")
	if err != nil {
		return nil, err
	}
	if len(sel.Columns) == 0 {
		t.addDefaultColumns(sel)
	}
	if sel.Wrapped {
		// already a derived table; nest it so the scalar carries no alias
		sel = &fragment.Select{From: sel, Columns: t.defaultColumnsOf(sel)}
	}
	sel.Wrapped = true
	return sel, nil
}

func (t *translation) visitAll(nodes []queryir.Node) ([]fragment.Fragment, error) {
	out := make([]fragment.Fragment, len(nodes))
	for i, n := range nodes {
		f, err := t.visit(n)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// shouldWrap reports whether an operand needs parentheses. Property
// accesses, parameter references and constants render atomically.
func shouldWrap(n queryir.Node) bool {
	switch n.(type) {
	case *queryir.Property, *queryir.ParamRef, *queryir.Constant:
		return false
	}
	return true
}
