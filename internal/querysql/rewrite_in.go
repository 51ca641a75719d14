package querysql

import (
	"github.com/roach88/plansql/internal/fragment"
)

// tryPromoteToIn merges a disjunction of equalities against the same
// column into a single IN list:
//
//	c = a OR c = b        c IN ( a,b )
//	c IN (a,b) OR c = d   c IN ( a,b,d )
//	c = d OR c IN (a,b)   c IN ( d,a,b )
//	c IN (a) OR c IN (b)  c IN ( a,b )
//
// Values keep their textual order and duplicates are dropped. Two
// identical equalities are not merged. The operands are never modified.
func tryPromoteToIn(or *fragment.Binary) (*fragment.In, bool) {
	if or.Negated {
		return nil, false
	}

	lc, lv, lEq := equalityParts(or.Left)
	rc, rv, rEq := equalityParts(or.Right)
	lIn, lIsIn := inParts(or.Left)
	rIn, rIsIn := inParts(or.Right)

	switch {
	case lEq && rEq:
		if !lc.Equal(rc) || lv.Text == rv.Text {
			return nil, false
		}
		return &fragment.In{Arg: lc, Values: []*fragment.Literal{lv, rv}}, true
	case lIsIn && rEq:
		if !lIn.Arg.Equal(rc) {
			return nil, false
		}
		return &fragment.In{Arg: lIn.Arg, Values: appendDistinct(lIn.Values, rv)}, true
	case lEq && rIsIn:
		if !lc.Equal(rIn.Arg) {
			return nil, false
		}
		return &fragment.In{Arg: lc, Values: appendDistinct([]*fragment.Literal{lv}, rIn.Values...)}, true
	case lIsIn && rIsIn:
		if !lIn.Arg.Equal(rIn.Arg) {
			return nil, false
		}
		return &fragment.In{Arg: lIn.Arg, Values: appendDistinct(lIn.Values, rIn.Values...)}, true
	}
	return nil, false
}

// equalityParts matches column = literal in either order.
func equalityParts(f fragment.Fragment) (*fragment.Column, *fragment.Literal, bool) {
	b, ok := f.(*fragment.Binary)
	if !ok || b.Negated || b.Op != "=" {
		return nil, nil, false
	}
	if c, ok := b.Left.(*fragment.Column); ok && c.Literal == nil {
		if v, ok := b.Right.(*fragment.Literal); ok {
			return c, v, true
		}
	}
	if c, ok := b.Right.(*fragment.Column); ok && c.Literal == nil {
		if v, ok := b.Left.(*fragment.Literal); ok {
			return c, v, true
		}
	}
	return nil, nil, false
}

func inParts(f fragment.Fragment) (*fragment.In, bool) {
	in, ok := f.(*fragment.In)
	if !ok || in.Negated || in.Arg == nil {
		return nil, false
	}
	return in, true
}

// appendDistinct returns a new slice holding base followed by the values
// not already present.
func appendDistinct(base []*fragment.Literal, values ...*fragment.Literal) []*fragment.Literal {
	out := make([]*fragment.Literal, len(base), len(base)+len(values))
	copy(out, base)
	for _, v := range values {
		dup := false
		for _, x := range out {
			if x.Text == v.Text {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}
