package querysql

import (
	"github.com/roach88/plansql/internal/fragment"
)

// scope maps plan variable names to the input fragment that produces the
// variable's rows. It is populated as input-producing nodes are visited
// and consulted by every property access.
type scope struct {
	inputs map[string]fragment.Input
}

func newScope() *scope {
	return &scope{inputs: make(map[string]fragment.Input)}
}

func (s *scope) add(name string, in fragment.Input) {
	if name == "" || in == nil {
		return
	}
	s.inputs[name] = in
}

func (s *scope) get(name string) (fragment.Input, bool) {
	in, ok := s.inputs[name]
	return in, ok
}

// removeInput drops every name bound to in or to an input nested inside
// it. A wrapped select hides its inner inputs from the enclosing query.
func (s *scope) removeInput(in fragment.Input) {
	if in == nil {
		return
	}
	for name, bound := range s.inputs {
		if bound == in {
			delete(s.inputs, name)
		}
	}
	switch v := in.(type) {
	case *fragment.Select:
		s.removeInput(v.From)
	case *fragment.Join:
		s.removeInput(v.Left)
		s.removeInput(v.Right)
	case *fragment.Union:
		s.removeInput(v.Left)
		s.removeInput(v.Right)
	}
}

// findInputFromProperties walks a property path from its innermost
// variable outwards and returns the first input in scope, with the index
// of the path element that named it. The last element is the column and
// is never looked up.
func (s *scope) findInputFromProperties(path []string) (fragment.Input, int, bool) {
	for x := len(path) - 2; x >= 0; x-- {
		if in, ok := s.inputs[path[x]]; ok {
			return in, x, true
		}
	}
	return nil, -1, false
}
