package fragment

import "strings"

// Negatable is implemented by boolean fragments that have a native negated
// form. Negate returns a new fragment; the receiver is left untouched, and
// negating twice yields a fragment that renders like the original.
type Negatable interface {
	Fragment
	Negate() Fragment
}

// Negate returns the negation of f: its native negated form when f is
// Negatable, otherwise NOT (f).
func Negate(f Fragment) Fragment {
	if n, ok := f.(Negatable); ok {
		return n.Negate()
	}
	return &Not{Arg: f}
}

// Not is NOT (Arg) for operands without a native negated form.
type Not struct {
	Arg Fragment
}

func (n *Not) WriteSQL(b *strings.Builder) {
	b.WriteString("NOT (")
	n.Arg.WriteSQL(b)
	b.WriteByte(')')
}

// Negate unwraps the NOT.
func (n *Not) Negate() Fragment {
	return n.Arg
}

// Binary is Left Op Right. Each side is parenthesised when its Wrap flag
// is set.
type Binary struct {
	Left      Fragment
	Op        string
	Right     Fragment
	WrapLeft  bool
	WrapRight bool
	Negated   bool
}

func (e *Binary) WriteSQL(b *strings.Builder) {
	if e.Negated && e.Op == "=" {
		e.writeBody(b, "!=")
		return
	}
	if e.Negated {
		b.WriteString("NOT (")
		e.writeBody(b, e.Op)
		b.WriteByte(')')
		return
	}
	e.writeBody(b, e.Op)
}

func (e *Binary) writeBody(b *strings.Builder, op string) {
	writeWrapped(b, e.Left, e.WrapLeft)
	b.WriteByte(' ')
	b.WriteString(op)
	b.WriteByte(' ')
	writeWrapped(b, e.Right, e.WrapRight)
}

func (e *Binary) Negate() Fragment {
	cp := *e
	cp.Negated = !e.Negated
	return &cp
}

// In is Arg [NOT] IN ( Values ).
type In struct {
	Arg     *Column
	Values  []*Literal
	Negated bool
}

func (in *In) WriteSQL(b *strings.Builder) {
	in.Arg.WriteSQL(b)
	if in.Negated {
		b.WriteString(" NOT IN ( ")
	} else {
		b.WriteString(" IN ( ")
	}
	for i, v := range in.Values {
		if i > 0 {
			b.WriteByte(',')
		}
		v.WriteSQL(b)
	}
	b.WriteString(" )")
}

func (in *In) Negate() Fragment {
	cp := *in
	cp.Negated = !in.Negated
	return &cp
}

// Contains reports whether a value with the same text is in the list.
func (in *In) Contains(v *Literal) bool {
	for _, x := range in.Values {
		if x.Text == v.Text {
			return true
		}
	}
	return false
}

// Case is a searched CASE expression.
type Case struct {
	When []Fragment
	Then []Fragment
	Else Fragment
}

func (c *Case) WriteSQL(b *strings.Builder) {
	b.WriteString("CASE")
	for i := range c.When {
		b.WriteString(" WHEN (")
		c.When[i].WriteSQL(b)
		b.WriteString(") THEN (")
		c.Then[i].WriteSQL(b)
		b.WriteByte(')')
	}
	if c.Else != nil {
		b.WriteString(" ELSE (")
		c.Else.WriteSQL(b)
		b.WriteByte(')')
	}
	b.WriteString(" END")
}

// IsNull is Arg IS [NOT] NULL.
type IsNull struct {
	Arg     Fragment
	Wrap    bool
	Negated bool
}

func (n *IsNull) WriteSQL(b *strings.Builder) {
	writeWrapped(b, n.Arg, n.Wrap)
	if n.Negated {
		b.WriteString(" IS NOT NULL")
	} else {
		b.WriteString(" IS NULL")
	}
}

func (n *IsNull) Negate() Fragment {
	cp := *n
	cp.Negated = !n.Negated
	return &cp
}

// Exists is [NOT] EXISTS(Select).
type Exists struct {
	Select  *Select
	Negated bool
}

func (e *Exists) WriteSQL(b *strings.Builder) {
	if e.Negated {
		b.WriteString("NOT ")
	}
	b.WriteString("EXISTS(")
	e.Select.WriteStatement(b)
	b.WriteByte(')')
}

func (e *Exists) Negate() Fragment {
	cp := *e
	cp.Negated = !e.Negated
	return &cp
}

// Like is Arg [NOT] LIKE Pattern [ESCAPE Escape].
type Like struct {
	Arg     Fragment
	Pattern Fragment
	Escape  Fragment
	Negated bool
}

func (l *Like) WriteSQL(b *strings.Builder) {
	l.Arg.WriteSQL(b)
	if l.Negated {
		b.WriteString(" NOT LIKE ")
	} else {
		b.WriteString(" LIKE ")
	}
	l.Pattern.WriteSQL(b)
	if l.Escape != nil {
		b.WriteString(" ESCAPE ")
		l.Escape.WriteSQL(b)
	}
}

func (l *Like) Negate() Fragment {
	cp := *l
	cp.Negated = !l.Negated
	return &cp
}
