// Package fragment is the intermediate representation of SQL under
// construction.
//
// The generator builds a fragment tree bottom-up and renders it once at the
// end. Fragments are treated as immutable after they are returned from a
// visit: negation builds a new fragment (Negate) and a column that must
// appear under two aliases is cloned (Column.Clone).
//
// Input fragments (Table, Select, Join, Union) may appear in a FROM clause
// and own the name used to qualify columns.
package fragment

import (
	"strings"
)

// Fragment is a node of the output AST.
type Fragment interface {
	WriteSQL(b *strings.Builder)
}

// SQL renders f to a string.
func SQL(f Fragment) string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	f.WriteSQL(&b)
	return b.String()
}

// QuoteIdentifier wraps name in backticks, doubling embedded backticks.
// Names that are already quoted are returned unchanged.
func QuoteIdentifier(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, "`") && strings.HasSuffix(name, "`") {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Literal is pre-formatted SQL text: a numeric literal, NULL, a parameter
// placeholder or a raw keyword.
type Literal struct {
	Text string
}

// NewLiteral returns a Literal fragment.
func NewLiteral(text string) *Literal {
	return &Literal{Text: text}
}

func (l *Literal) WriteSQL(b *strings.Builder) {
	b.WriteString(l.Text)
}

// List renders its items separated by Sep (", " when empty).
type List struct {
	Items []Fragment
	Sep   string
}

func (l *List) WriteSQL(b *strings.Builder) {
	sep := l.Sep
	if sep == "" {
		sep = ", "
	}
	for i, item := range l.Items {
		if i > 0 {
			b.WriteString(sep)
		}
		item.WriteSQL(b)
	}
}

// PropertyPath accumulates a dotted member path while the generator walks
// a nested property access. It only reaches rendering for a bare variable
// reference, in which case it renders as a qualified identifier.
type PropertyPath struct {
	Names []string
}

// Last returns the innermost member name.
func (p *PropertyPath) Last() string {
	if len(p.Names) == 0 {
		return ""
	}
	return p.Names[len(p.Names)-1]
}

func (p *PropertyPath) WriteSQL(b *strings.Builder) {
	for i, n := range p.Names {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(QuoteIdentifier(n))
	}
}

// Function is a call rendered as name(args). Quoted names are emitted as
// identifiers; Niladic functions are emitted without parentheses.
type Function struct {
	Name     string
	Quoted   bool
	Distinct bool
	Niladic  bool
	Args     []Fragment
}

func (f *Function) WriteSQL(b *strings.Builder) {
	if f.Quoted {
		b.WriteString(QuoteIdentifier(f.Name))
	} else {
		b.WriteString(f.Name)
	}
	if f.Niladic {
		return
	}
	b.WriteByte('(')
	if f.Distinct {
		b.WriteString("DISTINCT ")
	}
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.WriteSQL(b)
	}
	b.WriteByte(')')
}

// Template renders a positional template such as "LOCATE({0}, {1})",
// substituting each {n} with the rendered argument n.
type Template struct {
	Format string
	Args   []Fragment
}

func (t *Template) WriteSQL(b *strings.Builder) {
	f := t.Format
	for len(f) > 0 {
		open := strings.IndexByte(f, '{')
		if open < 0 {
			b.WriteString(f)
			return
		}
		end := strings.IndexByte(f[open:], '}')
		if end < 0 {
			b.WriteString(f)
			return
		}
		b.WriteString(f[:open])
		idx, ok := placeholderIndex(f[open+1 : open+end])
		if ok && idx < len(t.Args) {
			t.Args[idx].WriteSQL(b)
		} else {
			b.WriteString(f[open : open+end+1])
		}
		f = f[open+end+1:]
	}
}

// Arity returns one more than the highest placeholder index in format.
func Arity(format string) int {
	n := 0
	for {
		open := strings.IndexByte(format, '{')
		if open < 0 {
			return n
		}
		end := strings.IndexByte(format[open:], '}')
		if end < 0 {
			return n
		}
		if idx, ok := placeholderIndex(format[open+1 : open+end]); ok && idx+1 > n {
			n = idx + 1
		}
		format = format[open+end+1:]
	}
}

func placeholderIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// Sort is one ORDER BY item.
type Sort struct {
	Expr       Fragment
	Descending bool
}

func (s *Sort) WriteSQL(b *strings.Builder) {
	s.Expr.WriteSQL(b)
	if s.Descending {
		b.WriteString(" DESC")
	} else {
		b.WriteString(" ASC")
	}
}

// writeWrapped writes f, in parentheses when wrap is set.
func writeWrapped(b *strings.Builder, f Fragment, wrap bool) {
	if wrap {
		b.WriteByte('(')
	}
	f.WriteSQL(b)
	if wrap {
		b.WriteByte(')')
	}
}
