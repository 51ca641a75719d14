package fragment

import "strings"

// MaxRows is the row count MySQL needs in "LIMIT offset, count" when only
// an offset is wanted.
const MaxRows = "18446744073709551615"

// Input is a fragment that may appear in a FROM clause.
type Input interface {
	Fragment
	// InputName is the alias columns of this input are qualified with.
	InputName() string
	writeFrom(b *strings.Builder)
}

// WriteFrom renders in as a FROM clause item, alias included.
func WriteFrom(b *strings.Builder, in Input) {
	in.writeFrom(b)
}

// TableColumn is a column of a base table known from the catalog.
type TableColumn struct {
	Name     string
	Nullable bool
}

// Table references a base table, or a defining query standing in for one.
type Table struct {
	Schema        string
	Table         string
	DefiningQuery string
	Name          string
	Columns       []TableColumn
}

func (t *Table) InputName() string { return t.Name }

// SameSource reports whether t and other read the same base table.
func (t *Table) SameSource(other *Table) bool {
	return t.DefiningQuery == other.DefiningQuery &&
		strings.EqualFold(t.Schema, other.Schema) &&
		strings.EqualFold(t.Table, other.Table)
}

// Column looks up a catalog column by name.
func (t *Table) Column(name string) (TableColumn, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return TableColumn{}, false
}

func (t *Table) WriteSQL(b *strings.Builder) {
	switch {
	case t.DefiningQuery != "":
		b.WriteByte('(')
		b.WriteString(t.DefiningQuery)
		b.WriteByte(')')
	case t.Schema != "":
		b.WriteString(QuoteIdentifier(t.Schema))
		b.WriteByte('.')
		b.WriteString(QuoteIdentifier(t.Table))
	default:
		b.WriteString(QuoteIdentifier(t.Table))
	}
}

func (t *Table) writeFrom(b *strings.Builder) {
	t.WriteSQL(b)
	writeAlias(b, t.Name)
}

// Select is a SELECT statement. A Wrapped select is rendered in
// parentheses: as a derived table when it is a FROM item, as a scalar
// subquery otherwise.
type Select struct {
	Name     string
	Wrapped  bool
	Distinct bool
	Columns  []*Column
	From     Input
	Where    Fragment
	GroupBy  []Fragment
	OrderBy  []*Sort
	Limit    Fragment
	Skip     Fragment
}

func (s *Select) InputName() string { return s.Name }

// OutputNames returns the names the select exposes to an enclosing query.
func (s *Select) OutputNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.OutputName()
	}
	return names
}

// FindColumn finds the projected column a reference resolves to. rest is
// the reference's property path after the variable that names this
// select. A multi-element path is matched against column paths first; the
// last member is then matched against output names.
func (s *Select) FindColumn(rest []string) (*Column, bool) {
	if len(rest) == 0 {
		return nil, false
	}
	if len(rest) >= 2 {
		for _, c := range s.Columns {
			if PathSuffixMatch(c.Path, rest) >= 2 {
				return c, true
			}
		}
	}
	last := rest[len(rest)-1]
	for _, c := range s.Columns {
		if strings.EqualFold(c.OutputName(), last) {
			return c, true
		}
	}
	return nil, false
}

func (s *Select) WriteSQL(b *strings.Builder) {
	if s.Wrapped {
		b.WriteByte('(')
		s.WriteStatement(b)
		b.WriteByte(')')
		return
	}
	s.WriteStatement(b)
}

// WriteStatement renders the statement without enclosing parentheses.
func (s *Select) WriteStatement(b *strings.Builder) {
	b.WriteString("SELECT")
	if s.Distinct {
		b.WriteString(" DISTINCT")
	}
	if len(s.Columns) == 0 {
		b.WriteString(" *")
	}
	for i, c := range s.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte(' ')
		c.WriteSQL(b)
	}
	if s.From != nil {
		b.WriteString(" FROM ")
		s.From.writeFrom(b)
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		s.Where.WriteSQL(b)
	}
	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		(&List{Items: s.GroupBy}).WriteSQL(b)
	}
	if len(s.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			o.WriteSQL(b)
		}
	}
	switch {
	case s.Limit != nil && s.Skip != nil:
		b.WriteString(" LIMIT ")
		s.Skip.WriteSQL(b)
		b.WriteString(", ")
		s.Limit.WriteSQL(b)
	case s.Limit != nil:
		b.WriteString(" LIMIT ")
		s.Limit.WriteSQL(b)
	case s.Skip != nil:
		b.WriteString(" LIMIT ")
		s.Skip.WriteSQL(b)
		b.WriteString(", " + MaxRows)
	}
}

func (s *Select) writeFrom(b *strings.Builder) {
	s.WriteSQL(b)
	if s.Wrapped {
		writeAlias(b, s.Name)
	}
}

// Join combines two inputs. Kind is the rendered join keyword, for example
// "INNER JOIN".
type Join struct {
	Kind      string
	Left      Input
	Right     Input
	Condition Fragment
	Name      string
}

func (j *Join) InputName() string { return j.Name }

func (j *Join) WriteSQL(b *strings.Builder) {
	j.Left.writeFrom(b)
	b.WriteByte(' ')
	b.WriteString(j.Kind)
	b.WriteByte(' ')
	j.Right.writeFrom(b)
	if j.Condition != nil {
		b.WriteString(" ON ")
		j.Condition.WriteSQL(b)
	}
}

func (j *Join) writeFrom(b *strings.Builder) {
	j.WriteSQL(b)
}

// Union is Left UNION ALL Right.
type Union struct {
	Left    *Select
	Right   *Select
	Wrapped bool
	Name    string
}

func (u *Union) InputName() string { return u.Name }

func (u *Union) WriteSQL(b *strings.Builder) {
	if u.Wrapped {
		b.WriteByte('(')
	}
	writeUnionSide(b, u.Left)
	b.WriteString(" UNION ALL ")
	writeUnionSide(b, u.Right)
	if u.Wrapped {
		b.WriteByte(')')
	}
}

func (u *Union) writeFrom(b *strings.Builder) {
	u.WriteSQL(b)
	if u.Wrapped {
		writeAlias(b, u.Name)
	}
}

// writeUnionSide parenthesises a side whose ORDER BY or LIMIT would
// otherwise bind to the whole union.
func writeUnionSide(b *strings.Builder, s *Select) {
	own := len(s.OrderBy) > 0 || s.Limit != nil || s.Skip != nil
	if own {
		b.WriteByte('(')
	}
	s.WriteStatement(b)
	if own {
		b.WriteByte(')')
	}
}

func writeAlias(b *strings.Builder, name string) {
	if name == "" {
		return
	}
	b.WriteString(" AS ")
	b.WriteString(QuoteIdentifier(name))
}
