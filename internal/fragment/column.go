package fragment

import "strings"

// Column references Name of the input named Table. When Literal is set the
// column is a computed expression projected under Alias.
//
// Path is the property path the column was resolved from. It identifies
// the column across wrapping: after a select is nested as a derived table,
// the outer reference still carries the inner path and is matched against
// the inner select's columns by path suffix.
type Column struct {
	Table   string
	Name    string
	Alias   string
	Literal Fragment
	Path    []string
}

// OutputName is the name under which the column is visible to an
// enclosing query.
func (c *Column) OutputName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// Clone returns a shallow copy that can be given a different alias.
func (c *Column) Clone() *Column {
	cp := *c
	if c.Path != nil {
		cp.Path = append([]string(nil), c.Path...)
	}
	return &cp
}

// Equal reports whether c and other reference the same column. Columns
// resolved from property paths compare by path suffix, case-insensitively;
// otherwise table, name and alias must all match.
func (c *Column) Equal(other *Column) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Literal != nil || other.Literal != nil {
		return false
	}
	if len(c.Path) > 0 && len(other.Path) > 0 {
		switch PathSuffixMatch(c.Path, other.Path) {
		case 0:
			return false
		case 1:
			// a bare member name carries no provenance
			return strings.EqualFold(c.Table, other.Table) && strings.EqualFold(c.Name, other.Name)
		default:
			return true
		}
	}
	return strings.EqualFold(c.Table, other.Table) &&
		strings.EqualFold(c.Name, other.Name) &&
		strings.EqualFold(c.Alias, other.Alias)
}

// PathSuffixMatch compares a and b from their last element backwards and
// returns the length of the overlap when every compared element matches,
// or 0 when they differ.
func PathSuffixMatch(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 1; i <= n; i++ {
		if !strings.EqualFold(a[len(a)-i], b[len(b)-i]) {
			return 0
		}
	}
	return n
}

func (c *Column) WriteSQL(b *strings.Builder) {
	if c.Literal != nil {
		c.Literal.WriteSQL(b)
	} else {
		if c.Table != "" {
			b.WriteString(QuoteIdentifier(c.Table))
			b.WriteByte('.')
		}
		if c.Name == "*" {
			b.WriteByte('*')
		} else {
			b.WriteString(QuoteIdentifier(c.Name))
		}
	}
	if c.Alias != "" && (c.Literal != nil || !strings.EqualFold(c.Alias, c.Name)) {
		b.WriteString(" AS ")
		b.WriteString(QuoteIdentifier(c.Alias))
	}
}
