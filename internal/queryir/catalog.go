package queryir

import "strings"

// CanonicalNamespace is the namespace of canonical (dialect-independent)
// functions. Only functions in this namespace are looked up in the
// dialect mapping tables.
const CanonicalNamespace = "Edm"

// EntitySet describes a table-valued catalog object that a Scan reads.
//
// Name is the logical set name. Schema, Table and DefiningQuery are the
// metadata overrides: a non-empty DefiningQuery replaces the table
// reference with a derived table, otherwise Table (default Name) and an
// optional Schema are used.
type EntitySet struct {
	Name          string       `json:"name" yaml:"name"`
	Schema        string       `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table         string       `json:"table,omitempty" yaml:"table,omitempty"`
	DefiningQuery string       `json:"definingQuery,omitempty" yaml:"definingQuery,omitempty"`
	Columns       []ColumnInfo `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// TableName returns the store table name, honouring the Table override.
func (e *EntitySet) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return e.Name
}

// Column looks up a column by name, case-insensitively.
func (e *EntitySet) Column(name string) (ColumnInfo, bool) {
	for _, c := range e.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// Identity returns the store-generated identity column, if any.
func (e *EntitySet) Identity() (ColumnInfo, bool) {
	for _, c := range e.Columns {
		if c.Identity {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// ColumnInfo describes one column of an EntitySet.
type ColumnInfo struct {
	Name     string   `json:"name" yaml:"name"`
	Type     TypeKind `json:"-" yaml:"-"`
	Nullable bool     `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Identity bool     `json:"identity,omitempty" yaml:"identity,omitempty"`
}

// Function describes a function referenced by a Call or an aggregate.
//
// Canonical functions live in CanonicalNamespace. For everything else the
// descriptor attributes drive rendering: StoreName overrides the emitted
// name, BuiltIn suppresses identifier quoting, and Niladic forbids
// arguments and parentheses.
type Function struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name      string `json:"name" yaml:"name"`
	StoreName string `json:"storeName,omitempty" yaml:"storeName,omitempty"`
	BuiltIn   bool   `json:"builtIn,omitempty" yaml:"builtIn,omitempty"`
	Niladic   bool   `json:"niladic,omitempty" yaml:"niladic,omitempty"`
}

// IsCanonical reports whether the function belongs to the canonical
// namespace.
func (f *Function) IsCanonical() bool {
	return f.Namespace == CanonicalNamespace
}

// FullName returns "Namespace.Name", or just Name without a namespace.
func (f *Function) FullName() string {
	if f.Namespace == "" {
		return f.Name
	}
	return f.Namespace + "." + f.Name
}

// Catalog supplies descriptors while decoding plans.
type Catalog interface {
	EntitySet(name string) (*EntitySet, bool)
	Function(fullName string) (*Function, bool)
}
