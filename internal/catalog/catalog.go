// Package catalog loads entity-set and function descriptors from CUE.
//
// A catalog directory holds one CUE package:
//
//	entitySet: orders: {
//		table: "tbl_orders"          // optional, defaults to the label
//		schema: "shop"               // optional
//		columns: {
//			id:       {type: "int32", identity: true}
//			amount:   {type: "decimal"}
//			customer: {type: "string", nullable: true}
//		}
//	}
//
//	entitySet: recent: definingQuery: "SELECT * FROM orders WHERE id > 100"
//
//	function: Shop: Discount: {storeName: "discount_for"}
//	function: Store: CURRENT_USER: {builtIn: true, niladic: true}
//
// Column order follows declaration order; it is the order in which the
// generator expands default select lists.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/plansql/internal/queryir"
)

// Catalog is an immutable set of descriptors. It implements
// queryir.Catalog.
type Catalog struct {
	sets  map[string]*queryir.EntitySet
	funcs map[string]*queryir.Function
}

var _ queryir.Catalog = (*Catalog)(nil)

// EntitySet looks up a set by name, case-insensitively.
func (c *Catalog) EntitySet(name string) (*queryir.EntitySet, bool) {
	es, ok := c.sets[strings.ToLower(name)]
	return es, ok
}

// Function looks up a function by "Namespace.Name", case-insensitively.
func (c *Catalog) Function(fullName string) (*queryir.Function, bool) {
	fn, ok := c.funcs[strings.ToLower(fullName)]
	return fn, ok
}

// EntitySetNames returns the set names in sorted order.
func (c *Catalog) EntitySetNames() []string {
	names := make([]string, 0, len(c.sets))
	for _, es := range c.sets {
		names = append(names, es.Name)
	}
	sort.Strings(names)
	return names
}

// FunctionNames returns the full function names in sorted order.
func (c *Catalog) FunctionNames() []string {
	names := make([]string, 0, len(c.funcs))
	for _, fn := range c.funcs {
		names = append(names, fn.FullName())
	}
	sort.Strings(names)
	return names
}

// Empty returns a catalog without descriptors.
func Empty() *Catalog {
	return &Catalog{
		sets:  map[string]*queryir.EntitySet{},
		funcs: map[string]*queryir.Function{},
	}
}

// CompileError is a catalog definition error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load builds the CUE package in dir and compiles its descriptors.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog: not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("catalog: scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("catalog: no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("catalog: no CUE instances loaded from %s", dir)
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	v := ctx.BuildInstance(instances[0])
	return Compile(v)
}

// Parse compiles a single CUE document. filename is used in positions.
func Parse(filename string, src []byte) (*Catalog, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	return Compile(v)
}

// Compile extracts descriptors from a built CUE value.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	cat := Empty()

	if sets := v.LookupPath(cue.ParsePath("entitySet")); sets.Exists() {
		iter, err := sets.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			es, err := compileEntitySet(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			cat.sets[strings.ToLower(es.Name)] = es
		}
	}

	if funcs := v.LookupPath(cue.ParsePath("function")); funcs.Exists() {
		namespaces, err := funcs.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for namespaces.Next() {
			ns := namespaces.Label()
			iter, err := namespaces.Value().Fields()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for iter.Next() {
				fn, err := compileFunction(ns, iter.Label(), iter.Value())
				if err != nil {
					return nil, err
				}
				cat.funcs[strings.ToLower(fn.FullName())] = fn
			}
		}
	}
	return cat, nil
}

func compileEntitySet(name string, v cue.Value) (*queryir.EntitySet, error) {
	es := &queryir.EntitySet{Name: name}
	var err error
	if es.Schema, err = optionalString(v, "schema"); err != nil {
		return nil, err
	}
	if es.Table, err = optionalString(v, "table"); err != nil {
		return nil, err
	}
	if es.DefiningQuery, err = optionalString(v, "definingQuery"); err != nil {
		return nil, err
	}

	cols := v.LookupPath(cue.ParsePath("columns"))
	if !cols.Exists() {
		return es, nil
	}
	iter, err := cols.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	identities := 0
	for iter.Next() {
		col, err := compileColumn(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		if col.Identity {
			identities++
			if identities > 1 {
				return nil, &CompileError{
					Field:   "entitySet." + name + ".columns",
					Message: "at most one identity column is allowed",
					Pos:     iter.Value().Pos(),
				}
			}
		}
		es.Columns = append(es.Columns, col)
	}
	return es, nil
}

func compileColumn(name string, v cue.Value) (queryir.ColumnInfo, error) {
	col := queryir.ColumnInfo{Name: name}
	typeName, err := optionalString(v, "type")
	if err != nil {
		return col, err
	}
	if typeName != "" {
		kind, err := queryir.ParseTypeKind(typeName)
		if err != nil {
			return col, &CompileError{
				Field:   "type",
				Message: fmt.Sprintf("column %s: %v", name, err),
				Pos:     v.LookupPath(cue.ParsePath("type")).Pos(),
			}
		}
		col.Type = kind
	}
	if col.Nullable, err = optionalBool(v, "nullable"); err != nil {
		return col, err
	}
	if col.Identity, err = optionalBool(v, "identity"); err != nil {
		return col, err
	}
	return col, nil
}

func compileFunction(ns, name string, v cue.Value) (*queryir.Function, error) {
	if ns == queryir.CanonicalNamespace {
		return nil, &CompileError{
			Field:   "function." + ns,
			Message: "canonical functions are built in and cannot be redefined",
			Pos:     v.Pos(),
		}
	}
	fn := &queryir.Function{Namespace: ns, Name: name}
	var err error
	if fn.StoreName, err = optionalString(v, "storeName"); err != nil {
		return nil, err
	}
	if fn.BuiltIn, err = optionalBool(v, "builtIn"); err != nil {
		return nil, err
	}
	if fn.Niladic, err = optionalBool(v, "niladic"); err != nil {
		return nil, err
	}
	return fn, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
