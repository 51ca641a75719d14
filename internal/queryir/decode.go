package queryir

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DecodeError reports a malformed plan document with its YAML position.
type DecodeError struct {
	Line    int
	Column  int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// DecodeYAML parses a plan document. The document is a mapping with exactly
// one of the keys query, insert, update, delete or function.
//
// Nodes are single-key mappings naming the node kind:
//
//	query:
//	  project:
//	    input:
//	      as: Extent1
//	      expr: {scan: orders}
//	    columns:
//	      - {name: id, expr: {prop: Extent1.id}}
//
// Scans and non-canonical functions given by name are resolved through cat,
// which may be nil when the plan only uses inline descriptors.
func DecodeYAML(data []byte, cat Catalog) (Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &DecodeError{Message: "empty plan document"}
	}
	return DecodeTree(doc.Content[0], cat)
}

// DecodeTree decodes a tree from an already parsed YAML node.
func DecodeTree(n *yaml.Node, cat Catalog) (Tree, error) {
	d := &decoder{cat: cat}
	return d.tree(n)
}

// DecodeNode decodes a single plan node from an already parsed YAML node.
func DecodeNode(n *yaml.Node, cat Catalog) (Node, error) {
	d := &decoder{cat: cat}
	return d.node(n)
}

type decoder struct {
	cat Catalog
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	e := &DecodeError{Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	return e
}

// single unpacks a one-key mapping.
func (d *decoder) single(n *yaml.Node) (string, *yaml.Node, error) {
	if n == nil || n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, d.errorf(n, "expected a mapping with exactly one key")
	}
	return n.Content[0].Value, n.Content[1], nil
}

// fields unpacks a mapping and rejects keys outside allowed.
func (d *decoder) fields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		known := false
		for _, a := range allowed {
			if a == key {
				known = true
				break
			}
		}
		if !known {
			return nil, d.errorf(n.Content[i], "unknown field %q (expected one of %s)", key, strings.Join(allowed, ", "))
		}
		out[key] = n.Content[i+1]
	}
	return out, nil
}

func (d *decoder) scalar(n *yaml.Node) (string, error) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", d.errorf(n, "expected a scalar")
	}
	return n.Value, nil
}

func (d *decoder) seq(n *yaml.Node) ([]*yaml.Node, error) {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a sequence")
	}
	return n.Content, nil
}

func (d *decoder) tree(n *yaml.Node) (Tree, error) {
	key, val, err := d.single(n)
	if err != nil {
		return nil, err
	}
	switch key {
	case "query":
		q, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &QueryTree{Query: q}, nil

	case "insert":
		f, err := d.fields(val, "target", "set", "returning")
		if err != nil {
			return nil, err
		}
		t := &InsertTree{}
		if t.Target, err = d.binding(f["target"]); err != nil {
			return nil, err
		}
		if t.SetClauses, err = d.setClauses(f["set"]); err != nil {
			return nil, err
		}
		if t.Returning, err = d.optRow(f["returning"]); err != nil {
			return nil, err
		}
		return t, nil

	case "update":
		f, err := d.fields(val, "target", "where", "set", "returning")
		if err != nil {
			return nil, err
		}
		t := &UpdateTree{}
		if t.Target, err = d.binding(f["target"]); err != nil {
			return nil, err
		}
		if t.Predicate, err = d.optNode(f["where"]); err != nil {
			return nil, err
		}
		if t.SetClauses, err = d.setClauses(f["set"]); err != nil {
			return nil, err
		}
		if t.Returning, err = d.optRow(f["returning"]); err != nil {
			return nil, err
		}
		return t, nil

	case "delete":
		f, err := d.fields(val, "target", "where")
		if err != nil {
			return nil, err
		}
		t := &DeleteTree{}
		if t.Target, err = d.binding(f["target"]); err != nil {
			return nil, err
		}
		if t.Predicate, err = d.optNode(f["where"]); err != nil {
			return nil, err
		}
		return t, nil

	case "function":
		f, err := d.fields(val, "name", "parameters")
		if err != nil {
			return nil, err
		}
		t := &FunctionTree{}
		if t.Function, err = d.function(f["name"]); err != nil {
			return nil, err
		}
		if p := f["parameters"]; p != nil {
			if err := p.Decode(&t.Parameters); err != nil {
				return nil, d.errorf(p, "parameters: %v", err)
			}
		}
		return t, nil
	}
	return nil, d.errorf(n, "unknown tree kind %q", key)
}

func (d *decoder) setClauses(n *yaml.Node) ([]SetClause, error) {
	if n == nil {
		return nil, nil
	}
	items, err := d.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]SetClause, 0, len(items))
	for _, item := range items {
		f, err := d.fields(item, "column", "value")
		if err != nil {
			return nil, err
		}
		col, err := d.node(f["column"])
		if err != nil {
			return nil, err
		}
		val, err := d.node(f["value"])
		if err != nil {
			return nil, err
		}
		out = append(out, SetClause{Property: col, Value: val})
	}
	return out, nil
}

func (d *decoder) optNode(n *yaml.Node) (Node, error) {
	if n == nil {
		return nil, nil
	}
	return d.node(n)
}

func (d *decoder) optRow(n *yaml.Node) (*NewRow, error) {
	if n == nil {
		return nil, nil
	}
	cols, err := d.columns(n)
	if err != nil {
		return nil, err
	}
	return &NewRow{Columns: cols}, nil
}

func (d *decoder) binding(n *yaml.Node) (Binding, error) {
	f, err := d.fields(n, "as", "expr")
	if err != nil {
		return Binding{}, err
	}
	name, err := d.scalar(f["as"])
	if err != nil {
		return Binding{}, err
	}
	expr, err := d.node(f["expr"])
	if err != nil {
		return Binding{}, err
	}
	return Binding{Expr: expr, Var: name}, nil
}

func (d *decoder) columns(n *yaml.Node) ([]Column, error) {
	items, err := d.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]Column, 0, len(items))
	for _, item := range items {
		f, err := d.fields(item, "name", "expr")
		if err != nil {
			return nil, err
		}
		var name string
		if f["name"] != nil {
			if name, err = d.scalar(f["name"]); err != nil {
				return nil, err
			}
		}
		expr, err := d.node(f["expr"])
		if err != nil {
			return nil, err
		}
		out = append(out, Column{Name: name, Expr: expr})
	}
	return out, nil
}

func (d *decoder) sortKeys(n *yaml.Node) ([]SortKey, error) {
	if n == nil {
		return nil, nil
	}
	items, err := d.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]SortKey, 0, len(items))
	for _, item := range items {
		f, err := d.fields(item, "expr", "desc")
		if err != nil {
			return nil, err
		}
		expr, err := d.node(f["expr"])
		if err != nil {
			return nil, err
		}
		key := SortKey{Expr: expr}
		if dn := f["desc"]; dn != nil {
			if err := dn.Decode(&key.Descending); err != nil {
				return nil, d.errorf(dn, "desc: %v", err)
			}
		}
		out = append(out, key)
	}
	return out, nil
}

func (d *decoder) pair(n *yaml.Node) (Node, Node, error) {
	items, err := d.seq(n)
	if err != nil {
		return nil, nil, err
	}
	if len(items) != 2 {
		return nil, nil, d.errorf(n, "expected exactly 2 operands, got %d", len(items))
	}
	l, err := d.node(items[0])
	if err != nil {
		return nil, nil, err
	}
	r, err := d.node(items[1])
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func (d *decoder) nodes(n *yaml.Node) ([]Node, error) {
	items, err := d.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(items))
	for _, item := range items {
		x, err := d.node(item)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

var compareOps = map[string]CompareOp{
	"eq": OpEqual, "ne": OpNotEqual, "lt": OpLess,
	"gt": OpGreater, "le": OpLessEqual, "ge": OpGreaterEqual,
}

var arithOps = map[string]ArithOp{
	"add": OpPlus, "sub": OpMinus, "mul": OpMultiply, "div": OpDivide, "mod": OpModulo,
}

var joinKinds = map[string]JoinKind{
	"inner": JoinInner, "left": JoinLeftOuter, "full": JoinFullOuter, "cross": JoinCross,
}

// node decodes one plan node.
func (d *decoder) node(n *yaml.Node) (Node, error) {
	key, val, err := d.single(n)
	if err != nil {
		return nil, err
	}

	if op, ok := compareOps[key]; ok {
		l, r, err := d.pair(val)
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: op, Left: l, Right: r}, nil
	}
	if op, ok := arithOps[key]; ok {
		l, r, err := d.pair(val)
		if err != nil {
			return nil, err
		}
		return &Arithmetic{Op: op, Args: []Node{l, r}}, nil
	}

	switch key {
	case "scan":
		set, err := d.entitySet(val)
		if err != nil {
			return nil, err
		}
		return &Scan{Target: set}, nil

	case "project":
		f, err := d.fields(val, "input", "columns")
		if err != nil {
			return nil, err
		}
		in, err := d.binding(f["input"])
		if err != nil {
			return nil, err
		}
		cols, err := d.columns(f["columns"])
		if err != nil {
			return nil, err
		}
		return &Project{Input: in, Projection: &NewRow{Columns: cols}}, nil

	case "filter":
		f, err := d.fields(val, "input", "where")
		if err != nil {
			return nil, err
		}
		in, err := d.binding(f["input"])
		if err != nil {
			return nil, err
		}
		pred, err := d.node(f["where"])
		if err != nil {
			return nil, err
		}
		return &Filter{Input: in, Predicate: pred}, nil

	case "join":
		f, err := d.fields(val, "kind", "left", "right", "on")
		if err != nil {
			return nil, err
		}
		j := &Join{Kind: JoinInner}
		if kn := f["kind"]; kn != nil {
			k, ok := joinKinds[kn.Value]
			if !ok {
				return nil, d.errorf(kn, "unknown join kind %q", kn.Value)
			}
			j.Kind = k
		}
		if j.Left, err = d.binding(f["left"]); err != nil {
			return nil, err
		}
		if j.Right, err = d.binding(f["right"]); err != nil {
			return nil, err
		}
		if j.Condition, err = d.optNode(f["on"]); err != nil {
			return nil, err
		}
		return j, nil

	case "groupBy":
		return d.groupBy(val)

	case "sort":
		f, err := d.fields(val, "input", "keys")
		if err != nil {
			return nil, err
		}
		in, err := d.binding(f["input"])
		if err != nil {
			return nil, err
		}
		keys, err := d.sortKeys(f["keys"])
		if err != nil {
			return nil, err
		}
		return &Sort{Input: in, Keys: keys}, nil

	case "skip":
		f, err := d.fields(val, "input", "keys", "count")
		if err != nil {
			return nil, err
		}
		in, err := d.binding(f["input"])
		if err != nil {
			return nil, err
		}
		keys, err := d.sortKeys(f["keys"])
		if err != nil {
			return nil, err
		}
		count, err := d.node(f["count"])
		if err != nil {
			return nil, err
		}
		return &Skip{Input: in, Keys: keys, Count: count}, nil

	case "limit":
		f, err := d.fields(val, "input", "count")
		if err != nil {
			return nil, err
		}
		in, err := d.node(f["input"])
		if err != nil {
			return nil, err
		}
		count, err := d.node(f["count"])
		if err != nil {
			return nil, err
		}
		return &Limit{Input: in, Count: count}, nil

	case "distinct":
		in, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &Distinct{Input: in}, nil

	case "apply":
		f, err := d.fields(val, "kind", "input", "apply")
		if err != nil {
			return nil, err
		}
		a := &Apply{Kind: ApplyCross}
		if kn := f["kind"]; kn != nil {
			switch kn.Value {
			case "cross":
			case "outer":
				a.Kind = ApplyOuter
			default:
				return nil, d.errorf(kn, "unknown apply kind %q", kn.Value)
			}
		}
		if a.Input, err = d.binding(f["input"]); err != nil {
			return nil, err
		}
		if a.Apply, err = d.binding(f["apply"]); err != nil {
			return nil, err
		}
		return a, nil

	case "unionAll":
		l, r, err := d.pair(val)
		if err != nil {
			return nil, err
		}
		return &UnionAll{Left: l, Right: r}, nil

	case "except":
		l, r, err := d.pair(val)
		if err != nil {
			return nil, err
		}
		return &Except{Left: l, Right: r}, nil

	case "intersect":
		l, r, err := d.pair(val)
		if err != nil {
			return nil, err
		}
		return &Intersect{Left: l, Right: r}, nil

	case "element":
		in, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &Element{Input: in}, nil

	case "row":
		cols, err := d.columns(val)
		if err != nil {
			return nil, err
		}
		return &NewRow{Columns: cols}, nil

	case "var":
		name, err := d.scalar(val)
		if err != nil {
			return nil, err
		}
		return &VarRef{Name: name}, nil

	case "prop":
		path, err := d.scalar(val)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(path, ".")
		for _, p := range parts {
			if p == "" {
				return nil, d.errorf(val, "malformed property path %q", path)
			}
		}
		if len(parts) < 2 {
			return nil, d.errorf(val, "property path %q needs a variable and a member", path)
		}
		return Prop(parts[0], parts[1:]...), nil

	case "param":
		if val.Kind == yaml.ScalarNode {
			return &ParamRef{Name: val.Value}, nil
		}
		f, err := d.fields(val, "name", "type")
		if err != nil {
			return nil, err
		}
		p := &ParamRef{}
		if p.Name, err = d.scalar(f["name"]); err != nil {
			return nil, err
		}
		if tn := f["type"]; tn != nil {
			if p.Type, err = ParseTypeKind(tn.Value); err != nil {
				return nil, d.errorf(tn, "%v", err)
			}
		}
		return p, nil

	case "const":
		return d.constant(val)

	case "null":
		tn, err := d.scalar(val)
		if err != nil {
			return nil, err
		}
		k, err := ParseTypeKind(tn)
		if err != nil {
			return nil, d.errorf(val, "%v", err)
		}
		return &Null{Type: k}, nil

	case "call":
		f, err := d.fields(val, "function", "args")
		if err != nil {
			return nil, err
		}
		fn, err := d.function(f["function"])
		if err != nil {
			return nil, err
		}
		c := &Call{Function: fn}
		if an := f["args"]; an != nil {
			if c.Args, err = d.nodes(an); err != nil {
				return nil, err
			}
		}
		return c, nil

	case "case":
		f, err := d.fields(val, "when", "then", "else")
		if err != nil {
			return nil, err
		}
		c := &Case{}
		if c.When, err = d.nodes(f["when"]); err != nil {
			return nil, err
		}
		if c.Then, err = d.nodes(f["then"]); err != nil {
			return nil, err
		}
		if c.Else, err = d.optNode(f["else"]); err != nil {
			return nil, err
		}
		return c, nil

	case "like":
		f, err := d.fields(val, "arg", "pattern", "escape")
		if err != nil {
			return nil, err
		}
		l := &Like{}
		if l.Arg, err = d.node(f["arg"]); err != nil {
			return nil, err
		}
		if l.Pattern, err = d.node(f["pattern"]); err != nil {
			return nil, err
		}
		if l.Escape, err = d.optNode(f["escape"]); err != nil {
			return nil, err
		}
		return l, nil

	case "isNull":
		arg, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &IsNull{Arg: arg}, nil

	case "isEmpty":
		in, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &IsEmpty{Input: in}, nil

	case "not":
		arg, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &Not{Arg: arg}, nil

	case "and", "or":
		ops, err := d.nodes(val)
		if err != nil {
			return nil, err
		}
		if len(ops) < 2 {
			return nil, d.errorf(val, "%s needs at least 2 operands", key)
		}
		acc := ops[0]
		for _, next := range ops[1:] {
			if key == "and" {
				acc = &And{Left: acc, Right: next}
			} else {
				acc = &Or{Left: acc, Right: next}
			}
		}
		return acc, nil

	case "neg":
		arg, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &Arithmetic{Op: OpNegate, Args: []Node{arg}}, nil

	case "cast":
		f, err := d.fields(val, "arg", "type")
		if err != nil {
			return nil, err
		}
		arg, err := d.node(f["arg"])
		if err != nil {
			return nil, err
		}
		tn, err := d.scalar(f["type"])
		if err != nil {
			return nil, err
		}
		k, err := ParseTypeKind(tn)
		if err != nil {
			return nil, d.errorf(f["type"], "%v", err)
		}
		return &Cast{Arg: arg, Type: k}, nil

	case "navigate":
		f, err := d.fields(val, "source", "relationship")
		if err != nil {
			return nil, err
		}
		src, err := d.node(f["source"])
		if err != nil {
			return nil, err
		}
		rel, err := d.scalar(f["relationship"])
		if err != nil {
			return nil, err
		}
		return &Navigate{Source: src, Relationship: rel}, nil

	case "deref":
		arg, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &Deref{Arg: arg}, nil

	case "ref":
		arg, err := d.node(val)
		if err != nil {
			return nil, err
		}
		return &Ref{Arg: arg}, nil

	case "ofType":
		f, err := d.fields(val, "input", "type")
		if err != nil {
			return nil, err
		}
		in, err := d.node(f["input"])
		if err != nil {
			return nil, err
		}
		tn, err := d.scalar(f["type"])
		if err != nil {
			return nil, err
		}
		return &OfType{Input: in, Type: tn}, nil
	}

	return nil, d.errorf(n, "unknown node kind %q", key)
}

func (d *decoder) groupBy(val *yaml.Node) (Node, error) {
	f, err := d.fields(val, "input", "keys", "aggregates")
	if err != nil {
		return nil, err
	}
	in, err := d.fields(f["input"], "as", "group", "expr")
	if err != nil {
		return nil, err
	}
	g := &GroupBy{}
	if g.Input.Var, err = d.scalar(in["as"]); err != nil {
		return nil, err
	}
	if g.Input.GroupVar, err = d.scalar(in["group"]); err != nil {
		return nil, err
	}
	if g.Input.Expr, err = d.node(in["expr"]); err != nil {
		return nil, err
	}
	if kn := f["keys"]; kn != nil {
		if g.Keys, err = d.columns(kn); err != nil {
			return nil, err
		}
	}
	if an := f["aggregates"]; an != nil {
		items, err := d.seq(an)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			af, err := d.fields(item, "name", "function", "args", "distinct")
			if err != nil {
				return nil, err
			}
			a := Aggregate{}
			if a.Name, err = d.scalar(af["name"]); err != nil {
				return nil, err
			}
			if a.Function, err = d.function(af["function"]); err != nil {
				return nil, err
			}
			if a.Args, err = d.nodes(af["args"]); err != nil {
				return nil, err
			}
			if dn := af["distinct"]; dn != nil {
				if err := dn.Decode(&a.Distinct); err != nil {
					return nil, d.errorf(dn, "distinct: %v", err)
				}
			}
			g.Aggregates = append(g.Aggregates, a)
		}
	}
	return g, nil
}

// function resolves "Namespace.Name" or an inline descriptor mapping.
func (d *decoder) function(n *yaml.Node) (*Function, error) {
	if n == nil {
		return nil, d.errorf(n, "missing function")
	}
	if n.Kind == yaml.MappingNode {
		var fn Function
		if err := n.Decode(&fn); err != nil {
			return nil, d.errorf(n, "function: %v", err)
		}
		return &fn, nil
	}
	full, err := d.scalar(n)
	if err != nil {
		return nil, err
	}
	ns, name := "", full
	if i := strings.LastIndex(full, "."); i >= 0 {
		ns, name = full[:i], full[i+1:]
	}
	if ns == CanonicalNamespace {
		return &Function{Namespace: ns, Name: name}, nil
	}
	if d.cat != nil {
		if fn, ok := d.cat.Function(full); ok {
			return fn, nil
		}
	}
	return &Function{Namespace: ns, Name: name}, nil
}

// entitySet resolves a catalog name or an inline descriptor mapping.
func (d *decoder) entitySet(n *yaml.Node) (*EntitySet, error) {
	if n.Kind == yaml.ScalarNode {
		if d.cat != nil {
			if set, ok := d.cat.EntitySet(n.Value); ok {
				return set, nil
			}
		}
		// An unknown set still scans by name; its columns are unknown.
		return &EntitySet{Name: n.Value}, nil
	}
	f, err := d.fields(n, "name", "schema", "table", "definingQuery", "columns")
	if err != nil {
		return nil, err
	}
	set := &EntitySet{}
	for key, dst := range map[string]*string{
		"name": &set.Name, "schema": &set.Schema, "table": &set.Table, "definingQuery": &set.DefiningQuery,
	} {
		if v := f[key]; v != nil {
			*dst = v.Value
		}
	}
	if cn := f["columns"]; cn != nil {
		items, err := d.seq(cn)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			col, err := d.columnInfo(item)
			if err != nil {
				return nil, err
			}
			set.Columns = append(set.Columns, col)
		}
	}
	if set.Name == "" {
		return nil, d.errorf(n, "entity set needs a name")
	}
	return set, nil
}

func (d *decoder) columnInfo(n *yaml.Node) (ColumnInfo, error) {
	if n.Kind == yaml.ScalarNode {
		return ColumnInfo{Name: n.Value, Nullable: true}, nil
	}
	f, err := d.fields(n, "name", "type", "nullable", "identity")
	if err != nil {
		return ColumnInfo{}, err
	}
	col := ColumnInfo{Nullable: true}
	if col.Name, err = d.scalar(f["name"]); err != nil {
		return ColumnInfo{}, err
	}
	if tn := f["type"]; tn != nil {
		if col.Type, err = ParseTypeKind(tn.Value); err != nil {
			return ColumnInfo{}, d.errorf(tn, "%v", err)
		}
	}
	if nn := f["nullable"]; nn != nil {
		if err := nn.Decode(&col.Nullable); err != nil {
			return ColumnInfo{}, d.errorf(nn, "nullable: %v", err)
		}
	}
	if in := f["identity"]; in != nil {
		if err := in.Decode(&col.Identity); err != nil {
			return ColumnInfo{}, d.errorf(in, "identity: %v", err)
		}
	}
	return col, nil
}

func (d *decoder) constant(n *yaml.Node) (Node, error) {
	f, err := d.fields(n, "type", "value")
	if err != nil {
		return nil, err
	}
	if f["type"] == nil || f["value"] == nil {
		return nil, d.errorf(n, "const needs type and value")
	}
	kind, err := ParseTypeKind(f["type"].Value)
	if err != nil {
		return nil, d.errorf(f["type"], "%v", err)
	}
	v, err := d.constValue(kind, f["value"])
	if err != nil {
		return nil, err
	}
	return &Constant{Type: kind, Value: v}, nil
}

var intRanges = map[TypeKind][2]int64{
	TypeByte:  {0, math.MaxUint8},
	TypeSByte: {math.MinInt8, math.MaxInt8},
	TypeInt16: {math.MinInt16, math.MaxInt16},
	TypeInt32: {math.MinInt32, math.MaxInt32},
	TypeInt64: {math.MinInt64, math.MaxInt64},
}

// constValue decodes a constant's value into the Go type used for kind.
func (d *decoder) constValue(kind TypeKind, n *yaml.Node) (any, error) {
	switch kind {
	case TypeBoolean:
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "boolean constant: %v", err)
		}
		return b, nil

	case TypeByte, TypeSByte, TypeInt16, TypeInt32, TypeInt64:
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, d.errorf(n, "%s constant: %v", kind, err)
		}
		r := intRanges[kind]
		if i < r[0] || i > r[1] {
			return nil, d.errorf(n, "%s constant %d out of range", kind, i)
		}
		switch kind {
		case TypeByte:
			return uint8(i), nil
		case TypeSByte:
			return int8(i), nil
		case TypeInt16:
			return int16(i), nil
		case TypeInt32:
			return int32(i), nil
		}
		return i, nil

	case TypeDouble:
		var x float64
		if err := n.Decode(&x); err != nil {
			return nil, d.errorf(n, "double constant: %v", err)
		}
		return x, nil

	case TypeSingle:
		var x float32
		if err := n.Decode(&x); err != nil {
			return nil, d.errorf(n, "single constant: %v", err)
		}
		return x, nil

	case TypeDecimal:
		dec, err := decimal.NewFromString(n.Value)
		if err != nil {
			return nil, d.errorf(n, "decimal constant: %v", err)
		}
		return dec, nil

	case TypeDateTime, TypeDateTimeOffset:
		var t time.Time
		if err := n.Decode(&t); err == nil {
			return t, nil
		}
		t, err := time.Parse(time.RFC3339Nano, n.Value)
		if err != nil {
			return nil, d.errorf(n, "%s constant: %v", kind, err)
		}
		return t, nil

	case TypeGuid:
		id, err := uuid.Parse(n.Value)
		if err != nil {
			return nil, d.errorf(n, "guid constant: %v", err)
		}
		return id, nil

	case TypeBinary:
		b, err := base64.StdEncoding.DecodeString(n.Value)
		if err != nil {
			return nil, d.errorf(n, "binary constant (base64): %v", err)
		}
		return b, nil

	case TypeString, TypeTime, TypeGeometry:
		return n.Value, nil
	}
	return nil, d.errorf(n, "unsupported constant type %s", kind)
}
