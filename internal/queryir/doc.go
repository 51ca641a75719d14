// Package queryir defines the query-plan trees that plansql translates to
// MySQL text.
//
// A plan is the dialect-neutral tree an object-relational mapper produces:
// relational operators (Scan, Project, Filter, Join, GroupBy, Sort, Skip,
// Limit, Distinct, Apply, UnionAll, Element, NewRow) over scalar
// sub-expressions (VarRef, Property, Constant, Call, Comparison and friends).
//
// ARCHITECTURE:
//
//	[plan YAML] → [queryir.Tree] → [querysql.Generator] → (SQL text, parameters)
//
// Nothing in this package knows about SQL syntax. Catalog descriptors
// (EntitySet, Function) carry the metadata overrides the generator honours:
// an explicit defining query, schema and table names, a store function name,
// and the built-in and niladic flags.
//
// SEALED INTERFACES:
//
// Node and Tree are sealed with marker methods. Only types in this package
// implement them, which lets the generator use exhaustive type switches:
//
//	switch n := node.(type) {
//	case *Scan:
//	    // table reference
//	case *Filter:
//	    // WHERE
//	default:
//	    // unsupported node kind
//	}
//
// Plans are never mutated by the generator. The same tree may be translated
// any number of times, concurrently, by independent generators.
package queryir
