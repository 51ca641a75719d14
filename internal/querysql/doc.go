// Package querysql translates query-plan trees into MySQL text plus an
// ordered parameter list.
//
// ARCHITECTURE:
//
//	queryir.Tree
//	   │  visit (scalar.go, select.go, dml.go)
//	   ▼
//	fragment tree ──► rewrites (LIKE promotion, OR→IN, GROUP BY flattening)
//	   │
//	   ▼
//	SQL text + []Parameter
//
// Each call to Generate owns a fresh translation context: the scope that
// resolves plan variables to FROM inputs, the parameter list and its
// counter, and the property-path depth. Nothing from one translation leaks
// into another, so a Generator may be shared between goroutines.
//
// Constants with an exact, locale-independent literal form (integers,
// finite floats, decimals, booleans) are inlined; every other constant is
// bound as a parameter named @gp1, @gp2, ... in the order the generator
// meets it.
//
// Node kinds MySQL cannot express (set difference, intersection, type
// filtering, reference navigation, FULL OUTER JOIN, multi-row APPLY) fail
// with an ErrCodeUnsupported GenerationError. Structural violations fail
// with ErrCodeMalformed. The rewrite passes never fail; on any mismatch
// they leave the fragment tree as it was.
package querysql
