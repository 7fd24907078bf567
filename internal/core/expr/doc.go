// Package expr defines the compiled predicate tree produced by filters and
// consumed by persistence engines.
//
// The tree is deliberately small: comparisons, membership in a multi-valued
// field, boolean connectives, and a numeric expression language made of field
// references, literals, the four arithmetic operators and the named functions
// SIN, COS, SQRT and ATAN2. SQRT treats a negative argument as 0, so rounding
// just below zero never yields NaN or a database error. An engine that can translate these nodes can
// execute every filter in the module, including the great-circle distance
// used by location filters.
//
// Predicate and Expr are sealed interfaces (marker methods), so engines can
// switch exhaustively over the node types:
//
//	switch p := pred.(type) {
//	case expr.Compare:
//	case expr.Contains:
//	case expr.And, expr.Or, expr.Not:
//	case expr.True, expr.False:
//	}
//
// Nodes are plain values and never mutated after construction, so a tree can
// be shared between goroutines and reused across queries.
package expr
