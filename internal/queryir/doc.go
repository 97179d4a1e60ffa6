// Package queryir provides a small query intermediate representation for
// reading the item table.
//
// QueryIR is the boundary between callers that describe which records they
// want (by name, by state, or both) and the backend that turns the request
// into SQL. Callers never build SQL text.
//
// FRAGMENT:
//
// The supported fragment is:
//   - Select(from, columns, filter, order_by)
//   - Predicates: Equals, In, And
//
// In expresses "matches at least one of these values" (OR within one
// filter). And combines filters (AND across filters). There is no general Or
// predicate, no NULL handling, and no joins.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package implement them, so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case In:
//	    // field IN (?, ?, ...)
//	case And:
//	    // p1 AND p2
//	}
//
// IDENTIFIERS VS VALUES:
//
// Table and column names are identifiers and are validated against a strict
// pattern before a backend may print them. Values are always carried as
// bound parameters, never printed.
package queryir
