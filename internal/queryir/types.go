package queryir

// Query represents an abstract read query.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from a table, keeping rows that satisfy Filter.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order_by>
//
// Example:
//
//	Select{
//	  From:    "items",
//	  Columns: []string{"name", "state"},
//	  Filter: And{Predicates: []Predicate{
//	    In{Field: "name", Values: []string{"1", "2"}},
//	    In{Field: "state", Values: []string{"a"}},
//	  }},
//	  OrderBy: "name",
//	}
//
// Translates to SQL:
//
//	SELECT name, state FROM items
//	WHERE name IN (?, ?) AND state IN (?)
//	ORDER BY name COLLATE BINARY ASC
type Select struct {
	From    string    // Table name
	Columns []string  // Selected columns, in order (required)
	Filter  Predicate // WHERE conditions (nil = no filter)
	OrderBy string    // Sort column (empty = first column)
}

func (Select) queryNode() {}

// Equals is true when Field equals Value.
type Equals struct {
	Field string
	Value string
}

func (Equals) predicateNode() {}

// In is true when Field equals any of Values.
// An In with no values matches nothing.
type In struct {
	Field  string
	Values []string
}

func (In) predicateNode() {}

// And is true when every predicate is true.
// An empty And is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
