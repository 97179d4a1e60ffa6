package queryir

import (
	"fmt"
	"regexp"
)

// identPattern is the only shape of table or column name a backend will print.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidationError describes one problem with a query.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that a query is inside the supported fragment and that
// every identifier is safe to print. Returns all errors (not fail-fast).
func Validate(q Query) []ValidationError {
	var errs []ValidationError

	switch query := q.(type) {
	case Select:
		errs = validateSelect(query)
	case *Select:
		if query == nil {
			return []ValidationError{{Field: "query", Message: "nil select"}}
		}
		errs = validateSelect(*query)
	default:
		errs = append(errs, ValidationError{Field: "query", Message: fmt.Sprintf("unsupported query type %T", q)})
	}

	return errs
}

func validateSelect(s Select) []ValidationError {
	var errs []ValidationError

	if !identPattern.MatchString(s.From) {
		errs = append(errs, ValidationError{Field: "from", Message: fmt.Sprintf("invalid table name %q", s.From)})
	}

	if len(s.Columns) == 0 {
		errs = append(errs, ValidationError{Field: "columns", Message: "at least one column is required"})
	}
	for i, col := range s.Columns {
		if !identPattern.MatchString(col) {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("columns[%d]", i), Message: fmt.Sprintf("invalid column name %q", col)})
		}
	}

	if s.OrderBy != "" && !identPattern.MatchString(s.OrderBy) {
		errs = append(errs, ValidationError{Field: "order_by", Message: fmt.Sprintf("invalid column name %q", s.OrderBy)})
	}

	if s.Filter != nil {
		errs = append(errs, validatePredicate("filter", s.Filter)...)
	}

	return errs
}

func validatePredicate(path string, p Predicate) []ValidationError {
	switch pred := p.(type) {
	case Equals:
		return validateField(path, pred.Field)
	case In:
		return validateField(path, pred.Field)
	case And:
		var errs []ValidationError
		for i, sub := range pred.Predicates {
			errs = append(errs, validatePredicate(fmt.Sprintf("%s.and[%d]", path, i), sub)...)
		}
		return errs
	case nil:
		return []ValidationError{{Field: path, Message: "nil predicate"}}
	default:
		return []ValidationError{{Field: path, Message: fmt.Sprintf("unsupported predicate type %T", p)}}
	}
}

func validateField(path, field string) []ValidationError {
	if !identPattern.MatchString(field) {
		return []ValidationError{{Field: path + ".field", Message: fmt.Sprintf("invalid column name %q", field)}}
	}
	return nil
}
