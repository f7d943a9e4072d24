package utils

import (
	"fmt"

	"gorm.io/gorm"
)

// Grid-filter translation for the list endpoints: data-grid clients send
// (field, operator, value) triples which are mapped onto SQL predicates.
// Presentation convenience only; the messaging core does not depend on it.

// filterableFields whitelists the columns a grid filter may touch. Filters
// on anything else are rejected rather than interpolated into SQL.
var filterableFields = map[string]bool{
	"project": true,
	"app":     true,
	"model":   true,
	"subject": true,
	"text":    true,
}

// ApplyGridFilter adds the predicate for one (field, operator, value)
// triple to the query. Unknown fields and operators are errors the caller
// surfaces as a validation failure.
func ApplyGridFilter(q *gorm.DB, field, operator, value string) (*gorm.DB, error) {
	if !filterableFields[field] {
		return nil, fmt.Errorf("field %q is not filterable", field)
	}

	switch operator {
	case "eq":
		return q.Where(field+" = ?", value), nil
	case "neq":
		return q.Where(field+" <> ?", value), nil
	case "isnull":
		return q.Where(field + " IS NULL"), nil
	case "isnotnull":
		return q.Where(field + " IS NOT NULL"), nil
	case "isempty":
		return q.Where(field + " = ''"), nil
	case "isnotempty":
		return q.Where(field + " <> ''"), nil
	case "startswith":
		return q.Where(field+" LIKE ?", value+"%"), nil
	case "doesnotstartwith":
		return q.Where(field+" NOT LIKE ?", value+"%"), nil
	case "contains":
		return q.Where(field+" LIKE ?", "%"+value+"%"), nil
	case "doesnotcontain":
		return q.Where(field+" NOT LIKE ?", "%"+value+"%"), nil
	case "endswith":
		return q.Where(field+" LIKE ?", "%"+value), nil
	case "doesnotendwith":
		return q.Where(field+" NOT LIKE ?", "%"+value), nil
	default:
		return nil, fmt.Errorf("unsupported filter operator %q", operator)
	}
}
