package retrieval

// FilterOp is the comparison operator of a filter clause.
type FilterOp string

const (
	// FilterOpEq matches a field against a single value.
	FilterOpEq FilterOp = "eq"
	// FilterOpIn matches a field against a set of values.
	FilterOpIn FilterOp = "in"
)

// Backend field names for scope filtering.
const (
	FieldProjectID = "project_id"
	FieldParentID  = "parent_object_id"
	FieldType      = "object_type"
)

// FilterClause is a single predicate on one object field.
type FilterClause struct {
	Field  string   `json:"field"`
	Op     FilterOp `json:"op"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// FilterSpec is the conjunctive predicate passed to the search backend.
// All clauses are ANDed. Deliberately minimal: no OR, no ranges - the
// backend only needs coarse scoping.
type FilterSpec struct {
	Clauses []FilterClause `json:"clauses"`
}

// BuildFilters translates scope parameters into a backend filter. Returns
// nil when no scoping field is set.
func BuildFilters(projectID, parentID string, types []ObjectType) *FilterSpec {
	var clauses []FilterClause

	if projectID != "" {
		clauses = append(clauses, FilterClause{
			Field: FieldProjectID,
			Op:    FilterOpEq,
			Value: projectID,
		})
	}

	if parentID != "" {
		clauses = append(clauses, FilterClause{
			Field: FieldParentID,
			Op:    FilterOpEq,
			Value: parentID,
		})
	}

	if len(types) > 0 {
		values := make([]string, len(types))
		for i, t := range types {
			values[i] = string(t)
		}
		clauses = append(clauses, FilterClause{
			Field:  FieldType,
			Op:     FilterOpIn,
			Values: values,
		})
	}

	if len(clauses) == 0 {
		return nil
	}
	return &FilterSpec{Clauses: clauses}
}
