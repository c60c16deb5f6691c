// Package filter translates the search engine's caller-supplied
// metadata filters into a store-level predicate. Only equality is
// supported and clauses combine with logical AND; nothing in the
// search surface needs comparison or boolean operators beyond that.
package filter

import (
	"github.com/spf13/cast"
)

// Condition is one field-equals-value test. Value is coerced to a
// string at translation time, matching the scalar-field schema every
// Store backend persists.
type Condition struct {
	Field string
	Value string
}

// Predicate is the AND-combination of every Condition that survived
// translation. A zero-value Predicate (no conditions) matches
// everything.
type Predicate struct {
	Conditions []Condition
}

// fieldAliases maps the caller-facing filter keys to the schema's
// scalar field names. Any key not present here is passed through
// verbatim, letting callers filter on Tags or ArtifactType without a
// dedicated alias.
var fieldAliases = map[string]string{
	"documentId":  "DocumentId",
	"executionId": "ExecutionId",
	"index":       "Index",
	"fileName":    "FileName",
}

// Translate builds a Predicate from a map of caller-supplied
// field-equals-value filters. Only equality is supported: every value
// is coerced to a string, and a filter whose value cannot be coerced is
// dropped rather than rejecting the whole request.
func Translate(filters map[string]any) Predicate {
	if len(filters) == 0 {
		return Predicate{}
	}

	var p Predicate
	for key, value := range filters {
		field := key
		if alias, ok := fieldAliases[key]; ok {
			field = alias
		}

		str, err := cast.ToStringE(value)
		if err != nil {
			continue
		}
		p.Conditions = append(p.Conditions, Condition{Field: field, Value: str})
	}
	return p
}
