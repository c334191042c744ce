// Package sqlupdate builds the SET fragment of a parameterized SQL UPDATE
// statement out of a sparse set of field changes.
package sqlupdate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

// Field is a single logical field to change together with its new value.
type Field struct {
	Name  string
	Value any
}

// Clause is the result of ForPartialUpdate.
//
// SetCols looks like `"col1"=$1, "col2"=$2` and Values holds the arguments to
// bind to those placeholders, in the same order.
type Clause struct {
	SetCols string
	Values  []any
}

// NextPlaceholder returns the positional placeholder that follows the last
// one used by the SET fragment, e.g. for the WHERE clause of the statement.
func (c Clause) NextPlaceholder() string {
	return fmt.Sprintf("$%d", len(c.Values)+1)
}

// ForPartialUpdate turns fields into a SET fragment. Each logical field name
// is mapped to its column through columns; names absent from columns are
// used as the column name verbatim. Placeholders are numbered from $1 in the
// order of fields.
//
// An empty fields slice is rejected with models.ErrBadInput: there is nothing
// to update.
func ForPartialUpdate(fields []Field, columns map[string]string) (Clause, error) {
	if len(fields) == 0 {
		return Clause{}, fmt.Errorf("%w: no data", models.ErrBadInput)
	}

	cols := make([]string, 0, len(fields))
	values := make([]any, 0, len(fields))
	for i, field := range fields {
		column, ok := columns[field.Name]
		if !ok || column == "" {
			column = field.Name
		}
		cols = append(cols, fmt.Sprintf(`%s=$%d`, quoteIdent(column), i+1))
		values = append(values, field.Value)
	}

	return Clause{
		SetCols: strings.Join(cols, ", "),
		Values:  values,
	}, nil
}

// FieldsFromMap converts an unordered field map into a Field slice sorted by
// field name, so the same map always yields the same statement.
func FieldsFromMap(data map[string]any) []Field {
	if len(data) == 0 {
		return nil
	}

	names := funk.Keys(data).([]string)
	sort.Strings(names)

	result := make([]Field, 0, len(names))
	for _, name := range names {
		result = append(result, Field{Name: name, Value: data[name]})
	}

	return result
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
