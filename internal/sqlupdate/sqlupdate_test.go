package sqlupdate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

func TestForPartialUpdate(t *testing.T) {
	tests := []struct {
		name          string
		fields        []Field
		columns       map[string]string
		wantSetCols   string
		wantValues    []any
		wantNextParam string
	}{
		{
			name:          "one item",
			fields:        []Field{{Name: "username", Value: "newuser"}},
			columns:       map[string]string{"username": "username", "email": "email"},
			wantSetCols:   `"username"=$1`,
			wantValues:    []any{"newuser"},
			wantNextParam: "$2",
		},
		{
			name: "two items",
			fields: []Field{
				{Name: "username", Value: "newuser"},
				{Name: "email", Value: "newemail@example.com"},
			},
			columns:       map[string]string{"username": "username", "email": "email"},
			wantSetCols:   `"username"=$1, "email"=$2`,
			wantValues:    []any{"newuser", "newemail@example.com"},
			wantNextParam: "$3",
		},
		{
			name: "logical names mapped to columns",
			fields: []Field{
				{Name: "thumbnailUrl", Value: "http://example.com/b.jpg"},
				{Name: "comment", Value: "Loved it!"},
			},
			columns:       map[string]string{"thumbnailUrl": "thumbnail_url"},
			wantSetCols:   `"thumbnail_url"=$1, "comment"=$2`,
			wantValues:    []any{"http://example.com/b.jpg", "Loved it!"},
			wantNextParam: "$3",
		},
		{
			name:          "nil column map means identity",
			fields:        []Field{{Name: "comment", Value: "Great book!"}},
			columns:       nil,
			wantSetCols:   `"comment"=$1`,
			wantValues:    []any{"Great book!"},
			wantNextParam: "$2",
		},
		{
			name:          "values are never inlined",
			fields:        []Field{{Name: "email", Value: `x'; DROP TABLE users; --`}},
			columns:       nil,
			wantSetCols:   `"email"=$1`,
			wantValues:    []any{`x'; DROP TABLE users; --`},
			wantNextParam: "$2",
		},
		{
			name:          "quotes in column names are escaped",
			fields:        []Field{{Name: `we"ird`, Value: 1}},
			columns:       nil,
			wantSetCols:   `"we""ird"=$1`,
			wantValues:    []any{1},
			wantNextParam: "$2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := ForPartialUpdate(tt.fields, tt.columns)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSetCols, clause.SetCols)
			assert.Equal(t, tt.wantValues, clause.Values)
			assert.Equal(t, tt.wantNextParam, clause.NextPlaceholder())
		})
	}
}

func TestForPartialUpdateEmpty(t *testing.T) {
	_, err := ForPartialUpdate(nil, map[string]string{"username": "username"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadInput)
	assert.Contains(t, err.Error(), "no data")

	_, err = ForPartialUpdate([]Field{}, nil)
	assert.ErrorIs(t, err, models.ErrBadInput)
}

func TestForPartialUpdatePlaceholdersAreSequential(t *testing.T) {
	for n := 1; n <= 12; n++ {
		fields := make([]Field, 0, n)
		for i := 0; i < n; i++ {
			fields = append(fields, Field{Name: fmt.Sprintf("f%d", i), Value: i})
		}

		clause, err := ForPartialUpdate(fields, nil)
		require.NoError(t, err)
		require.Len(t, clause.Values, n)

		for i := 0; i < n; i++ {
			assert.Contains(t, clause.SetCols, fmt.Sprintf(`"f%d"=$%d`, i, i+1))
			assert.Equal(t, i, clause.Values[i])
		}
		assert.NotContains(t, clause.SetCols, fmt.Sprintf("$%d", n+1))
	}
}

func TestFieldsFromMap(t *testing.T) {
	fields := FieldsFromMap(map[string]any{
		"username": "u",
		"email":    "u@example.com",
		"password": "hash",
	})

	assert.Equal(t, []Field{
		{Name: "email", Value: "u@example.com"},
		{Name: "password", Value: "hash"},
		{Name: "username", Value: "u"},
	}, fields)

	assert.Nil(t, FieldsFromMap(map[string]any{}))
}
