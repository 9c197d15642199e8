package importer

import (
	"testing"

	"github.com/lockplane/schemaguard/internal/typerules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dogSpec() *ImportSpec {
	return &ImportSpec{
		Table: "dogs",
		Groups: []ColumnGroup{
			{Sources: []string{"tag1", "tag2", "tag3"}, Target: "tags", Type: typerules.TextArray},
		},
		Mappings: []ColumnMapping{
			{Source: "name", Target: "name", Type: typerules.Text},
			{Source: "tag1", Target: "first_tag", Type: typerules.Text},
			{Source: "age", Target: "age", Type: typerules.Integer},
		},
	}
}

func TestTransform(t *testing.T) {
	spec := dogSpec()

	t.Run("groups before mappings", func(t *testing.T) {
		got, err := Transform(spec, 1, Row{"name": " Rex ", "tag1": "good", "tag2": "", "tag3": nil, "age": "3"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"name": "Rex",
			"tags": []any{"good"},
			"age":  int64(3),
		}, got)
	})

	t.Run("empty group is omitted", func(t *testing.T) {
		got, err := Transform(spec, 2, Row{"name": "Fido", "tag1": " ", "age": nil})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "Fido", "age": nil}, got)
	})

	t.Run("missing source is omitted", func(t *testing.T) {
		got, err := Transform(spec, 3, Row{"name": "Ace"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "Ace"}, got)
	})

	t.Run("coercion failure", func(t *testing.T) {
		_, err := Transform(spec, 7, Row{"name": "Bad", "age": "old"})
		var te *TransformError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 7, te.Row)
		assert.Equal(t, "age", te.Column)
		assert.Contains(t, te.Error(), "row 7")
	})
}
