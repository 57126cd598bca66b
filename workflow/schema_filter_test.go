package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/gtmflow/types"
)

func TestFilterSchemaFields_EmptySetReturnsOriginal(t *testing.T) {
	schema := blogSchema()

	assert.Same(t, schema, FilterSchemaFields(schema, nil))
	assert.Same(t, schema, FilterSchemaFields(schema, NewFieldSet()))
	assert.Nil(t, FilterSchemaFields(nil, NewFieldSet("a")))
}

func TestFilterSchemaFields_RemovesPropertiesAndRequired(t *testing.T) {
	schema := blogSchema()
	before, err := schema.Schema.ToJSON()
	require.NoError(t, err)

	filtered := FilterSchemaFields(schema, NewFieldSet("tone", "keywords", "unknown"))

	assert.NotContains(t, filtered.Schema.Properties, "tone")
	assert.NotContains(t, filtered.Schema.Properties, "keywords")
	assert.Equal(t, []string{"topic"}, filtered.Schema.Required)
	assert.Len(t, filtered.Schema.Properties, len(schema.Schema.Properties)-2)
	assert.Same(t, schema.Schema.Properties["topic"], filtered.Schema.Properties["topic"])
	assert.Equal(t, schema.ID, filtered.ID)

	// 源 schema 未被修改
	after, err := schema.Schema.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestFilterSchemaFields_OmitsEmptiedRequired(t *testing.T) {
	filtered := FilterSchemaFields(blogSchema(), NewFieldSet("topic", "tone"))
	assert.Nil(t, filtered.Schema.Required)

	data, err := filtered.Schema.ToJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"required"`)
}

func TestFilterSchemaFields_NoSchemaBody(t *testing.T) {
	s := &types.AgentSchema{ID: "bare"}
	filtered := FilterSchemaFields(s, NewFieldSet("a"))
	assert.Equal(t, "bare", filtered.ID)
	assert.Nil(t, filtered.Schema)
}
