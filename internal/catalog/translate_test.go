package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionDeclaration_CopiesSchema(t *testing.T) {
	d := Descriptor{
		Name:        "get_order_by_id",
		Description: "Fetches an order by its ID",
		Method:      "GET",
		Endpoint:    "/mcp/orders/{id}",
		InputSchema: &InputSchema{
			Type: "object",
			Properties: map[string]any{
				"orderId": map[string]any{"type": "number"},
			},
			Required: []string{"orderId"},
		},
	}

	fn := FunctionDeclaration(d)
	assert.Equal(t, "get_order_by_id", fn.Name)
	assert.Equal(t, "Fetches an order by its ID", fn.Description)
	assert.Equal(t, "object", fn.Parameters.Type)
	assert.Equal(t, []string{"orderId"}, fn.Parameters.Required)
	assert.Contains(t, fn.Parameters.Properties, "orderId")
}

func TestFunctionDeclaration_NilSchema(t *testing.T) {
	fn := FunctionDeclaration(Descriptor{Name: "noop"})
	assert.Equal(t, "object", fn.Parameters.Type)
	assert.NotNil(t, fn.Parameters.Properties)
	assert.Empty(t, fn.Parameters.Properties)
	assert.NotNil(t, fn.Parameters.Required)
	assert.Empty(t, fn.Parameters.Required)
}

func TestFunctionDeclaration_FillsEmptyFields(t *testing.T) {
	fn := FunctionDeclaration(Descriptor{
		Name:        "loose",
		InputSchema: &InputSchema{},
	})
	assert.Equal(t, "object", fn.Parameters.Type)
	assert.NotNil(t, fn.Parameters.Properties)
	assert.NotNil(t, fn.Parameters.Required)
}

func TestFunctionDeclarations(t *testing.T) {
	fns := FunctionDeclarations([]Descriptor{
		{Name: "a"},
		{Name: "b"},
	})
	require.Len(t, fns, 2)
	assert.Equal(t, "a", fns[0].Name)
	assert.Equal(t, "b", fns[1].Name)

	assert.Empty(t, FunctionDeclarations(nil))
}
