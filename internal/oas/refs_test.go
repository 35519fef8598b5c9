package oas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/jsonpath"
	"github.com/i2y/oasmeta/internal/oas"
)

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "Entity", oas.SchemaName("#/components/schemas/Entity"))
	assert.Equal(t, "Entity", oas.SchemaName("Entity"))
	assert.Equal(t, "", oas.SchemaName("#/components/schemas/"))
}

func TestFetchSchema(t *testing.T) {
	doc := loadDocument(t)

	tests := []struct {
		name    string
		schema  string
		wantErr bool
	}{
		{name: "existing schema", schema: "Widget"},
		{name: "missing schema", schema: "Missing", wantErr: true},
		{name: "empty name", schema: "", wantErr: true},
		{name: "name with delimiter", schema: "Odd>Name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := oas.FetchSchema(doc.Root, tt.schema)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrSchemaResolution)
				assert.Nil(t, schema)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "object", schema["type"])
		})
	}
}

func TestFetchSchema_MissingCarriesPath(t *testing.T) {
	doc := loadDocument(t)

	_, err := oas.FetchSchema(doc.Root, "Missing")
	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "components>schemas>Missing", resErr.Path)
	assert.ErrorIs(t, err, jsonpath.ErrMissingPath)
}

func TestReferenceTemplates(t *testing.T) {
	assert.Equal(t,
		"paths>/widgets>post>requestBody>content>application/json>schema>$ref",
		jsonpath.Expand(oas.RequestBodyRefTemplate, oas.EndpointToken, "/widgets", oas.OperationToken, "post"))
	assert.Equal(t,
		"paths>/widgets>get>responses>default>content>application/json>schema>$ref",
		jsonpath.Expand(oas.ResponseRefTemplate, oas.EndpointToken, "/widgets", oas.OperationToken, "get"))
}
