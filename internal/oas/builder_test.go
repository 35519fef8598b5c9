package oas_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/oas"
)

func scalarType(kind domain.Kind, format string) *domain.Type {
	return &domain.Type{Kind: kind, Format: format}
}

func cycleObject(name string) *domain.Type {
	obj := domain.NewObject(name)
	obj.Fields[name] = domain.Field{Name: name, Type: &domain.Type{Kind: domain.KindCycle, Label: name}}
	return obj
}

func widgetType() *domain.Type {
	obj := domain.NewObject("Widget")
	obj.Fields["name"] = domain.Field{Name: "name", Type: scalarType(domain.KindString, "string"), Required: true}
	obj.Fields["age"] = domain.Field{Name: "age", Type: scalarType(domain.KindNumber, "int64")}
	return obj
}

func TestBuilder_BuildType(t *testing.T) {
	doc := loadDocument(t)
	builder := oas.NewBuilder(testLogger())

	gadget := domain.NewObject("Gadget")
	gadget.Fields["id"] = domain.Field{Name: "id", Type: scalarType(domain.KindNumber, "int64")}

	node := domain.NewObject("Node")
	node.Fields["child"] = domain.Field{Name: "child", Type: cycleObject("Node")}
	node.Fields["label"] = domain.Field{Name: "label", Type: scalarType(domain.KindString, "string")}

	child := domain.NewObject("Child")
	child.Fields["parent"] = domain.Field{Name: "parent", Type: cycleObject("Parent")}
	parent := domain.NewObject("Parent")
	parent.Fields["child"] = domain.Field{Name: "child", Type: child}

	tests := []struct {
		name      string
		endpoint  string
		operation string
		template  string
		want      *domain.Type
	}{
		{
			name:      "request body object",
			endpoint:  "/widgets",
			operation: "post",
			template:  oas.RequestBodyRefTemplate,
			want:      widgetType(),
		},
		{
			name:      "collection wrapper under properties",
			endpoint:  "/widgets",
			operation: "get",
			template:  oas.ResponseRefTemplate,
			want:      domain.ArrayOf("WidgetPage", widgetType()),
		},
		{
			name:      "collection wrapper under items",
			endpoint:  "/gadgets",
			operation: "get",
			template:  oas.ResponseRefTemplate,
			want:      domain.ArrayOf("GadgetCollection", gadget),
		},
		{
			name:      "self reference",
			endpoint:  "/nodes/{id}",
			operation: "get",
			template:  oas.ResponseRefTemplate,
			want:      node,
		},
		{
			name:      "indirect cycle",
			endpoint:  "/parents/{id}",
			operation: "get",
			template:  oas.ResponseRefTemplate,
			want:      parent,
		},
		{
			name:      "operation without response schema",
			endpoint:  "/entities/{id}",
			operation: "delete",
			template:  oas.ResponseRefTemplate,
			want:      domain.AnyType(),
		},
		{
			name:      "operation without request body",
			endpoint:  "/widgets",
			operation: "get",
			template:  oas.RequestBodyRefTemplate,
			want:      domain.AnyType(),
		},
		{
			name:      "undeclared endpoint",
			endpoint:  "/unknown",
			operation: "get",
			template:  oas.ResponseRefTemplate,
			want:      domain.AnyType(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := builder.BuildType(doc, tt.endpoint, tt.operation, tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuilder_BuildType_EntityFields(t *testing.T) {
	assert := assert.New(t)
	doc := loadDocument(t)
	builder := oas.NewBuilder(testLogger())

	entity, err := builder.BuildType(doc, "/entities/{id}", "get", oas.ResponseRefTemplate)
	require.NoError(t, err)
	assert.Equal(domain.KindObject, entity.Kind)
	assert.Equal("Entity", entity.Label)

	scalars := map[string]*domain.Type{
		"bigDecimalField":    scalarType(domain.KindNumber, "bigdecimal"),
		"binaryField":        scalarType(domain.KindBinary, "binary"),
		"booleanField":       scalarType(domain.KindBoolean, "boolean"),
		"byteField":          scalarType(domain.KindNumber, "byte"),
		"dateField":          scalarType(domain.KindDate, "date"),
		"dateTimeField":      scalarType(domain.KindDateTime, "date-time"),
		"dictionaryField":    {Kind: domain.KindDictionary},
		"doubleField":        scalarType(domain.KindNumber, "double"),
		"floatField":         scalarType(domain.KindNumber, "float"),
		"integerField":       scalarType(domain.KindNumber, "int32"),
		"longField":          scalarType(domain.KindNumber, "int64"),
		"objectField":        scalarType(domain.KindObject, "object"),
		"stringField":        scalarType(domain.KindString, "string"),
		"unknownFormatField": scalarType(domain.KindNumber, "float"),
		"x-class-name":       scalarType(domain.KindString, "string"),
	}
	for name, want := range scalars {
		field, ok := entity.Field(name)
		if assert.True(ok, "missing field %s", name) {
			assert.Equal(want, field.Type, "field %s", name)
		}
	}

	for _, name := range entity.FieldNames() {
		field, _ := entity.Field(name)
		wantRequired := name == "booleanField" || name == "longField"
		assert.Equal(wantRequired, field.Required, "required flag of %s", name)
	}

	stringArray, _ := entity.Field("stringArrayField")
	assert.Equal(domain.ArrayOf("", scalarType(domain.KindString, "string")), stringArray.Type)

	parentField, _ := entity.Field("parentEntityField")
	assert.Equal(cycleObject("Entity"), parentField.Type)

	entityArray, _ := entity.Field("entityArrayField")
	assert.Equal(domain.ArrayOf("", cycleObject("Entity")), entityArray.Type)

	nested, _ := entity.Field("nestedEntityField")
	assert.Equal("NestedEntity", nested.Type.Label)
	assert.Equal([]string{"nestedEntityIntegerField", "nestedEntityStringField", "x-class-name"}, nested.Type.FieldNames())
	nestedInt, _ := nested.Type.Field("nestedEntityIntegerField")
	assert.Equal(scalarType(domain.KindNumber, "int32"), nestedInt.Type)

	nestedArray, _ := entity.Field("nestedEntityArrayField")
	assert.Equal(domain.KindArray, nestedArray.Type.Kind)
	assert.Equal(nested.Type, nestedArray.Type.Elem)
}

func TestBuilder_BuildType_Errors(t *testing.T) {
	doc := loadDocument(t)
	builder := oas.NewBuilder(testLogger())

	tests := []struct {
		name     string
		doc      domain.Document
		endpoint string
		wantErr  error
	}{
		{name: "missing schema", doc: doc, endpoint: "/broken", wantErr: domain.ErrSchemaResolution},
		{name: "unknown property type", doc: doc, endpoint: "/weird", wantErr: domain.ErrUnknownSchemaType},
		{
			name: "reference is not a string",
			doc: domain.Document{Root: map[string]any{
				"paths": map[string]any{"/x": map[string]any{"get": map[string]any{"responses": map[string]any{
					"default": map[string]any{"content": map[string]any{"application/json": map[string]any{
						"schema": map[string]any{"$ref": 42.0},
					}}},
				}}}},
			}},
			endpoint: "/x",
			wantErr:  domain.ErrSchemaResolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := builder.BuildType(tt.doc, tt.endpoint, "get", oas.ResponseRefTemplate)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestBuilder_WithCollectionRefPaths(t *testing.T) {
	doc := loadDocument(t)

	itemsOnly := oas.NewBuilder(testLogger(), oas.WithCollectionRefPaths("items>items>$ref"))
	got, err := itemsOnly.BuildType(doc, "/gadgets", "get", oas.ResponseRefTemplate)
	require.NoError(t, err)
	assert.Equal(t, "Gadget", got.Elem.Label)

	_, err = itemsOnly.BuildType(doc, "/widgets", "get", oas.ResponseRefTemplate)
	assert.ErrorIs(t, err, domain.ErrSchemaResolution)

	// No paths leaves the defaults in place.
	defaults := oas.NewBuilder(testLogger(), oas.WithCollectionRefPaths())
	got, err = defaults.BuildType(doc, "/widgets", "get", oas.ResponseRefTemplate)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Elem.Label)
}

func TestBuilder_Idempotent(t *testing.T) {
	doc := loadDocument(t)
	builder := oas.NewBuilder(testLogger())

	first, err := builder.BuildType(doc, "/entities/{id}", "get", oas.ResponseRefTemplate)
	require.NoError(t, err)

	const workers = 8
	results := make([]*domain.Type, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = builder.BuildType(doc, "/entities/{id}", "get", oas.ResponseRefTemplate)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, first, results[i])
	}
}

func TestBuilder_BuildBatchType(t *testing.T) {
	doc := loadDocument(t)
	builder := oas.NewBuilder(testLogger())

	got, err := builder.BuildBatchType(doc, "com.example.NestedEntity")
	require.NoError(t, err)
	assert.Equal(t, domain.KindArray, got.Kind)
	assert.Equal(t, "com.example.NestedEntity", got.Label)
	assert.Equal(t, "NestedEntity", got.Elem.Label)

	_, err = builder.BuildBatchType(doc, "com.example.Unknown")
	assert.ErrorIs(t, err, domain.ErrSchemaResolution)

	_, err = builder.BuildBatchType(domain.Document{Root: map[string]any{}}, "com.example.Entity")
	assert.ErrorIs(t, err, domain.ErrSchemaResolution)
}
