package oas

import (
	"fmt"

	"github.com/i2y/oasmeta/internal/domain"
)

// Shape is the classified form of a property descriptor.
// Exactly one of ScalarShape, ArrayShape, RefShape or DictionaryShape holds per property.
type Shape interface {
	shape()
}

// ScalarShape is a property with a primitive type and optional format.
type ScalarShape struct {
	Type   Type
	Format string
}

// ArrayShape is an array property. ItemRef is set when items reference a schema;
// otherwise Item describes scalar elements, and a nil Item means untyped elements.
type ArrayShape struct {
	ItemRef string
	Item    *ScalarShape
}

// RefShape is a nested object given by $ref.
type RefShape struct {
	Ref string
}

// DictionaryShape is an object with additionalProperties, treated as an untyped string-keyed map.
type DictionaryShape struct{}

func (ScalarShape) shape()     {}
func (ArrayShape) shape()      {}
func (RefShape) shape()        {}
func (DictionaryShape) shape() {}

// Classify decides the shape of a property descriptor.
func Classify(prop map[string]any) (Shape, error) {
	rawType, hasType := prop["type"]
	if !hasType {
		ref, ok := prop["$ref"].(string)
		if !ok || ref == "" {
			return nil, &domain.ResolutionError{Message: "property has neither type nor $ref"}
		}
		return RefShape{Ref: ref}, nil
	}

	t, err := typeOf(rawType)
	if err != nil {
		return nil, err
	}

	switch t {
	case TypeObject:
		if _, ok := prop["additionalProperties"]; ok {
			return DictionaryShape{}, nil
		}
	case TypeArray:
		return classifyArray(prop)
	}
	return ScalarShape{Type: t, Format: formatOf(prop)}, nil
}

func classifyArray(prop map[string]any) (Shape, error) {
	items, ok := prop["items"].(map[string]any)
	if !ok {
		return ArrayShape{}, nil
	}
	if ref, ok := items["$ref"].(string); ok && ref != "" {
		return ArrayShape{ItemRef: ref}, nil
	}
	rawType, ok := items["type"]
	if !ok {
		return ArrayShape{}, nil
	}
	t, err := typeOf(rawType)
	if err != nil {
		return nil, err
	}
	return ArrayShape{Item: &ScalarShape{Type: t, Format: formatOf(items)}}, nil
}

func typeOf(raw any) (Type, error) {
	s, ok := raw.(string)
	if !ok {
		return "", &domain.SchemaTypeError{Type: fmt.Sprint(raw)}
	}
	return ParseType(s)
}

func formatOf(node map[string]any) string {
	f, _ := node["format"].(string)
	return f
}
