package domain

import "sort"

// Kind is the semantic kind of a resolved metadata type.
type Kind string

const (
	KindAny        Kind = "any"
	KindBoolean    Kind = "boolean"
	KindNumber     Kind = "number"
	KindString     Kind = "string"
	KindBinary     Kind = "binary"
	KindDate       Kind = "date"
	KindDateTime   Kind = "date-time"
	KindDictionary Kind = "dictionary"
	KindObject     Kind = "object"
	KindArray      Kind = "array"
	// KindCycle marks a schema that was already being expanded higher up the tree.
	// Its Label names the repeated schema.
	KindCycle Kind = "cycle"
)

// Type is a node of the resolved metadata tree.
// The caller owns the returned tree exclusively; nothing is shared between calls.
type Type struct {
	Kind Kind `json:"kind"`
	// Format is the OpenAPI catalogue format the scalar was mapped from (e.g. "int64").
	Format string `json:"format,omitempty"`
	// Label is the schema name for objects, arrays built from a schema, and cycle markers.
	Label string `json:"label,omitempty"`
	// Fields is set for objects.
	Fields map[string]Field `json:"fields,omitempty"`
	// Elem is set for arrays.
	Elem *Type `json:"elem,omitempty"`
}

// Field is a named member of an object type.
type Field struct {
	Name     string `json:"name"`
	Type     *Type  `json:"type"`
	Required bool   `json:"required"`
}

// AnyType is the terminal type used when no schema reference exists.
func AnyType() *Type {
	return &Type{Kind: KindAny}
}

// NewObject returns an empty object type labelled with the schema name.
func NewObject(label string) *Type {
	return &Type{Kind: KindObject, Label: label, Fields: make(map[string]Field)}
}

// ArrayOf returns an array type of elem.
func ArrayOf(label string, elem *Type) *Type {
	return &Type{Kind: KindArray, Label: label, Elem: elem}
}

// Field returns the named field and whether it exists.
func (t *Type) Field(name string) (Field, bool) {
	if t == nil || t.Fields == nil {
		return Field{}, false
	}
	f, ok := t.Fields[name]
	return f, ok
}

// FieldNames returns the object's field names in sorted order.
func (t *Type) FieldNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsCycle reports whether t is a cycle marker.
func (t *Type) IsCycle() bool {
	return t != nil && t.Kind == KindCycle
}
