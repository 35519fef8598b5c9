package oas

import (
	"github.com/i2y/oasmeta/internal/domain"
)

// Type is an OpenAPI schema "type" value.
type Type string

const (
	TypeArray   Type = "array"
	TypeBoolean Type = "boolean"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeObject  Type = "object"
	TypeString  Type = "string"
)

// ParseType converts a "type" string into a Type.
// Anything outside the OpenAPI type set is a *domain.SchemaTypeError.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeArray, TypeBoolean, TypeInteger, TypeNumber, TypeObject, TypeString:
		return t, nil
	default:
		return "", &domain.SchemaTypeError{Type: s}
	}
}

// Format is an entry of the OpenAPI format catalogue.
type Format struct {
	// Name identifies the entry (e.g. "int64", "date-time").
	Name string
	// Declared is the "format" string matched against documents.
	// An entry with an empty Declared value only matches through the default rule.
	Declared string
	Owner    Type
	Default  bool
	kind     domain.Kind
}

// Kind returns the semantic kind the format maps to. The zero Format maps to KindAny.
func (f Format) Kind() domain.Kind {
	if f.kind == "" {
		return domain.KindAny
	}
	return f.kind
}

// catalogue order is significant: the first default entry of a type is its designated default.
var catalogue = []Format{
	{Name: "bigdecimal", Declared: "bigdecimal", Owner: TypeNumber, Default: true, kind: domain.KindNumber},
	{Name: "binary", Declared: "binary", Owner: TypeString, kind: domain.KindBinary},
	{Name: "boolean", Declared: "boolean", Owner: TypeBoolean, Default: true, kind: domain.KindBoolean},
	{Name: "byte", Declared: "byte", Owner: TypeString, kind: domain.KindNumber},
	{Name: "date", Declared: "date", Owner: TypeString, kind: domain.KindDate},
	{Name: "date-time", Declared: "date-time", Owner: TypeString, kind: domain.KindDateTime},
	{Name: "dictionary", Declared: "string", Owner: TypeObject, Default: true, kind: domain.KindDictionary},
	{Name: "double", Declared: "double", Owner: TypeNumber, kind: domain.KindNumber},
	{Name: "float", Declared: "float", Owner: TypeNumber, Default: true, kind: domain.KindNumber},
	{Name: "int32", Declared: "int32", Owner: TypeInteger, Default: true, kind: domain.KindNumber},
	{Name: "int64", Declared: "int64", Owner: TypeInteger, kind: domain.KindNumber},
	{Name: "object", Declared: "object", Owner: TypeObject, kind: domain.KindObject},
	{Name: "string", Owner: TypeString, Default: true, kind: domain.KindString},
}

// MapFormat resolves a (type, format) pair against the catalogue.
//
// An empty format selects the type's first default in catalogue order. A format matching
// an entry's declared string selects that entry. Any other format falls back to the last
// default in catalogue order, so an unrecognised number format maps to float.
// Types without catalogue entries (array) yield the zero Format.
func MapFormat(t Type, format string) Format {
	var fallback Format
	for _, f := range catalogue {
		if f.Owner != t {
			continue
		}
		if format == "" && f.Default {
			return f
		}
		if format != "" && f.Declared == format {
			return f
		}
		if f.Default {
			fallback = f
		}
	}
	return fallback
}
