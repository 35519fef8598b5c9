package oas

import (
	"strings"

	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/jsonpath"
)

// Placeholder tokens substituted into reference templates.
const (
	EndpointToken  = "ENDPOINT_TPL"
	OperationToken = "OPERATION_TPL"
)

// Reference templates locating an operation's request and response schema $ref.
const (
	RequestBodyRefTemplate = "paths>" + EndpointToken + ">" + OperationToken +
		">requestBody>content>application/json>schema>$ref"
	ResponseRefTemplate = "paths>" + EndpointToken + ">" + OperationToken +
		">responses>default>content>application/json>schema>$ref"
)

const (
	// SchemaRefPrefix is the document-relative prefix of component schema references.
	SchemaRefPrefix = "#/components/schemas/"

	PathPaths             = "paths"
	PathComponentsSchemas = "components>schemas"
	PathClassNameDefault  = "properties>x-class-name>default"
)

// DefaultCollectionRefPaths locate the element $ref of collection wrapper schemas,
// relative to the wrapper's schema descriptor. They are tried in order.
var DefaultCollectionRefPaths = []string{
	"properties>items>items>$ref",
	"items>items>$ref",
	"items>$ref",
}

// SchemaName strips the component schema prefix from a $ref.
func SchemaName(ref string) string {
	return strings.TrimPrefix(ref, SchemaRefPrefix)
}

// FetchSchema returns the schema descriptor registered under components.schemas.<name>.
func FetchSchema(root any, name string) (map[string]any, error) {
	if name == "" {
		return nil, &domain.ResolutionError{Message: "empty schema name"}
	}
	if strings.Contains(name, jsonpath.Delimiter) {
		return nil, &domain.ResolutionError{
			Ref:     name,
			Message: "schema name contains the path delimiter " + jsonpath.Delimiter,
		}
	}
	path := jsonpath.Join(PathComponentsSchemas, name)
	node, err := jsonpath.Require(root, path)
	if err != nil {
		return nil, &domain.ResolutionError{Ref: name, Path: path, Cause: err}
	}
	schema, ok := node.(map[string]any)
	if !ok {
		return nil, &domain.ResolutionError{Ref: name, Path: path, Message: "schema is not an object"}
	}
	return schema, nil
}
