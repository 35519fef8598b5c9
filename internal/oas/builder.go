package oas

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/jsonpath"
)

// Builder turns schema references inside an OpenAPI document into metadata type trees.
// A Builder only holds configuration, so one instance may serve concurrent calls.
type Builder struct {
	logger             *slog.Logger
	collectionRefPaths []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithCollectionRefPaths overrides the paths used to find the element $ref of
// collection wrapper schemas (schemas whose type is array).
func WithCollectionRefPaths(paths ...string) Option {
	return func(b *Builder) {
		if len(paths) > 0 {
			b.collectionRefPaths = append([]string(nil), paths...)
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(logger *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		logger:             logger.With("component", "oas_builder"),
		collectionRefPaths: DefaultCollectionRefPaths,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// resolution is the state of one top-level build call.
// expanding holds the schema names currently being expanded on the recursion stack.
type resolution struct {
	root      any
	expanding map[string]struct{}
	log       *slog.Logger
}

func (b *Builder) newResolution(doc domain.Document, log *slog.Logger) *resolution {
	return &resolution{
		root:      doc.Root,
		expanding: make(map[string]struct{}),
		log:       log,
	}
}

// BuildType resolves the schema referenced at the templated path for (endpoint, operation).
//
// When the template resolves to nothing the operation is untyped and an Any type is
// returned without error. Schemas whose type is array are treated as collection wrappers
// and produce an array of the element schema's object type.
func (b *Builder) BuildType(doc domain.Document, endpoint, operation, template string) (*domain.Type, error) {
	path := jsonpath.Expand(template, EndpointToken, endpoint, OperationToken, operation)
	log := b.logger.With(slog.String("endpoint", endpoint), slog.String("operation", operation))

	raw, ok := jsonpath.Fetch(doc.Root, path)
	if !ok {
		log.Debug("No schema reference for operation, using any type", slog.String("path", path))
		return domain.AnyType(), nil
	}
	ref, ok := raw.(string)
	if !ok {
		return nil, &domain.ResolutionError{Path: path, Message: "reference is not a string"}
	}

	name := SchemaName(ref)
	schema, err := FetchSchema(doc.Root, name)
	if err != nil {
		return nil, err
	}

	r := b.newResolution(doc, log)
	if schemaType(schema) == string(TypeArray) {
		elemRef, err := b.collectionElementRef(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve collection schema %s: %w", name, err)
		}
		elem, err := r.objectFromRef(elemRef)
		if err != nil {
			return nil, err
		}
		log.Debug("Built collection type", slog.String("schema", name), slog.String("element", elem.Label))
		return domain.ArrayOf(name, elem), nil
	}

	t, err := r.object(name, schema)
	if err != nil {
		return nil, err
	}
	log.Debug("Built object type", slog.String("schema", name), slog.Int("field_count", len(t.Fields)))
	return t, nil
}

// BuildBatchType resolves the schema whose x-class-name default equals className and
// returns an array of its object type.
func (b *Builder) BuildBatchType(doc domain.Document, className string) (*domain.Type, error) {
	log := b.logger.With(slog.String("class_name", className))

	schemas, ok := jsonpath.Fetch(doc.Root, PathComponentsSchemas)
	if !ok {
		return nil, &domain.ResolutionError{Ref: className, Path: PathComponentsSchemas, Message: "document has no component schemas"}
	}
	byName, ok := schemas.(map[string]any)
	if !ok {
		return nil, &domain.ResolutionError{Path: PathComponentsSchemas, Message: "component schemas is not an object"}
	}

	for _, name := range sortedKeys(byName) {
		value, ok := jsonpath.FetchString(byName[name], PathClassNameDefault)
		if !ok || value != className {
			continue
		}
		schema, ok := byName[name].(map[string]any)
		if !ok {
			continue
		}
		elem, err := b.newResolution(doc, log).object(name, schema)
		if err != nil {
			return nil, err
		}
		log.Debug("Built batch type", slog.String("schema", name))
		return domain.ArrayOf(className, elem), nil
	}
	return nil, &domain.ResolutionError{Ref: className, Message: "no schema declares this class name"}
}

func (b *Builder) collectionElementRef(schema map[string]any) (string, error) {
	for _, path := range b.collectionRefPaths {
		if ref, ok := jsonpath.FetchString(schema, path); ok {
			return ref, nil
		}
	}
	return "", &domain.ResolutionError{Message: "collection schema has no element reference"}
}

func (r *resolution) objectFromRef(ref string) (*domain.Type, error) {
	name := SchemaName(ref)
	schema, err := FetchSchema(r.root, name)
	if err != nil {
		return nil, err
	}
	return r.object(name, schema)
}

// object expands a schema into an object type. Re-entering a schema that is already
// being expanded yields an object holding a single cycle marker field named after it.
func (r *resolution) object(name string, schema map[string]any) (*domain.Type, error) {
	obj := domain.NewObject(name)
	if _, busy := r.expanding[name]; busy {
		r.log.Debug("Schema cycle detected", slog.String("schema", name))
		obj.Fields[name] = domain.Field{
			Name: name,
			Type: &domain.Type{Kind: domain.KindCycle, Label: name},
		}
		return obj, nil
	}

	r.expanding[name] = struct{}{}
	defer delete(r.expanding, name)

	props, err := properties(name, schema)
	if err != nil {
		return nil, err
	}
	required := requiredSet(schema)

	for propName, rawProp := range props {
		prop, ok := rawProp.(map[string]any)
		if !ok {
			return nil, &domain.ResolutionError{Ref: name, Message: fmt.Sprintf("property %q is not an object", propName)}
		}
		t, err := r.property(prop)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve property %s.%s: %w", name, propName, err)
		}
		_, isRequired := required[propName]
		obj.Fields[propName] = domain.Field{Name: propName, Type: t, Required: isRequired}
	}
	return obj, nil
}

func (r *resolution) property(prop map[string]any) (*domain.Type, error) {
	shape, err := Classify(prop)
	if err != nil {
		return nil, err
	}

	switch s := shape.(type) {
	case RefShape:
		return r.objectFromRef(s.Ref)
	case DictionaryShape:
		return &domain.Type{Kind: domain.KindDictionary}, nil
	case ArrayShape:
		if s.ItemRef != "" {
			elem, err := r.objectFromRef(s.ItemRef)
			if err != nil {
				return nil, err
			}
			return domain.ArrayOf("", elem), nil
		}
		if s.Item == nil {
			return domain.ArrayOf("", domain.AnyType()), nil
		}
		return domain.ArrayOf("", scalar(*s.Item)), nil
	case ScalarShape:
		return scalar(s), nil
	default:
		return nil, fmt.Errorf("unhandled property shape %T", shape)
	}
}

func scalar(s ScalarShape) *domain.Type {
	f := MapFormat(s.Type, s.Format)
	return &domain.Type{Kind: f.Kind(), Format: f.Name}
}

func properties(name string, schema map[string]any) (map[string]any, error) {
	raw, ok := schema["properties"]
	if !ok || raw == nil {
		return nil, nil
	}
	props, ok := raw.(map[string]any)
	if !ok {
		return nil, &domain.ResolutionError{Ref: name, Message: "properties is not an object"}
	}
	return props, nil
}

func requiredSet(schema map[string]any) map[string]struct{} {
	list, _ := schema["required"].([]any)
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			set[s] = struct{}{}
		}
	}
	return set
}

func schemaType(schema map[string]any) string {
	t, _ := schema["type"].(string)
	return t
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
