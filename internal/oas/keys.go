package oas

import (
	"sort"

	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/jsonpath"
)

// EndpointsSupporting returns the sorted paths whose path item declares operation.
// A document without paths yields an empty result.
func EndpointsSupporting(doc domain.Document, operation string) []string {
	paths := objectAt(doc.Root, PathPaths)
	endpoints := make([]string, 0, len(paths))
	for endpoint, item := range paths {
		if ops, ok := item.(map[string]any); ok {
			if _, declared := ops[operation]; declared {
				endpoints = append(endpoints, endpoint)
			}
		}
	}
	sort.Strings(endpoints)
	return endpoints
}

// Endpoints returns every path of the document, sorted.
func Endpoints(doc domain.Document) []string {
	paths := objectAt(doc.Root, PathPaths)
	return sortedKeys(paths)
}

// ClassNames returns the distinct x-class-name defaults declared by component schemas, sorted.
func ClassNames(doc domain.Document) []string {
	schemas := objectAt(doc.Root, PathComponentsSchemas)
	seen := make(map[string]struct{}, len(schemas))
	for _, schema := range schemas {
		if v, ok := jsonpath.Fetch(schema, PathClassNameDefault); ok {
			if s, ok := v.(string); ok {
				seen[s] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func objectAt(root any, path string) map[string]any {
	v, ok := jsonpath.Fetch(root, path)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}
