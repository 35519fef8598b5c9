// Package jsonpath navigates decoded JSON documents using segmented paths.
//
// A path is a sequence of object member names joined by Delimiter, for example
// "components>schemas>Entity". The delimiter is a character that is not expected
// inside real member names, so names such as "application/json" or "$ref" need no escaping.
// Only JSON objects (map[string]any) are containers: looking up a segment in an array
// or a scalar behaves exactly like looking up a missing member.
package jsonpath

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates path segments.
const Delimiter = ">"

// ErrMissingPath is matched by every error returned from Require.
var ErrMissingPath = errors.New("missing path")

// MissingPathError reports the first segment that could not be resolved.
type MissingPathError struct {
	Path    string
	Segment string
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("missing path %q: segment %q not found", e.Path, e.Segment)
}

func (e *MissingPathError) Is(target error) bool {
	return target == ErrMissingPath
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, Delimiter)
}

// Require returns the value at path, failing on the first absent segment.
func Require(node any, path string) (any, error) {
	v, missing, ok := walk(node, path)
	if !ok {
		return nil, &MissingPathError{Path: path, Segment: missing}
	}
	return v, nil
}

// Fetch returns the value at path and true, or nil and false if any segment is absent.
// A member that is present with a JSON null value is reported as absent.
func Fetch(node any, path string) (any, bool) {
	v, _, ok := walk(node, path)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Exists reports whether every segment of path resolves.
func Exists(node any, path string) bool {
	_, _, ok := walk(node, path)
	return ok
}

// FetchString returns the string at path. Absent members and non-string values yield false.
func FetchString(node any, path string) (string, bool) {
	v, ok := Fetch(node, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Expand substitutes placeholder tokens in a path template.
// Replacements are given as token, value pairs; a trailing unpaired token is ignored.
func Expand(template string, pairs ...string) string {
	out := template
	for i := 0; i+1 < len(pairs); i += 2 {
		out = strings.ReplaceAll(out, pairs[i], pairs[i+1])
	}
	return out
}

func walk(node any, path string) (value any, missing string, ok bool) {
	current := node
	for _, segment := range strings.Split(path, Delimiter) {
		obj, isObj := current.(map[string]any)
		if !isObj {
			return nil, segment, false
		}
		next, found := obj[segment]
		if !found {
			return nil, segment, false
		}
		current = next
	}
	return current, "", true
}
