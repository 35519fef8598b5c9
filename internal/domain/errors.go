package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// Callers use them to tell "can't reach server" apart from "server returned a bad document".
var (
	// ErrDocumentUnavailable indicates the OpenAPI document could not be fetched or read.
	ErrDocumentUnavailable = errors.New("openapi document unavailable")

	// ErrSchemaResolution indicates a $ref or a required path could not be resolved.
	ErrSchemaResolution = errors.New("schema resolution failure")

	// ErrUnknownSchemaType indicates a "type" value outside the OpenAPI type set.
	ErrUnknownSchemaType = errors.New("unknown schema type")

	// ErrSourceNotFound indicates the requested source is not configured.
	ErrSourceNotFound = errors.New("source not found")
)

// DocumentError describes a failure to obtain the OpenAPI document.
type DocumentError struct {
	// Source is the document URL.
	Source string
	// StatusCode is the HTTP status received, 0 if no response arrived.
	StatusCode int
	// Timeout is true when the fetch exceeded its deadline.
	Timeout bool
	Message string
	Cause   error
}

func (e *DocumentError) Error() string {
	msg := "openapi document unavailable"
	if e.Source != "" {
		msg += " at " + e.Source
	}
	if e.Timeout {
		msg += ": timed out"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

func (e *DocumentError) Is(target error) bool {
	return target == ErrDocumentUnavailable
}

// ResolutionError describes a reference or path that does not resolve inside the document.
type ResolutionError struct {
	// Ref is the $ref string or schema name being resolved, if any.
	Ref string
	// Path is the navigator path that failed, if any.
	Path    string
	Message string
	Cause   error
}

func (e *ResolutionError) Error() string {
	msg := "schema resolution failure"
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Path != "" {
		msg += " (path " + e.Path + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrSchemaResolution
}

// SchemaTypeError reports an unrecognized OpenAPI "type" string.
type SchemaTypeError struct {
	Type string
}

func (e *SchemaTypeError) Error() string {
	return fmt.Sprintf("unknown OpenAPI specification type %q", e.Type)
}

func (e *SchemaTypeError) Is(target error) bool {
	return target == ErrUnknownSchemaType
}
