package usecase

import (
	"context"
	"errors"

	"github.com/i2y/oasmeta/internal/domain"
)

// Standard errors returned by use cases.
var (
	// ErrInvalidArgument indicates a malformed request, such as an unknown direction.
	ErrInvalidArgument = errors.New("invalid argument")
)

// --- Document Related ---

// DocumentSource fetches and decodes the OpenAPI document of a source.
// Implementations must return a *domain.DocumentError (matching domain.ErrDocumentUnavailable)
// whenever no usable document could be obtained.
type DocumentSource interface {
	Fetch(ctx context.Context, source domain.Source) (domain.Document, error)
}

// --- Source Registry ---

// SourceRepository stores the configured sources.
type SourceRepository interface {
	// Save adds or replaces sources by name.
	Save(ctx context.Context, sources []domain.Source) error

	// List retrieves all sources ordered by name.
	List(ctx context.Context) ([]domain.Source, error)

	// FindByName returns domain.ErrSourceNotFound for unknown names.
	FindByName(ctx context.Context, name string) (*domain.Source, error)
}

// --- Inbound ---

// MetadataResolver is what inbound adapters need from ResolveMetadataUseCase.
type MetadataResolver interface {
	Sources(ctx context.Context) ([]domain.Source, error)
	RegisterSources(ctx context.Context, sources []domain.Source) error
	TypeFor(ctx context.Context, sourceName, endpoint, operation string, dir Direction) (*domain.Type, error)
	BatchType(ctx context.Context, sourceName, className string) (*domain.Type, error)
	Endpoints(ctx context.Context, sourceName, operation string) ([]string, error)
	ClassNames(ctx context.Context, sourceName string) ([]string, error)
}
