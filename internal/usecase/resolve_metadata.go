package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/oas"
	"github.com/i2y/oasmeta/internal/specurl"
)

const tracerName = "github.com/i2y/oasmeta/internal/usecase"

// Direction selects which side of an operation a type describes.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// ParseDirection accepts "input" or "output", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case DirectionInput, DirectionOutput:
		return d, nil
	default:
		return "", fmt.Errorf("%w: direction must be %q or %q, got %q", ErrInvalidArgument, DirectionInput, DirectionOutput, s)
	}
}

// Template returns the reference template that locates the direction's schema.
func (d Direction) Template() string {
	if d == DirectionInput {
		return oas.RequestBodyRefTemplate
	}
	return oas.ResponseRefTemplate
}

// ResolveMetadataUseCase answers metadata questions about configured sources.
// Every call fetches the source document exactly once and works on that snapshot.
type ResolveMetadataUseCase struct {
	sources SourceRepository
	fetcher DocumentSource
	builder *oas.Builder
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewResolveMetadataUseCase creates a new ResolveMetadataUseCase.
func NewResolveMetadataUseCase(
	sources SourceRepository,
	fetcher DocumentSource,
	builder *oas.Builder,
	logger *slog.Logger,
) *ResolveMetadataUseCase {
	return &ResolveMetadataUseCase{
		sources: sources,
		fetcher: fetcher,
		builder: builder,
		logger:  logger.With("usecase", "ResolveMetadata"),
		tracer:  otel.Tracer(tracerName),
	}
}

// Sources lists the configured sources.
func (uc *ResolveMetadataUseCase) Sources(ctx context.Context) ([]domain.Source, error) {
	return uc.sources.List(ctx)
}

// RegisterSources stores sources, naming unnamed ones after their application base.
// A source needs a spec URL, and an unnamed one needs a document or application base URL that parses.
func (uc *ResolveMetadataUseCase) RegisterSources(ctx context.Context, sources []domain.Source) error {
	named := make([]domain.Source, 0, len(sources))
	for _, source := range sources {
		if source.SpecURL == "" {
			return fmt.Errorf("%w: source %q has no spec URL", ErrInvalidArgument, source.Name)
		}
		if source.Name == "" {
			u, err := specurl.ParseSource(source.SpecURL)
			if err != nil {
				return fmt.Errorf("%w: cannot derive a name for unnamed source: %v", ErrInvalidArgument, err)
			}
			source.Name = u.AppBase
		}
		named = append(named, source)
	}

	if err := uc.sources.Save(ctx, named); err != nil {
		return fmt.Errorf("failed to save sources: %w", err)
	}
	uc.logger.Info("Registered sources", slog.Int("count", len(named)))
	return nil
}

// InputType builds the request body type of an operation.
func (uc *ResolveMetadataUseCase) InputType(ctx context.Context, sourceName, endpoint, operation string) (*domain.Type, error) {
	return uc.TypeFor(ctx, sourceName, endpoint, operation, DirectionInput)
}

// OutputType builds the default response type of an operation.
func (uc *ResolveMetadataUseCase) OutputType(ctx context.Context, sourceName, endpoint, operation string) (*domain.Type, error) {
	return uc.TypeFor(ctx, sourceName, endpoint, operation, DirectionOutput)
}

// TypeFor builds the type of an operation for the given direction.
func (uc *ResolveMetadataUseCase) TypeFor(ctx context.Context, sourceName, endpoint, operation string, dir Direction) (*domain.Type, error) {
	return uc.BuildType(ctx, sourceName, endpoint, operation, dir.Template())
}

// BuildType builds the type referenced at a custom reference template.
func (uc *ResolveMetadataUseCase) BuildType(ctx context.Context, sourceName, endpoint, operation, template string) (*domain.Type, error) {
	operation = strings.ToLower(operation)
	var result *domain.Type
	err := uc.withDocument(ctx, "BuildType", sourceName, func(ctx context.Context, doc domain.Document) error {
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("oas.endpoint", endpoint),
			attribute.String("oas.operation", operation),
		)
		t, err := uc.builder.BuildType(doc, endpoint, operation, template)
		if err != nil {
			return fmt.Errorf("failed to build type for %s %s: %w", operation, endpoint, err)
		}
		result = t
		return nil
	})
	return result, err
}

// BatchType builds the array type of the schema declaring className.
func (uc *ResolveMetadataUseCase) BatchType(ctx context.Context, sourceName, className string) (*domain.Type, error) {
	var result *domain.Type
	err := uc.withDocument(ctx, "BatchType", sourceName, func(ctx context.Context, doc domain.Document) error {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("oas.class_name", className))
		t, err := uc.builder.BuildBatchType(doc, className)
		if err != nil {
			return fmt.Errorf("failed to build batch type for %s: %w", className, err)
		}
		result = t
		return nil
	})
	return result, err
}

// Endpoints lists the endpoints declaring operation, or every endpoint when operation is empty.
func (uc *ResolveMetadataUseCase) Endpoints(ctx context.Context, sourceName, operation string) ([]string, error) {
	operation = strings.ToLower(operation)
	var result []string
	err := uc.withDocument(ctx, "Endpoints", sourceName, func(ctx context.Context, doc domain.Document) error {
		if operation == "" {
			result = oas.Endpoints(doc)
		} else {
			result = oas.EndpointsSupporting(doc, operation)
		}
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("oas.endpoint_count", len(result)))
		return nil
	})
	return result, err
}

// ClassNames lists the x-class-name values declared by the source's schemas.
func (uc *ResolveMetadataUseCase) ClassNames(ctx context.Context, sourceName string) ([]string, error) {
	var result []string
	err := uc.withDocument(ctx, "ClassNames", sourceName, func(ctx context.Context, doc domain.Document) error {
		result = oas.ClassNames(doc)
		return nil
	})
	return result, err
}

// withDocument looks up the source, fetches its document once and runs fn inside a span.
func (uc *ResolveMetadataUseCase) withDocument(
	ctx context.Context,
	op string,
	sourceName string,
	fn func(ctx context.Context, doc domain.Document) error,
) error {
	ctx, span := uc.tracer.Start(ctx, "ResolveMetadata."+op, trace.WithAttributes(attribute.String("oas.source", sourceName)))
	defer span.End()

	log := uc.logger.With(slog.String("op", op), slog.String("source", sourceName))

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	source, err := uc.sources.FindByName(ctx, sourceName)
	if err != nil {
		log.Warn("Unknown source", slog.Any("error", err))
		return fail(fmt.Errorf("failed to find source %s: %w", sourceName, err))
	}

	doc, err := uc.fetcher.Fetch(ctx, *source)
	if err != nil {
		log.Error("Failed to fetch document", slog.Any("error", err))
		return fail(fmt.Errorf("failed to fetch document for source %s: %w", sourceName, err))
	}

	if err := fn(ctx, doc); err != nil {
		log.Warn("Metadata resolution failed", slog.Any("error", err))
		return fail(err)
	}
	log.Debug("Metadata resolved")
	return nil
}
