package memrepo

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/i2y/oasmeta/internal/domain"
)

// InMemorySourceRepository provides an in-memory implementation of the SourceRepository.
// NOTE: sources are loaded from configuration at startup and lost on restart.
type InMemorySourceRepository struct {
	mu      sync.RWMutex
	sources map[string]domain.Source // Map source name to Source
	logger  *slog.Logger
}

// NewInMemorySourceRepository creates a new in-memory repository.
func NewInMemorySourceRepository(logger *slog.Logger) *InMemorySourceRepository {
	return &InMemorySourceRepository{
		sources: make(map[string]domain.Source),
		logger:  logger.With("component", "mem_repo"),
	}
}

// Save stores the given sources, replacing any existing source with the same name.
// Sources without a name are rejected before anything is stored.
func (r *InMemorySourceRepository) Save(ctx context.Context, sources []domain.Source) error {
	for i, source := range sources {
		if source.Name == "" {
			r.logger.Error("Refusing to save source with empty name", slog.Int("index", i), slog.String("url", source.SpecURL))
			return errors.New("save failed: source name must not be empty")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, source := range sources {
		r.sources[source.Name] = source
	}
	r.logger.Info("Saved sources", slog.Int("count", len(sources)), slog.Int("total_sources", len(r.sources)))
	return nil
}

// List returns all sources ordered by name.
func (r *InMemorySourceRepository) List(ctx context.Context) ([]domain.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.Source, 0, len(r.sources))
	for _, source := range r.sources {
		list = append(list, source)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	r.logger.Debug("Listed sources from repository", slog.Int("count", len(list)))
	return list, nil
}

// FindByName retrieves a source by its name.
func (r *InMemorySourceRepository) FindByName(ctx context.Context, name string) (*domain.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.sources[name]
	if !ok {
		r.logger.Warn("Source not found", slog.String("source", name))
		return nil, domain.ErrSourceNotFound
	}
	r.logger.Debug("Found source", slog.String("source", name))
	return &source, nil
}
