package openapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Document paths tried below an application base URL, in order.
var commonDocumentPaths = []string{
	"/v1.0/openapi.json",
	"/v1.0/openapi.yaml",
	"/openapi.json",
	"/openapi.yaml",
}

const probeTimeout = 5 * time.Second

// AutoDiscoverer locates the OpenAPI document of an application given its base URL
// (e.g. http://localhost:8080/o/headless-admin-user).
type AutoDiscoverer struct {
	client *http.Client
	logger *slog.Logger
}

// NewAutoDiscoverer creates a new AutoDiscoverer.
func NewAutoDiscoverer(client *http.Client, logger *slog.Logger) *AutoDiscoverer {
	return &AutoDiscoverer{
		client: client,
		logger: logger.With("component", "openapi_autodiscoverer"),
	}
}

// Discover probes the common document paths below base with the given request header
// and returns the URL and body of the first that answers 200. The body is the document
// itself, so callers must not request it again.
func (d *AutoDiscoverer) Discover(ctx context.Context, base string, header http.Header) (docURL string, body []byte, ok bool) {
	log := d.logger.With(slog.String("source", base))
	log.Info("Source appears to be a base URL, attempting auto-discovery")

	trimmed := strings.TrimRight(base, "/")
	for _, path := range commonDocumentPaths {
		candidate := trimmed + path
		body, err := d.probe(ctx, candidate, header)
		if err != nil {
			log.Debug("Document path not available", slog.String("url", candidate), slog.Any("error", err))
			continue
		}
		log.Info("Auto-discovered OpenAPI document", slog.String("resolved_url", candidate))
		return candidate, body, true
	}

	log.Warn("Auto-discovery failed")
	return "", nil, false
}

func (d *AutoDiscoverer) probe(ctx context.Context, candidate string, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
	if err != nil {
		return nil, err
	}
	req.Header = header.Clone()

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func looksLikeDocument(source string) bool {
	lower := strings.ToLower(source)
	for _, suffix := range []string{".json", ".yaml", ".yml"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
