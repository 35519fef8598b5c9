package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/i2y/oasmeta/internal/adapter/outbound/auth"
	"github.com/i2y/oasmeta/internal/adapter/outbound/github"
	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/specurl"
)

// DefaultTimeout bounds a single document fetch.
const DefaultTimeout = 10 * time.Second

// AuthorizerFactory builds the Authorizer for a source located at specURL.
type AuthorizerFactory func(source domain.Source, specURL string) (auth.Authorizer, error)

type cachedAuthorizer struct {
	config     domain.AuthConfig
	authorizer auth.Authorizer
}

// RepositoryReader reads files addressed by github:// URLs.
type RepositoryReader interface {
	FetchFile(ctx context.Context, githubURL string) ([]byte, error)
}

// DocumentFetcher implements usecase.DocumentSource for OpenAPI documents
// served over HTTP(S), stored in GitHub repositories or stored in local files.
type DocumentFetcher struct {
	httpClient     *http.Client
	repository     RepositoryReader
	logger         *slog.Logger
	autoDiscoverer *AutoDiscoverer
	timeout        time.Duration
	validate       bool
	newAuthorizer  AuthorizerFactory

	mu          sync.Mutex
	authorizers map[string]cachedAuthorizer
}

// Option configures a DocumentFetcher.
type Option func(*DocumentFetcher)

// WithTimeout sets the deadline applied to each fetch.
func WithTimeout(d time.Duration) Option {
	return func(f *DocumentFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithValidation toggles advisory validation of fetched documents.
// Validation problems are logged and never fail a fetch.
func WithValidation(enabled bool) Option {
	return func(f *DocumentFetcher) {
		f.validate = enabled
	}
}

// WithAuthorizerFactory replaces the factory used to build per-source authorizers.
func WithAuthorizerFactory(factory AuthorizerFactory) Option {
	return func(f *DocumentFetcher) {
		f.newAuthorizer = factory
	}
}

// WithRepositoryReader enables github:// sources.
func WithRepositoryReader(r RepositoryReader) Option {
	return func(f *DocumentFetcher) {
		f.repository = r
	}
}

// NewDocumentFetcher creates a new DocumentFetcher.
func NewDocumentFetcher(client *http.Client, logger *slog.Logger, opts ...Option) *DocumentFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &DocumentFetcher{
		httpClient:     client,
		logger:         logger.With("component", "openapi_fetcher"),
		autoDiscoverer: NewAutoDiscoverer(client, logger),
		timeout:        DefaultTimeout,
		authorizers:    make(map[string]cachedAuthorizer),
	}
	f.newAuthorizer = f.defaultAuthorizer
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads and decodes the OpenAPI document of a source.
// Every failure to obtain a usable document is a *domain.DocumentError.
func (f *DocumentFetcher) Fetch(ctx context.Context, source domain.Source) (domain.Document, error) {
	log := f.logger.With(slog.String("source", source.Name), slog.String("url", source.SpecURL))
	log.Info("Fetching OpenAPI document")

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var rawData []byte
	var err error
	docURL := source.SpecURL

	u, parseErr := url.ParseRequestURI(source.SpecURL)
	switch {
	case github.IsGitHubURL(source.SpecURL):
		rawData, err = f.fetchRepositoryFile(ctx, log, source.SpecURL)
	case parseErr == nil && (u.Scheme == "http" || u.Scheme == "https"):
		docURL, rawData, err = f.fetchHTTP(ctx, log, source)
	default:
		log.Debug("Assuming local file path")
		rawData, err = os.ReadFile(source.SpecURL)
		if err != nil {
			log.Error("Failed to read document from file", slog.Any("error", err))
			err = &domain.DocumentError{Source: source.SpecURL, Message: "failed to read file", Cause: err}
		}
	}
	if err != nil {
		return domain.Document{}, err
	}

	root, err := Decode(rawData)
	if err != nil {
		log.Error("Failed to decode OpenAPI document", slog.Any("error", err))
		return domain.Document{}, &domain.DocumentError{Source: docURL, Message: "undecodable document", Cause: err}
	}

	if f.validate {
		f.validateDocument(ctx, log, rawData)
	}

	log.Info("Successfully fetched OpenAPI document", slog.Int("bytes", len(rawData)))
	return domain.Document{Source: docURL, RawData: rawData, Root: root}, nil
}

func (f *DocumentFetcher) fetchRepositoryFile(ctx context.Context, log *slog.Logger, githubURL string) ([]byte, error) {
	if f.repository == nil {
		return nil, &domain.DocumentError{Source: githubURL, Message: "GitHub sources are not enabled"}
	}
	data, err := f.repository.FetchFile(ctx, githubURL)
	if err != nil {
		log.Error("Failed to fetch document from GitHub", slog.Any("error", err))
		return nil, &domain.DocumentError{Source: githubURL, Timeout: isTimeout(err), Message: "failed to read repository file", Cause: err}
	}
	return data, nil
}

// fetchHTTP fetches a document URL directly, or discovers the document below an
// application base URL. Either way the document is transferred once.
func (f *DocumentFetcher) fetchHTTP(ctx context.Context, log *slog.Logger, source domain.Source) (string, []byte, error) {
	header, err := f.requestHeader(ctx, log, source)
	if err != nil {
		return source.SpecURL, nil, err
	}

	if !looksLikeDocument(source.SpecURL) {
		if docURL, body, ok := f.autoDiscoverer.Discover(ctx, source.SpecURL, header); ok {
			return docURL, body, nil
		}
	}
	body, err := f.get(ctx, log, source.SpecURL, header)
	return source.SpecURL, body, err
}

// requestHeader builds the header sent with every request for a source's document.
func (f *DocumentFetcher) requestHeader(ctx context.Context, log *slog.Logger, source domain.Source) (http.Header, error) {
	header := http.Header{}
	header.Set("Accept", "application/json, application/yaml")
	for key, value := range source.Headers {
		header.Set(key, value)
	}

	authorizer, err := f.authorizerFor(source)
	if err != nil {
		log.Error("Failed to configure authorization", slog.Any("error", err))
		return nil, &domain.DocumentError{Source: source.SpecURL, Message: "invalid authorization settings", Cause: err}
	}
	if authorizer != nil {
		value, err := authorizer.AuthorizationHeader(ctx)
		if err != nil {
			return nil, &domain.DocumentError{Source: source.SpecURL, Timeout: isTimeout(err), Cause: err}
		}
		header.Set("Authorization", value)
	}
	return header, nil
}

func (f *DocumentFetcher) get(ctx context.Context, log *slog.Logger, docURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, &domain.DocumentError{Source: docURL, Message: "invalid request", Cause: err}
	}
	req.Header = header.Clone()

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to fetch document from URL", slog.Any("error", err))
		return nil, &domain.DocumentError{Source: docURL, Timeout: isTimeout(err), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("Received non-success status code from URL", slog.String("status", resp.Status), slog.Int("status_code", resp.StatusCode))
		return nil, &domain.DocumentError{Source: docURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body from URL", slog.Any("error", err))
		return nil, &domain.DocumentError{Source: docURL, Timeout: isTimeout(err), Message: "failed to read body", Cause: err}
	}
	return body, nil
}

// authorizerFor returns the cached authorizer of a source so OAuth2 tokens are reused across fetches.
// The authorizer is rebuilt when the source's credentials change.
func (f *DocumentFetcher) authorizerFor(source domain.Source) (auth.Authorizer, error) {
	if source.Auth.Type == domain.AuthTypeNone {
		return nil, nil
	}
	key := source.Name + " " + source.SpecURL

	f.mu.Lock()
	defer f.mu.Unlock()
	if cached, ok := f.authorizers[key]; ok && cached.config == source.Auth {
		return cached.authorizer, nil
	}
	a, err := f.newAuthorizer(source, source.SpecURL)
	if err != nil {
		return nil, err
	}
	f.authorizers[key] = cachedAuthorizer{config: source.Auth, authorizer: a}
	return a, nil
}

func (f *DocumentFetcher) defaultAuthorizer(source domain.Source, specURL string) (auth.Authorizer, error) {
	var spec *specurl.SpecURL
	if source.Auth.Type == domain.AuthTypeOAuth2 {
		parsed, err := specurl.ParseSource(specURL)
		if err != nil {
			return nil, err
		}
		spec = parsed
	}
	return auth.New(source.Auth, spec, f.httpClient, f.logger)
}

func (f *DocumentFetcher) validateDocument(ctx context.Context, log *slog.Logger, rawData []byte) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(rawData)
	if err != nil {
		log.Warn("OpenAPI document could not be loaded for validation", slog.Any("error", err))
		return
	}
	if err := doc.Validate(ctx); err != nil {
		log.Warn("OpenAPI document validation failed", slog.Any("validation_error", err))
	}
}

// Decode parses a JSON or YAML document into the generic value model.
// YAML mappings are converted to map[string]any and YAML integers to float64,
// so both encodings navigate identically.
func Decode(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}

	var root any
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &root); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		root = normalize(root)
	}

	if _, ok := root.(map[string]any); !ok {
		return nil, fmt.Errorf("document root is %T, not an object", root)
	}
	return root, nil
}

func normalize(v any) any {
	switch n := v.(type) {
	case map[string]any:
		for k, child := range n {
			n[k] = normalize(child)
		}
		return n
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range n {
			n[i] = normalize(child)
		}
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return v
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
