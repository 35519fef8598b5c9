// Package auth produces Authorization header values for requests to a headless server.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/specurl"
)

// ErrAuthorization is matched by errors returned when no header could be produced.
var ErrAuthorization = errors.New("authorization failed")

// Authorizer produces the value of the Authorization header.
type Authorizer interface {
	AuthorizationHeader(ctx context.Context) (string, error)
}

// New builds the Authorizer described by cfg. It returns nil for AuthTypeNone.
func New(cfg domain.AuthConfig, spec *specurl.SpecURL, client *http.Client, logger *slog.Logger) (Authorizer, error) {
	switch cfg.Type {
	case domain.AuthTypeNone:
		return nil, nil
	case domain.AuthTypeBasic:
		return NewBasic(cfg.Username, cfg.Password), nil
	case domain.AuthTypeOAuth2:
		if spec == nil {
			return nil, fmt.Errorf("%w: oauth2 requires a parsed spec URL", ErrAuthorization)
		}
		return NewOAuth2(cfg.ClientID, cfg.ClientSecret, spec.TokenURL(), client, logger), nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Type)
	}
}

// Basic sends fixed HTTP Basic credentials.
type Basic struct {
	header string
}

// NewBasic creates a Basic authorizer.
func NewBasic(username, password string) *Basic {
	return &Basic{
		header: "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password)),
	}
}

func (b *Basic) AuthorizationHeader(context.Context) (string, error) {
	return b.header, nil
}

// OAuth2 obtains access tokens with the client credentials grant and reuses them
// until they expire.
type OAuth2 struct {
	config *clientcredentials.Config
	client *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewOAuth2 creates an OAuth2 authorizer against tokenURL.
func NewOAuth2(clientID, clientSecret, tokenURL string, client *http.Client, logger *slog.Logger) *OAuth2 {
	if client == nil {
		client = http.DefaultClient
	}
	return &OAuth2{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client: client,
		logger: logger.With("component", "oauth2_authorizer", slog.String("token_url", tokenURL)),
	}
}

// AuthorizationHeader returns "<token_type> <access_token>".
func (o *OAuth2) AuthorizationHeader(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.token.Valid() {
		o.logger.Debug("Requesting access token")
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.client)
		tok, err := o.config.Token(ctx)
		if err != nil {
			o.logger.Error("Failed to fetch access token", slog.Any("error", err))
			return "", fmt.Errorf("%w: failed to fetch access token from %s: %v", ErrAuthorization, o.config.TokenURL, err)
		}
		o.token = tok
	}
	return o.token.Type() + " " + o.token.AccessToken, nil
}
