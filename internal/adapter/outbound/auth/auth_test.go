package auth_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/oasmeta/internal/adapter/outbound/auth"
	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/specurl"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestBasic(t *testing.T) {
	b := auth.NewBasic("test@liferay.com", "test")
	header, err := b.AuthorizationHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Basic dGVzdEBsaWZlcmF5LmNvbTp0ZXN0", header)
}

func newTokenServer(t *testing.T, status int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/o/oauth2/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id-123", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret-456", r.PostForm.Get("client_secret"))

		if status != http.StatusOK {
			http.Error(w, `{"error":"invalid_client"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"abc","token_type":"Bearer","expires_in":600}`)
	}))
}

func TestOAuth2_AuthorizationHeader(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, http.StatusOK, &calls)
	defer srv.Close()

	o := auth.NewOAuth2("id-123", "secret-456", srv.URL+"/o/oauth2/token", srv.Client(), testLogger())

	for i := 0; i < 3; i++ {
		header, err := o.AuthorizationHeader(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer abc", header)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "token should be reused while valid")
}

func TestOAuth2_TokenEndpointFailure(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, http.StatusUnauthorized, &calls)
	defer srv.Close()

	o := auth.NewOAuth2("id-123", "secret-456", srv.URL+"/o/oauth2/token", srv.Client(), testLogger())

	_, err := o.AuthorizationHeader(context.Background())
	assert.ErrorIs(t, err, auth.ErrAuthorization)
}

func TestNew(t *testing.T) {
	spec, err := specurl.Parse("http://localhost:8080/o/headless-admin-user/v1.0/openapi.json")
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     domain.AuthConfig
		spec    *specurl.SpecURL
		want    any
		wantErr bool
	}{
		{name: "none", cfg: domain.AuthConfig{}, spec: spec, want: nil},
		{name: "basic", cfg: domain.AuthConfig{Type: domain.AuthTypeBasic, Username: "u", Password: "p"}, spec: spec, want: &auth.Basic{}},
		{name: "oauth2", cfg: domain.AuthConfig{Type: domain.AuthTypeOAuth2, ClientID: "c", ClientSecret: "s"}, spec: spec, want: &auth.OAuth2{}},
		{name: "oauth2 without spec url", cfg: domain.AuthConfig{Type: domain.AuthTypeOAuth2}, wantErr: true},
		{name: "unknown type", cfg: domain.AuthConfig{Type: "digest"}, spec: spec, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.New(tt.cfg, tt.spec, nil, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}
}
