// Package specurl parses the URL of an OpenAPI document published by a headless
// application, e.g. http://localhost:8080/o/headless-admin-user/v1.0/openapi.json.
package specurl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformed is matched by every error returned from this package.
var ErrMalformed = errors.New("malformed OpenAPI specification URL")

var (
	pattern     = regexp.MustCompile(`^(.*)://(.+?)(:(\d+))?/o(/.+)/v(.+)/openapi\.(yaml|json)$`)
	basePattern = regexp.MustCompile(`^(.*)://(.+?)(:(\d+))?/o(/[^?#]+?)/*$`)
)

// SpecURL holds the components of a parsed OpenAPI document URL.
type SpecURL struct {
	Raw    string
	Scheme string
	Host   string
	// Port is empty when the URL has none.
	Port string
	// AppBase is the application path below /o, without a leading slash.
	AppBase string
	// Version and Format are empty for application base URLs.
	Version string
	// Format is "json" or "yaml".
	Format string
}

// Parse splits an OpenAPI document URL into its components.
func Parse(raw string) (*SpecURL, error) {
	m := pattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, raw)
	}
	return &SpecURL{
		Raw:     raw,
		Scheme:  m[1],
		Host:    m[2],
		Port:    m[4],
		AppBase: strings.TrimPrefix(m[5], "/"),
		Version: m[6],
		Format:  m[7],
	}, nil
}

// ParseBase parses an application base URL such as http://localhost:8080/o/headless-admin-user,
// whose document location is left to discovery.
func ParseBase(raw string) (*SpecURL, error) {
	m := basePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, raw)
	}
	return &SpecURL{
		Raw:     raw,
		Scheme:  m[1],
		Host:    m[2],
		Port:    m[4],
		AppBase: strings.TrimPrefix(m[5], "/"),
	}, nil
}

// ParseSource accepts either a document URL or an application base URL.
func ParseSource(raw string) (*SpecURL, error) {
	if u, err := Parse(raw); err == nil {
		return u, nil
	}
	return ParseBase(raw)
}

// AuthorityWithScheme returns scheme://host[:port].
func (u *SpecURL) AuthorityWithScheme() string {
	if u.Port == "" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + ":" + u.Port
}

// ServerBaseURL returns the base URL operations of the application are served under.
func (u *SpecURL) ServerBaseURL() string {
	return u.AuthorityWithScheme() + "/o/" + u.AppBase
}

// TokenURL returns the OAuth2 token endpoint of the server.
func (u *SpecURL) TokenURL() string {
	return u.AuthorityWithScheme() + "/o/oauth2/token"
}

func (u *SpecURL) String() string {
	return u.Raw
}
