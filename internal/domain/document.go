package domain

// Document is a fetched OpenAPI document, decoded into the generic JSON value model.
// It is built fresh for every resolution call and is never shared across calls.
type Document struct {
	// Source is the URL (or file path) the document was loaded from.
	Source string
	// RawData holds the undecoded body as received.
	RawData []byte
	// Root is the decoded document: map[string]any for objects, []any for arrays,
	// and string, float64, bool or nil for scalars.
	Root any
}

// AuthType selects how a Source produces its Authorization header.
type AuthType string

const (
	AuthTypeNone   AuthType = ""
	AuthTypeBasic  AuthType = "basic"
	AuthTypeOAuth2 AuthType = "oauth2"
)

// AuthConfig holds the credentials used to authorize requests against a Source.
type AuthConfig struct {
	Type         AuthType
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
}

// Source is a configured target server exposing an OpenAPI document.
type Source struct {
	// Name identifies the source in requests (e.g. "headless-delivery").
	Name string
	// SpecURL is the absolute URL of the OpenAPI document.
	SpecURL string
	// Headers are sent with every document request.
	Headers map[string]string
	Auth    AuthConfig
}
