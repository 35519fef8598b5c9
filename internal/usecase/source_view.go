package usecase

import (
	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/specurl"
)

// SourceView is the public representation of a source. Credentials are never exposed.
type SourceView struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	AuthType string `json:"auth_type,omitempty"`
	// ServerBaseURL is where the application's operations are served, when the URL reveals it.
	ServerBaseURL string `json:"server_base_url,omitempty"`
}

// NewSourceView builds the public view of a source.
func NewSourceView(s domain.Source) SourceView {
	view := SourceView{Name: s.Name, URL: s.SpecURL, AuthType: string(s.Auth.Type)}
	if u, err := specurl.ParseSource(s.SpecURL); err == nil {
		view.ServerBaseURL = u.ServerBaseURL()
	}
	return view
}

// NewSourceViews builds the public views of sources, keeping their order.
func NewSourceViews(sources []domain.Source) []SourceView {
	views := make([]SourceView, 0, len(sources))
	for _, s := range sources {
		views = append(views, NewSourceView(s))
	}
	return views
}
