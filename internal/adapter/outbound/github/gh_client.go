package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Scheme prefixes sources stored in a GitHub repository.
const Scheme = "github://"

// ErrInvalidURL is returned for github:// URLs that do not name a file.
var ErrInvalidURL = errors.New("invalid GitHub URL")

// Location identifies a file in a GitHub repository.
// Format: github://owner/repo/path/to/file[@ref]
type Location struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

// ParseURL splits a github:// URL into its components.
func ParseURL(githubURL string) (Location, error) {
	if !IsGitHubURL(githubURL) {
		return Location{}, fmt.Errorf("%w: %s", ErrInvalidURL, githubURL)
	}
	rest := strings.TrimPrefix(githubURL, Scheme)

	var ref string
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest, ref = rest[:i], rest[i+1:]
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Location{}, fmt.Errorf("%w: expected github://owner/repo/path/to/file, got %s", ErrInvalidURL, githubURL)
	}
	return Location{Owner: parts[0], Repo: parts[1], Path: parts[2], Ref: ref}, nil
}

// APIPath is the contents API path of the file.
func (l Location) APIPath() string {
	p := fmt.Sprintf("repos/%s/%s/contents/%s", l.Owner, l.Repo, l.Path)
	if l.Ref != "" {
		p += "?ref=" + l.Ref
	}
	return p
}

// CommandRunner runs an external command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// GHClient reads repository files through the gh CLI, reusing its authentication.
type GHClient struct {
	run    CommandRunner
	logger *slog.Logger
}

// NewGHClient creates a new GitHub client. A nil runner executes commands with os/exec.
func NewGHClient(runner CommandRunner, logger *slog.Logger) *GHClient {
	if runner == nil {
		runner = execRunner
	}
	return &GHClient{run: runner, logger: logger.With("component", "github_client")}
}

// FetchFile retrieves the content of the file a github:// URL points at.
func (c *GHClient) FetchFile(ctx context.Context, githubURL string) ([]byte, error) {
	loc, err := ParseURL(githubURL)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetching file from GitHub", slog.String("api_path", loc.APIPath()))
	out, err := c.run(ctx, "gh", "api", loc.APIPath(), "--jq", ".content")
	if err != nil {
		return nil, fmt.Errorf("gh api %s: %w", loc.APIPath(), err)
	}

	// The contents API wraps base64 at 60 columns.
	encoded := strings.ReplaceAll(strings.TrimSpace(string(out)), "\n", "")
	if encoded == "" {
		return nil, errors.New("empty response from GitHub")
	}

	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 content: %w", err)
	}
	return content, nil
}

// IsGitHubURL checks if a URL is a GitHub URL
func IsGitHubURL(url string) bool {
	return strings.HasPrefix(url, Scheme)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return nil, fmt.Errorf("gh CLI is not installed. Please install it from https://cli.github.com/: %w", err)
		case strings.Contains(msg, "not logged in"):
			return nil, fmt.Errorf("gh CLI is not authenticated. Please run 'gh auth login' first: %w", err)
		case msg != "":
			return nil, fmt.Errorf("%s: %w", msg, err)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
