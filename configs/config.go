package configs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i2y/oasmeta/internal/domain"
)

// bracedEnvRef matches ${NAME}. Bare $NAME is left alone so "$ref" in reference paths survives.
var bracedEnvRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

const (
	envPrefix         = "oasmeta"
	defaultConfigPath = "configs/oasmeta.yaml"
)

// AuthSettings holds the credentials of a source.
type AuthSettings struct {
	Type         string `yaml:"type"`
	Username     string `yaml:"username,omitempty"`
	Password     string `yaml:"password,omitempty"`
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
}

// SourceConfig represents a single OpenAPI source with optional headers and credentials.
type SourceConfig struct {
	Name    string            `yaml:"name,omitempty"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Auth    AuthSettings      `yaml:"auth,omitempty"`
}

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	Sources            []interface{} `yaml:"sources"`
	CollectionRefPaths []string      `yaml:"collection_ref_paths"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "OASMETA_", overriding file settings.
type Config struct {
	// Config File Path (Loaded first from env)
	ConfigFilePath string `envconfig:"CONFIG_FILE" default:"configs/oasmeta.yaml"`

	// File-loaded fields (merged)
	Sources []SourceConfig `ignored:"true"`

	// Environment-overridable fields
	SourceURLs               []string      `envconfig:"SOURCES"`
	CollectionRefPaths       []string      `envconfig:"COLLECTION_REF_PATHS"`
	ListenAddr               string        `envconfig:"LISTEN_ADDR" default:":8080"`
	MCPListenAddr            string        `envconfig:"MCP_LISTEN_ADDR" default:":8081"`
	FetchTimeout             time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	ServerReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	ServerWriteTimeout       time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ServerIdleTimeout        time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ValidateDocuments        bool          `envconfig:"VALIDATE_DOCUMENTS" default:"true"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// DomainSources converts the configured sources, including those given as bare URLs
// through OASMETA_SOURCES, into domain sources.
func (c *Config) DomainSources() []domain.Source {
	out := make([]domain.Source, 0, len(c.Sources)+len(c.SourceURLs))
	for _, s := range c.Sources {
		out = append(out, domain.Source{
			Name:    s.Name,
			SpecURL: s.URL,
			Headers: s.Headers,
			Auth: domain.AuthConfig{
				Type:         domain.AuthType(strings.ToLower(s.Auth.Type)),
				Username:     s.Auth.Username,
				Password:     s.Auth.Password,
				ClientID:     s.Auth.ClientID,
				ClientSecret: s.Auth.ClientSecret,
			},
		})
	}
	for _, u := range c.SourceURLs {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, domain.Source{SpecURL: u})
		}
	}
	return out
}

// Load loads configuration first from environment variables (to get file path),
// then from the specified YAML file, and finally merges/overrides with environment variables again.
// ${VAR} references inside the file are expanded from the environment so secrets can stay out of it.
// Only the braced form is expanded.
func Load() (*Config, error) {
	// 1. Load initial config from Env (primarily to get ConfigFilePath)
	var initialCfg Config
	if err := envconfig.Process(envPrefix, &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	// 2. Load config from YAML file if path is specified
	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(expandEnv(yamlFile), &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
			}
			slog.Info("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)
		case errors.Is(err, os.ErrNotExist) && initialCfg.ConfigFilePath == defaultConfigPath:
			slog.Info("Default config file not found, using defaults/env vars only.", "path", defaultConfigPath)
		default:
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
	} else {
		slog.Info("No config file path specified (OASMETA_CONFIG_FILE), using defaults/env vars only.")
	}

	// 3. Create final config, starting with file values, then process Env vars again for overrides.
	finalCfg := initialCfg
	finalCfg.CollectionRefPaths = fileCfg.CollectionRefPaths

	sources, err := parseSources(fileCfg.Sources)
	if err != nil {
		return nil, err
	}
	finalCfg.Sources = sources

	if err := envconfig.Process(envPrefix, &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	return &finalCfg, nil
}

func expandEnv(data []byte) []byte {
	return bracedEnvRef.ReplaceAllFunc(data, func(match []byte) []byte {
		name := bracedEnvRef.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// parseSources accepts both the bare URL string form and the object form.
func parseSources(raw []interface{}) ([]SourceConfig, error) {
	sources := make([]SourceConfig, 0, len(raw))
	for i, source := range raw {
		switch v := source.(type) {
		case string:
			sources = append(sources, SourceConfig{URL: v})
		case map[string]interface{}:
			// Round-trip through YAML to reuse the struct tags.
			data, err := yaml.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to re-encode source %d: %w", i, err)
			}
			var sc SourceConfig
			if err := yaml.Unmarshal(data, &sc); err != nil {
				return nil, fmt.Errorf("invalid source %d: %w", i, err)
			}
			if sc.URL == "" {
				slog.Warn("Source missing url field, skipping", "index", i, "name", sc.Name)
				continue
			}
			sources = append(sources, sc)
		default:
			slog.Warn("Ignoring invalid source format", "source", source)
		}
	}
	return sources, nil
}
