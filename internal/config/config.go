// Package config provides configuration loading and structs for the kotae server and builder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Collector CollectorConfig `yaml:"collector"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the corpus, the index artifact and the embedding cache.
type StorageConfig struct {
	DataDir            string `yaml:"data_dir"`
	ArtifactPath       string `yaml:"artifact_path"`
	EmbeddingCachePath string `yaml:"embedding_cache_path"` // empty disables the persistent cache
}

// EmbeddingConfig selects and configures the encoder.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // onnx, openai, ollama, mock
	ModelPath  string `yaml:"model_path"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// IndexConfig holds offline index build settings.
type IndexConfig struct {
	CorpusName       string `yaml:"corpus_name"`
	TextColumn       string `yaml:"text_column"`
	BatchSize        int    `yaml:"batch_size"`
	Workers          int    `yaml:"workers"`
	ConvertJSONToCSV *bool  `yaml:"convert_json_to_csv"`
}

// ConvertJSONToCSVOrDefault returns whether a JSON corpus is also written back as CSV;
// defaults to true when unset.
func (c *IndexConfig) ConvertJSONToCSVOrDefault() bool {
	if c.ConvertJSONToCSV != nil {
		return *c.ConvertJSONToCSV
	}
	return true
}

// SearchConfig holds query settings.
type SearchConfig struct {
	DefaultLimit      int  `yaml:"default_limit"`
	MaxLimit          int  `yaml:"max_limit"`
	LocalTopK         int  `yaml:"local_top_k"`
	AllowMissingIndex bool `yaml:"allow_missing_index"`
	WatchArtifact     bool `yaml:"watch_artifact"`
}

// CollectorConfig holds live web snippet collection settings.
type CollectorConfig struct {
	Enabled     *bool             `yaml:"enabled"`
	TimeoutMS   int               `yaml:"timeout_ms"`
	MaxSnippets int               `yaml:"max_snippets"`
	UserAgent   string            `yaml:"user_agent"`
	Sources     []CollectorSource `yaml:"sources"`
}

// CollectorSource is one web endpoint queried for snippets. URL must contain "{query}".
type CollectorSource struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Format string `yaml:"format"` // wikipedia or html
}

// EnabledOrDefault returns whether live collection is on; defaults to true when unset.
func (c *CollectorConfig) EnabledOrDefault() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return true
}

// Timeout returns the collector deadline as a duration.
func (c *CollectorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir, configDir)
	cfg.Storage.ArtifactPath = expandPath(cfg.Storage.ArtifactPath, configDir)
	if cfg.Storage.EmbeddingCachePath != "" {
		cfg.Storage.EmbeddingCachePath = expandPath(cfg.Storage.EmbeddingCachePath, configDir)
	}
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no sensible default.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case ProviderONNX, ProviderOpenAI, ProviderOllama, ProviderMock:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit (%d) is below search.default_limit (%d)", c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	for _, src := range c.Collector.Sources {
		if !strings.Contains(src.URL, "{query}") {
			return fmt.Errorf("collector source %q: url must contain {query}", src.Name)
		}
		if src.Format != SourceFormatWikipedia && src.Format != SourceFormatHTML {
			return fmt.Errorf("collector source %q: unknown format %q", src.Name, src.Format)
		}
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
