package config

const (
	ProviderONNX   = "onnx"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"

	SourceFormatWikipedia = "wikipedia"
	SourceFormatHTML      = "html"
)

// DefaultWikipediaSource queries the English Wikipedia full-text search API.
var DefaultWikipediaSource = CollectorSource{
	Name:   "wikipedia",
	URL:    "https://en.wikipedia.org/w/api.php?action=query&list=search&format=json&srlimit=10&srsearch={query}",
	Format: SourceFormatWikipedia,
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "/usr/local/var/kotae/data"
	}
	if cfg.Storage.ArtifactPath == "" {
		cfg.Storage.ArtifactPath = "/usr/local/var/kotae/index/context_embeddings.idx"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderONNX
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kotae/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case ProviderOpenAI:
			cfg.Embedding.Model = "text-embedding-3-small"
		case ProviderOllama:
			cfg.Embedding.Model = "all-minilm"
		default:
			cfg.Embedding.Model = "all-MiniLM-L6-v2"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Index.CorpusName == "" {
		cfg.Index.CorpusName = "squad_train"
	}
	if cfg.Index.TextColumn == "" {
		cfg.Index.TextColumn = "context"
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 256
	}
	if cfg.Index.Workers == 0 {
		cfg.Index.Workers = 4
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.LocalTopK == 0 {
		cfg.Search.LocalTopK = 5
	}
	if cfg.Collector.TimeoutMS == 0 {
		cfg.Collector.TimeoutMS = 5000
	}
	if cfg.Collector.MaxSnippets == 0 {
		cfg.Collector.MaxSnippets = 10
	}
	if cfg.Collector.UserAgent == "" {
		cfg.Collector.UserAgent = "kotae/1.0 (+https://github.com/hyperjump/kotae)"
	}
	if cfg.Collector.Sources == nil {
		cfg.Collector.Sources = []CollectorSource{DefaultWikipediaSource}
	}
}
