// Package config loads the static configuration the CLI entrypoints
// wire the core against: embedder selection and secret sourcing,
// on-disk paths for the corpus/cache/ledger artifacts, chunking
// parameters, and the default/max k bounds of the Search API.
//
// Grounded directly in the teacher's internal/config.Load/LoadDefault/
// Save read-or-default pattern (YAML file, default-user-config-path
// resolution, applyConfigDefaults), extended with the sections §6.3
// names that the teacher's document-search config never needed.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig configures the OpenAI-compatible embedding
// client (§6.1 Embedding Provider).
type OpenAIEmbedderConfig struct {
	BaseURL      string  `yaml:"base_url"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	Model        string  `yaml:"model"`
	TimeoutSecs  int     `yaml:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	Burst        int     `yaml:"burst"`
}

// EmbedderConfig selects and configures the Embedding Client. Type is
// "openai" for the HTTP provider or "local" for the offline
// deterministic embedder used in tests and demos.
type EmbedderConfig struct {
	Dimension int                   `yaml:"dimension"`
	Type      string                `yaml:"type"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures §4.5 character-window chunking.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// QdrantConfig contains connection details for the optional Qdrant
// VectorStore backend.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the VectorStore backend.
// Type is "memory" (the default, in-process) or "qdrant".
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// PathsConfig names the on-disk artifacts the Reconciler reads and
// writes (§6.2).
type PathsConfig struct {
	CorpusFile    string `yaml:"corpus_file"`
	CacheFile     string `yaml:"cache_file"`
	LedgerIndices string `yaml:"ledger_indices_file"`
	LedgerCorpus  string `yaml:"ledger_corpus_file"`
}

// SearchConfig holds the default and maximum k (§6.3). DefaultK also
// seeds TUI.ResultTopK when that is unset. The Search API does not
// read these fields: it clamps k to the fixed range [1,50].
type SearchConfig struct {
	DefaultK int `yaml:"default_k"`
	MaxK     int `yaml:"max_k"`
}

// TUIConfig holds interactive-client display options.
type TUIConfig struct {
	ResultTopK int `yaml:"result_top_k"`
}

// ChatConfig toggles the chat orchestrator's behavior.
type ChatConfig struct {
	// ExtractiveFallback is loaded (default true) but not read by the
	// chat orchestrator, which always answers directly from the top
	// retrieved QA record; setting it to false changes nothing.
	ExtractiveFallback bool `yaml:"extractive_fallback"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Paths       PathsConfig       `yaml:"paths"`
	Search      SearchConfig      `yaml:"search"`
	TUI         TUIConfig         `yaml:"tui"`
	Chat        ChatConfig        `yaml:"chat"`
}

// Load reads a config from path. A missing file returns defaults, not
// an error — matching the teacher's read-or-default idiom.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragqa/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "local", Dimension: 256},
		Chunker:     ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 100},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Paths: PathsConfig{
			CorpusFile:    "data/corpus.json",
			CacheFile:     "data/cache.json",
			LedgerIndices: "data/ledger_indices.json",
			LedgerCorpus:  "data/ledger_corpus.digest",
		},
		Search: SearchConfig{DefaultK: 10, MaxK: 50},
		TUI:    TUIConfig{ResultTopK: 10},
		Chat:   ChatConfig{ExtractiveFallback: true},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 100
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 256
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == 0 {
			o.MaxRetries = 5
		}
		if o.RateLimitRPS == 0 {
			o.RateLimitRPS = 3
		}
		if o.Burst == 0 {
			o.Burst = 1
		}
	}
	if cfg.Paths.CorpusFile == "" {
		cfg.Paths.CorpusFile = "data/corpus.json"
	}
	if cfg.Paths.CacheFile == "" {
		cfg.Paths.CacheFile = "data/cache.json"
	}
	if cfg.Paths.LedgerIndices == "" {
		cfg.Paths.LedgerIndices = "data/ledger_indices.json"
	}
	if cfg.Paths.LedgerCorpus == "" {
		cfg.Paths.LedgerCorpus = "data/ledger_corpus.digest"
	}
	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 10
	}
	if cfg.Search.MaxK == 0 {
		cfg.Search.MaxK = 50
	}
	if cfg.TUI.ResultTopK == 0 {
		cfg.TUI.ResultTopK = cfg.Search.DefaultK
	}
}
