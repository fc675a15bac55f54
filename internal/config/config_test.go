package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Embedder.Type != "local" {
		t.Fatalf("expected default embedder type 'local', got %q", cfg.Embedder.Type)
	}
	if cfg.Chunker.ChunkSize != 1000 || cfg.Chunker.ChunkOverlap != 100 {
		t.Fatalf("expected default chunking 1000/100, got %d/%d", cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	}
	if cfg.Search.DefaultK != 10 || cfg.Search.MaxK != 50 {
		t.Fatalf("expected default k bounds 10/50, got %d/%d", cfg.Search.DefaultK, cfg.Search.MaxK)
	}
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := defaultConfig()
	cfg.Embedder.Type = "openai"
	cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{Model: "text-embedding-3-large"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Embedder.Type != "openai" {
		t.Fatalf("expected embedder type to round-trip, got %q", loaded.Embedder.Type)
	}
	if loaded.Embedder.OpenAI == nil || loaded.Embedder.OpenAI.Model != "text-embedding-3-large" {
		t.Fatalf("expected openai model to round-trip, got %+v", loaded.Embedder.OpenAI)
	}
	// applyConfigDefaults should have filled in the rest.
	if loaded.Embedder.OpenAI.BaseURL == "" {
		t.Fatalf("expected openai base url to be defaulted after load")
	}
}

func TestApplyConfigDefaults_FillsZeroValues(t *testing.T) {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	if cfg.Chunker.ChunkSize != 1000 || cfg.Chunker.ChunkOverlap != 100 {
		t.Fatalf("expected chunking defaults applied, got %+v", cfg.Chunker)
	}
	if cfg.Paths.CorpusFile == "" || cfg.Paths.CacheFile == "" {
		t.Fatalf("expected path defaults applied, got %+v", cfg.Paths)
	}
	if cfg.TUI.ResultTopK != cfg.Search.DefaultK {
		t.Fatalf("expected TUI top-k to default to search default-k")
	}
}
