// Command ragqa is the interactive CLI entrypoint: it loads
// configuration, wires the Corpus Store, Embedding Client, Vector
// Store, Reconciler, and Search API, runs the first reconciliation
// pass, and hands control to the Bubble Tea TUI for QA search and
// chat.
//
// Grounded in the teacher's cmd/rag/main.go component-assembly switch
// structure (embedder/chunker/store type switches driven by config
// strings), generalized to the QA-record core and extended with the
// reconciliation and chat-session wiring the teacher's one-shot
// document ingest never needed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/kxddry/ragqa/internal/chatsession"
	"github.com/kxddry/ragqa/internal/config"
	"github.com/kxddry/ragqa/internal/corpus"
	"github.com/kxddry/ragqa/internal/domain"
	"github.com/kxddry/ragqa/internal/embedding"
	"github.com/kxddry/ragqa/internal/embedding/openai"
	"github.com/kxddry/ragqa/internal/ragindex"
	"github.com/kxddry/ragqa/internal/reconcile"
	"github.com/kxddry/ragqa/internal/tui"
	"github.com/kxddry/ragqa/internal/vectorstore"
	"github.com/kxddry/ragqa/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml, then ~/.config/ragqa/config.yaml if not provided)")
	flag.Parse()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	corpusStore := corpus.New(cfg.Paths.CorpusFile)

	emb, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("failed to build embedder: %v", err)
	}

	store, err := buildVectorStore(cfg)
	if err != nil {
		log.Fatalf("failed to build vector store: %v", err)
	}
	if err := store.Init(cfg.Embedder.Dimension); err != nil {
		log.Fatalf("failed to init vector store: %v", err)
	}

	reconciler := reconcile.New(corpusStore, store, emb, reconcile.Config{
		ChunkSize:     cfg.Chunker.ChunkSize,
		ChunkOverlap:  cfg.Chunker.ChunkOverlap,
		CachePath:     cfg.Paths.CacheFile,
		LedgerIndices: cfg.Paths.LedgerIndices,
		LedgerCorpus:  cfg.Paths.LedgerCorpus,
	})

	index := ragindex.New(emb, store, corpusStore, func(ctx context.Context) error {
		_, err := reconciler.Reconcile(ctx)
		return err
	})

	ctx := context.Background()
	if err := index.Initialize(ctx); err != nil {
		log.Fatalf("initial reconciliation failed: %v", err)
	}

	chatStore := chatsession.NewMemoryStore()
	orchestrator := chatsession.NewOrchestrator(index, chatStore)

	m := tui.New(index, orchestrator, cfg.TUI.ResultTopK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(cfgPath string) (*config.AppConfig, error) {
	if cfgPath == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(cfgPath)
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "local", "":
		return embedding.NewLocalEmbedder(cfg.Embedder.Dimension), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		apiKey := os.Getenv(oc.APIKeyEnv)
		client, err := openai.New(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKey:     apiKey,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return embedding.NewRateLimited(client, oc.RateLimitRPS, oc.Burst), nil
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}
}

func buildVectorStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return vectorstore.New(), nil
	case "qdrant":
		qc := cfg.VectorStore.Qdrant
		if qc == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.New(qdrant.Config{
			URL:        qc.URL,
			APIKey:     qc.APIKey,
			Collection: qc.Collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.VectorStore.Type)
	}
}
