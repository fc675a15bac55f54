// Command ragqa-reconcile runs a single reconciliation pass against
// the configured corpus, cache, and ledger, then exits. It is the
// non-interactive driver the Reconciler's documented lifecycle calls
// for ("invoked... after each external CRUD mutation", §4.4) when no
// long-running process is available to call refresh — a cron job or a
// CI step after a corpus edit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kxddry/ragqa/internal/config"
	"github.com/kxddry/ragqa/internal/corpus"
	"github.com/kxddry/ragqa/internal/domain"
	"github.com/kxddry/ragqa/internal/embedding"
	"github.com/kxddry/ragqa/internal/embedding/openai"
	"github.com/kxddry/ragqa/internal/keywordgen"
	"github.com/kxddry/ragqa/internal/reconcile"
	"github.com/kxddry/ragqa/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var suggestIndex int
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml, then ~/.config/ragqa/config.yaml if not provided)")
	flag.IntVar(&suggestIndex, "suggest-keywords", -1, "Print heuristic keyword suggestions for the record at this index and exit, skipping reconciliation")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	corpusStore := corpus.New(cfg.Paths.CorpusFile)

	if suggestIndex >= 0 {
		runSuggestKeywords(corpusStore, suggestIndex)
		return
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "local", "":
		emb = embedding.NewLocalEmbedder(cfg.Embedder.Dimension)
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, clientErr := openai.New(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKey:     os.Getenv(oc.APIKeyEnv),
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.MaxRetries,
		})
		if clientErr != nil {
			log.Fatalf("openai embedder init failed: %v", clientErr)
		}
		emb = embedding.NewRateLimited(client, oc.RateLimitRPS, oc.Burst)
	default:
		log.Fatalf("unknown embedder type %q", cfg.Embedder.Type)
	}

	store := vectorstore.New()
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

	res, err := reconciler.Reconcile(context.Background())
	if err != nil {
		log.Fatalf("reconciliation failed: %v", err)
	}

	fmt.Printf("reconciled: added=%d changed=%d deleted=%d unchanged=%d embed_failures=%d\n",
		len(res.Added), len(res.Changed), len(res.Deleted), len(res.Unchanged), len(res.EmbedFailures))
	for idx, embErr := range res.EmbedFailures {
		fmt.Printf("  index %d: %v\n", idx, embErr)
	}
}

// runSuggestKeywords prints the local Heuristic generator's keyword
// suggestions for one corpus record without touching the cache or
// ledger — the keyword-review workflow described in §4.8: suggestions
// are proposed for a human to accept and write back through the
// Corpus Store's own CRUD surface, never applied automatically.
func runSuggestKeywords(corpusStore *corpus.Store, index int) {
	rec, err := corpusStore.Get(index)
	if err != nil {
		log.Fatalf("failed to load record %d: %v", index, err)
	}
	suggestions, err := keywordgen.NewHeuristic().Suggest(context.Background(), rec)
	if err != nil {
		log.Fatalf("keyword suggestion failed: %v", err)
	}
	if len(suggestions) == 0 {
		fmt.Printf("no keyword suggestions for record %d\n", index)
		return
	}
	fmt.Printf("suggested keywords for record %d (%q): %s\n", index, rec.Question, strings.Join(suggestions, ", "))
}
