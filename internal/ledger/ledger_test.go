package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFilesProduceEmptyLedger(t *testing.T) {
	dir := t.TempDir()
	l, err := Load(filepath.Join(dir, "indices.json"), filepath.Join(dir, "corpus.digest"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Indices) != 0 || l.CorpusDigest != "" {
		t.Fatalf("expected empty ledger, got %+v", l)
	}
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	indicesPath := filepath.Join(dir, "indices.json")
	corpusPath := filepath.Join(dir, "corpus.digest")

	l := New()
	l.Indices["0"] = "deadbeef"
	l.Indices["1"] = "cafef00d"
	l.CorpusDigest = "0123456789abcdef"

	if err := l.Save(indicesPath, corpusPath); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(indicesPath, corpusPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	require.Equal(t, l.Indices, loaded.Indices, "round-tripped indices map must equal the saved one")
	require.Equal(t, l.CorpusDigest, loaded.CorpusDigest)
}

func TestClone_IsIndependentOfOriginal(t *testing.T) {
	l := New()
	l.Indices["0"] = "a"
	c := l.Clone()
	c.Indices["0"] = "b"
	if l.Indices["0"] != "a" {
		t.Fatalf("mutating clone must not affect original")
	}
}
