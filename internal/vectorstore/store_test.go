package vectorstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kxddry/ragqa/internal/domain"
)

func chunk(payloadIndex int, vector ...float64) domain.Chunk {
	return domain.Chunk{PayloadIndex: payloadIndex, Text: "x", Vector: vector}
}

func TestStore_InsertAndCount(t *testing.T) {
	s := New()
	if err := s.Init(3); err != nil {
		t.Fatalf("init: %v", err)
	}
	n, err := s.Insert([]domain.Chunk{chunk(0, 1, 0, 0), chunk(1, 0, 1, 0)})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 inserted, got %d", n)
	}
	if s.Count() != 2 {
		t.Fatalf("expected count 2, got %d", s.Count())
	}
	if s.CountByPayloadIndex(0) != 1 {
		t.Fatalf("expected 1 chunk for payload 0")
	}
}

func TestStore_InsertRejectsDimensionMismatch(t *testing.T) {
	s := New()
	_ = s.Init(3)
	if _, err := s.Insert([]domain.Chunk{chunk(0, 1, 0)}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestStore_DeleteByPayloadIndex(t *testing.T) {
	s := New()
	_ = s.Init(2)
	_, _ = s.Insert([]domain.Chunk{chunk(0, 1, 0), chunk(1, 0, 1), chunk(0, 1, 1)})
	removed := s.DeleteByPayloadIndex(0)
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 remaining, got %d", s.Count())
	}
}

func TestStore_Search_OrderAndTruncation(t *testing.T) {
	s := New()
	_ = s.Init(2)
	_, _ = s.Insert([]domain.Chunk{
		chunk(0, 1, 0),
		chunk(1, 0.9, 0.1),
		chunk(2, 0, 1),
	})
	res, err := s.Search([]float64{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if res[0].Chunk.PayloadIndex != 0 {
		t.Fatalf("expected payload 0 to rank first, got %d", res[0].Chunk.PayloadIndex)
	}
	if res[0].Score < res[1].Score {
		t.Fatalf("expected descending score order")
	}
}

func TestStore_Search_TieBrokenByInsertionOrder(t *testing.T) {
	s := New()
	_ = s.Init(2)
	_, _ = s.Insert([]domain.Chunk{chunk(0, 1, 0), chunk(1, 1, 0)})
	res, err := s.Search([]float64{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res[0].Chunk.PayloadIndex != 0 || res[1].Chunk.PayloadIndex != 1 {
		t.Fatalf("expected earlier insertion to win tie, got order %d, %d",
			res[0].Chunk.PayloadIndex, res[1].Chunk.PayloadIndex)
	}
}

func TestStore_Search_ZeroVectorScoresZero(t *testing.T) {
	s := New()
	_ = s.Init(2)
	_, _ = s.Insert([]domain.Chunk{chunk(0, 0, 0)})
	res, err := s.Search([]float64{1, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res[0].Score != 0 {
		t.Fatalf("expected zero score, got %f", res[0].Score)
	}
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	s := New()
	_ = s.Init(2)
	_, _ = s.Insert([]domain.Chunk{chunk(0, 1, 0), chunk(1, 0, 1)})
	if err := s.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	s2 := New()
	found, err := s2.LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatalf("expected cache to be found")
	}
	if s2.Count() != 2 {
		t.Fatalf("expected 2 chunks after load, got %d", s2.Count())
	}
}

func TestStore_Init_PreservesLoadedChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	s := New()
	_ = s.Init(2)
	_, _ = s.Insert([]domain.Chunk{chunk(0, 1, 0)})
	_ = s.SaveToFile(path)

	s2 := New()
	found, err := s2.LoadFromFile(path)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	countBefore := s2.Count()
	if err := s2.Init(2); err != nil {
		t.Fatalf("init: %v", err)
	}
	if s2.Count() != countBefore {
		t.Fatalf("init must preserve loaded chunks: before=%d after=%d", countBefore, s2.Count())
	}
}

func TestStore_LoadFromFile_MissingIsNotError(t *testing.T) {
	s := New()
	found, err := s.LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("expected no error for missing cache, got %v", err)
	}
	if found {
		t.Fatalf("expected found=false")
	}
}

func TestStore_LoadFromFile_CorruptFileSurfacesError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt cache: %v", err)
	}

	s := New()
	_, err := s.LoadFromFile(path)
	if err == nil {
		t.Fatalf("expected error for corrupt cache")
	}
}

func TestStore_LoadFromFile_DimensionMismatchIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	s := New()
	_ = s.Init(2)
	_, _ = s.Insert([]domain.Chunk{chunk(0, 1, 0)})
	if err := s.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	s2 := New()
	if err := s2.Init(3); err != nil {
		t.Fatalf("init: %v", err)
	}
	found, err := s2.LoadFromFile(path)
	if err == nil {
		t.Fatalf("expected dimension mismatch error, got nil")
	}
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if found {
		t.Fatalf("expected found=false on dimension mismatch")
	}
	if s2.Count() != 0 {
		t.Fatalf("expected store to remain empty after a rejected load, got %d", s2.Count())
	}
}
