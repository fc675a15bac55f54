// Package corpus implements the Corpus Store: the authoritative,
// positionally-identified list of QA records, backed by a single JSON
// array file on disk. The HTTP CRUD surface that would normally front
// this store is out of scope for the core (per the design's §1
// scoping); Add/Update/Delete here are the programmatic equivalent,
// letting the core be exercised end to end without that surface.
//
// Grounded in the teacher's file-reading idiom
// (service.RAGServiceImpl.IngestDocuments' os.ReadFile) and its
// write-with-directory-creation idiom (config.Save).
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kxddry/ragqa/internal/domain"
)

// Store is a JSON-file-backed domain.CorpusStore.
type Store struct {
	mu   sync.RWMutex
	path string
}

// New returns a Store reading and writing the corpus at path. The
// file is not touched until ReadAll or a mutation is called.
func New(path string) *Store {
	return &Store{path: path}
}

// ReadAll loads and parses the full corpus file. Per §7, a missing or
// unparsable file is domain.ErrCorpusUnavailable — fatal at startup,
// surfaced at each query. An empty JSON array ("[]") is a valid,
// non-error empty corpus.
func (s *Store) ReadAll() ([]domain.QARecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked()
}

func (s *Store) readLocked() ([]domain.QARecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", domain.ErrCorpusUnavailable, s.path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrCorpusUnavailable, s.path, err)
	}
	var records []domain.QARecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrCorpusUnavailable, s.path, err)
	}
	return records, nil
}

// Get fetches the record at position i.
func (s *Store) Get(i int) (domain.QARecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.readLocked()
	if err != nil {
		return domain.QARecord{}, err
	}
	if i < 0 || i >= len(records) {
		return domain.QARecord{}, fmt.Errorf("%w: index %d out of range [0,%d)", domain.ErrCorpusUnavailable, i, len(records))
	}
	return records[i], nil
}

// RawBytes returns the corpus file's raw bytes, for the Hasher's
// whole-file fingerprint. A missing file returns an error wrapping
// domain.ErrCorpusUnavailable, consistent with ReadAll.
func (s *Store) RawBytes() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", domain.ErrCorpusUnavailable, s.path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrCorpusUnavailable, s.path, err)
	}
	return data, nil
}

// readOrEmptyLocked is like readLocked but treats a missing file as an
// empty corpus, for mutation entry points that may be creating the
// corpus file for the first time.
func (s *Store) readOrEmptyLocked() ([]domain.QARecord, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrCorpusUnavailable, s.path, err)
	}
	return s.readLocked()
}

// Add appends a new record and persists the corpus, returning its
// assigned (positional) index.
func (s *Store) Add(r domain.QARecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.readOrEmptyLocked()
	if err != nil {
		return 0, err
	}
	records = append(records, r)
	if err := s.writeLocked(records); err != nil {
		return 0, err
	}
	return len(records) - 1, nil
}

// Update replaces the record at position i and persists the corpus.
func (s *Store) Update(i int, r domain.QARecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.readLocked()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(records) {
		return fmt.Errorf("%w: index %d out of range [0,%d)", domain.ErrCorpusUnavailable, i, len(records))
	}
	records[i] = r
	return s.writeLocked(records)
}

// Delete removes the record at position i, shifting every later index
// down by one, and persists the corpus. Per the design's positional-
// identity caveat, this invalidates every index after i.
func (s *Store) Delete(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.readLocked()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(records) {
		return fmt.Errorf("%w: index %d out of range [0,%d)", domain.ErrCorpusUnavailable, i, len(records))
	}
	records = append(records[:i], records[i+1:]...)
	return s.writeLocked(records)
}

func (s *Store) writeLocked(records []domain.QARecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing corpus %s: %w", s.path, err)
	}
	return nil
}
