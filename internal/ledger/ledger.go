// Package ledger persists the Fingerprint Ledger: the per-index record
// digest map and the whole-corpus digest, each a separate JSON file.
// The two artifacts are written only by the Reconciler, atomically
// paired with the Cache Artifact per §4.4's crash-ordering guarantee.
//
// Grounded in the teacher's config.Load/config.Save read-or-default
// pattern, generalized from YAML to JSON (these artifacts are
// machine-only) and from a single struct to a map keyed by string
// index.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Ledger holds the in-memory view of the two fingerprint artifacts.
type Ledger struct {
	// Indices maps a positional index (as a string) to the record
	// fingerprint last successfully embedded for it.
	Indices map[string]string
	// CorpusDigest is the whole-corpus fingerprint from the last pass.
	CorpusDigest string
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{Indices: make(map[string]string)}
}

// Load reads the index-digest map from indicesPath and the corpus
// digest from corpusPath. A missing indices file produces an empty
// Ledger with no error — a fresh-start condition, not a failure.
func Load(indicesPath, corpusPath string) (*Ledger, error) {
	l := New()

	data, err := os.ReadFile(indicesPath)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &l.Indices); jsonErr != nil {
			return nil, fmt.Errorf("decoding ledger indices %s: %w", indicesPath, jsonErr)
		}
	case errors.Is(err, os.ErrNotExist):
		// no prior ledger; treat as empty.
	default:
		return nil, fmt.Errorf("reading ledger indices %s: %w", indicesPath, err)
	}

	data, err = os.ReadFile(corpusPath)
	switch {
	case err == nil:
		l.CorpusDigest = string(data)
	case errors.Is(err, os.ErrNotExist):
		// no prior corpus digest.
	default:
		return nil, fmt.Errorf("reading corpus digest %s: %w", corpusPath, err)
	}

	return l, nil
}

// Save writes the index-digest map to indicesPath and the corpus
// digest to corpusPath. Callers are responsible for calling this only
// after the paired Cache Artifact write has completed, per §4.4's
// crash-ordering guarantee.
func (l *Ledger) Save(indicesPath, corpusPath string) error {
	if err := os.MkdirAll(filepath.Dir(indicesPath), 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(corpusPath), 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}
	data, err := json.MarshalIndent(l.Indices, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger indices: %w", err)
	}
	if err := os.WriteFile(indicesPath, data, 0o644); err != nil {
		return fmt.Errorf("writing ledger indices %s: %w", indicesPath, err)
	}
	if err := os.WriteFile(corpusPath, []byte(l.CorpusDigest), 0o644); err != nil {
		return fmt.Errorf("writing corpus digest %s: %w", corpusPath, err)
	}
	return nil
}

// Clone returns a deep copy, used by the Reconciler to build the next
// ledger state without mutating the one currently being diffed
// against.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{Indices: make(map[string]string, len(l.Indices)), CorpusDigest: l.CorpusDigest}
	for k, v := range l.Indices {
		c.Indices[k] = v
	}
	return c
}
