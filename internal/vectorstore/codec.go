package vectorstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kxddry/ragqa/internal/domain"
)

// Artifact is the Cache Artifact's on-disk shape: the dimensionality
// of every vector it holds, the ordered chunk list, and an
// informational save timestamp.
type Artifact struct {
	Dimensions int            `json:"dimensions"`
	Vectors    []domain.Chunk `json:"vectors"`
	SavedAt    time.Time      `json:"saved_at"`
}

// Codec serializes and deserializes a Store's state to a single
// self-describing JSON file, grounded in the pack's consistent use of
// JSON for vector payloads (e.g. the teacher's Qdrant REST adapter).
// On read, a missing file is distinguished from a corrupt one: absence
// returns found=false with a nil error; any other failure is wrapped
// in domain.ErrCacheCorrupt.
type Codec struct{}

// NewCodec returns a ready-to-use Codec.
func NewCodec() *Codec { return &Codec{} }

// Read loads the Cache Artifact at path. found is false and err is nil
// when the file does not exist.
func (c *Codec) Read(path string) (Artifact, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Artifact{}, false, nil
		}
		return Artifact{}, false, fmt.Errorf("%w: reading %s: %v", domain.ErrCacheCorrupt, path, err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return Artifact{}, false, fmt.Errorf("%w: decoding %s: %v", domain.ErrCacheCorrupt, path, err)
	}

	for _, v := range artifact.Vectors {
		if len(v.Vector) != artifact.Dimensions {
			return Artifact{}, false, fmt.Errorf("%w: %s has a vector of length %d, header declares %d",
				domain.ErrCacheCorrupt, path, len(v.Vector), artifact.Dimensions)
		}
	}

	return artifact, true, nil
}

// Write persists artifact to path, stamping SavedAt with now. The
// write is produced in a form Read can parse back unchanged (modulo
// SavedAt, which is informational only).
func (c *Codec) Write(path string, artifact Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	artifact.SavedAt = now()
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache artifact %s: %w", path, err)
	}
	return nil
}

// now is a seam so tests can stamp deterministic artifacts if needed;
// production callers always get the real wall clock.
var now = time.Now
