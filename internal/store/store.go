// Package store persists structures as CIF files and tracks run progress
// through a checkpoint file.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kalambet/crysfetch/internal/structure"
)

// Source records where a structure came from.
type Source string

const (
	SourceFetched   Source = "fetched"
	SourceGenerated Source = "generated"
)

// Record is one resolved structure ready to persist.
type Record struct {
	Formula    string
	Source     Source
	MaterialID string
	Structure  *structure.Structure
}

func (r Record) meta() structure.Meta {
	meta := structure.Meta{MaterialID: r.MaterialID}
	switch r.Source {
	case SourceFetched:
		meta.Origin = structure.OriginFetched
	case SourceGenerated:
		meta.Origin = structure.OriginGenerated
	}
	return meta
}

const checkpointFile = "processing_checkpoint.json"

// Store writes CIF files into the structure directory and checkpoints into
// the raw data directory.
type Store struct {
	structureDir string
	rawDir       string
}

// New creates both directories if needed.
func New(structureDir, rawDir string) (*Store, error) {
	for _, dir := range []string{structureDir, rawDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return &Store{structureDir: structureDir, rawDir: rawDir}, nil
}

func (s *Store) StructureDir() string {
	return s.structureDir
}

// SaveStructure writes rec as <formula>_<source>.cif and returns the path.
// Existing files are replaced, so re-runs stay idempotent. The write is
// atomic: a temp file in the target directory, then rename.
func (s *Store) SaveStructure(rec Record) (string, error) {
	if rec.Structure == nil {
		return "", fmt.Errorf("saving %s: record has no structure", rec.Formula)
	}

	var buf bytes.Buffer
	if err := structure.EncodeCIF(&buf, rec.Structure, rec.meta()); err != nil {
		return "", fmt.Errorf("saving %s: %w", rec.Formula, err)
	}

	name := fmt.Sprintf("%s_%s.cif", strings.Join(strings.Fields(rec.Formula), ""), rec.Source)
	path := filepath.Join(s.structureDir, name)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("saving %s: %w", rec.Formula, err)
	}
	return path, nil
}

// Checkpoint snapshots run progress. It is written after each completed
// batch so an interrupted run leaves a record of what finished.
type Checkpoint struct {
	RunID     string    `json:"run_id"`
	Total     int       `json:"total"`
	Completed []string  `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Store) CheckpointPath() string {
	return filepath.Join(s.rawDir, checkpointFile)
}

func (s *Store) SaveCheckpoint(cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := writeFileAtomic(s.CheckpointPath(), append(data, '\n')); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
