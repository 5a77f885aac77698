// Package fetch orchestrates structure acquisition: query the materials
// database for each formula, fall back to prototype generation on a miss,
// and persist every resolved structure as a CIF file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/crysfetch/internal/mp"
	"github.com/kalambet/crysfetch/internal/store"
	"github.com/kalambet/crysfetch/internal/structure"
)

// Fetcher looks up summary records in the materials database.
type Fetcher interface {
	SummarySearch(ctx context.Context, formula string) (*mp.SummaryDoc, error)
}

// Generator derives a prototype structure from a formula.
type Generator interface {
	Generate(formula string) (*structure.Structure, error)
}

// Saver persists resolved structures and run checkpoints.
type Saver interface {
	SaveStructure(rec store.Record) (string, error)
	SaveCheckpoint(cp store.Checkpoint) error
}

// Outcome is the terminal state of one input formula. Err is nil exactly
// when a CIF file landed on disk at Path.
type Outcome struct {
	Formula string
	Source  store.Source
	Path    string
	Err     error
}

// Succeeded reports whether the formula produced a saved structure.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

const defaultBatchSize = 5

// Orchestrator drives the pipeline sequentially, one formula at a time.
type Orchestrator struct {
	fetcher   Fetcher
	generator Generator
	saver     Saver
	batchSize int
	logger    *slog.Logger
}

func New(fetcher Fetcher, generator Generator, saver Saver, batchSize int) *Orchestrator {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Orchestrator{
		fetcher:   fetcher,
		generator: generator,
		saver:     saver,
		batchSize: batchSize,
		logger:    slog.Default(),
	}
}

// Run resolves and saves every formula in input order and returns one
// outcome per formula. Per-formula failures (unparseable formula, write
// error) are recorded in the outcome and do not stop the run. A rejected
// API key or a done context aborts immediately with the outcomes collected
// so far. A checkpoint is written after each completed batch; checkpoint
// write failures only log a warning.
func (o *Orchestrator) Run(ctx context.Context, formulas []string) ([]Outcome, error) {
	runID := uuid.NewString()
	outcomes := make([]Outcome, 0, len(formulas))
	completed := make([]string, 0, len(formulas))
	cache := make(map[string]store.Record)

	batches := (len(formulas) + o.batchSize - 1) / o.batchSize
	for start := 0; start < len(formulas); start += o.batchSize {
		batch := formulas[start:min(start+o.batchSize, len(formulas))]
		o.logger.Info("processing batch",
			"run_id", runID,
			"batch", start/o.batchSize+1,
			"batches", batches,
			"formulas", len(batch))

		for _, f := range batch {
			if err := ctx.Err(); err != nil {
				return outcomes, err
			}
			outcome, err := o.processOne(ctx, f, cache)
			if err != nil {
				return outcomes, err
			}
			outcomes = append(outcomes, outcome)
			if outcome.Err == nil {
				completed = append(completed, f)
			}
		}

		cp := store.Checkpoint{
			RunID:     runID,
			Total:     len(formulas),
			Completed: completed,
			UpdatedAt: time.Now().UTC(),
		}
		if err := o.saver.SaveCheckpoint(cp); err != nil {
			o.logger.Warn("checkpoint save failed", "run_id", runID, "error", err)
		}
	}
	return outcomes, nil
}

// processOne takes a formula to its terminal state. The returned error is
// non-nil only for run-fatal conditions.
func (o *Orchestrator) processOne(ctx context.Context, f string, cache map[string]store.Record) (Outcome, error) {
	rec, ok := cache[f]
	if !ok {
		var err error
		rec, err = o.resolve(ctx, f)
		if err != nil {
			var authErr *mp.AuthError
			if errors.As(err, &authErr) {
				return Outcome{}, fmt.Errorf("aborting run: %w", err)
			}
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			o.logger.Warn("formula failed", "formula", f, "error", err)
			return Outcome{Formula: f, Err: err}, nil
		}
		cache[f] = rec
	}

	path, err := o.saver.SaveStructure(rec)
	if err != nil {
		o.logger.Error("saving structure failed", "formula", f, "error", err)
		return Outcome{Formula: f, Source: rec.Source, Err: err}, nil
	}
	return Outcome{Formula: f, Source: rec.Source, Path: path}, nil
}

// resolve obtains a structure for the formula, preferring the database and
// falling back to generation when the database cannot serve it. Fatal
// conditions (auth, context) propagate; everything else either resolves or
// fails this formula alone.
func (o *Orchestrator) resolve(ctx context.Context, f string) (store.Record, error) {
	doc, err := o.fetcher.SummarySearch(ctx, f)
	switch {
	case err == nil:
		if doc.Structure == nil {
			o.logger.Warn("summary record has no structure, generating", "formula", f, "material_id", doc.MaterialID)
			return o.generate(f)
		}
		return store.Record{
			Formula:    f,
			Source:     store.SourceFetched,
			MaterialID: doc.MaterialID,
			Structure:  doc.Structure,
		}, nil

	case errors.Is(err, mp.ErrNotFound):
		o.logger.Info("formula not in database, generating", "formula", f)
		return o.generate(f)

	case ctx.Err() != nil:
		return store.Record{}, ctx.Err()

	default:
		var reqErr *mp.RequestError
		if errors.As(err, &reqErr) {
			o.logger.Warn("database request failed, generating",
				"formula", f,
				"attempts", reqErr.Attempts,
				"error", reqErr.Err)
			return o.generate(f)
		}
		return store.Record{}, err
	}
}

func (o *Orchestrator) generate(f string) (store.Record, error) {
	s, err := o.generator.Generate(f)
	if err != nil {
		return store.Record{}, fmt.Errorf("generating structure: %w", err)
	}
	return store.Record{Formula: f, Source: store.SourceGenerated, Structure: s}, nil
}
