// Package report summarizes a fetch run.
package report

import (
	"fmt"
	"io"

	"github.com/kalambet/crysfetch/internal/fetch"
)

// Run aggregates the outcomes of one fetch run.
type Run struct {
	Total        int
	Succeeded    int
	SuccessRate  float64
	StructureDir string
}

func (r Run) Failed() int {
	return r.Total - r.Succeeded
}

// Build counts outcomes into a Run. The rate is succeeded over total, and 0
// for an empty run.
func Build(outcomes []fetch.Outcome, structureDir string) Run {
	r := Run{Total: len(outcomes), StructureDir: structureDir}
	for _, o := range outcomes {
		if o.Succeeded() {
			r.Succeeded++
		}
	}
	if r.Total > 0 {
		r.SuccessRate = float64(r.Succeeded) / float64(r.Total)
	}
	return r
}

// Write prints the two-line run summary.
func Write(w io.Writer, r Run) error {
	if _, err := fmt.Fprintf(w, "Success rate: %.1f%%\n", r.SuccessRate*100); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Structures saved to: %s\n", r.StructureDir)
	return err
}
