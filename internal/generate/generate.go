// Package generate derives prototype crystal structures from chemical
// composition alone, for formulas the materials database does not cover.
//
// Generation is deterministic: no randomness, no external state. The same
// formula always produces the same cell, so re-runs write identical CIFs.
package generate

import (
	"math"

	"github.com/kalambet/crysfetch/internal/elements"
	"github.com/kalambet/crysfetch/internal/formula"
	"github.com/kalambet/crysfetch/internal/structure"
)

// Base cell edges in angstroms, before elemental scaling.
const (
	abx2A      = 3.0
	abx2C      = 5.0
	ab3A       = 4.0
	fallbackA  = 4.2
	emergencyA = 4.0
)

// Cell edges scale with the mean atomic radius of the composition, clamped
// so exotic inputs still produce a physically plausible cell.
const (
	referenceRadius = 1.25
	minScale        = 0.80
	maxScale        = 1.60
)

// ratioTolerance bounds how far a binary count ratio may sit from a common
// stoichiometry before the AB3 prototype is rejected.
const ratioTolerance = 0.01

var commonRatios = []float64{1, 0.5, 2, 0.33, 3}

// Generator builds prototype structures for arbitrary formulas.
type Generator struct{}

func New() *Generator {
	return &Generator{}
}

// Generate parses f and returns a prototype cell for its composition. The
// only error condition is a malformed formula (*formula.ParseError); unknown
// element symbols fall back to default properties and still generate.
//
// Sites are assigned by ascending electronegativity: the least
// electronegative element takes the A site, then B, then X. The prototype is
// chosen by composition, first match wins:
//
//  1. three elements with counts 1:1:2 in site order → hexagonal ABX2 cell
//  2. two elements in a common ratio (1:1, 1:2, 2:1, 1:3, 3:1) → cubic AB3 cell
//  3. two or three elements otherwise → cubic two-site fallback cell
//  4. anything else → cubic single-site emergency cell
func (g *Generator) Generate(f string) (*structure.Structure, error) {
	comp, err := formula.Parse(f)
	if err != nil {
		return nil, err
	}

	ordered := elements.OrderByElectronegativity(comp.Elements())
	scale := scaleFor(ordered)

	counts := make(map[string]int, len(comp.Terms))
	for i, n := range comp.ReducedCounts() {
		counts[comp.Terms[i].Element] = n
	}

	switch {
	case len(ordered) == 3 && counts[ordered[0]] == 1 && counts[ordered[1]] == 1 && counts[ordered[2]] == 2:
		return abx2Cell(comp.Formula, ordered, scale), nil
	case len(ordered) == 2 && commonRatio(counts[ordered[0]], counts[ordered[1]]):
		return ab3Cell(comp.Formula, ordered, scale), nil
	case len(ordered) == 2 || len(ordered) == 3:
		return fallbackCell(comp.Formula, ordered, scale), nil
	default:
		return emergencyCell(comp.Formula, ordered[0], scale), nil
	}
}

// scaleFor returns the cell scaling factor for a set of distinct elements:
// their mean atomic radius relative to the reference, clamped to
// [minScale, maxScale].
func scaleFor(distinct []string) float64 {
	var sum float64
	for _, sym := range distinct {
		sum += elements.PropsOrDefault(sym).Radius
	}
	scale := sum / float64(len(distinct)) / referenceRadius
	return math.Min(math.Max(scale, minScale), maxScale)
}

func commonRatio(a, b int) bool {
	ratio := float64(a) / float64(b)
	for _, want := range commonRatios {
		if math.Abs(ratio-want) <= ratioTolerance {
			return true
		}
	}
	return false
}

func abx2Cell(f string, ordered []string, scale float64) *structure.Structure {
	return &structure.Structure{
		Formula: f,
		Lattice: structure.Hexagonal(abx2A*scale, abx2C*scale),
		Sites: []structure.Site{
			{Element: ordered[0]},
			{Element: ordered[1], X: 1.0 / 3, Y: 2.0 / 3, Z: 0.5},
			{Element: ordered[2], X: 2.0 / 3, Y: 1.0 / 3, Z: 0.25},
			{Element: ordered[2], X: 2.0 / 3, Y: 1.0 / 3, Z: 0.75},
		},
	}
}

func ab3Cell(f string, ordered []string, scale float64) *structure.Structure {
	return &structure.Structure{
		Formula: f,
		Lattice: structure.Cubic(ab3A * scale),
		Sites: []structure.Site{
			{Element: ordered[0]},
			{Element: ordered[1], X: 0.5, Y: 0.5},
			{Element: ordered[1], X: 0.5, Z: 0.5},
			{Element: ordered[1], Y: 0.5, Z: 0.5},
		},
	}
}

func fallbackCell(f string, ordered []string, scale float64) *structure.Structure {
	return &structure.Structure{
		Formula: f,
		Lattice: structure.Cubic(fallbackA * scale),
		Sites: []structure.Site{
			{Element: ordered[0]},
			{Element: ordered[1], X: 0.5, Y: 0.5, Z: 0.5},
		},
	}
}

func emergencyCell(f, element string, scale float64) *structure.Structure {
	return &structure.Structure{
		Formula: f,
		Lattice: structure.Cubic(emergencyA * scale),
		Sites:   []structure.Site{{Element: element}},
	}
}
