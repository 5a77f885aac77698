// Package elements embeds the elemental property data the pipeline needs:
// atomic radii, Pauling electronegativities, ionization energies, molar
// volumes, and valence electron counts for the elements that show up in
// nitride and chalcogenide target sets.
package elements

import (
	"math"
	"sort"
)

// Props holds the per-element values used for structure generation and
// feature extraction.
type Props struct {
	Symbol            string
	AtomicNumber      int
	Radius            float64 // calculated atomic radius, angstroms
	Electronegativity float64 // Pauling scale
	IonizationEnergy  float64 // first ionization energy, eV
	MolarVolume       float64 // cm3/mol
	Valence           int     // valence electrons
}

// Default values stand in for element symbols missing from the table so
// generation keeps working on exotic or placeholder formulas.
const (
	DefaultRadius            = 1.25
	DefaultElectronegativity = 1.50
	DefaultIonizationEnergy  = 7.0
	DefaultValence           = 4
)

// Lookup returns the properties for the given element symbol.
func Lookup(symbol string) (Props, bool) {
	p, ok := table[symbol]
	return p, ok
}

// PropsOrDefault returns the tabulated properties for symbol, or neutral
// defaults when the symbol is unknown. The molar volume of an unknown
// element is estimated from the default radius.
func PropsOrDefault(symbol string) Props {
	if p, ok := table[symbol]; ok {
		return p
	}
	return Props{
		Symbol:            symbol,
		Radius:            DefaultRadius,
		Electronegativity: DefaultElectronegativity,
		IonizationEnergy:  DefaultIonizationEnergy,
		MolarVolume:       EstimateMolarVolume(DefaultRadius),
		Valence:           DefaultValence,
	}
}

// EstimateMolarVolume approximates a molar volume as the volume of a sphere
// with the given atomic radius.
func EstimateMolarVolume(radius float64) float64 {
	return 4.0 / 3.0 * math.Pi * math.Pow(radius, 3)
}

// OrderByElectronegativity returns the symbols sorted by ascending Pauling
// electronegativity, ties broken by valence and then symbol. This is the
// cation-first ordering used for lattice site assignment.
func OrderByElectronegativity(symbols []string) []string {
	out := make([]string, len(symbols))
	copy(out, symbols)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := PropsOrDefault(out[i]), PropsOrDefault(out[j])
		if a.Electronegativity != b.Electronegativity {
			return a.Electronegativity < b.Electronegativity
		}
		if a.Valence != b.Valence {
			return a.Valence < b.Valence
		}
		return out[i] < out[j]
	})
	return out
}

var table = map[string]Props{
	"H":  {"H", 1, 0.53, 2.20, 13.598, 11.42, 1},
	"Li": {"Li", 3, 1.67, 0.98, 5.392, 13.02, 1},
	"Be": {"Be", 4, 1.12, 1.57, 9.323, 4.85, 2},
	"B":  {"B", 5, 0.87, 2.04, 8.298, 4.39, 3},
	"C":  {"C", 6, 0.67, 2.55, 11.260, 5.29, 4},
	"N":  {"N", 7, 0.56, 3.04, 14.534, 13.54, 5},
	"O":  {"O", 8, 0.48, 3.44, 13.618, 17.36, 6},
	"F":  {"F", 9, 0.42, 3.98, 17.423, 11.20, 7},
	"Na": {"Na", 11, 1.90, 0.93, 5.139, 23.78, 1},
	"Mg": {"Mg", 12, 1.45, 1.31, 7.646, 14.00, 2},
	"Al": {"Al", 13, 1.18, 1.61, 5.986, 10.00, 3},
	"Si": {"Si", 14, 1.11, 1.90, 8.152, 12.06, 4},
	"P":  {"P", 15, 0.98, 2.19, 10.487, 17.02, 5},
	"S":  {"S", 16, 0.88, 2.58, 10.360, 15.53, 6},
	"Cl": {"Cl", 17, 0.79, 3.16, 12.968, 17.39, 7},
	"K":  {"K", 19, 2.43, 0.82, 4.341, 45.94, 1},
	"Ca": {"Ca", 20, 1.94, 1.00, 6.113, 26.20, 2},
	"Sc": {"Sc", 21, 1.84, 1.36, 6.561, 15.00, 3},
	"Ti": {"Ti", 22, 1.76, 1.54, 6.828, 10.64, 4},
	"V":  {"V", 23, 1.71, 1.63, 6.746, 8.32, 5},
	"Cr": {"Cr", 24, 1.66, 1.66, 6.767, 7.23, 6},
	"Mn": {"Mn", 25, 1.61, 1.55, 7.434, 7.35, 7},
	"Fe": {"Fe", 26, 1.56, 1.83, 7.902, 7.09, 8},
	"Co": {"Co", 27, 1.52, 1.88, 7.881, 6.67, 9},
	"Ni": {"Ni", 28, 1.49, 1.91, 7.640, 6.59, 10},
	"Cu": {"Cu", 29, 1.45, 1.90, 7.726, 7.11, 11},
	"Zn": {"Zn", 30, 1.42, 1.65, 9.394, 9.16, 12},
	"Ga": {"Ga", 31, 1.36, 1.81, 5.999, 11.80, 3},
	"Ge": {"Ge", 32, 1.25, 2.01, 7.899, 13.63, 4},
	"As": {"As", 33, 1.14, 2.18, 9.789, 12.95, 5},
	"Se": {"Se", 34, 1.03, 2.55, 9.752, 16.42, 6},
	"Br": {"Br", 35, 0.94, 2.96, 11.814, 19.78, 7},
	"Rb": {"Rb", 37, 2.65, 0.82, 4.177, 55.76, 1},
	"Sr": {"Sr", 38, 2.19, 0.95, 5.695, 33.94, 2},
	"Y":  {"Y", 39, 2.12, 1.22, 6.217, 19.88, 3},
	"Zr": {"Zr", 40, 2.06, 1.33, 6.634, 14.02, 4},
	"Nb": {"Nb", 41, 1.98, 1.60, 6.759, 10.83, 5},
	"Mo": {"Mo", 42, 1.90, 2.16, 7.092, 9.38, 6},
	"Ag": {"Ag", 47, 1.65, 1.93, 7.576, 10.27, 11},
	"Cd": {"Cd", 48, 1.61, 1.69, 8.994, 13.00, 12},
	"In": {"In", 49, 1.56, 1.78, 5.786, 15.76, 3},
	"Sn": {"Sn", 50, 1.45, 1.96, 7.344, 16.29, 4},
	"Sb": {"Sb", 51, 1.33, 2.05, 8.608, 18.19, 5},
	"Te": {"Te", 52, 1.23, 2.10, 9.010, 20.46, 6},
	"I":  {"I", 53, 1.15, 2.66, 10.451, 25.72, 7},
	"Cs": {"Cs", 55, 2.98, 0.79, 3.894, 70.94, 1},
	"Ba": {"Ba", 56, 2.53, 0.89, 5.212, 38.16, 2},
	"Ta": {"Ta", 73, 2.00, 1.50, 7.550, 10.85, 5},
	"W":  {"W", 74, 1.93, 2.36, 7.864, 9.47, 6},
	"Pt": {"Pt", 78, 1.77, 2.28, 8.959, 9.09, 10},
	"Au": {"Au", 79, 1.74, 2.54, 9.226, 10.21, 11},
	"Hg": {"Hg", 80, 1.71, 2.00, 10.438, 14.09, 12},
	"Tl": {"Tl", 81, 1.56, 1.62, 6.108, 17.22, 3},
	"Pb": {"Pb", 82, 1.54, 2.33, 7.417, 18.26, 4},
	"Bi": {"Bi", 83, 1.43, 2.02, 7.289, 21.31, 5},
}
