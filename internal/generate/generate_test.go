package generate

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/kalambet/crysfetch/internal/formula"
	"github.com/kalambet/crysfetch/internal/structure"
)

func TestGenerate_ABX2(t *testing.T) {
	s, err := New().Generate("BeAlN2")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	scale := scaleFor([]string{"Be", "Al", "N"})
	if got, want := s.Lattice.A, abx2A*scale; math.Abs(got-want) > 1e-9 {
		t.Errorf("Lattice.A = %g, want %g", got, want)
	}
	if got, want := s.Lattice.C, abx2C*scale; math.Abs(got-want) > 1e-9 {
		t.Errorf("Lattice.C = %g, want %g", got, want)
	}
	if s.Lattice.Gamma != 120 {
		t.Errorf("Lattice.Gamma = %g, want 120", s.Lattice.Gamma)
	}

	wantSites := []structure.Site{
		{Element: "Be"},
		{Element: "Al", X: 1.0 / 3, Y: 2.0 / 3, Z: 0.5},
		{Element: "N", X: 2.0 / 3, Y: 1.0 / 3, Z: 0.25},
		{Element: "N", X: 2.0 / 3, Y: 1.0 / 3, Z: 0.75},
	}
	if len(s.Sites) != len(wantSites) {
		t.Fatalf("len(Sites) = %d, want %d", len(s.Sites), len(wantSites))
	}
	for i, want := range wantSites {
		if s.Sites[i] != want {
			t.Errorf("Sites[%d] = %+v, want %+v", i, s.Sites[i], want)
		}
	}
}

func TestGenerate_ABX2_ElectronegativityOrder(t *testing.T) {
	// In has lower electronegativity than Cu, so it takes the A site even
	// though Cu comes first in the formula.
	s, err := New().Generate("CuInSe2")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got := []string{s.Sites[0].Element, s.Sites[1].Element, s.Sites[2].Element, s.Sites[3].Element}
	want := []string{"In", "Cu", "Se", "Se"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("site %d element = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerate_AB3ForCommonBinaryRatio(t *testing.T) {
	s, err := New().Generate("TiB2")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if s.Lattice.A != s.Lattice.C || s.Lattice.Gamma != 90 {
		t.Errorf("lattice = %+v, want cubic", s.Lattice)
	}
	if got, want := s.Lattice.A, ab3A*scaleFor([]string{"Ti", "B"}); math.Abs(got-want) > 1e-9 {
		t.Errorf("Lattice.A = %g, want %g", got, want)
	}
	got := []string{s.Sites[0].Element, s.Sites[1].Element, s.Sites[2].Element, s.Sites[3].Element}
	want := []string{"Ti", "B", "B", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("site %d element = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerate_FallbackForUncommonRatio(t *testing.T) {
	// 2:3 is not a common binary ratio, so Fe2O3 gets the two-site fallback.
	s, err := New().Generate("Fe2O3")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got, want := s.Lattice.A, fallbackA*scaleFor([]string{"Fe", "O"}); math.Abs(got-want) > 1e-9 {
		t.Errorf("Lattice.A = %g, want %g", got, want)
	}
	if len(s.Sites) != 2 {
		t.Fatalf("len(Sites) = %d, want 2", len(s.Sites))
	}
	if s.Sites[0].Element != "Fe" || s.Sites[1].Element != "O" {
		t.Errorf("site elements = %q, %q, want Fe, O", s.Sites[0].Element, s.Sites[1].Element)
	}
}

func TestGenerate_FallbackForUnknownElements(t *testing.T) {
	// Unknown symbols parse fine and carry default properties; 1:1:9 misses
	// the ABX2 gate, so a ternary of them lands in the fallback cell with the
	// default scale of exactly 1.
	s, err := New().Generate("XxYyZz9")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if s.Lattice.A != fallbackA {
		t.Errorf("Lattice.A = %g, want %g", s.Lattice.A, fallbackA)
	}
	if len(s.Sites) != 2 {
		t.Fatalf("len(Sites) = %d, want 2", len(s.Sites))
	}
	if s.Sites[0].Element != "Xx" || s.Sites[1].Element != "Yy" {
		t.Errorf("site elements = %q, %q, want Xx, Yy", s.Sites[0].Element, s.Sites[1].Element)
	}
}

func TestGenerate_EmergencySingleElement(t *testing.T) {
	s, err := New().Generate("Si")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got, want := s.Lattice.A, emergencyA*scaleFor([]string{"Si"}); math.Abs(got-want) > 1e-9 {
		t.Errorf("Lattice.A = %g, want %g", got, want)
	}
	if len(s.Sites) != 1 || s.Sites[0].Element != "Si" {
		t.Errorf("Sites = %+v, want single Si site", s.Sites)
	}
}

func TestGenerate_EmergencyQuaternary(t *testing.T) {
	s, err := New().Generate("Cu2ZnSnS4")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(s.Sites) != 1 {
		t.Fatalf("len(Sites) = %d, want 1", len(s.Sites))
	}
	if s.Sites[0].Element != "Zn" {
		t.Errorf("site element = %q, want Zn (lowest electronegativity)", s.Sites[0].Element)
	}
}

func TestGenerate_StoichiometryGatesABX2(t *testing.T) {
	// Counts must be 1:1:2 in site order: Be2AlN reduces to 2:1:1, so it
	// must not be forced into the ABX2 prototype.
	s, err := New().Generate("Be2AlN")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(s.Sites) != 2 {
		t.Errorf("len(Sites) = %d, want 2 (fallback cell)", len(s.Sites))
	}
}

func TestGenerate_ParseError(t *testing.T) {
	_, err := New().Generate("2N")
	var perr *formula.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Generate() error = %v, want *formula.ParseError", err)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := New()
	var first, second bytes.Buffer
	for _, buf := range []*bytes.Buffer{&first, &second} {
		s, err := g.Generate("MgSiN2")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if err := structure.EncodeCIF(buf, s, structure.Meta{Origin: structure.OriginGenerated}); err != nil {
			t.Fatalf("EncodeCIF() error = %v", err)
		}
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("generated CIF differs between runs")
	}
}

func TestGenerate_AllCellsValidate(t *testing.T) {
	for _, f := range []string{"BeAlN2", "TiB2", "Fe2O3", "Si", "Cu2ZnSnS4", "XxYyZz9", "H2O"} {
		s, err := New().Generate(f)
		if err != nil {
			t.Fatalf("Generate(%q) error = %v", f, err)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("Generate(%q).Validate() = %v", f, err)
		}
	}
}

func TestScaleClamped(t *testing.T) {
	// N alone has a tiny radius; the scale must not drop below the floor.
	if got := scaleFor([]string{"N"}); got != minScale {
		t.Errorf("scaleFor(N) = %g, want %g", got, minScale)
	}
	// Unknown symbols carry the reference radius, so the scale is exactly 1.
	if got := scaleFor([]string{"Xx", "Yy"}); got != 1.0 {
		t.Errorf("scaleFor(Xx, Yy) = %g, want 1", got)
	}
}
