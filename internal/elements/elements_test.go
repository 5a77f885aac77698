package elements

import (
	"math"
	"reflect"
	"testing"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup("Be")
	if !ok {
		t.Fatal("Lookup(Be) not found")
	}
	if p.AtomicNumber != 4 {
		t.Errorf("Be atomic number = %d, want 4", p.AtomicNumber)
	}
	if p.Electronegativity != 1.57 {
		t.Errorf("Be electronegativity = %v, want 1.57", p.Electronegativity)
	}

	if _, ok := Lookup("Xx"); ok {
		t.Error("Lookup(Xx) found, want miss")
	}
}

func TestPropsOrDefault_Unknown(t *testing.T) {
	p := PropsOrDefault("Zz")
	if p.Symbol != "Zz" {
		t.Errorf("Symbol = %q, want %q", p.Symbol, "Zz")
	}
	if p.Radius != DefaultRadius {
		t.Errorf("Radius = %v, want %v", p.Radius, DefaultRadius)
	}
	if p.Electronegativity != DefaultElectronegativity {
		t.Errorf("Electronegativity = %v, want %v", p.Electronegativity, DefaultElectronegativity)
	}

	want := EstimateMolarVolume(DefaultRadius)
	if p.MolarVolume != want {
		t.Errorf("MolarVolume = %v, want %v", p.MolarVolume, want)
	}
}

func TestEstimateMolarVolume(t *testing.T) {
	got := EstimateMolarVolume(1.0)
	want := 4.0 / 3.0 * math.Pi
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("EstimateMolarVolume(1.0) = %v, want %v", got, want)
	}
}

func TestOrderByElectronegativity(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		// Be 1.57 < Al 1.61 < N 3.04
		{[]string{"N", "Be", "Al"}, []string{"Be", "Al", "N"}},
		// In 1.78 < Cu 1.90 < Se 2.55
		{[]string{"Cu", "In", "Se"}, []string{"In", "Cu", "Se"}},
		// unknown symbols take the default 1.50 and sort ahead of Be
		{[]string{"Be", "Xx"}, []string{"Xx", "Be"}},
		// equal electronegativity falls back to symbol order
		{[]string{"Yy", "Xx"}, []string{"Xx", "Yy"}},
	}
	for _, tt := range tests {
		got := OrderByElectronegativity(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("OrderByElectronegativity(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOrderByElectronegativity_DoesNotMutateInput(t *testing.T) {
	in := []string{"N", "Be"}
	OrderByElectronegativity(in)
	if !reflect.DeepEqual(in, []string{"N", "Be"}) {
		t.Errorf("input mutated: %v", in)
	}
}
