// Package structure models crystal structures as lattice parameters plus
// fractional atomic sites, and encodes them in CIF text format.
package structure

import (
	"fmt"
	"math"
)

// Lattice holds unit cell parameters: lengths in angstroms, angles in degrees.
type Lattice struct {
	A, B, C            float64
	Alpha, Beta, Gamma float64
}

// Cubic returns a cubic lattice with edge length a.
func Cubic(a float64) Lattice {
	return Lattice{A: a, B: a, C: a, Alpha: 90, Beta: 90, Gamma: 90}
}

// Hexagonal returns a hexagonal lattice with basal edge a and height c.
func Hexagonal(a, c float64) Lattice {
	return Lattice{A: a, B: a, C: c, Alpha: 90, Beta: 90, Gamma: 120}
}

// Volume returns the unit cell volume in cubic angstroms, using the general
// triclinic formula.
func (l Lattice) Volume() float64 {
	ca := math.Cos(l.Alpha * math.Pi / 180)
	cb := math.Cos(l.Beta * math.Pi / 180)
	cg := math.Cos(l.Gamma * math.Pi / 180)
	return l.A * l.B * l.C * math.Sqrt(1-ca*ca-cb*cb-cg*cg+2*ca*cb*cg)
}

// Site is one atom in the unit cell, positioned in fractional coordinates.
type Site struct {
	Element string
	X, Y, Z float64
}

// Structure is one crystal structure record: the formula it answers for,
// its lattice, and its atomic sites.
type Structure struct {
	Formula string
	Lattice Lattice
	Sites   []Site
}

// Validate checks internal consistency: positive cell lengths, angles in
// (0, 180), at least one site, and fractional coordinates in [0, 1).
func (s *Structure) Validate() error {
	if s.Lattice.A <= 0 || s.Lattice.B <= 0 || s.Lattice.C <= 0 {
		return fmt.Errorf("structure %s: non-positive cell length", s.Formula)
	}
	for _, angle := range []float64{s.Lattice.Alpha, s.Lattice.Beta, s.Lattice.Gamma} {
		if angle <= 0 || angle >= 180 {
			return fmt.Errorf("structure %s: cell angle %g out of range", s.Formula, angle)
		}
	}
	if len(s.Sites) == 0 {
		return fmt.Errorf("structure %s: no atomic sites", s.Formula)
	}
	for i, site := range s.Sites {
		if site.Element == "" {
			return fmt.Errorf("structure %s: site %d has no element", s.Formula, i)
		}
		for _, coord := range []float64{site.X, site.Y, site.Z} {
			if coord < 0 || coord >= 1 {
				return fmt.Errorf("structure %s: site %d coordinate %g out of [0,1)", s.Formula, i, coord)
			}
		}
	}
	return nil
}
