package structure

import (
	"fmt"
	"io"
	"strings"
)

// Provenance markers recorded in CIF output.
const (
	OriginFetched   = "materials database"
	OriginGenerated = "prototype generator"
)

// Meta annotates a CIF document with where the structure came from.
type Meta struct {
	Origin     string
	MaterialID string
}

// EncodeCIF writes s to w as a CIF document. Output is deterministic: the
// same structure and meta always produce identical bytes.
func EncodeCIF(w io.Writer, s *Structure, meta Meta) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("encoding CIF: %w", err)
	}

	var b strings.Builder
	b.WriteString("# generated by crysfetch\n")
	if meta.Origin != "" {
		fmt.Fprintf(&b, "# origin: %s\n", meta.Origin)
	}
	if meta.MaterialID != "" {
		fmt.Fprintf(&b, "# material id: %s\n", meta.MaterialID)
	}
	fmt.Fprintf(&b, "data_%s\n", s.Formula)
	fmt.Fprintf(&b, "_chemical_formula_sum '%s'\n", s.Formula)
	b.WriteString("_symmetry_space_group_name_H-M 'P 1'\n")
	fmt.Fprintf(&b, "_cell_length_a %.6f\n", s.Lattice.A)
	fmt.Fprintf(&b, "_cell_length_b %.6f\n", s.Lattice.B)
	fmt.Fprintf(&b, "_cell_length_c %.6f\n", s.Lattice.C)
	fmt.Fprintf(&b, "_cell_angle_alpha %.6f\n", s.Lattice.Alpha)
	fmt.Fprintf(&b, "_cell_angle_beta %.6f\n", s.Lattice.Beta)
	fmt.Fprintf(&b, "_cell_angle_gamma %.6f\n", s.Lattice.Gamma)
	fmt.Fprintf(&b, "_cell_volume %.6f\n", s.Lattice.Volume())
	b.WriteString("loop_\n")
	b.WriteString("_atom_site_type_symbol\n")
	b.WriteString("_atom_site_label\n")
	b.WriteString("_atom_site_fract_x\n")
	b.WriteString("_atom_site_fract_y\n")
	b.WriteString("_atom_site_fract_z\n")
	b.WriteString("_atom_site_occupancy\n")

	seq := make(map[string]int, len(s.Sites))
	for _, site := range s.Sites {
		seq[site.Element]++
		label := fmt.Sprintf("%s%d", site.Element, seq[site.Element])
		fmt.Fprintf(&b, "%s %s %.6f %.6f %.6f 1.0\n", site.Element, label, site.X, site.Y, site.Z)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("encoding CIF: %w", err)
	}
	return nil
}
