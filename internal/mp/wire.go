package mp

import (
	"fmt"

	"github.com/kalambet/crysfetch/internal/structure"
)

type summaryResponse struct {
	Data []summaryDoc `json:"data"`
}

type summaryDoc struct {
	MaterialID    string         `json:"material_id"`
	FormulaPretty string         `json:"formula_pretty"`
	Volume        float64        `json:"volume"`
	BandGap       float64        `json:"band_gap"`
	Structure     *wireStructure `json:"structure"`
}

type wireStructure struct {
	Lattice wireLattice `json:"lattice"`
	Sites   []wireSite  `json:"sites"`
}

type wireLattice struct {
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	C     float64 `json:"c"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

type wireSite struct {
	Element string    `json:"element"`
	ABC     []float64 `json:"abc"`
}

func (d summaryDoc) toDoc() (*SummaryDoc, error) {
	doc := &SummaryDoc{
		MaterialID: d.MaterialID,
		Formula:    d.FormulaPretty,
		Volume:     d.Volume,
		BandGap:    d.BandGap,
	}
	if d.Structure != nil {
		s, err := d.Structure.toStructure(d.FormulaPretty)
		if err != nil {
			return nil, fmt.Errorf("summary record %s: %w", d.MaterialID, err)
		}
		doc.Structure = s
	}
	return doc, nil
}

func (ws *wireStructure) toStructure(formula string) (*structure.Structure, error) {
	s := &structure.Structure{
		Formula: formula,
		Lattice: structure.Lattice{
			A:     ws.Lattice.A,
			B:     ws.Lattice.B,
			C:     ws.Lattice.C,
			Alpha: ws.Lattice.Alpha,
			Beta:  ws.Lattice.Beta,
			Gamma: ws.Lattice.Gamma,
		},
	}
	for i, site := range ws.Sites {
		if len(site.ABC) != 3 {
			return nil, fmt.Errorf("site %d: want 3 fractional coordinates, got %d", i, len(site.ABC))
		}
		s.Sites = append(s.Sites, structure.Site{
			Element: site.Element,
			X:       site.ABC[0],
			Y:       site.ABC[1],
			Z:       site.ABC[2],
		})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
