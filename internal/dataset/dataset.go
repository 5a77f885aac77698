// Package dataset assembles the enhanced property dataset: one CSV row per
// formula combining database measurements with tabulated elemental features
// for the A, B, and X sites.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/kalambet/crysfetch/internal/elements"
	"github.com/kalambet/crysfetch/internal/formula"
	"github.com/kalambet/crysfetch/internal/mp"
)

// UnknownID marks rows whose formula has no database entry.
const UnknownID = "Unknown"

var (
	siteLabels  = []string{"A", "B", "X"}
	propColumns = []string{"atomic_radius", "en_pauling", "ionization_energy", "molar_volume", "valence"}
)

// SiteProps is the elemental feature block for one site role.
type SiteProps struct {
	Label   string
	Element string
	Props   elements.Props
}

// Row is one dataset record. Found reports whether the database served the
// formula; Volume and BandGap are meaningful only when it did.
type Row struct {
	Formula    string
	MaterialID string
	Volume     float64
	BandGap    float64
	Found      bool
	Sites      []SiteProps
}

// Fetcher looks up summary records in the materials database.
type Fetcher interface {
	SummarySearch(ctx context.Context, formula string) (*mp.SummaryDoc, error)
}

// Builder turns formulas into dataset rows.
type Builder struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func New(fetcher Fetcher) *Builder {
	return &Builder{fetcher: fetcher, logger: slog.Default()}
}

// Build produces one row per formula, in input order. Database misses and
// failed lookups still yield a row with MaterialID "Unknown"; only a
// rejected API key or a done context aborts.
func (b *Builder) Build(ctx context.Context, formulas []string) ([]Row, error) {
	rows := make([]Row, 0, len(formulas))
	for _, f := range formulas {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		row, err := b.buildRow(ctx, f)
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *Builder) buildRow(ctx context.Context, f string) (Row, error) {
	row := Row{Formula: f, MaterialID: UnknownID}

	doc, err := b.fetcher.SummarySearch(ctx, f)
	switch {
	case err == nil:
		row.MaterialID = doc.MaterialID
		row.Volume = doc.Volume
		row.BandGap = doc.BandGap
		row.Found = true
	case errors.Is(err, mp.ErrNotFound):
		b.logger.Info("formula not in database", "formula", f)
	case ctx.Err() != nil:
		return Row{}, ctx.Err()
	default:
		var authErr *mp.AuthError
		if errors.As(err, &authErr) {
			return Row{}, err
		}
		b.logger.Warn("database lookup failed", "formula", f, "error", err)
	}

	comp, err := formula.Parse(f)
	if err != nil {
		b.logger.Warn("cannot derive site properties", "formula", f, "error", err)
		return row, nil
	}
	for i, sym := range elements.OrderByElectronegativity(comp.Elements()) {
		if i == len(siteLabels) {
			break
		}
		row.Sites = append(row.Sites, SiteProps{
			Label:   siteLabels[i],
			Element: sym,
			Props:   elements.PropsOrDefault(sym),
		})
	}
	return row, nil
}

// WriteCSV writes rows with a fixed header: formula and database fields
// first, then the five property columns per site label. Cells without a
// value stay empty.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	header := []string{"formula", "mp_id", "volume", "band_gap"}
	for _, label := range siteLabels {
		for _, prop := range propColumns {
			header = append(header, prop+"_"+label)
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing dataset header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Formula, row.MaterialID)
		if row.Found {
			record = append(record, formatFloat(row.Volume), formatFloat(row.BandGap))
		} else {
			record = append(record, "", "")
		}
		for i := range siteLabels {
			if i < len(row.Sites) {
				p := row.Sites[i].Props
				record = append(record,
					formatFloat(p.Radius),
					formatFloat(p.Electronegativity),
					formatFloat(p.IonizationEnergy),
					formatFloat(p.MolarVolume),
					strconv.Itoa(p.Valence))
			} else {
				record = append(record, "", "", "", "", "")
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing dataset row %s: %w", row.Formula, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
