// Package plot draws the posterior rank violin figure for one fit.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/okian/pairwise/internal/domain/model"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	halfWidth  = 0.4
	fillAlpha  = 0x99
	minWidthIn = 8
	inPerTeam  = 0.35
	heightIn   = 6
)

// Figure is everything needed to draw one violin plot. Slices are indexed
// by dense team id minus one.
type Figure struct {
	Title       string
	Teams       []string
	Frequencies [][]int
	Medians     []float64
}

// NewFigure builds a figure from summaries ordered by team id and the
// rank frequency table from ranking.Frequencies.
func NewFigure(title string, summaries []model.TeamSummary, freq [][]int) Figure {
	f := Figure{
		Title:       title,
		Teams:       make([]string, len(summaries)),
		Frequencies: freq,
		Medians:     make([]float64, len(summaries)),
	}
	for i, s := range summaries {
		f.Teams[i] = s.Abbr
		if f.Teams[i] == "" {
			f.Teams[i] = fmt.Sprintf("#%d", s.TeamID)
		}
		f.Medians[i] = s.Median
	}
	return f
}

func (f Figure) validate() error {
	n := len(f.Teams)
	if n == 0 {
		return ErrEmptyFigure
	}
	if len(f.Frequencies) != n || len(f.Medians) != n {
		return fmt.Errorf("%w: teams=%d frequencies=%d medians=%d", ErrShape, n, len(f.Frequencies), len(f.Medians))
	}
	return nil
}

// FileName returns {season}_{variant}.svg.
func FileName(season int, variant string) string {
	return fmt.Sprintf("%d_%s.svg", season, variant)
}

// Render lays out the figure: teams on x, posterior rank on y, one violin
// per team scaled to its own widest rank, and the median rank as a point.
func Render(f Figure) (*gplot.Plot, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	p := gplot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = "Team"
	p.Y.Label.Text = "Posterior rank"
	p.Y.Min = 0.5
	p.Y.Max = float64(len(f.Teams)) + 0.5
	p.NominalX(f.Teams...)
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	for i, counts := range f.Frequencies {
		pts := violin(float64(i), counts)
		if pts == nil {
			continue
		}
		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRender, err)
		}
		c := color.RGBAModel.Convert(plotutil.Color(i)).(color.RGBA)
		c.A = fillAlpha
		poly.Color = c
		poly.LineStyle.Width = vg.Points(0.5)
		p.Add(poly)
	}

	med := make(plotter.XYs, len(f.Medians))
	for i, m := range f.Medians {
		med[i].X = float64(i)
		med[i].Y = m
	}
	sc, err := plotter.NewScatter(med)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(2.5)
	sc.GlyphStyle.Color = color.Black
	p.Add(sc)
	p.Legend.Add("median rank", sc)
	p.Legend.Top = true

	return p, nil
}

// violin outlines one team's rank distribution around x. It returns nil
// when the team has no draws.
func violin(x float64, counts []int) plotter.XYs {
	lo, hi, peak := -1, -1, 0
	for r, n := range counts {
		if n == 0 {
			continue
		}
		if lo < 0 {
			lo = r
		}
		hi = r
		peak = max(peak, n)
	}
	if peak == 0 {
		return nil
	}

	width := func(r int) float64 { return halfWidth * float64(counts[r]) / float64(peak) }

	pts := make(plotter.XYs, 0, 2*(hi-lo+1)+2)
	pts = append(pts, plotter.XY{X: x, Y: float64(lo+1) - 0.5})
	for r := lo; r <= hi; r++ {
		pts = append(pts, plotter.XY{X: x + width(r), Y: float64(r + 1)})
	}
	pts = append(pts, plotter.XY{X: x, Y: float64(hi+1) + 0.5})
	for r := hi; r >= lo; r-- {
		pts = append(pts, plotter.XY{X: x - width(r), Y: float64(r + 1)})
	}
	return pts
}

// Save renders the figure as SVG under dir and returns the path.
func Save(dir string, season int, variant string, f Figure) (string, error) {
	p, err := Render(f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}

	w := max(minWidthIn, inPerTeam*float64(len(f.Teams)))
	path := filepath.Join(dir, FileName(season, variant))
	if err := p.Save(vg.Length(w)*vg.Inch, heightIn*vg.Inch, path); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	return path, nil
}
