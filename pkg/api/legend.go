package api

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/mapprint/mapprint/internal/legend"
	"github.com/mapprint/mapprint/internal/pagination"
	"github.com/mapprint/mapprint/internal/text"
	"github.com/mapprint/mapprint/internal/units"
	"github.com/mapprint/mapprint/pkg/carto"
)

const (
	legendFontSize      = 6.0
	legendSpacing       = 5.0
	legendHeaderSize    = 8.0
	legendTextGap       = 2.0
	legendItemPadding   = 0.005
	legendFrameWidth    = 1.0
	defaultLegendColumn = 2
)

// LegendOptions control RenderLegend. Lengths are in meters.
type LegendOptions struct {
	// At is the top left corner of the legend. Nil puts it next to the
	// map and sizes it to the rest of the page.
	At *[2]float64
	// Columns is the number of columns Width is split into.
	Columns int
	// Width and Height bound the legend. A zero Height does not limit
	// the columns.
	Width, Height float64
	// Attribution holds extra text drawn in gray under the entries of
	// the layer it is keyed by.
	Attribution map[string]string
	// ItemBoxSize is the width and height of the item maps.
	ItemBoxSize [2]float64
	// OneItemPerRule gives every active rule its own entry.
	OneItemPerRule bool
	// Paging starts a new page when all columns are full. Without it
	// the remaining entries are dropped.
	Paging bool
	// MaxSamples bounds the features inspected per layer; zero inspects
	// all.
	MaxSamples int
}

// DefaultLegendOptions returns a two column, paging legend with 15x7.5 mm
// item maps.
func DefaultLegendOptions() LegendOptions {
	return LegendOptions{
		Columns:     defaultLegendColumn,
		ItemBoxSize: [2]float64{0.015, 0.0075},
		Paging:      true,
	}
}

// RenderLegend draws an entry for every distinct combination of rules
// showing in each layer, topmost layer first: a small map of a sample
// feature in a gray frame and, right of it, the layer name, the rules and
// the attribution. It returns the size of the block in points.
func (p *Printer) RenderLegend(m *carto.Map, o LegendOptions) (w, h float64, err error) {
	if p.surface == nil || !p.hasMap {
		return 0, 0, ErrNoSurface
	}
	if o.Columns <= 0 {
		o.Columns = defaultLegendColumn
	}
	if o.ItemBoxSize[0] <= 0 || o.ItemBoxSize[1] <= 0 {
		o.ItemBoxSize = DefaultLegendOptions().ItemBoxSize
	}

	s := p.surface
	s.Save()
	defer s.Restore()

	var x, y float64
	if o.At != nil {
		x, y = o.At[0], o.At[1]
	} else {
		x, y = p.MetaInfoCorner(m)
		if o.Width <= 0 {
			o.Width = p.options.PageSize.Width - 2*x
		}
		if o.Height <= 0 {
			o.Height = p.options.PageSize.Height - p.options.Margin - y
		}
	}
	s.Translate(units.M2Pt(x), units.M2Pt(y))

	columnWidth := o.Width / float64(o.Columns)
	itemW := int(units.M2Pt(o.ItemBoxSize[0]))
	itemH := int(units.M2Pt(o.ItemBoxSize[1]))
	textWidth := max(units.M2Pt(columnWidth-o.ItemBoxSize[0]-legendItemPadding), 0)

	cur := pagination.NewCursor(o.Columns, units.M2Pt(columnWidth), units.M2Pt(o.Height), o.Paging)
	cur.Spacing = legendSpacing

	seen := map[string]bool{}
	for i := len(m.Layers) - 1; i >= 0; i-- {
		l := m.Layers[i]
		if seen[l.Name] {
			continue
		}
		seen[l.Name] = true

		entries := legend.Collect(m, l, legend.Options{OneItemPerRule: o.OneItemPerRule, MaxSamples: o.MaxSamples})
		for j, e := range entries {
			size := float64(itemH)
			if j == 0 {
				size += legendHeaderSize
			}
			slot, ok := cur.Place(size)
			if !ok {
				p.logger.Warn("legend does not fit, dropping entries", "layer", l.Name, "dropped", len(entries)-j)
				return units.M2Pt(o.Width), cur.Extent(), nil
			}
			if slot.NewPage {
				if p.options.UseOCGLayers {
					p.showPage(InfoLayerName)
				} else {
					s.ShowPage()
				}
			}

			im := legend.ItemMap(m, l, e, itemW, itemH, p.logger)
			if err := p.renderLegendItemMap(im, slot.X, slot.Y, itemW, itemH); err != nil {
				return 0, 0, fmt.Errorf("legend item of layer %q: %w", l.Name, err)
			}

			textH := p.renderLegendItemText(slot.X+float64(itemW)+legendTextGap, slot.Y, textWidth, l.Name, e.RuleText, o.Attribution[l.Name])
			cur.Advance(max(float64(itemH), textH))
		}
	}
	return units.M2Pt(o.Width), cur.Extent(), nil
}

func (p *Printer) renderLegendItemMap(im *carto.Map, x, y float64, w, h int) error {
	s := p.surface
	s.Save()
	defer s.Restore()
	s.Translate(x, y)

	s.Save()
	err := carto.Render(im, s)
	s.Restore()
	if err != nil {
		return err
	}

	s.Rectangle(0, 0, float64(w), float64(h))
	s.SetSourceRGBA(lineGray.Floats())
	s.SetLineWidth(legendFrameWidth)
	s.Stroke()
	return nil
}

// renderLegendItemText draws the entry's lines from (x, y) down and
// returns their total height.
func (p *Printer) renderLegendItemText(x, y, boxWidth float64, title, rules, attribution string) float64 {
	s := p.surface
	lines := []struct {
		markup string
		color  carto.Color
	}{
		{html.EscapeString(title), carto.Black},
		{html.EscapeString(rules), carto.Black},
		{attribution, lineGray},
	}

	height := 0.0
	for _, ln := range lines {
		if ln.markup == "" {
			continue
		}
		s.MoveTo(x, y+height)
		ext := p.text.Draw(s, ln.markup, text.Options{Size: legendFontSize, BoxWidth: boxWidth, Color: ln.color})
		height += ext.Height
	}
	return height
}
