package carto

import "math"

// Symbolizer draws one aspect of a feature: its fill, outline, marker or
// label.
type Symbolizer interface {
	// Clone returns an independent copy.
	Clone() Symbolizer
}

// EdgeAvoider is implemented by symbolizers that can refuse to place a
// label or marker crossing the map edge.
type EdgeAvoider interface {
	SetAvoidEdges(avoid bool)
}

// PolygonSymbolizer fills polygons.
type PolygonSymbolizer struct {
	Fill Color
}

func (s *PolygonSymbolizer) Clone() Symbolizer { c := *s; return &c }

// LineSymbolizer strokes lines and polygon outlines.
type LineSymbolizer struct {
	Stroke Color
	Width  float64
	Dash   []float64
}

func (s *LineSymbolizer) Clone() Symbolizer {
	c := *s
	c.Dash = append([]float64(nil), s.Dash...)
	return &c
}

// PointSymbolizer draws a marker at point geometries, or at the center
// of other geometries. Without Marker data a filled circle is drawn.
type PointSymbolizer struct {
	Fill   Color
	Stroke Color
	Size   float64
	// Marker holds encoded SVG, PNG, JPEG, GIF, BMP, TIFF or WebP data.
	Marker       []byte
	AvoidEdges   bool
	AllowOverlap bool
}

func (s *PointSymbolizer) Clone() Symbolizer { c := *s; return &c }

func (s *PointSymbolizer) SetAvoidEdges(avoid bool) { s.AvoidEdges = avoid }

// TextSymbolizer labels features with an attribute value.
type TextSymbolizer struct {
	Field        string
	Size         float64
	Fill         Color
	Halo         Color
	HaloRadius   float64
	DX, DY       float64
	AvoidEdges   bool
	AllowOverlap bool
}

func (s *TextSymbolizer) Clone() Symbolizer { c := *s; return &c }

func (s *TextSymbolizer) SetAvoidEdges(avoid bool) { s.AvoidEdges = avoid }

// Rule applies its symbolizers to the features matching Filter while the
// map's scale denominator lies in [MinScale, MaxScale).
type Rule struct {
	Name   string
	Filter *Filter
	// Else rules match only features no other rule of the style matched.
	Else        bool
	MinScale    float64
	MaxScale    float64
	Symbolizers []Symbolizer
}

// NewRule returns a rule that is visible at every scale.
func NewRule(name string, syms ...Symbolizer) *Rule {
	return &Rule{Name: name, MaxScale: math.Inf(1), Symbolizers: syms}
}

// WithinScale reports whether the rule is visible at the scale
// denominator.
func (r *Rule) WithinScale(denom float64) bool {
	return r.MinScale <= denom && denom < r.MaxScale
}

// Matches reports whether the rule's filter accepts f.
func (r *Rule) Matches(f *Feature) bool {
	return r.Filter == nil || r.Filter.Evaluate(f)
}

// Clone returns a deep copy of the rule.
func (r *Rule) Clone() *Rule {
	c := *r
	c.Symbolizers = make([]Symbolizer, len(r.Symbolizers))
	for i, s := range r.Symbolizers {
		c.Symbolizers[i] = s.Clone()
	}
	return &c
}

// Style is an ordered list of rules.
type Style struct {
	Rules []*Rule
}

// NewStyle returns a style with the given rules.
func NewStyle(rules ...*Rule) *Style {
	return &Style{Rules: rules}
}

// ActiveRules returns the rules applying to f at the scale denominator,
// in style order.
func (s *Style) ActiveRules(f *Feature, denom float64) []*Rule {
	var active []*Rule
	var elses []*Rule
	for _, r := range s.Rules {
		if !r.WithinScale(denom) {
			continue
		}
		if r.Else {
			elses = append(elses, r)
			continue
		}
		if r.Matches(f) {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return elses
	}
	return active
}
