// Package legend decides which legend items a layer needs and builds the
// small maps drawn for them.
package legend

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/mapprint/mapprint/pkg/carto"
)

// ItemLayerName names the single layer of an item map.
const ItemLayerName = "LegendLayer"

// RuleRef identifies a rule by its style, its name and its position in
// the style.
type RuleRef struct {
	Style string
	Rule  string
	Index int
}

func (r RuleRef) less(o RuleRef) bool {
	if r.Style != o.Style {
		return r.Style < o.Style
	}
	if r.Rule != o.Rule {
		return r.Rule < o.Rule
	}
	return r.Index < o.Index
}

// Entry is one legend item: a layer drawn with one combination of active
// rules.
type Entry struct {
	Layer *carto.Layer
	// Key lists the rules active for Feature, in style order.
	Key []RuleRef
	// Feature is the sample drawn in the item map. A nil Feature draws
	// the whole layer.
	Feature *carto.Feature
	// RuleText describes the filters of the active rules.
	RuleText string
}

func (e Entry) keyID() string {
	var sb strings.Builder
	for _, r := range e.Key {
		sb.WriteString(r.Style)
		sb.WriteByte(0)
		sb.WriteString(r.Rule)
		sb.WriteByte(0)
		sb.WriteString(strconv.Itoa(r.Index))
		sb.WriteByte(1)
	}
	return sb.String()
}

// Options tune Collect.
type Options struct {
	// OneItemPerRule gives every active rule its own entry instead of
	// one entry per combination of rules.
	OneItemPerRule bool
	// MaxSamples bounds the number of features inspected; zero inspects
	// all of them.
	MaxSamples int
}

// Collect returns the legend entries of layer at the current scale of m,
// one per distinct combination of active rules, sorted by key. The first
// feature showing a combination becomes its sample. A layer without any
// geometry yields a single entry drawing the whole layer.
func Collect(m *carto.Map, layer *carto.Layer, opts Options) []Entry {
	if layer.Datasource == nil {
		return nil
	}
	denom := m.ScaleDenominator()

	var entries []Entry
	seen := map[string]bool{}
	add := func(e Entry) {
		id := e.keyID()
		if seen[id] {
			return
		}
		seen[id] = true
		entries = append(entries, e)
	}

	sampled := false
	for i, f := range layer.Datasource.Features() {
		if opts.MaxSamples > 0 && i >= opts.MaxSamples {
			break
		}
		if f.Geometry == nil {
			continue
		}
		sampled = true

		var key []RuleRef
		var rules []*carto.Rule
		for _, name := range layer.Styles {
			st, ok := m.FindStyle(name)
			if !ok {
				continue
			}
			for _, r := range st.ActiveRules(f, denom) {
				key = append(key, RuleRef{Style: name, Rule: r.Name, Index: ruleIndex(st, r)})
				rules = append(rules, r)
			}
		}
		if len(key) == 0 {
			continue
		}

		if opts.OneItemPerRule {
			for j, ref := range key {
				add(Entry{Layer: layer, Key: []RuleRef{ref}, Feature: f, RuleText: RuleText(rules[j], "")})
			}
			continue
		}
		text := ""
		for _, r := range rules {
			text = RuleText(r, text)
		}
		add(Entry{Layer: layer, Key: key, Feature: f, RuleText: text})
	}

	if !sampled {
		return []Entry{{Layer: layer}}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return keyLess(entries[i].Key, entries[j].Key)
	})
	return entries
}

func ruleIndex(st *carto.Style, r *carto.Rule) int {
	for i, x := range st.Rules {
		if x == r {
			return i
		}
	}
	return -1
}

func keyLess(a, b []RuleRef) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i].less(b[i])
		}
	}
	return len(a) < len(b)
}

// RuleText appends the description of r to text. Rules without a filter
// add nothing; others add their name, or the filter when unnamed, joined
// with " AND ".
func RuleText(r *carto.Rule, text string) string {
	if r.Filter == nil || r.Filter.String() == "true" {
		return text
	}
	if text != "" {
		text += " AND "
	}
	if r.Name != "" {
		return text + r.Name
	}
	return text + r.Filter.String()
}

// ItemMap builds the map drawn for an entry: width x height points,
// styled with the layer's rules that are visible at the scale of m, with
// scale limits lifted and edge avoidance disabled so that the sample
// always shows.
func ItemMap(m *carto.Map, layer *carto.Layer, e Entry, width, height int, logger *log.Logger) *carto.Map {
	if logger == nil {
		logger = log.Default()
	}
	im := carto.NewMap(width, height, m.SRS())
	// labels overflowing the tiny map still render
	im.BufferSize = 1000

	denom := m.ScaleDenominator()
	for _, name := range layer.Styles {
		st, ok := m.FindStyle(name)
		if !ok {
			continue
		}
		im.AppendStyle(name, visibleRules(st, denom, logger))
	}

	item := carto.NewLayer(ItemLayerName, layer.SRS)
	item.Styles = append(item.Styles, layer.Styles...)
	im.AddLayer(item)

	switch {
	case e.Feature == nil:
		item.Datasource = layer.Datasource
	case e.Feature.Envelope().Width() == 0:
		f := e.Feature.Clone()
		f.Geometry = orb.Point{0, 0}
		item.Datasource = carto.NewMemoryDatasource(f)
		item.SRS = m.SRS()
		im.ZoomToBox(carto.NewBox(-1, -1, 1, 1))
		return im
	default:
		item.Datasource = carto.NewMemoryDatasource(e.Feature)
	}
	im.ZoomAll()
	im.Zoom(1.1)
	return im
}

func visibleRules(st *carto.Style, denom float64, logger *log.Logger) *carto.Style {
	out := carto.NewStyle()
	for _, r := range st.Rules {
		if !r.WithinScale(denom) {
			continue
		}
		c := r.Clone()
		for _, sym := range c.Symbolizers {
			if ea, ok := sym.(carto.EdgeAvoider); ok {
				ea.SetAvoidEdges(false)
			} else {
				logger.Warn("could not disable edge avoidance", "rule", r.Name)
			}
		}
		c.MinScale, c.MaxScale = 0, math.Inf(1)
		out.Rules = append(out.Rules, c)
	}
	return out
}
