// Package province resolves Vietnamese place mentions to the post-merger
// provincial map and to named regions.
package province

import (
	"regexp"
	"sort"
	"strings"

	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// Unknown is returned when no province or region is mentioned.
const Unknown = "unknown"

const adminPrefix = `(?:tỉnh|thành\s+phố|tp\.?)\s+`

// Zone is the classification of a place used by the risk tables.
type Zone struct {
	Name    string
	Region  bool
	Macro   Macro
	Terrain Terrain
	Coast   CoastGroup
	Mekong  bool
}

// Sea reports whether the zone is offshore.
func (z Zone) Sea() bool { return z.Macro == MacroSea }

// Northern reports whether the zone lies in the northern storm-table band
// (Bắc Bộ and Bắc Trung Bộ).
func (z Zone) Northern() bool {
	return z.Macro == MacroNorth || z.Macro == MacroNorthCentral
}

// Coastal reports whether the zone borders the sea.
func (z Zone) Coastal() bool { return z.Coast != CoastInland }

// Mountain reports whether the rainfall tables treat the zone as mountainous.
func (z Zone) Mountain() bool { return z.Terrain == TerrainMountain }

type matcher struct {
	e      *entry
	accent *regexp.Regexp
	plain  *regexp.Regexp
}

// Resolver matches texts against the gazetteer.
type Resolver struct {
	provinces []matcher
	regions   []matcher
	byName    map[string]*entry
}

// New compiles the gazetteer.
func New() *Resolver {
	r := &Resolver{byName: make(map[string]*entry, len(provinces)+len(regions))}
	r.provinces = compile(provinces, r.byName)
	r.regions = compile(regions, r.byName)
	return r
}

func compile(entries []entry, byName map[string]*entry) []matcher {
	out := make([]matcher, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		byName[e.name] = e

		var accent, plain []string
		accent = append(accent, e.aliases...)
		accent = append(accent, e.plainPrefixed...)
		for _, a := range e.prefixed {
			accent = append(accent, adminPrefix+a)
		}
		plain = append(plain, accent[:len(e.aliases)]...)
		for _, a := range append(append([]string(nil), e.prefixed...), e.plainPrefixed...) {
			plain = append(plain, adminPrefix+a)
		}
		for j := range plain {
			plain[j] = textnorm.StripAccents(plain[j])
		}
		out = append(out, matcher{
			e:      e,
			accent: textnorm.MustCompileBounded(strings.Join(accent, "|")),
			plain:  textnorm.MustCompileBounded(strings.Join(plain, "|")),
		})
	}
	return out
}

var defaultResolver = New()

// Default returns the process-wide resolver.
func Default() *Resolver { return defaultResolver }

// Extract is Default().Extract.
func Extract(text string) string { return defaultResolver.Extract(text) }

// Coordinates is Default().Coordinates.
func Coordinates(name string) (float64, float64, bool) {
	return defaultResolver.Coordinates(name)
}

// ZoneOf is Default().Zone.
func ZoneOf(name string) Zone { return defaultResolver.Zone(name) }

type hit struct {
	e     *entry
	start int
	size  int
}

// find returns the first occurrence of each matcher's aliases in t.
func find(ms []matcher, t textnorm.Text) []hit {
	var hits []hit
	for _, m := range ms {
		if loc := m.accent.FindStringSubmatchIndex(t.Norm); loc != nil {
			hits = append(hits, hit{e: m.e, start: loc[2], size: loc[3] - loc[2]})
			continue
		}
		if t.Accented() {
			continue
		}
		if loc := m.plain.FindStringSubmatchIndex(t.Plain); loc != nil {
			hits = append(hits, hit{e: m.e, start: loc[2], size: loc[3] - loc[2]})
		}
	}
	// Earliest mention first; at the same offset the longer name wins.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].size > hits[j].size
	})
	// Drop names nested inside a longer one ("trung bộ" in "bắc trung bộ").
	kept := hits[:0]
	end := -1
	for _, h := range hits {
		if h.start < end {
			continue
		}
		kept = append(kept, h)
		end = h.start + h.size
	}
	return kept
}

// Extract returns the canonical province named first in text, else the first
// region, else Unknown.
func (r *Resolver) Extract(text string) string {
	return r.ExtractText(textnorm.New(text))
}

// ExtractText is Extract for an already normalized text.
func (r *Resolver) ExtractText(t textnorm.Text) string {
	if hits := find(r.provinces, t); len(hits) > 0 {
		return hits[0].e.name
	}
	if hits := find(r.regions, t); len(hits) > 0 {
		return hits[0].e.name
	}
	return Unknown
}

// ExtractAll returns every distinct province named in text in order of first
// mention, followed by any regions.
func (r *Resolver) ExtractAll(text string) []string {
	t := textnorm.New(text)
	var out []string
	for _, h := range find(r.provinces, t) {
		out = append(out, h.e.name)
	}
	for _, h := range find(r.regions, t) {
		out = append(out, h.e.name)
	}
	return out
}

// Coordinates returns the centroid of a canonical province or region.
func (r *Resolver) Coordinates(name string) (lat, lon float64, ok bool) {
	e, ok := r.byName[name]
	if !ok {
		return 0, 0, false
	}
	return e.lat, e.lon, true
}

// Zone classifies a canonical name. Unknown names yield a lowland inland zone.
func (r *Resolver) Zone(name string) Zone {
	e, ok := r.byName[name]
	if !ok {
		return Zone{Name: name, Terrain: TerrainLowland}
	}
	_, isRegion := r.regionIndex(name)
	return Zone{
		Name:    e.name,
		Region:  isRegion,
		Macro:   e.macro,
		Terrain: e.terrain,
		Coast:   e.coast,
		Mekong:  e.mekong,
	}
}

func (r *Resolver) regionIndex(name string) (int, bool) {
	for i, m := range r.regions {
		if m.e.name == name {
			return i, true
		}
	}
	return -1, false
}

// IsCanonical reports whether name is one of the gazetteer names.
func (r *Resolver) IsCanonical(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Provinces lists the canonical province names in gazetteer order.
func (r *Resolver) Provinces() []string {
	out := make([]string, len(r.provinces))
	for i, m := range r.provinces {
		out[i] = m.e.name
	}
	return out
}

// Regions lists the region names.
func (r *Resolver) Regions() []string {
	out := make([]string, len(r.regions))
	for i, m := range r.regions {
		out[i] = m.e.name
	}
	return out
}
