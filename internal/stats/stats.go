// Package stats aggregates events for the read API's dashboards.
package stats

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/province"
	"github.com/couchcryptid/vn-hazard-radar/internal/statscache"
)

// DefaultHours is the lookback of a range without hours or date.
const DefaultHours = 24

// Vietnam is the time zone calendar dates are interpreted in.
var Vietnam = time.FixedZone("ICT", 7*60*60)

// ErrBadRange is returned for malformed hours or date parameters.
var ErrBadRange = errors.New("invalid range")

// Range selects the events to aggregate: the last Hours hours, or one
// calendar Date (YYYY-MM-DD, Vietnam time) when set.
type Range struct {
	Hours  int
	Date   string
	Public bool
}

// ParseRange builds a Range from raw query values.
func ParseRange(hours, date string, public bool) (Range, error) {
	r := Range{Hours: DefaultHours, Date: date, Public: public}
	if date != "" {
		if _, err := time.ParseInLocation(time.DateOnly, date, Vietnam); err != nil {
			return Range{}, fmt.Errorf("%w: date %q", ErrBadRange, date)
		}
		return r, nil
	}
	if hours != "" {
		n, err := strconv.Atoi(hours)
		if err != nil || n <= 0 || n > 24*365 {
			return Range{}, fmt.Errorf("%w: hours %q", ErrBadRange, hours)
		}
		r.Hours = n
	}
	return r, nil
}

// Bounds resolves r against now.
func (r Range) Bounds(now time.Time) (time.Time, time.Time) {
	if r.Date != "" {
		day, _ := time.ParseInLocation(time.DateOnly, r.Date, Vietnam)
		return day.UTC(), day.Add(24*time.Hour - time.Nanosecond).UTC()
	}
	hours := r.Hours
	if hours <= 0 {
		hours = DefaultHours
	}
	return now.Add(-time.Duration(hours) * time.Hour), now
}

// Hourly reports whether the timeline of r uses hourly buckets.
func (r Range) Hourly() bool { return r.Date != "" || r.Hours <= 72 }

func (r Range) key(kind string) string {
	scope := "h" + strconv.Itoa(r.Hours)
	if r.Date != "" {
		scope = "d" + r.Date
	}
	return fmt.Sprintf("%s:%s:public=%t", kind, scope, r.Public)
}

// Totals are impact sums over a set of events.
type Totals struct {
	Deaths           int     `json:"deaths"`
	Missing          int     `json:"missing"`
	Injured          int     `json:"injured"`
	DamageBillionVND float64 `json:"damage_billion_vnd"`
}

func (t *Totals) add(e *domain.Event) {
	t.Deaths += deref(e.Deaths)
	t.Missing += deref(e.Missing)
	t.Injured += deref(e.Injured)
	if e.DamageBillionVND != nil {
		t.DamageBillionVND += *e.DamageBillionVND
	}
}

// Summary is the headline block of the dashboard.
type Summary struct {
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	Events    int            `json:"events"`
	ByType    map[string]int `json:"by_type"`
	ByStage   map[string]int `json:"by_stage"`
	Provinces int            `json:"provinces"`
	HighRisk  int            `json:"high_risk"`
	Totals
}

// Bucket is one step of the timeline.
type Bucket struct {
	Start  time.Time `json:"start"`
	Events int       `json:"events"`
	Totals
}

// Cell is one province of the heatmap.
type Cell struct {
	Province   string   `json:"province"`
	Events     int      `json:"events"`
	MaxRisk    int      `json:"max_risk"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	Casualties int      `json:"casualties"`
}

// ProvinceRisk is the answer of TopRiskyProvince.
type ProvinceRisk struct {
	Province string         `json:"province"`
	Events   int            `json:"events"`
	MaxRisk  int            `json:"max_risk"`
	ByType   map[string]int `json:"by_type"`
	Totals
}

// Summarize counts events and sums their impact.
func Summarize(events []domain.Event, from, to time.Time) Summary {
	s := Summary{From: from, To: to, ByType: map[string]int{}, ByStage: map[string]int{}}
	provinces := map[string]bool{}
	for i := range events {
		e := &events[i]
		s.Events++
		s.ByType[e.HazardType]++
		s.ByStage[string(e.Stage)]++
		if e.Province != province.Unknown {
			provinces[e.Province] = true
		}
		if e.RiskLevel >= 3 {
			s.HighRisk++
		}
		s.add(e)
	}
	s.Provinces = len(provinces)
	return s
}

// Timeline buckets events by start time into hours or days (Vietnam time).
// Every bucket in [from, to] is present, empty or not.
func Timeline(events []domain.Event, from, to time.Time, hourly bool) []Bucket {
	floor := func(t time.Time) time.Time {
		t = t.In(Vietnam)
		if hourly {
			return t.Truncate(time.Hour)
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, Vietnam)
	}
	next := func(t time.Time) time.Time {
		if hourly {
			return t.Add(time.Hour)
		}
		return t.AddDate(0, 0, 1)
	}

	var out []Bucket
	index := map[int64]int{}
	for t := floor(from); !t.After(to); t = next(t) {
		index[t.Unix()] = len(out)
		out = append(out, Bucket{Start: t})
	}
	for i := range events {
		j, ok := index[floor(events[i].StartedAt).Unix()]
		if !ok {
			continue
		}
		out[j].Events++
		out[j].add(&events[i])
	}
	return out
}

// Heatmap groups events per province, busiest first. Events without a
// province are left out.
func Heatmap(events []domain.Event, r *province.Resolver) []Cell {
	cells := map[string]*Cell{}
	for i := range events {
		e := &events[i]
		if e.Province == "" || e.Province == province.Unknown {
			continue
		}
		c, ok := cells[e.Province]
		if !ok {
			c = &Cell{Province: e.Province}
			if lat, lon, ok := r.Coordinates(e.Province); ok {
				c.Lat, c.Lon = &lat, &lon
			}
			cells[e.Province] = c
		}
		c.Events++
		c.MaxRisk = max(c.MaxRisk, e.RiskLevel)
		c.Casualties += deref(e.Deaths) + deref(e.Missing) + deref(e.Injured)
	}
	out := make([]Cell, 0, len(cells))
	for _, c := range cells {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Cell) int {
		if c := cmp.Compare(b.Events, a.Events); c != 0 {
			return c
		}
		return cmp.Compare(a.Province, b.Province)
	})
	return out
}

// TopRiskyProvince ranks provinces by highest risk level, then number of
// events, then casualties. It returns nil when no event has a province.
func TopRiskyProvince(events []domain.Event) *ProvinceRisk {
	byProvince := map[string]*ProvinceRisk{}
	for i := range events {
		e := &events[i]
		if e.Province == "" || e.Province == province.Unknown {
			continue
		}
		p, ok := byProvince[e.Province]
		if !ok {
			p = &ProvinceRisk{Province: e.Province, ByType: map[string]int{}}
			byProvince[e.Province] = p
		}
		p.Events++
		p.MaxRisk = max(p.MaxRisk, e.RiskLevel)
		p.ByType[e.HazardType]++
		p.add(e)
	}

	var best *ProvinceRisk
	for _, p := range byProvince {
		if best == nil || riskier(p, best) {
			best = p
		}
	}
	return best
}

func riskier(a, b *ProvinceRisk) bool {
	if a.MaxRisk != b.MaxRisk {
		return a.MaxRisk > b.MaxRisk
	}
	if a.Events != b.Events {
		return a.Events > b.Events
	}
	ca := a.Deaths + a.Missing + a.Injured
	cb := b.Deaths + b.Missing + b.Injured
	if ca != cb {
		return ca > cb
	}
	return a.Province < b.Province
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Source is the part of the store the service reads.
type Source interface {
	EventsInRange(ctx context.Context, from, to time.Time, publicOnly bool) ([]domain.Event, error)
}

// Service computes the aggregations through the stats cache.
type Service struct {
	source   Source
	cache    *statscache.Cache
	resolver *province.Resolver
	now      func() time.Time
}

// NewService returns a Service reading from src.
func NewService(src Source, cache *statscache.Cache) *Service {
	return &Service{source: src, cache: cache, resolver: province.Default(), now: domain.Now}
}

func (s *Service) load(ctx context.Context, r Range) ([]domain.Event, time.Time, time.Time, error) {
	from, to := r.Bounds(s.now())
	events, err := s.source.EventsInRange(ctx, from, to, r.Public)
	if err != nil {
		return nil, from, to, fmt.Errorf("load events: %w", err)
	}
	return events, from, to, nil
}

// Summary returns the cached summary of r.
func (s *Service) Summary(ctx context.Context, r Range) (Summary, error) {
	return statscache.Get(ctx, s.cache, r.key("summary"), func(ctx context.Context) (Summary, error) {
		events, from, to, err := s.load(ctx, r)
		if err != nil {
			return Summary{}, err
		}
		return Summarize(events, from, to), nil
	})
}

// Timeline returns the cached timeline of r.
func (s *Service) Timeline(ctx context.Context, r Range) ([]Bucket, error) {
	return statscache.Get(ctx, s.cache, r.key("timeline"), func(ctx context.Context) ([]Bucket, error) {
		events, from, to, err := s.load(ctx, r)
		if err != nil {
			return nil, err
		}
		return Timeline(events, from, to, r.Hourly()), nil
	})
}

// Heatmap returns the cached heatmap of r.
func (s *Service) Heatmap(ctx context.Context, r Range) ([]Cell, error) {
	return statscache.Get(ctx, s.cache, r.key("heatmap"), func(ctx context.Context) ([]Cell, error) {
		events, _, _, err := s.load(ctx, r)
		if err != nil {
			return nil, err
		}
		return Heatmap(events, s.resolver), nil
	})
}

// TopRiskyProvince returns the cached riskiest province of r, or nil.
func (s *Service) TopRiskyProvince(ctx context.Context, r Range) (*ProvinceRisk, error) {
	return statscache.Get(ctx, s.cache, r.key("top_risky"), func(ctx context.Context) (*ProvinceRisk, error) {
		events, _, _, err := s.load(ctx, r)
		if err != nil {
			return nil, err
		}
		return TopRiskyProvince(events), nil
	})
}
