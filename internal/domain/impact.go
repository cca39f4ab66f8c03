package domain

// Quantity is a counted impact such as "12 nhà" or "300 ha".
type Quantity struct {
	Num  float64 `json:"num"`
	Unit string  `json:"unit"`
}

// Impact is the structured output of impact extraction, also stored as the
// article's impact_details and merged into the event details.
type Impact struct {
	Deaths           []int      `json:"deaths"`
	Missing          []int      `json:"missing"`
	Injured          []int      `json:"injured"`
	DamageBillionVND *float64   `json:"damage_billion_vnd"`
	Agency           *string    `json:"agency"`
	Damage           []Quantity `json:"damage"`
	Agriculture      []Quantity `json:"agriculture"`
	Marine           []Quantity `json:"marine"`
	Disruption       []Quantity `json:"disruption"`
}

// Empty reports whether no impact class produced a value.
func (im Impact) Empty() bool {
	return len(im.Deaths) == 0 && len(im.Missing) == 0 && len(im.Injured) == 0 &&
		im.DamageBillionVND == nil && len(im.Damage) == 0 && len(im.Agriculture) == 0 &&
		len(im.Marine) == 0 && len(im.Disruption) == 0
}

// HasCasualties reports whether any death, missing or injured figure is positive.
func (im Impact) HasCasualties() bool {
	for _, list := range [][]int{im.Deaths, im.Missing, im.Injured} {
		for _, n := range list {
			if n > 0 {
				return true
			}
		}
	}
	return false
}

// Merge combines two impact records list-wise. Integer lists are merged as
// sets, quantity lists by (num, unit), the damage figure takes the max and the
// first known agency is kept.
func (im Impact) Merge(other Impact) Impact {
	out := Impact{
		Deaths:           unionInts(im.Deaths, other.Deaths),
		Missing:          unionInts(im.Missing, other.Missing),
		Injured:          unionInts(im.Injured, other.Injured),
		DamageBillionVND: MaxFloatPtr(im.DamageBillionVND, other.DamageBillionVND),
		Agency:           im.Agency,
		Damage:           unionQuantities(im.Damage, other.Damage),
		Agriculture:      unionQuantities(im.Agriculture, other.Agriculture),
		Marine:           unionQuantities(im.Marine, other.Marine),
		Disruption:       unionQuantities(im.Disruption, other.Disruption),
	}
	if out.Agency == nil {
		out.Agency = other.Agency
	}
	return out
}

func unionInts(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	seen := make(map[int]struct{}, len(a)+len(b))
	for _, list := range [][]int{a, b} {
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

func unionQuantities(a, b []Quantity) []Quantity {
	out := make([]Quantity, 0, len(a)+len(b))
	seen := make(map[Quantity]struct{}, len(a)+len(b))
	for _, list := range [][]Quantity{a, b} {
		for _, q := range list {
			if _, ok := seen[q]; ok {
				continue
			}
			seen[q] = struct{}{}
			out = append(out, q)
		}
	}
	return out
}

// MaxInt returns a pointer to the largest value in list, or nil when empty.
func MaxInt(list []int) *int {
	if len(list) == 0 {
		return nil
	}
	m := list[0]
	for _, n := range list[1:] {
		if n > m {
			m = n
		}
	}
	return &m
}

// MaxIntPtr returns the larger of two optional values.
func MaxIntPtr(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

// MaxFloatPtr returns the larger of two optional values.
func MaxFloatPtr(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}
