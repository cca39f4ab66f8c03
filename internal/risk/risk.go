// Package risk maps measurements stated in hazard news to the 1-5 disaster
// risk levels of Decision 18/2021/QĐ-TTg.
//
// Each hazard is checked in three steps: the text must carry that hazard's
// context, the relevant quantities are parsed, and the regulation table is
// applied for the zone of the affected province. A level declared verbatim
// in the text ("cấp độ rủi ro thiên tai cấp 4") takes precedence over every
// computed level.
package risk

import (
	"fmt"
	"slices"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/hazard"
	"github.com/couchcryptid/vn-hazard-radar/internal/province"
	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// Hazard names used in assessments. They are finer than the article taxonomy.
const (
	Storm      = "storm"
	StormSurge = "storm_surge"
	HeavyRain  = "heavy_rain"
	Flood      = "flood"
	FlashFlood = "flash_flood_landslide"
	Heatwave   = "heatwave"
	Drought    = "drought"
	Salinity   = "salinity_intrusion"
	SeaWind    = "strong_wind_sea"
	Fog        = "fog"
	Convective = "lightning_whirlwind_hail"
	Cold       = "cold"
	Wildfire   = "wildfire"
	Earthquake = "earthquake"
	Tsunami    = "tsunami"
)

const maxDeclared = 5

// HazardLevel is one table that fired.
type HazardLevel struct {
	Hazard string `json:"hazard"`
	Level  int    `json:"level"`
	Reason string `json:"reason"`
}

// Assessment is the outcome of Assess.
type Assessment struct {
	Overall      int           `json:"overall_level"`
	Declared     int           `json:"declared_level,omitempty"`
	Province     string        `json:"province"`
	Hazards      []HazardLevel `json:"hazards"`
	Measurements Measurements  `json:"measurements"`
}

var (
	declaredRe = []pattern{
		mustPattern(`rủi\s+ro\s+thiên\s+tai(?:\s+do\s+[^\d:]{1,40})?\s*:?\s*(?:là\s+|ở\s+)?cấp(?:\s+độ)?\s+([1-5])`),
		mustPattern(`cấp\s+độ\s+([1-5])\s+(?:về\s+)?rủi\s+ro\s+thiên\s+tai`),
	}

	flashCtx      = textnorm.MustPairs(`lũ\s+quét`, `lũ\s+ống`, `sạt\s+lở`, `lở\s+đất`, `sạt\s+trượt`)
	heatCtx       = textnorm.MustPairs(`nắng\s+nóng`)
	coldCtx       = textnorm.MustPairs(`rét\s+(?:đậm|hại)`, `không\s+khí\s+lạnh`, `sương\s+muối`, `băng\s+giá`)
	droughtCtx    = textnorm.MustPairs(`hạn\s+hán`, `khô\s+hạn`, `nắng\s+hạn`, `thiếu\s+nước`)
	salinityCtx   = textnorm.MustPairs(`xâm\s+nhập\s+mặn`, `nhiễm\s+mặn`, `độ\s+mặn`, `ranh\s+mặn`)
	windCtx       = textnorm.MustPairs(`gió\s+mạnh`, `biển\s+động`, `gió\s+mùa`, `gió\s+(?:đông|tây)\s+(?:bắc|nam)`)
	seaCtx        = textnorm.MustPairs(`trên\s+biển`, `vùng\s+biển`, `ngoài\s+khơi`, `vịnh\s+bắc\s+bộ`, `biển\s+đông`)
	fogCtx        = textnorm.MustPairs(`sương\s+mù`)
	transportCtx  = textnorm.MustPairs(`cao\s+tốc`, `sân\s+bay`, `cảng`, `quốc\s+lộ`)
	convectiveCtx = textnorm.MustPairs(`dông`, `giông`, `sét`, `lốc(?:\s+xoáy)?`, `mưa\s+đá`, `vòi\s+rồng`)
	widespreadCtx = textnorm.MustPairs(`diện\s+rộng`, `nhiều\s+(?:tỉnh|nơi|địa\s+phương)`, `trên\s+\d+\s+tỉnh`)
	tsunamiCtx    = textnorm.MustPairs(`sóng\s+thần`)
	noTsunamiCtx  = textnorm.MustPairs(`không\s+(?:gây\s+(?:ra\s+)?|có\s+(?:nguy\s+cơ\s+)?|xảy\s+ra\s+)sóng\s+thần`)
)

func has(pairs []textnorm.Pair, t textnorm.Text) bool {
	_, ok := textnorm.FirstMatch(pairs, t)
	return ok
}

// Declared returns the risk level stated verbatim in text, or 0.
func Declared(text string) int {
	return declared(textnorm.New(text))
}

func declared(t textnorm.Text) int {
	lv := 0
	for _, p := range declaredRe {
		for _, g := range p.findAll(t) {
			lv = max(lv, parseLevel(g[1]))
		}
	}
	return min(lv, maxDeclared)
}

// HasMeasurement reports whether text states any quantity the tables read.
func HasMeasurement(text string) bool {
	return Parse(text).Any()
}

// Assess computes the risk level of text. When prov is empty or unknown the
// province named in the text is used to select the zone.
func Assess(text, prov string) Assessment {
	return AssessText(textnorm.New(text), prov)
}

// AssessText is Assess for an already normalized text.
func AssessText(t textnorm.Text, prov string) Assessment {
	res := province.Default()
	if prov == "" || prov == province.Unknown {
		prov = res.ExtractText(t)
	}
	z := res.Zone(prov)
	m := ParseText(t)
	labels := hazard.ClassifyText(t).Labels

	a := Assessment{Province: prov, Measurements: m, Hazards: []HazardLevel{}}
	add := func(h string, lv int, reason string) {
		if lv > 0 {
			a.Hazards = append(a.Hazards, HazardLevel{Hazard: h, Level: lv, Reason: reason})
		}
	}

	stormy := slices.Contains(labels, domain.HazardStorm)
	if b := m.SustainedOrDerived(); b > 0 {
		switch {
		case stormy:
			add(Storm, StormLevel(b, z), fmt.Sprintf("beaufort %d", b))
		case has(windCtx, t):
			coast := !z.Sea() && !has(seaCtx, t) && z.Coastal()
			add(SeaWind, SeaWindLevel(b, coast), fmt.Sprintf("beaufort %d", b))
		}
	}
	if m.SurgeM > 0 && (slices.Contains(labels, domain.HazardStormSurge) || stormy) {
		add(StormSurge, StormSurgeLevel(m.SurgeM, z), fmt.Sprintf("surge %.2gm group %s", m.SurgeM, z.Coast))
	}
	if m.RainMM > 0 {
		add(HeavyRain, HeavyRainLevel(m.RainMM, m.RainDays, z), fmt.Sprintf("rain %.0fmm/24h over %.0f days", m.RainMM, m.RainDays))
	}
	if m.AlarmLevel > 0 || m.HistoricFlood {
		add(Flood, FloodLevel(m.AlarmLevel, m.AlarmExcessM, m.HistoricFlood, z), fmt.Sprintf("alarm %d +%.2gm", m.AlarmLevel, m.AlarmExcessM))
	}
	if m.RainMM > 0 && has(flashCtx, t) {
		add(FlashFlood, FlashFloodLevel(m.RainMM, z), fmt.Sprintf("rain %.0fmm/24h terrain %s", m.RainMM, z.Terrain))
	}
	if m.TempMaxC != nil && has(heatCtx, t) {
		add(Heatwave, HeatLevel(*m.TempMaxC, m.Days), fmt.Sprintf("tmax %.0f°C for %.0f days", *m.TempMaxC, m.Days))
	}
	if m.TempMinC != nil && has(coldCtx, t) {
		add(Cold, ColdLevel(*m.TempMinC, m.Days), fmt.Sprintf("tmin %.0f°C for %.0f days", *m.TempMinC, m.Days))
	}
	if (m.DeficitPct > 0 || m.DroughtMonths > 0) && has(droughtCtx, t) {
		add(Drought, DroughtLevel(m.DeficitPct, m.DroughtMonths), fmt.Sprintf("deficit %.0f%% over %.0f months", m.DeficitPct, m.DroughtMonths))
	}
	if m.SalinityKM > 0 && has(salinityCtx, t) {
		add(Salinity, SalinityLevel(m.SalinityKM, z), fmt.Sprintf("4‰ boundary %.0fkm inland", m.SalinityKM))
	}
	if m.VisibilityM != nil && has(fogCtx, t) {
		add(Fog, FogLevel(*m.VisibilityM, has(transportCtx, t)), fmt.Sprintf("visibility %.0fm", *m.VisibilityM))
	}
	if slices.Contains(labels, domain.HazardExtremeWeather) && has(convectiveCtx, t) {
		wide := has(widespreadCtx, t)
		add(Convective, ConvectiveLevel(wide), fmt.Sprintf("widespread=%t", wide))
	}
	if m.FireDanger > 0 {
		add(Wildfire, WildfireLevel(m.FireDanger), fmt.Sprintf("fire danger grade %d", m.FireDanger))
	}
	if (m.Magnitude > 0 || m.MSK > 0) && slices.Contains(labels, domain.HazardQuakeTsunami) {
		add(Earthquake, QuakeLevel(m.Magnitude, m.MSK), fmt.Sprintf("magnitude %.1f msk %d", m.Magnitude, m.MSK))
	}
	if has(tsunamiCtx, t) && !has(noTsunamiCtx, t) {
		add(Tsunami, TsunamiLevel(m.WaveM, m.Magnitude), fmt.Sprintf("wave %.2gm magnitude %.1f", m.WaveM, m.Magnitude))
	}

	for _, h := range a.Hazards {
		a.Overall = max(a.Overall, h.Level)
	}
	if d := declared(t); d > 0 {
		a.Declared = d
		a.Overall = d
	}
	return a
}
