package risk

import (
	"math"
	"regexp"
	"strings"

	"github.com/couchcryptid/vn-hazard-radar/internal/impact"
	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// Measurements are the quantities a bulletin or article states. Zero means
// "not stated" except for the pointer fields, where zero is a valid reading.
type Measurements struct {
	Sustained int `json:"beaufort,omitempty"`
	Gust      int `json:"gust_beaufort,omitempty"`

	RainMM   float64 `json:"rain_mm_24h,omitempty"`
	RainDays float64 `json:"rain_days,omitempty"`

	AlarmLevel    int     `json:"alarm_level,omitempty"`
	AlarmExcessM  float64 `json:"alarm_excess_m,omitempty"`
	HistoricFlood bool    `json:"historic_flood,omitempty"`

	TempMaxC *float64 `json:"temp_max_c,omitempty"`
	TempMinC *float64 `json:"temp_min_c,omitempty"`
	Days     float64  `json:"days,omitempty"`

	DeficitPct    float64 `json:"water_deficit_pct,omitempty"`
	DroughtMonths float64 `json:"drought_months,omitempty"`

	SalinityKM       float64 `json:"salinity_km,omitempty"`
	SalinityPermille float64 `json:"salinity_permille,omitempty"`

	VisibilityM *float64 `json:"visibility_m,omitempty"`

	Magnitude float64 `json:"magnitude,omitempty"`
	MSK       int     `json:"msk,omitempty"`

	WaveM  float64 `json:"wave_m,omitempty"`
	SurgeM float64 `json:"surge_m,omitempty"`

	FireDanger int `json:"fire_danger,omitempty"`
}

// Any reports whether at least one quantity was parsed.
func (m Measurements) Any() bool {
	return m.Sustained > 0 || m.Gust > 0 || m.RainMM > 0 || m.AlarmLevel > 0 ||
		m.HistoricFlood || m.TempMaxC != nil || m.TempMinC != nil ||
		m.DeficitPct > 0 || m.SalinityKM > 0 || m.SalinityPermille > 0 ||
		m.VisibilityM != nil || m.Magnitude > 0 || m.MSK > 0 || m.WaveM > 0 ||
		m.SurgeM > 0 || m.FireDanger > 0
}

// SustainedOrDerived is the sustained Beaufort force, or the gust force less
// two when only a gust is stated.
func (m Measurements) SustainedOrDerived() int {
	if m.Sustained > 0 {
		return m.Sustained
	}
	if m.Gust > 2 {
		return m.Gust - 2
	}
	return 0
}

const (
	num   = `(\d+(?:[.,]\d+)*)`
	rng   = num + `(?:\s*(?:-|–|đến|tới)\s*` + num + `)?`
	words = `(?:\s+[^\s.;:!?]+){0,8}?`

	// end is a Unicode-aware word end after a unit.
	end = `(?:[^\p{L}\p{N}]|$)`
)

// pattern is compiled for the accented text and for its stripped twin.
type pattern struct {
	accent *regexp.Regexp
	plain  *regexp.Regexp
}

func mustPattern(p string) pattern {
	return pattern{
		accent: regexp.MustCompile(p),
		plain:  regexp.MustCompile(textnorm.StripAccents(p)),
	}
}

func (p pattern) findAll(t textnorm.Text) [][]string {
	if ms := p.accent.FindAllStringSubmatch(t.Norm, -1); len(ms) > 0 || t.Accented() {
		return ms
	}
	return p.plain.FindAllStringSubmatch(t.Plain, -1)
}

func (p pattern) match(t textnorm.Text) bool {
	if p.accent.MatchString(t.Norm) {
		return true
	}
	return !t.Accented() && p.plain.MatchString(t.Plain)
}

var (
	gustRe      = mustPattern(`giật(?:\s+(?:mạnh|trên|tới|đến|lên|mạnh\s+hơn))*\s+cấp\s+` + rng)
	sustainedRe = mustPattern(`(?:gió|mạnh(?:\s+lên)?|mạnh\s+nhất)` + words + `\s+cấp\s+` + rng)
	speedRe     = mustPattern(`gió` + words + `\s+\(?\s*` + rng + `\s*(km/h|km/giờ|m/s)`)

	rainRe     = mustPattern(rng + `\s*mm(?:\s*/\s*(\d+)\s*(?:h|giờ)|\s+trong\s+(\d+)\s+giờ(?:\s+qua)?)?`)
	rainCtxRe  = mustPattern(`mưa|lượng\s+mưa`)
	daysRe     = mustPattern(`(?:kéo\s+dài|trong|liên\s+tục|suốt|khoảng)\s+(?:khoảng\s+)?` + rng + `\s+ngày|` + rng + `\s+ngày\s+(?:liên\s+tiếp|liên\s+tục|liền)`)
	alarmRe    = mustPattern(`(trên|vượt|dưới|xấp\s+xỉ|ở\s+mức|mức|lên)?\s*(?:mức\s+)?(?:báo\s+động|bđ)\s*(3|2|1|iii|ii|i)(?:\s*(?:là|khoảng|\+)?\s*` + num + `\s*(m|cm)` + end + `)?`)
	historicRe = mustPattern(`lũ\s+(?:lịch\s+sử|vượt\s+(?:mức\s+)?lịch\s+sử)|vượt\s+đỉnh\s+lũ\s+lịch\s+sử`)

	tempRe    = mustPattern(`(âm\s+|-)?` + num + `(?:\s*(?:-|–|đến)\s*(âm\s+|-)?` + num + `)?\s*(?:°\s*c|độ\s*c|độ)(\s+(?:richter|rích|msk|vĩ|kinh|bắc|nam))?`)
	tempMinRe = mustPattern(`(?:nhiệt\s+độ\s+thấp\s+nhất|thấp\s+nhất)` + words + `\s+(âm\s+|-)?` + num + `(?:\s*(?:-|–|đến)\s*(âm\s+|-)?` + num + `)?\s*(?:°\s*c|độ)`)

	deficitRe = mustPattern(`(?:thiếu\s+hụt|hụt|thấp\s+hơn|giảm)` + words + `\s+(?:từ\s+)?` + rng + `\s*%`)
	monthsRe  = mustPattern(`(?:kéo\s+dài|trong|suốt|liên\s+tục)\s+(?:khoảng\s+)?` + rng + `\s+tháng|` + rng + `\s+tháng\s+(?:liên\s+tiếp|liền|không\s+(?:có\s+)?mưa)`)

	salinityKMRe = mustPattern(`(?:mặn|xâm\s+nhập)` + words + `\s+(?:sâu\s+)?(?:từ\s+)?` + rng + `\s*km`)
	salinityPRe  = mustPattern(rng + `\s*(‰|g/l|phần\s+nghìn|ppt)`)

	visibilityRe = mustPattern(`tầm\s+nhìn(?:\s+xa)?` + words + `\s+(?:(dưới|không\s+quá|chưa\s+tới|chưa\s+đến)\s+)?` + rng + `\s*(km|m)` + end)

	magnitudeRe = mustPattern(`(?:độ\s+lớn|cường\s+độ)\s+(?:m\s*=?\s*)?` + num + `|` + num + `\s*độ\s+(?:richter|rích-?te)|` + num + `\s+richter`)
	mskRe       = mustPattern(`cấp\s+(xii|xi|x|ix|viii|vii|vi|v|iv|\d{1,2})\s*(?:\(?\s*(?:thang\s+)?msk)|chấn\s+động\s+cấp\s+(xii|xi|x|ix|viii|vii|vi|v|iv|\d{1,2})`)

	waveRe  = mustPattern(`sóng(?:\s+thần)?\s+(?:cao|có\s+độ\s+cao)(?:\s+(?:khoảng|tới|đến|từ|lên\s+tới))?\s+` + rng + `\s*(m|cm)` + end)
	surgeRe = mustPattern(`(?:nước\s+dâng|dâng\s+cao|triều\s+cường)` + words + `\s+(?:từ\s+)?` + rng + `\s*(m|cm)` + end)

	fireRe = mustPattern(`cháy\s+rừng` + words + `\s+cấp\s+(v|iv|iii|ii|i|[1-5])` + end + `|cấp\s+(v|iv|iii|ii|i|[1-5])\s+(?:\(\s*)?(?:nguy\s+hiểm|cực\s+kỳ\s+nguy\s+hiểm|cháy\s+rừng)`)
)

var roman = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5, "vi": 6, "vii": 7,
	"viii": 8, "ix": 9, "x": 10, "xi": 11, "xii": 12,
}

func parseLevel(s string) int {
	if v, ok := roman[s]; ok {
		return v
	}
	v, ok := impact.ParseNumber(s)
	if !ok {
		return 0
	}
	return int(v)
}

// upper parses a number or range starting at m[i], returning the upper bound.
func upper(m []string, i int) float64 {
	v, ok := impact.ParseNumber(m[i])
	if !ok {
		return 0
	}
	if i+1 < len(m) && m[i+1] != "" {
		if hi, ok := impact.ParseNumber(m[i+1]); ok && hi > v {
			v = hi
		}
	}
	return v
}

func meters(v float64, unit string) float64 {
	if unit == "cm" {
		return v / 100
	}
	return v
}

// beaufortUpperMS are the upper wind speeds (m/s) of Beaufort forces 0-17.
var beaufortUpperMS = []float64{0.2, 1.5, 3.3, 5.4, 7.9, 10.7, 13.8, 17.1, 20.7, 24.4, 28.4, 32.6, 36.9, 41.4, 46.1, 50.9, 56.0, 61.2}

// Beaufort converts a wind speed in m/s to the Beaufort force.
func Beaufort(ms float64) int {
	for i, u := range beaufortUpperMS {
		if ms <= u {
			return i
		}
	}
	return len(beaufortUpperMS)
}

// Parse extracts every measurement from text.
func Parse(text string) Measurements {
	return ParseText(textnorm.New(text))
}

// ParseText is Parse for an already normalized text.
func ParseText(t textnorm.Text) Measurements {
	var m Measurements
	parseWind(t, &m)
	parseRain(t, &m)
	parseFlood(t, &m)
	parseTemperature(t, &m)
	parseDrought(t, &m)
	parseSalinity(t, &m)
	parseVisibility(t, &m)
	parseQuake(t, &m)
	parseWater(t, &m)
	for _, g := range fireRe.findAll(t) {
		lv := g[1]
		if lv == "" {
			lv = g[2]
		}
		m.FireDanger = max(m.FireDanger, parseLevel(lv))
	}
	return m
}

func parseWind(t textnorm.Text, m *Measurements) {
	for _, g := range gustRe.findAll(t) {
		m.Gust = max(m.Gust, int(upper(g, 1)))
	}
	for _, g := range sustainedRe.findAll(t) {
		if strings.Contains(g[0], "giật") || strings.Contains(g[0], "giat") {
			continue
		}
		m.Sustained = max(m.Sustained, int(upper(g, 1)))
	}
	if m.Sustained > 0 {
		return
	}
	for _, g := range speedRe.findAll(t) {
		v := upper(g, 1)
		if g[3] != "m/s" {
			v /= 3.6
		}
		m.Sustained = max(m.Sustained, Beaufort(v))
	}
}

func parseRain(t textnorm.Text, m *Measurements) {
	if !rainCtxRe.match(t) {
		return
	}
	for _, g := range rainRe.findAll(t) {
		v := upper(g, 1)
		hours := 24.0
		for _, h := range g[3:5] {
			if h != "" {
				if n, ok := impact.ParseNumber(h); ok && n > 0 {
					hours = n
				}
			}
		}
		if hours > 24 {
			v = v * 24 / hours
			m.RainDays = math.Max(m.RainDays, hours/24)
		}
		m.RainMM = math.Max(m.RainMM, v)
	}
	for _, g := range daysRe.findAll(t) {
		d := upper(g, 1)
		if d == 0 {
			d = upper(g, 3)
		}
		m.RainDays = math.Max(m.RainDays, d)
	}
	m.Days = math.Max(m.Days, m.RainDays)
}

func parseFlood(t textnorm.Text, m *Measurements) {
	for _, g := range alarmRe.findAll(t) {
		lv := parseLevel(g[2])
		if lv == 0 {
			continue
		}
		excess := 0.0
		if g[3] != "" {
			if v, ok := impact.ParseNumber(g[3]); ok {
				excess = meters(v, g[4])
			}
		}
		switch g[1] {
		case "dưới", "duoi":
			// Below alarm N means the band under it.
			lv--
			excess = 0
		case "trên", "tren", "vượt", "vuot":
		default:
			excess = 0
		}
		if lv > m.AlarmLevel || (lv == m.AlarmLevel && excess > m.AlarmExcessM) {
			m.AlarmLevel, m.AlarmExcessM = lv, excess
		}
	}
	m.HistoricFlood = historicRe.match(t)
}

func signed(neg, v string) float64 {
	f, ok := impact.ParseNumber(v)
	if !ok {
		return math.NaN()
	}
	if neg != "" {
		return -f
	}
	return f
}

func parseTemperature(t textnorm.Text, m *Measurements) {
	for _, g := range tempRe.findAll(t) {
		if g[5] != "" {
			continue
		}
		lo := signed(g[1], g[2])
		hi := lo
		if g[4] != "" {
			hi = signed(g[3], g[4])
		}
		for _, v := range []float64{lo, hi} {
			if math.IsNaN(v) || v < -20 || v > 50 {
				continue
			}
			if m.TempMaxC == nil || v > *m.TempMaxC {
				x := v
				m.TempMaxC = &x
			}
			if m.TempMinC == nil || v < *m.TempMinC {
				x := v
				m.TempMinC = &x
			}
		}
	}
	// An explicit minimum overrides the scan.
	for _, g := range tempMinRe.findAll(t) {
		v := signed(g[1], g[2])
		if math.IsNaN(v) {
			continue
		}
		if m.TempMinC == nil || v < *m.TempMinC {
			x := v
			m.TempMinC = &x
		}
	}
	for _, g := range daysRe.findAll(t) {
		d := upper(g, 1)
		if d == 0 {
			d = upper(g, 3)
		}
		m.Days = math.Max(m.Days, d)
	}
}

func parseDrought(t textnorm.Text, m *Measurements) {
	for _, g := range deficitRe.findAll(t) {
		m.DeficitPct = math.Max(m.DeficitPct, upper(g, 1))
	}
	for _, g := range monthsRe.findAll(t) {
		v := upper(g, 1)
		if v == 0 {
			v = upper(g, 3)
		}
		m.DroughtMonths = math.Max(m.DroughtMonths, v)
	}
}

func parseSalinity(t textnorm.Text, m *Measurements) {
	for _, g := range salinityKMRe.findAll(t) {
		m.SalinityKM = math.Max(m.SalinityKM, upper(g, 1))
	}
	for _, g := range salinityPRe.findAll(t) {
		m.SalinityPermille = math.Max(m.SalinityPermille, upper(g, 1))
	}
}

func parseVisibility(t textnorm.Text, m *Measurements) {
	for _, g := range visibilityRe.findAll(t) {
		v := upper(g, 2)
		if g[4] == "km" {
			v *= 1000
		}
		// "dưới 50m" is strictly below 50m.
		if g[1] != "" {
			v = math.Nextafter(v, 0)
		}
		if m.VisibilityM == nil || v < *m.VisibilityM {
			m.VisibilityM = &v
		}
	}
}

func parseQuake(t textnorm.Text, m *Measurements) {
	for _, g := range magnitudeRe.findAll(t) {
		for _, s := range g[1:4] {
			if s == "" {
				continue
			}
			if v, ok := impact.ParseNumber(s); ok && v < 10 {
				m.Magnitude = math.Max(m.Magnitude, v)
			}
		}
	}
	for _, g := range mskRe.findAll(t) {
		lv := g[1]
		if lv == "" {
			lv = g[2]
		}
		m.MSK = max(m.MSK, parseLevel(lv))
	}
}

func parseWater(t textnorm.Text, m *Measurements) {
	for _, g := range waveRe.findAll(t) {
		m.WaveM = math.Max(m.WaveM, meters(upper(g, 1), g[3]))
	}
	for _, g := range surgeRe.findAll(t) {
		m.SurgeM = math.Max(m.SurgeM, meters(upper(g, 1), g[3]))
	}
}
