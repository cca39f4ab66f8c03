package risk

import "github.com/couchcryptid/vn-hazard-radar/internal/province"

// Measurement bands include their lower bound, so a reading on a boundary
// belongs to the higher band. Minimum temperatures are the exception: a band
// includes its upper bound.

// durationColumn maps a rain duration in days to a table column: 0 for up to
// 2 days (or unstated), 1 for up to mid days, 2 beyond.
func durationColumn(days, mid float64) int {
	switch {
	case days <= 2:
		return 0
	case days <= mid:
		return 1
	default:
		return 2
	}
}

// StormLevel maps the sustained Beaufort force near the centre of a tropical
// depression or storm to a risk level:
//   - force 6-9: 3 everywhere
//   - force 10-11: 3 at sea, 4 on the coast and inland
//   - force 12-15: 4 at sea, on the coast and inland in the north; 5 inland in the south
//   - force 16 and above: 5
//
// A zone with no macro region is treated as coastal.
func StormLevel(beaufort int, z province.Zone) int {
	switch {
	case beaufort < 6:
		return 0
	case beaufort <= 9:
		return 3
	case beaufort <= 11:
		if z.Sea() {
			return 3
		}
		return 4
	case beaufort <= 15:
		if z.Sea() || z.Coastal() || z.Northern() || z.Macro == "" {
			return 4
		}
		return 5
	default:
		return 5
	}
}

// HeavyRainLevel maps the 24h rainfall and its duration to a risk level. Rows
// are 100-200mm, 200-400mm and over 400mm; columns are 1-2, 2-4 and over 4
// days. Mountain provinces sit one band higher.
func HeavyRainLevel(mm24 float64, days float64, z province.Zone) int {
	row := -1
	switch {
	case mm24 >= 400:
		row = 2
	case mm24 >= 200:
		row = 1
	case mm24 >= 100:
		row = 0
	}
	if row < 0 {
		return 0
	}
	lowland := [3][3]int{
		{1, 2, 3},
		{2, 3, 4},
		{3, 4, 4},
	}
	mountain := [3][3]int{
		{2, 3, 4},
		{3, 4, 4},
		{4, 4, 4},
	}
	col := durationColumn(days, 4)
	if z.Mountain() {
		return mountain[row][col]
	}
	return lowland[row][col]
}

// FloodLevel maps a river alarm reading to a risk level: between alarm 1 and
// 2 is 1, between 2 and 3 is 2, from alarm 3 up to 1m above it is 3, more than
// 1m above alarm 3 is 4. A historic flood is 5 in the north and 4 elsewhere.
func FloodLevel(alarm int, excessM float64, historic bool, z province.Zone) int {
	if historic {
		if z.Northern() {
			return 5
		}
		return 4
	}
	switch {
	case alarm >= 3 && excessM > 1:
		return 4
	case alarm >= 3:
		return 3
	case alarm == 2:
		return 2
	case alarm == 1:
		return 1
	default:
		return 0
	}
}

// FlashFloodLevel maps 24h rainfall to the flash flood and landslide risk in
// mountain areas: 100-200mm is 1, 200-400mm is 2, over 400mm is 3. Lowland
// rainfall alone does not raise it.
func FlashFloodLevel(mm24 float64, z province.Zone) int {
	if !z.Mountain() {
		return 0
	}
	switch {
	case mm24 >= 400:
		return 3
	case mm24 >= 200:
		return 2
	case mm24 >= 100:
		return 1
	default:
		return 0
	}
}

// HeatLevel maps the maximum temperature and the length of the heatwave
// (under 3, 3-5, over 5 days) to a risk level.
func HeatLevel(tmax float64, days float64) int {
	var row [3]int
	switch {
	case tmax >= 41:
		row = [3]int{2, 3, 4}
	case tmax >= 39:
		row = [3]int{1, 2, 3}
	case tmax >= 37:
		row = [3]int{1, 1, 2}
	case tmax >= 35:
		row = [3]int{1, 1, 1}
	default:
		return 0
	}
	return row[tempColumn(days)]
}

// ColdLevel maps the minimum temperature and the length of the cold spell
// (under 3, 3-5, over 5 days) to a risk level.
func ColdLevel(tmin float64, days float64) int {
	var row [3]int
	switch {
	case tmin <= 0:
		row = [3]int{2, 3, 3}
	case tmin <= 8:
		row = [3]int{1, 2, 3}
	case tmin <= 13:
		row = [3]int{1, 1, 2}
	default:
		return 0
	}
	return row[tempColumn(days)]
}

func tempColumn(days float64) int {
	switch {
	case days < 3:
		return 0
	case days <= 5:
		return 1
	default:
		return 2
	}
}

// DroughtLevel uses the water deficit when stated (20% is 1, 50% is 2, 70% is
// 3, one more when it lasts five months or longer, at most 4), otherwise the
// number of months without rain (2 is 1, 4 is 2, 6 is 3).
func DroughtLevel(deficitPct, months float64) int {
	if deficitPct > 0 {
		lv := 0
		switch {
		case deficitPct >= 70:
			lv = 3
		case deficitPct >= 50:
			lv = 2
		case deficitPct >= 20:
			lv = 1
		}
		if lv > 0 && months >= 5 {
			lv++
		}
		return min(lv, 4)
	}
	switch {
	case months >= 6:
		return 3
	case months >= 4:
		return 2
	case months >= 2:
		return 1
	default:
		return 0
	}
}

// SalinityLevel maps how far the 4‰ salinity boundary reaches inland. The
// Mekong delta thresholds are 15, 25, 50 and 90km; elsewhere 10, 15, 25 and
// 50km.
func SalinityLevel(km float64, z province.Zone) int {
	bounds := [4]float64{10, 15, 25, 50}
	if z.Mekong {
		bounds = [4]float64{15, 25, 50, 90}
	}
	lv := 0
	for i, b := range bounds {
		if km >= b {
			lv = i + 1
		}
	}
	return lv
}

// SeaWindLevel maps strong monsoon wind: force 6-7 is 1 at sea and 2 on the
// coast, force 8 and above is 2 at sea and 3 on the coast.
func SeaWindLevel(beaufort int, coast bool) int {
	switch {
	case beaufort >= 8 && coast:
		return 3
	case beaufort >= 8:
		return 2
	case beaufort >= 6 && coast:
		return 2
	case beaufort >= 6:
		return 1
	default:
		return 0
	}
}

// FogLevel is 1 for dense fog below 50m visibility, 2 when it affects
// highways, airports or sea ports.
func FogLevel(visibilityM float64, transport bool) int {
	if visibilityM >= 50 {
		return 0
	}
	if transport {
		return 2
	}
	return 1
}

// ConvectiveLevel covers lightning, whirlwind and hail: 1, or 2 when
// widespread.
func ConvectiveLevel(widespread bool) int {
	if widespread {
		return 2
	}
	return 1
}

// WildfireLevel maps the forest fire danger grade I-V to risk 0-4.
func WildfireLevel(danger int) int {
	if danger < 1 {
		return 0
	}
	return min(danger-1, 4)
}

// QuakeLevel takes the higher of the magnitude band (4, 5, 5.5, 6, 7) and the
// MSK-64 intensity band (VI to X).
func QuakeLevel(magnitude float64, msk int) int {
	byMag := 0
	switch {
	case magnitude >= 7:
		byMag = 5
	case magnitude >= 6:
		byMag = 4
	case magnitude >= 5.5:
		byMag = 3
	case magnitude >= 5:
		byMag = 2
	case magnitude >= 4:
		byMag = 1
	}
	byMSK := 0
	switch {
	case msk >= 10:
		byMSK = 5
	case msk >= 6:
		byMSK = msk - 5
	}
	return max(byMag, byMSK)
}

// TsunamiLevel uses the wave height at the coast (under 2m is 3, 2-4m is 4,
// 4m and above is 5), or the source magnitude (6.5, 7.5, 8) when no height is
// given.
func TsunamiLevel(waveM, magnitude float64) int {
	if waveM > 0 {
		switch {
		case waveM >= 4:
			return 5
		case waveM >= 2:
			return 4
		default:
			return 3
		}
	}
	switch {
	case magnitude >= 8:
		return 5
	case magnitude >= 7.5:
		return 4
	case magnitude >= 6.5:
		return 3
	default:
		return 0
	}
}

// surgeThresholds are the surge heights (m) at which each coastal group
// reaches risk levels 3, 4 and 5.
var surgeThresholds = map[province.CoastGroup][3]float64{
	province.CoastQNTH:  {2, 3, 4},
	province.CoastNAHT:  {2, 3, 4},
	province.CoastQBTTH: {1, 2, 3},
	province.CoastDNBD:  {1, 2, 3},
	province.CoastPYNT:  {1, 2, 3},
	province.CoastBTVT:  {1, 2, 3},
	province.CoastHCMCM: {1, 2, 3},
	province.CoastCMKG:  {0.5, 1, 2},
}

// StormSurgeLevel maps surge height to a risk level for the coastal group of
// the zone. Below the level 3 threshold a surge of 0.5m or more is 2. Zones
// outside every group use the central coast thresholds.
func StormSurgeLevel(heightM float64, z province.Zone) int {
	th, ok := surgeThresholds[z.Coast]
	if !ok {
		th = surgeThresholds[province.CoastQBTTH]
	}
	switch {
	case heightM >= th[2]:
		return 5
	case heightM >= th[1]:
		return 4
	case heightM >= th[0]:
		return 3
	case heightM >= 0.5:
		return 2
	default:
		return 0
	}
}
