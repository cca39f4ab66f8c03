package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/province"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		prov    string
		overall int
		hazard  string
		level   int
	}{
		{
			name:    "declared level wins over computed storm level",
			text:    "Cấp độ rủi ro thiên tai cấp 4 do bão số 5, gió giật cấp 13",
			overall: 4,
			hazard:  Storm,
			level:   4,
		},
		{
			name:    "mountain heavy rain over one day",
			text:    "Lũ quét tại Lào Cai, mưa 300mm/24h, 5 người mất tích",
			overall: 3,
			hazard:  HeavyRain,
			level:   3,
		},
		{
			name:    "flash flood from the same rainfall",
			text:    "Lũ quét tại Lào Cai, mưa 300mm/24h, 5 người mất tích",
			overall: 3,
			hazard:  FlashFlood,
			level:   2,
		},
		{
			name:    "storm force 12 on the northern coast",
			text:    "Bão số 3 mạnh cấp 12, giật cấp 15, đổ bộ Quảng Ninh",
			overall: 4,
			hazard:  Storm,
			level:   4,
		},
		{
			name:    "tropical depression",
			text:    "Áp thấp nhiệt đới trên Biển Đông, sức gió mạnh nhất cấp 7, giật cấp 9",
			overall: 3,
			hazard:  Storm,
			level:   3,
		},
		{
			name:    "river above alarm 3 by more than a metre",
			text:    "Lũ trên sông Hồng tại Hà Nội lên trên báo động 3 là 1,2m",
			overall: 4,
			hazard:  Flood,
			level:   4,
		},
		{
			name:    "heatwave",
			text:    "Nắng nóng gay gắt ở Hà Nội, nhiệt độ cao nhất 40-41 độ C, kéo dài 4 ngày",
			overall: 3,
			hazard:  Heatwave,
			level:   3,
		},
		{
			name:    "severe cold",
			text:    "Rét hại, nhiệt độ thấp nhất ở vùng núi dưới 0 độ C, kéo dài 6 ngày",
			prov:    "Lào Cai",
			overall: 3,
			hazard:  Cold,
			level:   3,
		},
		{
			name:    "salinity in the mekong delta",
			text:    "Ranh mặn 4‰ xâm nhập sâu 60 km tại Cà Mau",
			overall: 3,
			hazard:  Salinity,
			level:   3,
		},
		{
			name:    "salinity on the central coast",
			text:    "Ranh mặn 4‰ xâm nhập sâu 60 km tại Quảng Ngãi",
			overall: 4,
			hazard:  Salinity,
			level:   4,
		},
		{
			name:    "earthquake magnitude",
			text:    "Động đất 5,2 độ richter tại Kon Tum",
			overall: 2,
			hazard:  Earthquake,
			level:   2,
		},
		{
			name:    "fog on a highway",
			text:    "Sương mù dày đặc trên cao tốc, tầm nhìn xa dưới 30 m",
			overall: 2,
			hazard:  Fog,
			level:   2,
		},
		{
			name:    "fog stated as below the band edge",
			text:    "Sương mù dày đặc vùng núi, tầm nhìn dưới 50m",
			overall: 1,
			hazard:  Fog,
			level:   1,
		},
		{
			name:    "48 hour rainfall in the lowland",
			text:    "Mưa lớn tại Hà Tĩnh, lượng mưa 250-300mm trong 48 giờ",
			overall: 1,
			hazard:  HeavyRain,
			level:   1,
		},
		{
			name:    "monsoon wind at sea",
			text:    "Vịnh Bắc Bộ có gió mạnh cấp 6, giật cấp 8, biển động",
			overall: 1,
			hazard:  SeaWind,
			level:   1,
		},
		{
			name:    "forest fire grade V",
			text:    "Cấp dự báo cháy rừng ở cấp V (cực kỳ nguy hiểm) tại Lâm Đồng",
			overall: 4,
			hazard:  Wildfire,
			level:   4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(tt.text, tt.prov)
			assert.Equal(t, tt.overall, a.Overall)
			var got int
			for _, h := range a.Hazards {
				if h.Hazard == tt.hazard {
					got = h.Level
				}
			}
			assert.Equal(t, tt.level, got, "hazards: %+v", a.Hazards)
		})
	}
}

func TestAssessWithoutMeasurements(t *testing.T) {
	a := Assess("Cơn bão giá cuối năm: chứng khoán lao dốc", "")
	assert.Zero(t, a.Overall)
	assert.Empty(t, a.Hazards)
}

func TestDeclared(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Cấp độ rủi ro thiên tai cấp 4 do bão số 5", 4},
		{"Rủi ro thiên tai do lũ, ngập lụt cấp 3", 3},
		{"Cảnh báo cấp độ 2 rủi ro thiên tai do nắng nóng", 2},
		{"cap do rui ro thien tai cap 4", 4},
		{"Bão số 5 mạnh cấp 11", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Declared(tt.text))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("wind", func(t *testing.T) {
		m := Parse("Sức gió mạnh nhất vùng gần tâm bão mạnh cấp 10-11, giật cấp 13")
		assert.Equal(t, 11, m.Sustained)
		assert.Equal(t, 13, m.Gust)
	})
	t.Run("gust only", func(t *testing.T) {
		m := Parse("Bão số 5, gió giật cấp 13")
		assert.Zero(t, m.Sustained)
		assert.Equal(t, 11, m.SustainedOrDerived())
	})
	t.Run("wind speed", func(t *testing.T) {
		m := Parse("Gió đạt 120 km/h tại đảo")
		assert.Equal(t, 12, m.Sustained)
	})
	t.Run("rain per day", func(t *testing.T) {
		m := Parse("Lượng mưa phổ biến 100-200mm, có nơi trên 350mm")
		assert.InDelta(t, 350, m.RainMM, 0.001)
	})
	t.Run("surge in centimetres", func(t *testing.T) {
		m := Parse("Nước dâng do bão cao 80 cm")
		assert.InDelta(t, 0.8, m.SurgeM, 0.001)
	})
	t.Run("visibility upper bound is strict", func(t *testing.T) {
		m := Parse("Sương mù, tầm nhìn không quá 50m")
		require.NotNil(t, m.VisibilityM)
		assert.Less(t, *m.VisibilityM, 50.0)
		assert.InDelta(t, 50, *m.VisibilityM, 0.001)

		m = Parse("Sương mù, tầm nhìn xa 1,5 km")
		require.NotNil(t, m.VisibilityM)
		assert.InDelta(t, 1500, *m.VisibilityM, 0.001)
	})
	t.Run("below alarm", func(t *testing.T) {
		m := Parse("Mực nước sông Cả dưới báo động 2")
		assert.Equal(t, 1, m.AlarmLevel)
	})
	t.Run("msk", func(t *testing.T) {
		m := Parse("Chấn động cấp VII theo thang MSK-64")
		assert.Equal(t, 7, m.MSK)
	})
	t.Run("nothing", func(t *testing.T) {
		assert.False(t, Parse("Giá vàng tăng mạnh hôm nay").Any())
	})
}

func TestHasMeasurement(t *testing.T) {
	assert.True(t, HasMeasurement("mưa 120mm trong 24 giờ"))
	assert.True(t, HasMeasurement("lũ trên báo động 2"))
	assert.False(t, HasMeasurement("cháy nhà dân trong đêm"))
}

func TestStormLevel(t *testing.T) {
	sea := province.ZoneOf("Biển Đông")
	coast := province.ZoneOf("Quảng Ninh")
	southInland := province.ZoneOf("Đồng Nai")
	northInland := province.ZoneOf("Lào Cai")

	tests := []struct {
		name     string
		beaufort int
		zone     province.Zone
		want     int
	}{
		{"below depression", 5, coast, 0},
		{"depression", 7, sea, 3},
		{"force 9", 9, southInland, 3},
		{"force 10 at sea", 10, sea, 3},
		{"force 10 on the coast", 10, coast, 4},
		{"force 12 at sea", 12, sea, 4},
		{"force 13 inland north", 13, northInland, 4},
		{"force 13 inland south", 13, southInland, 5},
		{"super typhoon", 16, sea, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StormLevel(tt.beaufort, tt.zone))
		})
	}
}

func TestHeavyRainLevel(t *testing.T) {
	mountain := province.ZoneOf("Lào Cai")
	lowland := province.ZoneOf("Hà Nội")

	assert.Equal(t, 0, HeavyRainLevel(90, 1, lowland))
	assert.Equal(t, 1, HeavyRainLevel(100, 1, lowland))
	assert.Equal(t, 3, HeavyRainLevel(300, 1, mountain))
	assert.Equal(t, 4, HeavyRainLevel(300, 3, mountain))
	assert.Equal(t, 4, HeavyRainLevel(450, 5, lowland))
	assert.Equal(t, 3, HeavyRainLevel(150, 6, lowland))
}

func TestFloodLevel(t *testing.T) {
	north := province.ZoneOf("Hà Nội")
	south := province.ZoneOf("An Giang")

	assert.Equal(t, 1, FloodLevel(1, 0, false, north))
	assert.Equal(t, 2, FloodLevel(2, 0.3, false, north))
	assert.Equal(t, 3, FloodLevel(3, 1, false, north))
	assert.Equal(t, 4, FloodLevel(3, 1.2, false, north))
	assert.Equal(t, 5, FloodLevel(0, 0, true, north))
	assert.Equal(t, 4, FloodLevel(0, 0, true, south))
}

func TestTemperatureLevels(t *testing.T) {
	assert.Equal(t, 0, HeatLevel(34, 5))
	assert.Equal(t, 1, HeatLevel(36, 10))
	assert.Equal(t, 2, HeatLevel(39.5, 4))
	assert.Equal(t, 4, HeatLevel(41, 6))

	assert.Equal(t, 0, ColdLevel(14, 3))
	assert.Equal(t, 1, ColdLevel(10, 2))
	assert.Equal(t, 2, ColdLevel(5, 4))
	assert.Equal(t, 3, ColdLevel(-1, 6))
}

func TestDroughtLevel(t *testing.T) {
	assert.Equal(t, 1, DroughtLevel(25, 2))
	assert.Equal(t, 3, DroughtLevel(55, 5))
	assert.Equal(t, 4, DroughtLevel(80, 6))
	assert.Equal(t, 2, DroughtLevel(0, 4))
	assert.Equal(t, 0, DroughtLevel(0, 1))
}

func TestQuakeAndTsunamiLevels(t *testing.T) {
	assert.Equal(t, 0, QuakeLevel(3.9, 0))
	assert.Equal(t, 1, QuakeLevel(4, 0))
	assert.Equal(t, 3, QuakeLevel(5.5, 0))
	assert.Equal(t, 5, QuakeLevel(7.1, 0))
	assert.Equal(t, 3, QuakeLevel(4.2, 8))
	assert.Equal(t, 5, QuakeLevel(0, 11))

	assert.Equal(t, 3, TsunamiLevel(1, 0))
	assert.Equal(t, 4, TsunamiLevel(3, 0))
	assert.Equal(t, 5, TsunamiLevel(4, 0))
	assert.Equal(t, 4, TsunamiLevel(0, 7.8))
	assert.Equal(t, 0, TsunamiLevel(0, 6))
}

func TestStormSurgeLevel(t *testing.T) {
	tests := []struct {
		prov   string
		height float64
		want   int
	}{
		{"Quảng Ninh", 2.5, 3},
		{"Quảng Ninh", 1.5, 2},
		{"Nghệ An", 4.2, 5},
		{"Huế", 0.6, 2},
		{"Huế", 0.3, 0},
		{"Huế", 2.1, 4},
		{"An Giang", 0.6, 3},
		{"An Giang", 2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.prov, func(t *testing.T) {
			assert.Equal(t, tt.want, StormSurgeLevel(tt.height, province.ZoneOf(tt.prov)))
		})
	}
}

func TestSalinityAndWindLevels(t *testing.T) {
	mekong := province.ZoneOf("Vĩnh Long")
	other := province.ZoneOf("Quảng Trị")
	assert.Equal(t, 0, SalinityLevel(12, mekong))
	assert.Equal(t, 1, SalinityLevel(12, other))
	assert.Equal(t, 4, SalinityLevel(95, mekong))

	assert.Equal(t, 1, SeaWindLevel(7, false))
	assert.Equal(t, 3, SeaWindLevel(8, true))
	assert.Equal(t, 0, SeaWindLevel(5, true))
}

func TestBeaufort(t *testing.T) {
	require.Equal(t, 0, Beaufort(0.1))
	assert.Equal(t, 6, Beaufort(12))
	assert.Equal(t, 12, Beaufort(33.3))
	assert.Equal(t, 18, Beaufort(70))
	assert.Equal(t, 1, WildfireLevel(2))
	assert.Equal(t, 0, WildfireLevel(1))
	assert.Equal(t, 2, FogLevel(10, true))
	assert.Equal(t, 2, ConvectiveLevel(true))
}
