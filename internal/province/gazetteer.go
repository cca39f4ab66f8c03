package province

// Macro-region of a province. Storm and storm-surge tables differ by it.
type Macro string

const (
	MacroNorth        Macro = "bac_bo"
	MacroNorthCentral Macro = "bac_trung_bo"
	MacroMidCentral   Macro = "trung_trung_bo"
	MacroSouthCentral Macro = "nam_trung_bo"
	MacroHighlands    Macro = "tay_nguyen"
	MacroSouth        Macro = "nam_bo"
	MacroSea          Macro = "bien"
)

// Terrain drives the rainfall tables.
type Terrain string

const (
	TerrainMountain Terrain = "mountain"
	TerrainLowland  Terrain = "lowland"
)

// Coastal group for storm-surge thresholds.
type CoastGroup string

const (
	CoastQNTH   CoastGroup = "QN-TH"
	CoastNAHT   CoastGroup = "NA-HT"
	CoastQBTTH  CoastGroup = "QB-TTH"
	CoastDNBD   CoastGroup = "DN-BD"
	CoastPYNT   CoastGroup = "PY-NT"
	CoastBTVT   CoastGroup = "BT-VT"
	CoastHCMCM  CoastGroup = "HCM-CM"
	CoastCMKG   CoastGroup = "CM-KG"
	CoastInland CoastGroup = ""
)

type entry struct {
	name string
	lat  float64
	lon  float64

	aliases []string
	// prefixed aliases only count after an administrative word ("tỉnh",
	// "thành phố"), because they double as common words or person names.
	prefixed []string
	// plainPrefixed need the administrative word only in accent-stripped
	// text, where they collide with other words ("diễn biến").
	plainPrefixed []string

	macro   Macro
	terrain Terrain
	coast   CoastGroup
	mekong  bool
}

// provinces lists the 34 provincial units in force since July 2025. Aliases
// carry the pre-merger names each unit absorbed.
var provinces = []entry{
	{name: "Hà Nội", lat: 21.0285, lon: 105.8542, aliases: []string{`hà\s+nội`}, macro: MacroNorth, terrain: TerrainLowland},
	{name: "Huế", lat: 16.4637, lon: 107.5909, aliases: []string{`huế`, `thừa\s+thiên\s*[-–]?\s*huế`, `tt\s*[-–]\s*huế`}, macro: MacroNorthCentral, terrain: TerrainLowland, coast: CoastQBTTH},
	{name: "Lai Châu", lat: 22.3964, lon: 103.4582, aliases: []string{`lai\s+châu`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Điện Biên", lat: 21.3860, lon: 103.0230, plainPrefixed: []string{`điện\s+biên`}, aliases: []string{`điện\s+biên\s+phủ`, `mường\s+nhé`, `mường\s+chà`, `tủa\s+chùa`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Sơn La", lat: 21.3270, lon: 103.9141, aliases: []string{`sơn\s+la`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Lạng Sơn", lat: 21.8537, lon: 106.7615, aliases: []string{`lạng\s+sơn`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Quảng Ninh", lat: 21.0064, lon: 107.2925, aliases: []string{`quảng\s+ninh`, `hạ\s+long`, `cẩm\s+phả`, `móng\s+cái`, `cô\s+tô`, `vân\s+đồn`}, macro: MacroNorth, terrain: TerrainLowland, coast: CoastQNTH},
	{name: "Thanh Hóa", lat: 19.8067, lon: 105.7852, aliases: []string{`thanh\s+hóa`, `thanh\s+hoá`, `mường\s+lát`}, macro: MacroNorthCentral, terrain: TerrainLowland, coast: CoastQNTH},
	{name: "Nghệ An", lat: 18.6796, lon: 105.6813, aliases: []string{`nghệ\s+an`, `tương\s+dương`, `quế\s+phong`}, macro: MacroNorthCentral, terrain: TerrainLowland, coast: CoastNAHT},
	{name: "Hà Tĩnh", lat: 18.3559, lon: 105.8877, aliases: []string{`hà\s+tĩnh`}, macro: MacroNorthCentral, terrain: TerrainLowland, coast: CoastNAHT},
	{name: "Cao Bằng", lat: 22.6657, lon: 106.2579, aliases: []string{`cao\s+bằng`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Tuyên Quang", lat: 21.8233, lon: 105.2140, aliases: []string{`tuyên\s+quang`, `hà\s+giang`, `hoàng\s+su\s+phì`, `mèo\s+vạc`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Lào Cai", lat: 22.3380, lon: 104.1487, aliases: []string{`lào\s+cai`, `yên\s+bái`, `sa\s+pa`, `bát\s+xát`, `mù\s+cang\s+chải`, `làng\s+nủ`, `bảo\s+yên`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Thái Nguyên", lat: 21.5942, lon: 105.8482, aliases: []string{`thái\s+nguyên`, `bắc\s+kạn`, `bắc\s+cạn`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Phú Thọ", lat: 21.3227, lon: 105.4020, aliases: []string{`phú\s+thọ`, `việt\s+trì`}, prefixed: []string{`vĩnh\s+phúc`, `hòa\s+bình`, `hoà\s+bình`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Bắc Ninh", lat: 21.1861, lon: 106.0763, aliases: []string{`bắc\s+ninh`, `bắc\s+giang`}, macro: MacroNorth, terrain: TerrainLowland},
	{name: "Hưng Yên", lat: 20.6464, lon: 106.0511, aliases: []string{`hưng\s+yên`}, prefixed: []string{`thái\s+bình`}, macro: MacroNorth, terrain: TerrainLowland, coast: CoastQNTH},
	{name: "Hải Phòng", lat: 20.8449, lon: 106.6881, aliases: []string{`hải\s+phòng`, `hải\s+dương`, `bạch\s+long\s+vĩ`, `cát\s+hải`, `hp`}, macro: MacroNorth, terrain: TerrainLowland, coast: CoastQNTH},
	{name: "Ninh Bình", lat: 20.2506, lon: 105.9745, aliases: []string{`ninh\s+bình`, `nam\s+định`}, prefixed: []string{`hà\s+nam`}, macro: MacroNorth, terrain: TerrainLowland, coast: CoastQNTH},
	{name: "Quảng Trị", lat: 16.7500, lon: 107.1856, aliases: []string{`quảng\s+trị`, `quảng\s+bình`, `đồng\s+hới`, `hướng\s+hóa`, `cồn\s+cỏ`}, macro: MacroNorthCentral, terrain: TerrainLowland, coast: CoastQBTTH},
	{name: "Đà Nẵng", lat: 16.0544, lon: 108.2022, aliases: []string{`đà\s+nẵng`, `quảng\s+nam`, `hội\s+an`, `tam\s+kỳ`, `trà\s+my`, `phước\s+sơn`, `trà\s+leng`}, macro: MacroMidCentral, terrain: TerrainLowland, coast: CoastDNBD},
	{name: "Quảng Ngãi", lat: 15.1205, lon: 108.7923, aliases: []string{`quảng\s+ngãi`, `kon\s+tum`, `kontum`, `lý\s+sơn`, `sa\s+huỳnh`}, macro: MacroMidCentral, terrain: TerrainLowland, coast: CoastDNBD},
	{name: "Gia Lai", lat: 13.8079, lon: 108.1094, aliases: []string{`gia\s+lai`, `bình\s+định`, `quy\s+nhơn`, `pleiku`}, macro: MacroHighlands, terrain: TerrainMountain, coast: CoastDNBD},
	{name: "Khánh Hòa", lat: 12.2388, lon: 109.1967, aliases: []string{`khánh\s+hòa`, `khánh\s+hoà`, `nha\s+trang`, `ninh\s+thuận`, `phan\s+rang`, `khánh\s+vĩnh`}, macro: MacroSouthCentral, terrain: TerrainLowland, coast: CoastPYNT},
	{name: "Lâm Đồng", lat: 11.9404, lon: 108.4583, aliases: []string{`lâm\s+đồng`, `đà\s+lạt`, `bảo\s+lộc`, `đắk\s+nông`, `đăk\s+nông`, `bình\s+thuận`, `phan\s+thiết`, `phú\s+quý`}, macro: MacroHighlands, terrain: TerrainMountain, coast: CoastBTVT},
	{name: "Đắk Lắk", lat: 12.7100, lon: 108.2378, aliases: []string{`đắk\s+lắk`, `đăk\s+lăk`, `đắc\s+lắc`, `buôn\s+ma\s+thuột`, `phú\s+yên`, `tuy\s+hòa`}, macro: MacroHighlands, terrain: TerrainMountain, coast: CoastPYNT},
	{name: "TP Hồ Chí Minh", lat: 10.8231, lon: 106.6297, aliases: []string{`(?:tp\.?\s*|thành\s+phố\s+)?hồ\s+chí\s+minh`, `tp\.?\s*hcm`, `tphcm`, `hcm`, `sài\s+gòn`, `bà\s+rịa\s*[-–]?\s*vũng\s+tàu`, `br\s*[-–]\s*vt`, `vũng\s+tàu`, `côn\s+đảo`, `cần\s+giờ`}, prefixed: []string{`bình\s+dương`}, macro: MacroSouth, terrain: TerrainLowland, coast: CoastHCMCM},
	{name: "Đồng Nai", lat: 10.9574, lon: 106.8427, aliases: []string{`đồng\s+nai`, `bình\s+phước`, `biên\s+hòa`}, macro: MacroSouth, terrain: TerrainLowland},
	{name: "Tây Ninh", lat: 11.3101, lon: 106.0983, aliases: []string{`tây\s+ninh`}, prefixed: []string{`long\s+an`}, macro: MacroSouth, terrain: TerrainLowland, coast: CoastHCMCM, mekong: true},
	{name: "Cần Thơ", lat: 10.0452, lon: 105.7469, aliases: []string{`cần\s+thơ`, `sóc\s+trăng`, `hậu\s+giang`}, macro: MacroSouth, terrain: TerrainLowland, coast: CoastHCMCM, mekong: true},
	{name: "Vĩnh Long", lat: 10.2537, lon: 105.9722, aliases: []string{`vĩnh\s+long`, `bến\s+tre`, `trà\s+vinh`}, macro: MacroSouth, terrain: TerrainLowland, coast: CoastHCMCM, mekong: true},
	{name: "Đồng Tháp", lat: 10.4938, lon: 105.6882, aliases: []string{`đồng\s+tháp`, `tiền\s+giang`, `mỹ\s+tho`}, macro: MacroSouth, terrain: TerrainLowland, coast: CoastHCMCM, mekong: true},
	{name: "Cà Mau", lat: 9.1769, lon: 105.1500, aliases: []string{`cà\s+mau`, `bạc\s+liêu`}, macro: MacroSouth, terrain: TerrainLowland, coast: CoastHCMCM, mekong: true},
	{name: "An Giang", lat: 10.5216, lon: 105.1259, aliases: []string{`an\s+giang`, `kiên\s+giang`, `rạch\s+giá`, `phú\s+quốc`}, macro: MacroSouth, terrain: TerrainLowland, coast: CoastCMKG, mekong: true},
}

// regions are matched only when no province is named. More specific names
// come first so "Bắc Trung Bộ" is not read as "Trung Bộ".
var regions = []entry{
	{name: "Hoàng Sa", lat: 16.5, lon: 112.0, aliases: []string{`(?:quần\s+đảo\s+)?hoàng\s+sa`}, macro: MacroSea},
	{name: "Trường Sa", lat: 8.64, lon: 111.92, aliases: []string{`(?:quần\s+đảo\s+)?trường\s+sa`}, macro: MacroSea},
	{name: "Biển Đông", lat: 12.0, lon: 113.0, aliases: []string{`biển\s+đông`}, macro: MacroSea},
	{name: "Vịnh Bắc Bộ", lat: 20.0, lon: 107.5, aliases: []string{`vịnh\s+bắc\s+bộ`}, macro: MacroSea},
	{name: "Bắc Trung Bộ", lat: 18.0, lon: 106.0, aliases: []string{`bắc\s+trung\s+bộ`}, macro: MacroNorthCentral, terrain: TerrainLowland},
	{name: "Nam Trung Bộ", lat: 13.0, lon: 109.0, aliases: []string{`nam\s+trung\s+bộ`}, macro: MacroSouthCentral, terrain: TerrainLowland},
	{name: "Trung Trung Bộ", lat: 15.5, lon: 108.3, aliases: []string{`trung\s+trung\s+bộ`}, macro: MacroMidCentral, terrain: TerrainLowland},
	{name: "Đông Nam Bộ", lat: 11.0, lon: 106.8, aliases: []string{`đông\s+nam\s+bộ`}, macro: MacroSouth, terrain: TerrainLowland},
	{name: "Đồng bằng sông Cửu Long", lat: 10.0, lon: 105.8, aliases: []string{`đồng\s+bằng\s+sông\s+cửu\s+long`, `đbscl`, `miền\s+tây\s+nam\s+bộ`}, macro: MacroSouth, terrain: TerrainLowland, mekong: true},
	{name: "Tây Nguyên", lat: 12.7, lon: 108.0, aliases: []string{`tây\s+nguyên`}, macro: MacroHighlands, terrain: TerrainMountain},
	{name: "Tây Bắc", lat: 21.5, lon: 103.5, aliases: []string{`tây\s+bắc(?:\s+bộ)?`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Việt Bắc", lat: 22.0, lon: 105.8, aliases: []string{`việt\s+bắc`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Đông Bắc", lat: 21.8, lon: 106.8, aliases: []string{`đông\s+bắc\s+bộ`, `vùng\s+núi\s+đông\s+bắc`}, macro: MacroNorth, terrain: TerrainMountain},
	{name: "Bắc Bộ", lat: 21.0, lon: 105.8, aliases: []string{`bắc\s+bộ`, `miền\s+bắc`}, macro: MacroNorth, terrain: TerrainLowland},
	{name: "Trung Bộ", lat: 16.0, lon: 108.0, aliases: []string{`trung\s+bộ`, `miền\s+trung`}, macro: MacroMidCentral, terrain: TerrainLowland},
	{name: "Nam Bộ", lat: 10.5, lon: 106.0, aliases: []string{`nam\s+bộ`, `miền\s+nam`}, macro: MacroSouth, terrain: TerrainLowland},
}
