package hazard

import "github.com/couchcryptid/vn-hazard-radar/internal/domain"

// rule is the pattern table of one taxonomy label. Patterns are written for
// normalized (lowercase NFC) text; accent-stripped twins are derived from them.
// When guard is set, accent-stripped matches only count if the guard also
// matches the stripped text, so that short tokens like "bao" or "lu" need a
// disambiguating neighbour.
type rule struct {
	label    string
	patterns []string
	guard    string
}

var rules = []rule{
	{
		label: domain.HazardStorm,
		patterns: []string{
			`siêu\s+bão`,
			`bão\s+số\s+\d+`,
			`cơn\s+bão`,
			`(?:tâm|mắt|hoàn\s+lưu)\s+bão`,
			`bão\s+(?:mạnh|rất\s+mạnh|đổ\s+bộ|đang\s+(?:mạnh|di\s+chuyển|hướng))`,
			`áp\s+thấp\s+nhiệt\s+đới`,
			`atnđ`,
			`vùng\s+áp\s+thấp\s+trên\s+biển\s+đông`,
			`bão`,
		},
		guard: `bao\s+so\s+\d+|sieu\s+bao|con\s+bao|tam\s+bao|ap\s+thap|atnd|do\s+bo|gio\s+giat|cap\s+\d+`,
	},
	{
		label: domain.HazardQuakeTsunami,
		patterns: []string{
			`động\s+đất`,
			`rung\s+chấn`,
			`dư\s+chấn`,
			`sóng\s+thần`,
			`độ\s+richter`,
		},
	},
	{
		label: domain.HazardStormSurge,
		patterns: []string{
			`nước\s+dâng(?:\s+do\s+bão)?`,
			`triều\s+cường`,
			`nước\s+biển\s+dâng`,
			`sóng\s+tràn\s+(?:bờ|đê|kè)`,
		},
	},
	{
		label: domain.HazardFloodLandslide,
		patterns: []string{
			`lũ\s+(?:quét|ống|lụt|lớn|dâng|về|rừng)`,
			`ngập\s+(?:lụt|úng|sâu|nặng|cục\s+bộ)`,
			`sạt\s+lở(?:\s+đất)?`,
			`lở\s+đất`,
			`sụt\s+lún`,
			`vỡ\s+(?:đê|đập|bờ\s+bao)`,
			`tràn\s+đê`,
			`xả\s+lũ`,
			`mưa\s+(?:rất\s+|cực\s+)?(?:lớn|to)`,
			`đất\s+đá\s+(?:vùi\s+lấp|tràn)`,
			`đỉnh\s+lũ`,
			`báo\s+động\s+(?:[123]|i{1,3})`,
			`lũ`,
			`ngập`,
		},
		guard: `lu\s+(?:quet|ong|lut|lon|dang|ve)|ngap\s+(?:lut|ung|sau)|sat\s+lo|lo\s+dat|mua\s+(?:lon|to)|xa\s+lu|vo\s+de|bao\s+dong\s+[123]`,
	},
	{
		label: domain.HazardWildfire,
		patterns: []string{
			`cháy\s+rừng`,
			`(?:cấp\s+)?dự\s+báo\s+cháy\s+rừng`,
			`lửa\s+rừng`,
		},
	},
	{
		label: domain.HazardExtremeWeather,
		patterns: []string{
			`(?:dông|giông)\s+lốc`,
			`lốc\s+xoáy`,
			`vòi\s+rồng`,
			`sét\s+đánh`,
			`mưa\s+đá`,
			`rét\s+(?:đậm|hại)`,
			`băng\s+giá`,
			`sương\s+muối`,
			`lốc`,
		},
		guard: `(?:dong|giong)\s+loc|loc\s+xoay|voi\s+rong|set\s+danh|mua\s+da|ret\s+(?:dam|hai)|bang\s+gia|suong\s+muoi`,
	},
	{
		label: domain.HazardHeatDrought,
		patterns: []string{
			`nắng\s+nóng(?:\s+gay\s+gắt)?`,
			`hạn\s+hán`,
			`khô\s+hạn`,
			`hạn\s+mặn`,
			`xâm\s+nhập\s+mặn`,
			`nhiễm\s+mặn`,
			`thiếu\s+nước\s+(?:sinh\s+hoạt|tưới|sản\s+xuất)`,
		},
	},
	{
		label: domain.HazardWindFog,
		patterns: []string{
			`gió\s+(?:mạnh|giật)`,
			`sương\s+mù(?:\s+dày\s+đặc)?`,
			`không\s+khí\s+lạnh`,
			`gió\s+mùa\s+đông\s+bắc`,
		},
	},
	{
		label: domain.HazardMarine,
		patterns: []string{
			`tàu\s+cá\s+(?:bị\s+)?(?:chìm|mất\s+liên\s+lạc|gặp\s+nạn|trôi\s+dạt)`,
			`(?:chìm|lật)\s+(?:tàu|thuyền|ghe|sà\s+lan)`,
			`ngư\s+dân\s+(?:mất\s+tích|gặp\s+nạn|mất\s+liên\s+lạc)`,
			`biển\s+động(?:\s+mạnh)?`,
			`sóng\s+(?:biển\s+)?(?:cao|lớn|to)`,
		},
		guard: `tau\s+ca|ngu\s+dan|bien\s+dong|thuyen|ghe`,
	},
	{
		label: domain.HazardWarningForecast,
		patterns: []string{
			`(?:cảnh\s+báo|dự\s+báo|bản\s+tin|tin)\s+(?:[\p{L}\p{N}]+\s+){0,3}?(?:bão|áp\s+thấp|mưa|lũ|sạt\s+lở|nắng\s+nóng|rét|động\s+đất|sóng\s+thần|triều\s+cường|gió|thiên\s+tai|lốc|sét|mưa\s+đá)`,
			`rủi\s+ro\s+thiên\s+tai`,
			`công\s+điện\s+(?:khẩn|hỏa\s+tốc|về\s+việc)`,
			`trung\s+tâm\s+dự\s+báo\s+khí\s+tượng\s+thủy\s+văn`,
		},
	},
	{
		label: domain.HazardRecovery,
		patterns: []string{
			`khắc\s+phục\s+hậu\s+quả`,
			`tái\s+thiết`,
			`cứu\s+trợ`,
			`quyên\s+góp`,
			`ủng\s+hộ\s+(?:đồng\s+bào|người\s+dân)`,
			`hỗ\s+trợ\s+(?:người\s+dân\s+)?(?:vùng\s+)?(?:bão|lũ|thiên\s+tai)`,
			`sau\s+(?:bão|lũ|mưa\s+lũ)`,
		},
	},
}
