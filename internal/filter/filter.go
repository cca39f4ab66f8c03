// Package filter suppresses non-disaster usages of hazard vocabulary:
// financial and entertainment metaphors, everyday accidents and ceremony
// coverage.
package filter

import (
	"regexp"

	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// Tier names a filter list.
type Tier string

const (
	TierAbsolute    Tier = "absolute_veto"
	TierConditional Tier = "conditional_veto"
	TierSoft        Tier = "soft_negative"
)

var absoluteVeto = textnorm.MustPairs(
	// markets and prices
	`(?:cơn\s+)?bão\s+(?:giá|giá\s+cả|lạm\s+phát|thị\s+trường|chứng\s+khoán|tiền\s+tệ|sa\s+thải|đầu\s+tư)`,
	`(?:cơn\s+)?bão\s+(?:sale|khuyến\s+mãi|giảm\s+giá|đơn\s+hàng|hàng\s+hiệu|deal|voucher)`,
	`siêu\s+bão\s+(?:giảm\s+giá|sale|khuyến\s+mãi|hàng\s+hiệu)`,
	`bão\s+táp\s+(?:thị\s+trường|dư\s+luận|tài\s+chính)`,
	`sóng\s+thần\s+(?:sa\s+thải|giảm\s+giá|bán\s+tháo|công\s+nghệ|ai|khởi\s+nghiệp)`,
	`làn\s+sóng\s+(?:sa\s+thải|đầu\s+tư|tẩy\s+chay|covid|dịch|k-?pop|di\s+cư|tăng\s+giá)`,
	`đóng\s+băng\s+(?:thị\s+trường|tài\s+khoản|bất\s+động\s+sản|tín\s+dụng)`,
	`(?:động\s+đất|rung\s+chấn|địa\s+chấn)\s+(?:thị\s+trường|chứng\s+khoán|showbiz|làng\s+giải\s+trí|sân\s+cỏ|chính\s+trường)`,
	// opinion and entertainment
	`(?:cơn\s+)?bão\s+(?:like|view|comment|tin\s+đồn|dư\s+luận|mạng|chỉ\s+trích|showbiz|sân\s+cỏ|giải\s+trí|lòng|cảm\s+xúc|tình)`,
	`(?:tâm\s+bão|giữa\s+bão)\s+(?:dư\s+luận|tranh\s+cãi|chỉ\s+trích|scandal|thị\s+phi|drama)`,
	`(?:phim|mv|album|game|truyện|tiểu\s+thuyết)\s+(?:bão|lũ|sóng\s+thần|động\s+đất)`,
	`mưa\s+(?:bàn\s+thắng|gạch\s+đá|lời\s+khen|quà|tiền|like)`,
	`hạn\s+hán\s+(?:bàn\s+thắng|danh\s+hiệu|ý\s+tưởng)`,
	`cháy\s+(?:vé|hàng|show|túi|phố|máy|hết\s+vé)`,
	`lũ\s+(?:lượt|fan|người\s+hâm\s+mộ|trẻ|bạn|chúng\s+mày)`,
	`sóng\s+gió\s+(?:cuộc\s+đời|hôn\s+nhân|showbiz|sự\s+nghiệp|tình\s+cảm)`,
	// telecom and tech
	`sóng\s+(?:wifi|wi-fi|4g|5g|3g|điện\s+thoại|di\s+động|radio|truyền\s+hình|fm|vô\s+tuyến|âm)`,
	`(?:mất|yếu|bắt)\s+sóng`,
	`cơn\s+sốt\s+(?:đất|giá|vàng)`,
)

var conditionalVeto = textnorm.MustPairs(
	// urban fires
	`cháy\s+(?:nhà|chung\s+cư|quán|karaoke|xưởng|kho|cửa\s+hàng|xe|ô\s+tô|chợ|công\s+ty|nhà\s+máy|tiệm|phòng\s+trọ)`,
	`hỏa\s+hoạn`,
	`phòng\s+cháy\s+chữa\s+cháy`,
	// traffic
	`tai\s+nạn\s+giao\s+thông`,
	`va\s+chạm\s+(?:giao\s+thông|giữa|với\s+xe)`,
	`(?:tông|đâm)\s+(?:xe|vào|trực\s+diện)`,
	`xe\s+(?:tải|khách|container|máy|con)\s+(?:lật|tông|đâm|lao)`,
	// drowning while swimming
	`đuối\s+nước\s+khi\s+(?:tắm|bơi)`,
	`(?:tắm|bơi)\s+(?:sông|suối|biển|hồ|ao)`,
	`đi\s+bơi`,
	// routine infrastructure work
	`(?:cắt|ngừng\s+cung\s+cấp|tạm\s+ngừng\s+cấp)\s+(?:điện|nước)`,
	`bảo\s+trì`,
	`sửa\s+chữa\s+(?:đường|cầu|cống|lưới\s+điện)`,
	`vỡ\s+(?:ống|đường\s+ống)\s+(?:nước|cấp\s+nước)`,
	`thi\s+công\s+(?:công\s+trình|dự\s+án)`,
)

var softNegative = textnorm.MustPairs(
	`kỳ\s+họp`,
	`phiên\s+họp`,
	`nghị\s+quyết`,
	`hội\s+nghị`,
	`hội\s+thảo`,
	`tổng\s+kết`,
	`sơ\s+kết`,
	`lễ\s+(?:ra\s+mắt|khai\s+mạc|bế\s+mạc|trao|phát\s+động|ký\s+kết)`,
	`diễn\s+tập`,
	`tập\s+huấn`,
	`quy\s+hoạch`,
	`triển\s+khai\s+nhiệm\s+vụ`,
)

// Verdict holds the first match of each tier.
type Verdict struct {
	AbsoluteVeto    string `json:"absolute_veto,omitempty"`
	ConditionalVeto string `json:"conditional_veto,omitempty"`
	SoftNegative    string `json:"soft_negative,omitempty"`
}

// Absolute reports whether the text must be rejected outright.
func (v Verdict) Absolute() bool { return v.AbsoluteVeto != "" }

// Conditional reports whether the text is rejected unless it carries a
// concrete hazard measurement or impact figure.
func (v Verdict) Conditional() bool { return v.ConditionalVeto != "" }

// Soft reports whether weak matches should be held below the threshold.
func (v Verdict) Soft() bool { return v.SoftNegative != "" }

// Evaluate runs the three tiers in order.
func Evaluate(text string) Verdict {
	return EvaluateText(textnorm.New(text))
}

// EvaluateText is Evaluate for an already normalized text.
func EvaluateText(t textnorm.Text) Verdict {
	var v Verdict
	v.AbsoluteVeto, _ = textnorm.FirstMatch(absoluteVeto, t)
	v.ConditionalVeto, _ = textnorm.FirstMatch(conditionalVeto, t)
	v.SoftNegative, _ = textnorm.FirstMatch(softNegative, t)
	return v
}

// Mask blanks out every absolute-veto phrase so that the hazard words inside
// a metaphor ("bão" in "bão giá") do not count as hazard signals.
func Mask(t textnorm.Text) textnorm.Text {
	norm := t.Norm
	for _, p := range absoluteVeto {
		norm = maskAll(p.Accent, norm)
	}
	if !t.Accented() {
		plain := t.Plain
		for _, p := range absoluteVeto {
			plain = maskAll(p.Plain, plain)
		}
		return textnorm.Text{Raw: t.Raw, Norm: norm, Plain: plain}
	}
	return textnorm.Text{Raw: t.Raw, Norm: norm, Plain: textnorm.StripAccents(norm)}
}

func maskAll(re *regexp.Regexp, s string) string {
	for {
		loc := re.FindStringSubmatchIndex(s)
		if loc == nil || loc[3] <= loc[2] {
			return s
		}
		blank := make([]byte, loc[3]-loc[2])
		for i := range blank {
			blank[i] = ' '
		}
		s = s[:loc[2]] + string(blank) + s[loc[3]:]
	}
}
