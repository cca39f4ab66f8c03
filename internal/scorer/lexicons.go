package scorer

import "github.com/couchcryptid/vn-hazard-radar/internal/textnorm"

// vip matches official emergency-dispatch wording. An article carrying one
// is approved outright and lifts its event to full confidence.
var vip = textnorm.MustPairs(
	`tin\s+(?:bão|áp\s+thấp\s+nhiệt\s+đới)\s+khẩn\s+cấp`,
	`bản\s+tin\s+(?:bão|áp\s+thấp\s+nhiệt\s+đới|atnđ)\s+(?:khẩn\s+cấp|gần\s+bờ|trên\s+đất\s+liền|cuối\s+cùng)`,
	`tin\s+(?:bão|áp\s+thấp\s+nhiệt\s+đới)\s+(?:gần\s+bờ|trên\s+đất\s+liền)`,
	`công\s+điện\s+(?:khẩn|hỏa\s+tốc|hoả\s+tốc)`,
	`rủi\s+ro\s+thiên\s+tai(?:\s+do\s+[^\d:]{1,40})?\s*:?\s*(?:là\s+|ở\s+)?cấp(?:\s+độ)?\s+[45]`,
	`cấp\s+độ\s+[45]\s+(?:về\s+)?rủi\s+ro\s+thiên\s+tai`,
	`(?:ban\s+bố|công\s+bố)\s+(?:tình\s+trạng\s+)?khẩn\s+cấp`,
	`tình\s+trạng\s+khẩn\s+cấp\s+(?:về\s+)?(?:thiên\s+tai|sạt\s+lở|đê\s+điều|lũ|bão)`,
	`vỡ\s+(?:đê|đập|hồ\s+chứa)`,
	`sự\s+cố\s+(?:vỡ\s+)?(?:đê|đập|hồ\s+chứa)`,
)

// sensitive matches places where a hazard is newsworthy on its own: dams and
// reservoirs, mountain passes, islands and districts with a history of deadly
// flash floods.
var sensitive = textnorm.MustPairs(
	`(?:hồ|đập)\s+thủy\s+(?:điện|lợi)`,
	`nhà\s+máy\s+thủy\s+điện`,
	`thủy\s+điện\s+(?:hòa\s+bình|sơn\s+la|lai\s+châu|thác\s+bà|tuyên\s+quang|a\s+vương|sông\s+tranh|rào\s+trăng|hủa\s+na|bản\s+vẽ|trị\s+an|yaly)`,
	`hồ\s+chứa\s+nước`,
	`đèo\s+(?:hải\s+vân|ô\s+quy\s+hồ|khánh\s+lê|bảo\s+lộc|prenn|mã\s+pí\s+lèng|cù\s+mông|ngang|lò\s+xo|le|khau\s+phạ|pha\s+đin|lũng\s+lô|cả)`,
	`(?:huyện\s+|đặc\s+khu\s+)?đảo\s+(?:lý\s+sơn|cồn\s+cỏ|cô\s+tô|bạch\s+long\s+vĩ|phú\s+quý|côn\s+đảo|phú\s+quốc)`,
	`quần\s+đảo\s+(?:hoàng\s+sa|trường\s+sa)`,
	`trà\s+leng`,
	`làng\s+nủ`,
	`rào\s+trăng`,
	`(?:nam|bắc)\s+trà\s+my`,
	`mường\s+lát`,
	`mù\s+cang\s+chải`,
	`bát\s+xát`,
	`hướng\s+hóa`,
	`quế\s+phong`,
	`tương\s+dương`,
)

// VIP reports the first VIP dispatch phrase in text.
func VIP(t textnorm.Text) (string, bool) { return textnorm.FirstMatch(vip, t) }

// Sensitive reports the first sensitive location named in text.
func Sensitive(t textnorm.Text) (string, bool) { return textnorm.FirstMatch(sensitive, t) }
