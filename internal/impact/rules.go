package impact

import (
	"regexp"
	"strings"

	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

type class int

const (
	classDeaths class = iota
	classMissing
	classInjured
	classDamage
	classAgriculture
	classMarine
	classDisruption
)

const (
	lb     = `(?:^|[^\p{L}\p{N}_])`
	rb     = `(?:[^\p{L}\p{N}_]|$)`
	filler = `(?:\s+[^\s\d,]+){0,4}?`
	human  = `(?:người\s+dân|người|nạn\s+nhân|ngư\s+dân|thuyền\s+viên|em|cháu|học\s+sinh|công\s+nhân|chiến\s+sĩ|cán\s+bộ|du\s+khách|trẻ\s+em|phụ\s+nữ|thợ|lao\s+động)`
)

const (
	deathTrig   = `(?:chết|tử\s+vong|thiệt\s+mạng|tử\s+nạn)`
	missingTrig = `(?:mất\s+tích|mất\s+liên\s+lạc)`
	injuredTrig = `(?:bị\s+thương(?:\s+(?:nặng|nhẹ))?|thương\s+tích)`
	houseTrig   = `(?:tốc\s+mái|đổ\s+sập|sập\s+đổ|sập|hư\s+hỏng|hư\s+hại|ngập|cuốn\s+trôi|vùi\s+lấp|thiệt\s+hại|sạt\s+lở|đổ|cháy)`
	houseUnit   = `(?P<u>ngôi\s+nhà|căn\s+nhà|nhà\s+dân|nhà\s+ở|nhà|hộ\s+dân|hộ|căn|ngôi|phòng\s+học|trường\s+học|điểm\s+trường|công\s+trình)`
	agriUnit    = `(?P<u>ha|héc\s*-?\s*ta|hecta|tấn|kg|con|lồng\s+bè|lồng|bè|sào)`
	marineUnit  = `(?P<u>tàu\s+cá|tàu\s+thuyền|tàu|ghe|thuyền\s+viên|thuyền|xuồng|sà\s+lan|phương\s+tiện|ngư\s+dân)`
	marineTrig  = `(?:chìm|đắm|lật|mất\s+liên\s+lạc|gặp\s+nạn|hư\s+hỏng|trôi\s+dạt|trôi|mắc\s+cạn|va\s+đập|mất\s+tích|bị\s+sóng\s+đánh)`
	evacTrig    = `(?:sơ\s+tán|di\s+dời|di\s+tản|cô\s+lập|chia\s+cắt)`
	evacUnit    = `(?P<u>hộ\s+dân|hộ|nhân\s+khẩu|khẩu|người|thôn|bản|xã)`
	moneyNum    = `(?P<n>\d+(?:[.,]\d+)*)(?:\s*(?:-|–|đến)\s*(?P<hi>\d+(?:[.,]\d+)*))?`
	moneyUnit   = `(?P<u>nghìn\s+tỷ|ngàn\s+tỷ|tỷ|triệu)`
)

type rule struct {
	class class
	re    *regexp.Regexp
	// next rejects a match when the text right after it matches, e.g. a
	// number that belongs to the following trigger.
	next *regexp.Regexp
	unit func(string) string
}

type negation struct {
	re      *regexp.Regexp
	classes []class
}

const negLead = `(?:không|chưa)\s+(?:có\s+báo\s+cáo\s+(?:về\s+)?|có\s+|ghi\s+nhận\s+|xảy\s+ra\s+)?`

// table is the compiled rule set for one spelling of the language. Texts
// typed without diacritics are matched by a twin compiled from the same
// patterns with their accents stripped.
type table struct {
	rules []rule
	money *regexp.Regexp

	// Sentence-level gates. A class whose gate does not match the sentence
	// is not extracted from it.
	damageGate *regexp.Regexp
	reliefGate *regexp.Regexp
	agriGate   *regexp.Regexp
	agriHarm   *regexp.Regexp
	marineGate *regexp.Regexp

	planning    *regexp.Regexp
	negations   []negation
	triggers    *regexp.Regexp
	clauseSplit *regexp.Regexp

	// bareCasualty matches a clause that is nothing but a casualty trigger,
	// as in "2 người bị lũ cuốn trôi, mất tích".
	bareCasualty *regexp.Regexp
	casualty     *regexp.Regexp
	humanCount   *regexp.Regexp
}

var (
	accented = newTable(func(s string) string { return s })
	plain    = newTable(textnorm.StripAccents)
)

// tableFor picks the rule set matching how norm was typed.
func tableFor(norm string) *table {
	if textnorm.HasDiacritics(norm) {
		return accented
	}
	return plain
}

func newTable(fold func(string) string) *table {
	re := func(pattern string) *regexp.Regexp {
		return regexp.MustCompile(fold(pattern))
	}
	mustRule := func(c class, pattern, next string, unit func(string) string) rule {
		r := rule{class: c, re: re(pattern), unit: unit}
		if next != "" {
			r.next = re(next)
		}
		return r
	}
	// Three number/trigger layouts per casualty class:
	// "2 người chết", "làm chết 2 người", "số người chết lên 10".
	casualtyRules := func(c class, trig, otherTrig string) []rule {
		return []rule{
			mustRule(c, lb+qualifier+number+`\s+`+human+filler+`\s+(?:đã\s+|bị\s+)?`+trig, "", nil),
			mustRule(c, lb+trig+`\s+`+qualifier+number+`\s+`+human+rb, `^\s*(?:đã\s+|bị\s+)?`+otherTrig, nil),
			mustRule(c, lb+`số\s+(?:người\s+|nạn\s+nhân\s+)?`+trig+filler+`\s+`+qualifier+number+rb, "", nil),
		}
	}

	var rs []rule
	rs = append(rs, casualtyRules(classDeaths, deathTrig, `(?:`+missingTrig+`|`+injuredTrig+`)`)...)
	rs = append(rs, casualtyRules(classMissing, missingTrig, `(?:`+deathTrig+`|`+injuredTrig+`)`)...)
	rs = append(rs, casualtyRules(classInjured, injuredTrig, `(?:`+deathTrig+`|`+missingTrig+`)`)...)
	rs = append(rs,
		mustRule(classDamage, lb+qualifier+number+`\s+`+houseUnit+filler+`\s+(?:bị\s+)?`+houseTrig, "", houseUnitName),
		mustRule(classDamage, lb+houseTrig+`(?:\s+[^\s\d,]+){0,3}?\s+`+qualifier+number+`\s+`+houseUnit+rb, "", houseUnitName),
		mustRule(classAgriculture, lb+qualifier+number+`\s*`+agriUnit+rb, "", agriUnitName),
		mustRule(classMarine, lb+qualifier+number+`\s+`+marineUnit+rb, "", marineUnitName),
		mustRule(classDisruption, lb+evacTrig+filler+`\s+`+qualifier+number+`\s+`+evacUnit+rb, "", evacUnitName),
		mustRule(classDisruption, lb+qualifier+number+`\s+`+evacUnit+filler+`\s+(?:(?:đã|được|phải|bị)\s+)*`+evacTrig, "", evacUnitName),
	)

	anyCasualty := `(?:` + deathTrig + `|` + missingTrig + `|` + injuredTrig + `)`
	return &table{
		rules: rs,
		money: re(lb + qualifier + moneyNum + `\s*` + moneyUnit + `(?:\s+(?:đồng|vnđ|vnd))?` + rb),

		damageGate: re(`thiệt\s+hại|tổn\s+thất|hư\s+hỏng|ước\s+tính|làm\s+thiệt`),
		reliefGate: re(`hỗ\s+trợ|ủng\s+hộ|quyên\s+góp|tạm\s+ứng|kinh\s+phí|xuất\s+cấp|trao\s+tặng|cứu\s+trợ|vốn\s+vay|đầu\s+tư`),
		agriGate:   re(lb + `(?:lúa|hoa\s+màu|cây\s+trồng|rau|màu|gia\s+súc|gia\s+cầm|trâu|bò|lợn|heo|gà|vịt|thủy\s+sản|nuôi\s+trồng|tôm|cây\s+ăn\s+quả|cà\s+phê|cao\s+su|diện\s+tích)` + rb),
		agriHarm:   re(`ngập|hư\s+hại|thiệt\s+hại|chết|cuốn\s+trôi|mất\s+trắng|đổ\s+ngã|gãy\s+đổ|vùi\s+lấp|ảnh\s+hưởng|trôi`),
		marineGate: re(marineTrig),

		planning: re(lb + `(?:dự\s+kiến|kế\s+hoạch|phương\s+án|sẵn\s+sàng|chuẩn\s+bị|nếu|trường\s+hợp|có\s+thể|khả\s+năng|chủ\s+động|diễn\s+tập|tập\s+huấn|cần\s+(?:sơ\s+tán|di\s+dời)|sẽ|nguy\s+cơ|dự\s+báo|kịch\s+bản)` + rb),
		negations: []negation{
			{re(negLead + `(?:thương\s+vong|thiệt\s+hại\s+về\s+người)`), []class{classDeaths, classMissing, classInjured}},
			{re(negLead + `(?:ai\s+|người\s+nào\s+|người\s+)?(?:bị\s+)?` + deathTrig), []class{classDeaths}},
			{re(negLead + `(?:ai\s+|người\s+nào\s+|người\s+)?(?:bị\s+)?` + missingTrig), []class{classMissing}},
			{re(negLead + `(?:ai\s+|người\s+nào\s+|người\s+)?` + injuredTrig), []class{classInjured}},
		},
		triggers:    re(lb + `(?:` + deathTrig + `|` + missingTrig + `|` + injuredTrig + `|thương\s+vong|thiệt\s+hại|tốc\s+mái|sập|cuốn\s+trôi|vùi\s+lấp|ngập|hư\s+hỏng|sơ\s+tán|di\s+dời|chìm|cô\s+lập|chia\s+cắt|mất\s+trắng)` + rb),
		clauseSplit: re(`,\s+|\s+(?:nhưng|tuy\s+nhiên)\s+`),

		bareCasualty: re(`^\s*(?:(?:đã|bị|đều|cùng)\s+)?` + anyCasualty + `(?:\s+[^\d]*)?$`),
		casualty:     re(lb + anyCasualty + rb),
		humanCount:   re(lb + qualifier + number + `\s+` + human + rb),
	}
}

var sentenceSplit = regexp.MustCompile(`[.!?;]+(?:\s+|$)|\n+`)

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// plainUnit folds a captured unit so both spellings share one lookup.
func plainUnit(u string) string {
	return textnorm.StripAccents(squash(u))
}

func houseUnitName(u string) string {
	switch plainUnit(u) {
	case "ngoi nha", "can nha", "nha dan", "nha o", "nha":
		return "nhà"
	case "ho dan", "ho":
		return "hộ"
	case "phong hoc", "truong hoc", "diem truong":
		return "trường học"
	case "can":
		return "căn"
	case "ngoi":
		return "ngôi"
	case "cong trinh":
		return "công trình"
	default:
		return squash(u)
	}
}

func agriUnitName(u string) string {
	switch p := plainUnit(u); {
	case p == "ha" || strings.HasPrefix(p, "hec"):
		return "ha"
	case p == "long" || p == "be" || p == "long be":
		return "lồng bè"
	case p == "tan":
		return "tấn"
	case p == "sao":
		return "sào"
	default:
		return squash(u)
	}
}

func marineUnitName(u string) string {
	switch plainUnit(u) {
	case "tau thuyen", "tau":
		return "tàu"
	case "tau ca":
		return "tàu cá"
	case "thuyen vien":
		return "thuyền viên"
	case "thuyen":
		return "thuyền"
	case "xuong":
		return "xuồng"
	case "sa lan":
		return "sà lan"
	case "phuong tien":
		return "phương tiện"
	case "ngu dan":
		return "ngư dân"
	default:
		return squash(u)
	}
}

func evacUnitName(u string) string {
	switch plainUnit(u) {
	case "ho dan", "ho":
		return "hộ"
	case "nhan khau", "khau", "nguoi":
		return "người"
	case "thon":
		return "thôn"
	case "ban":
		return "bản"
	case "xa":
		return "xã"
	default:
		return squash(u)
	}
}
