package impact

import (
	"regexp"

	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

type agency struct {
	re    *regexp.Regexp
	plain *regexp.Regexp
	name  string
}

func mustAgency(pattern, name string) agency {
	return agency{
		re:    textnorm.MustCompileBounded(pattern),
		plain: textnorm.MustCompileBounded(textnorm.StripAccents(pattern)),
		name:  name,
	}
}

var agencies = []agency{
	mustAgency(`ban\s+chỉ\s+đạo\s+(?:quốc\s+gia\s+)?(?:về\s+)?phòng,?\s+chống\s+thiên\s+tai`, "Ban Chỉ đạo quốc gia về Phòng, chống thiên tai"),
	mustAgency(`ủy\s+ban\s+quốc\s+gia\s+ứng\s+phó\s+sự\s+cố,?\s+thiên\s+tai\s+và\s+tìm\s+kiếm\s+cứu\s+nạn`, "Ủy ban Quốc gia Ứng phó sự cố, thiên tai và Tìm kiếm cứu nạn"),
	mustAgency(`ban\s+chỉ\s+huy\s+(?:phòng,?\s+chống\s+thiên\s+tai|pctt)(?:\s+và\s+(?:tìm\s+kiếm\s+cứu\s+nạn|tkcn))?`, "Ban Chỉ huy PCTT và TKCN"),
	mustAgency(`trung\s+tâm\s+dự\s+báo\s+khí\s+tượng\s+thủy\s+văn(?:\s+quốc\s+gia)?`, "Trung tâm Dự báo khí tượng thủy văn quốc gia"),
	mustAgency(`(?:tổng\s+)?cục\s+(?:quản\s+lý\s+đê\s+điều\s+và\s+)?phòng,?\s+chống\s+thiên\s+tai`, "Cục Quản lý đê điều và Phòng, chống thiên tai"),
	mustAgency(`viện\s+(?:vật\s+lý\s+địa\s+cầu|các\s+khoa\s+học\s+trái\s+đất)`, "Viện Vật lý địa cầu"),
	mustAgency(`trung\s+tâm\s+báo\s+tin\s+động\s+đất(?:\s+và\s+cảnh\s+báo\s+sóng\s+thần)?`, "Trung tâm Báo tin động đất và Cảnh báo sóng thần"),
	mustAgency(`bộ\s+nông\s+nghiệp\s+và\s+(?:phát\s+triển\s+nông\s+thôn|môi\s+trường)`, "Bộ Nông nghiệp và Môi trường"),
	mustAgency(`(?:bộ\s+đội\s+)?biên\s+phòng`, "Bộ đội Biên phòng"),
	mustAgency(`bộ\s+chỉ\s+huy\s+quân\s+sự`, "Bộ Chỉ huy Quân sự"),
	mustAgency(`đài\s+khí\s+tượng\s+thủy\s+văn`, "Đài Khí tượng thủy văn"),
	mustAgency(`pctt|tkcn|kttv`, "Ban Chỉ huy PCTT và TKCN"),
}

// Agency returns the canonical name of the leftmost disaster-management body
// mentioned in text, or nil.
func Agency(text string) *string {
	norm := textnorm.Normalize(text)
	best, bestAt := "", -1
	marked := textnorm.HasDiacritics(norm)
	for _, a := range agencies {
		re := a.plain
		if marked {
			re = a.re
		}
		loc := re.FindStringIndex(norm)
		if loc == nil {
			continue
		}
		if bestAt < 0 || loc[0] < bestAt {
			best, bestAt = a.name, loc[0]
		}
	}
	if bestAt < 0 {
		return nil
	}
	return &best
}
