package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and collapse", "  Bão   Số 3\tĐỔ BỘ  ", "bão số 3 đổ bộ"},
		{"decomposed input becomes NFC", "Bão", "bão"},
		{"non-breaking space", "Quảng Ninh", "quảng ninh"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestStripAccents(t *testing.T) {
	assert.Equal(t, "bao so 3 do bo quang ninh", StripAccents("bão số 3 đổ bộ quảng ninh"))
	assert.Equal(t, "Dak Lak", StripAccents("Đắk Lắk"))
	assert.Equal(t, "lu quet", StripAccents("lũ quét"))
}

func TestHasDiacritics(t *testing.T) {
	assert.True(t, HasDiacritics("bão"))
	assert.True(t, HasDiacritics("đi"))
	assert.False(t, HasDiacritics("bao so 3"))
	assert.False(t, HasDiacritics("300mm/24h"))
}

func TestRemoveBoilerplate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Video: Lũ cuốn trôi cầu tạm ở Lào Cai", "Lũ cuốn trôi cầu tạm ở Lào Cai"},
		{"Sạt lở vùi lấp nhà dân (VTC News)", "Sạt lở vùi lấp nhà dân"},
		{"Mưa lớn gây ngập sâu - Báo Thanh Niên", "Mưa lớn gây ngập sâu"},
		{"[Ảnh] Triều cường dâng cao", "Triều cường dâng cao"},
		{"Bão số 3 đổ bộ", "Bão số 3 đổ bộ"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveBoilerplate(tt.in))
		})
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"bão", "số", "3", "quảng", "ninh", "thiệt", "hại", "500", "tỷ", "đồng"},
		Tokens("Bão số 3: Quảng Ninh thiệt hại 500 tỷ đồng"))
}

func TestPairFind(t *testing.T) {
	p := MustPair(`lũ\s+quét`)

	m, ok := p.Find(New("Lũ quét tại Lào Cai"))
	assert.True(t, ok)
	assert.Equal(t, "lũ quét", m)

	m, ok = p.Find(New("Lu quet tai Lao Cai"))
	assert.True(t, ok)
	assert.Equal(t, "lu quet", m)

	_, ok = p.Find(New("Lù quẹt ở chợ"))
	assert.False(t, ok, "stripped form must not fire on accented text")

	_, ok = p.Find(New("chớp nhoáng lũ quétxyz"))
	assert.False(t, ok)
}

func TestText(t *testing.T) {
	txt := New("Bão Số 3")
	assert.Equal(t, "bão số 3", txt.Norm)
	assert.Equal(t, "bao so 3", txt.Plain)
	assert.True(t, txt.Accented())
	assert.False(t, New("bao so 3").Accented())
}
