package scorer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		status   domain.Status
		reason   string
		province string
	}{
		{
			name:     "storm landfall with casualties",
			in:       Input{Title: "Bão số 3 đổ bộ Quảng Ninh, 2 người chết, 4 người bị thương", Trusted: true},
			status:   domain.StatusApproved,
			reason:   ReasonLivesLost,
			province: "Quảng Ninh",
		},
		{
			name:   "storm landfall typed without diacritics",
			in:     Input{Title: "Bao so 3 do bo Quang Ninh, 2 nguoi chet"},
			status: domain.StatusApproved,
			reason: ReasonLivesLost,
		},
		{
			name:     "trusted damage report",
			in:       Input{Title: "Bão số 3: Quảng Ninh thiệt hại 500 tỷ đồng", Trusted: true},
			status:   domain.StatusApproved,
			reason:   ReasonTrusted,
			province: "Quảng Ninh",
		},
		{
			name:   "price storm metaphor",
			in:     Input{Title: "Cơn bão giá cuối năm: chứng khoán lao dốc", Trusted: true},
			status: domain.StatusRejected,
			reason: ReasonAbsoluteVeto,
		},
		{
			name:     "dispatch from untrusted source",
			in:       Input{Title: "Công điện khẩn ứng phó với bão số 5"},
			status:   domain.StatusApproved,
			reason:   ReasonVIP,
			province: "unknown",
		},
		{
			name:     "traffic accident in the rain",
			in:       Input{Title: "Tai nạn giao thông do mưa lớn tại Hà Nội", Trusted: true},
			status:   domain.StatusRejected,
			reason:   ReasonConditionalVeto,
			province: "Hà Nội",
		},
		{
			name:   "landslide at a sensitive district",
			in:     Input{Title: "Sạt lở đất vùi lấp nhiều nhà dân ở Trà Leng"},
			status: domain.StatusApproved,
			reason: ReasonSensitive,
		},
		{
			name:     "untrusted flooding without figures",
			in:       Input{Title: "Mưa lớn gây ngập sâu nhiều tuyến phố Hà Nội"},
			status:   domain.StatusPending,
			reason:   ReasonNeedsReview,
			province: "Hà Nội",
		},
		{
			name:     "trusted flooding without figures",
			in:       Input{Title: "Mưa lớn gây ngập sâu nhiều tuyến phố Hà Nội", Trusted: true},
			status:   domain.StatusApproved,
			reason:   ReasonTrusted,
			province: "Hà Nội",
		},
		{
			name:   "ceremony coverage",
			in:     Input{Title: "Hội nghị tổng kết công tác phòng chống thiên tai năm 2024", Trusted: true},
			status: domain.StatusRejected,
			reason: ReasonBelowThreshold,
		},
		{
			name:   "empty title without evidence",
			in:     Input{Summary: "Hội nghị tổng kết năm", Trusted: true},
			status: domain.StatusRejected,
			reason: ReasonEmptyTitle,
		},
		{
			name:     "empty title with hazard and impact",
			in:       Input{Summary: "Lũ quét tại Lào Cai làm 5 người mất tích", Trusted: true},
			status:   domain.StatusApproved,
			reason:   ReasonLivesLost,
			province: "Lào Cai",
		},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := s.Decide(tt.in)
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, tt.reason, d.Diagnosis.Reason)
			if tt.province != "" {
				assert.Equal(t, tt.province, d.Province)
			}
		})
	}
}

func TestDecideExtraction(t *testing.T) {
	d := New().Decide(Input{Title: "Bão số 3 đổ bộ Quảng Ninh, 2 người chết, 4 người bị thương", Trusted: true})

	assert.Equal(t, domain.HazardStorm, d.Classification.Primary)
	assert.Equal(t, []int{2}, d.Impact.Deaths)
	assert.Equal(t, []int{4}, d.Impact.Injured)
	assert.True(t, d.Diagnosis.Signals.LivesLost)
	assert.True(t, d.Diagnosis.Signals.TitleHazard)
	assert.True(t, d.Admitted())
	assert.False(t, d.VIP())
}

func TestDecideExtractionWithoutDiacritics(t *testing.T) {
	d := New().Decide(Input{Title: "Bao so 3 do bo Quang Ninh, 2 nguoi chet"})

	assert.Equal(t, []int{2}, d.Impact.Deaths)
	assert.True(t, d.Diagnosis.Signals.LivesLost)
	assert.True(t, d.Diagnosis.Signals.Impact)
}

func TestVIPScoreFloor(t *testing.T) {
	d := New().Decide(Input{Title: "Công điện khẩn ứng phó với bão số 5"})
	assert.True(t, d.VIP())
	assert.GreaterOrEqual(t, d.Diagnosis.Score, VIPScore)
}

func TestSensitiveSignal(t *testing.T) {
	d := New().Decide(Input{Title: "Sạt lở đất vùi lấp nhiều nhà dân ở Trà Leng"})
	assert.True(t, d.Sensitive())
	assert.Equal(t, "trà leng", d.Diagnosis.Signals.Sensitive)
}

func TestPriceStormScoresLow(t *testing.T) {
	d := Diagnose("Cơn bão giá cuối năm: chứng khoán lao dốc")
	assert.LessOrEqual(t, d.Score, 2.0)
	assert.Equal(t, ReasonAbsoluteVeto, d.Reason)
	assert.NotEmpty(t, d.Signals.AbsoluteVeto)
	assert.Empty(t, d.Signals.HazardLabels)
}

func TestProbabilityHook(t *testing.T) {
	pending := Input{Title: "Mưa lớn gây ngập sâu nhiều tuyến phố Hà Nội"}

	t.Run("promotes pending", func(t *testing.T) {
		s := New(WithProbabilityHook(func(string) (float64, bool) { return 0.9, true }))
		d := s.Decide(pending)
		assert.Equal(t, domain.StatusApproved, d.Status)
		require.NotNil(t, d.Diagnosis.Signals.Probability)
		assert.InDelta(t, 0.9, *d.Diagnosis.Signals.Probability, 1e-9)
	})

	t.Run("no opinion leaves status", func(t *testing.T) {
		s := New(WithProbabilityHook(func(string) (float64, bool) { return 0, false }))
		d := s.Decide(pending)
		assert.Equal(t, domain.StatusPending, d.Status)
		assert.Nil(t, d.Diagnosis.Signals.Probability)
	})

	t.Run("never revives a rejection", func(t *testing.T) {
		s := New(WithProbabilityHook(func(string) (float64, bool) { return 1, true }))
		d := s.Decide(Input{Title: "Cơn bão giá cuối năm"})
		assert.Equal(t, domain.StatusRejected, d.Status)
	})

	t.Run("keeps trusted approvals", func(t *testing.T) {
		s := New(WithProbabilityHook(func(string) (float64, bool) { return 0.05, true }))
		d := s.Decide(Input{Title: pending.Title, Trusted: true})
		assert.Equal(t, domain.StatusApproved, d.Status)
	})
}

func TestDiagnosisJSON(t *testing.T) {
	d := Diagnose("Bão số 3 đổ bộ Quảng Ninh, 2 người chết")
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Contains(t, got, "score")
	assert.Equal(t, ReasonLivesLost, got["reason"])
	signals, ok := got["signals"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Quảng Ninh", signals["province"])
	assert.Equal(t, []any{domain.HazardStorm}, signals["hazard_labels"])
}
