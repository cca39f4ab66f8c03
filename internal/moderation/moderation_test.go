package moderation

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/eventmatch"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

var landfall = time.Date(2024, 9, 7, 8, 0, 0, 0, time.UTC)

// seed stores two articles of one storm event and returns their IDs and the
// event ID.
func seed(t *testing.T, s store.Store, m *eventmatch.Matcher) (int64, int64, int64) {
	t.Helper()
	ctx := context.Background()
	var ids []int64
	var eventID int64
	for i, title := range []string{
		"Bão số 3 đổ bộ Quảng Ninh, 2 người chết",
		"Bão số 3 đổ bộ Quảng Ninh gây thiệt hại nặng",
	} {
		src := []string{"vnexpress", "tuoitre"}[i]
		a := &domain.Article{
			Source:       src,
			Domain:       src + ".vn",
			Title:        title,
			URL:          "https://" + src + ".vn/bao-so-3",
			CanonicalURL: "https://" + src + ".vn/bao-so-3",
			NewsHash:     src + "hash",
			PublishedAt:  landfall.Add(time.Duration(i) * time.Hour),
			HazardType:   domain.HazardStorm,
			Province:     "Quảng Ninh",
			Stage:        domain.StageIncident,
			Status:       domain.StatusApproved,
			IsTrusted:    true,
		}
		require.NoError(t, s.CreateArticle(ctx, a))
		out, err := m.Attach(ctx, s, a)
		require.NoError(t, err)
		ids = append(ids, a.ID)
		eventID = out.Event.ID
	}
	return ids[0], ids[1], eventID
}

func TestRejectArticle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	matcher := eventmatch.New(slog.Default())
	first, second, eventID := seed(t, s, matcher)
	mod := New(s, matcher, slog.Default())

	res, err := mod.RejectArticle(ctx, first, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, res.Article.Status)
	require.NotNil(t, res.Event)
	assert.False(t, res.EventDeleted)
	assert.Equal(t, 1, res.Event.SourcesCount)

	listed, err := s.IsBlacklisted(ctx, "vnexpresshash")
	require.NoError(t, err)
	assert.True(t, listed)

	res, err = mod.RejectArticle(ctx, second, "wrong province")
	require.NoError(t, err)
	assert.True(t, res.EventDeleted)
	assert.Nil(t, res.Event)

	_, err = s.GetEvent(ctx, eventID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRejectArticle_NotFound(t *testing.T) {
	mod := New(store.NewMemory(), eventmatch.New(slog.Default()), slog.Default())
	_, err := mod.RejectArticle(context.Background(), 42, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	matcher := eventmatch.New(slog.Default())
	first, second, eventID := seed(t, s, matcher)
	mod := New(s, matcher, slog.Default())

	n, err := mod.DeleteEvent(ctx, eventID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.GetEvent(ctx, eventID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	for _, id := range []int64{first, second} {
		a, err := s.GetArticle(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRejected, a.Status)
	}
	for _, hash := range []string{"vnexpresshash", "tuoitrehash"} {
		listed, err := s.IsBlacklisted(ctx, hash)
		require.NoError(t, err)
		assert.True(t, listed, hash)
	}
}

func TestDeleteEvent_NotFound(t *testing.T) {
	mod := New(store.NewMemory(), eventmatch.New(slog.Default()), slog.Default())
	_, err := mod.DeleteEvent(context.Background(), 9, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
