package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/stats"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// defaultEventHours is the lookback of /events without dates.
const defaultEventHours = 72

type eventPage struct {
	Items  []domain.Event `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type eventDetail struct {
	domain.Event
	Articles []domain.Article `json:"articles"`
}

func (s *Server) listEvents(c *gin.Context) {
	q, err := s.eventQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, total, err := s.deps.Store.ListEvents(c.Request.Context(), q)
	if err != nil {
		s.fail(c, "list events", err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	if w := c.Query("wrapper"); w == "true" || w == "1" {
		limit := q.Limit
		switch {
		case limit == 0:
			limit = defaultLimit
		case limit > maxLimit:
			limit = maxLimit
		}
		c.JSON(http.StatusOK, eventPage{Items: events, Total: total, Limit: limit, Offset: q.Offset})
		return
	}
	c.JSON(http.StatusOK, events)
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

func (s *Server) eventQuery(c *gin.Context) (store.EventQuery, error) {
	q := store.EventQuery{
		HazardType: c.Query("type"),
		Province:   c.Query("province"),
		Title:      c.Query("q"),
		PublicOnly: !isAdmin(c),
		Sort:       c.DefaultQuery("sort", store.SortLatest),
		Limit:      defaultLimit,
	}
	if q.Sort != store.SortLatest && q.Sort != store.SortImpact {
		return q, fmt.Errorf("invalid sort %q", q.Sort)
	}

	var err error
	if q.Limit, err = intParam(c, "limit", defaultLimit); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(c, "offset", 0); err != nil {
		return q, err
	}

	if v := c.Query("start_date"); v != "" {
		day, err := time.ParseInLocation(time.DateOnly, v, stats.Vietnam)
		if err != nil {
			return q, fmt.Errorf("invalid start_date %q", v)
		}
		q.Since = day.UTC()
	} else {
		hours, err := intParam(c, "hours", defaultEventHours)
		if err != nil || hours == 0 {
			return q, fmt.Errorf("invalid hours %q", c.Query("hours"))
		}
		q.Since = s.now().Add(-time.Duration(hours) * time.Hour)
	}
	if v := c.Query("end_date"); v != "" {
		day, err := time.ParseInLocation(time.DateOnly, v, stats.Vietnam)
		if err != nil {
			return q, fmt.Errorf("invalid end_date %q", v)
		}
		q.Until = day.Add(24*time.Hour - time.Nanosecond).UTC()
	}
	return q, nil
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func (s *Server) getEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	admin := isAdmin(c)

	e, err := s.deps.Store.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !admin && !e.PubliclyVisible()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		s.fail(c, "get event", err)
		return
	}

	articles, err := s.deps.Store.ArticlesByEvent(ctx, id, false)
	if err != nil {
		s.fail(c, "load event articles", err)
		return
	}
	visible := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if admin || a.Status == domain.StatusApproved {
			visible = append(visible, a)
		}
	}
	c.JSON(http.StatusOK, eventDetail{Event: *e, Articles: visible})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid id %q", c.Param("id"))})
		return 0, false
	}
	return id, true
}

// fail maps store errors to responses. Unexpected errors are logged and
// reported without detail.
func (s *Server) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, stats.ErrBadRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		s.logger.Error(op+" failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		s.logger.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
