package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/vn-hazard-radar/internal/stats"
)

func (s *Server) statsRange(c *gin.Context) (stats.Range, bool) {
	r, err := stats.ParseRange(c.Query("hours"), c.Query("date"), !isAdmin(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return stats.Range{}, false
	}
	return r, true
}

func (s *Server) summary(c *gin.Context) {
	r, ok := s.statsRange(c)
	if !ok {
		return
	}
	sum, err := s.deps.Stats.Summary(c.Request.Context(), r)
	if err != nil {
		s.fail(c, "stats summary", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) timeline(c *gin.Context) {
	r, ok := s.statsRange(c)
	if !ok {
		return
	}
	buckets, err := s.deps.Stats.Timeline(c.Request.Context(), r)
	if err != nil {
		s.fail(c, "stats timeline", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hourly": r.Hourly(), "buckets": buckets})
}

func (s *Server) heatmap(c *gin.Context) {
	r, ok := s.statsRange(c)
	if !ok {
		return
	}
	cells, err := s.deps.Stats.Heatmap(c.Request.Context(), r)
	if err != nil {
		s.fail(c, "stats heatmap", err)
		return
	}
	if cells == nil {
		cells = []stats.Cell{}
	}
	c.JSON(http.StatusOK, cells)
}

// topRiskyProvince answers null when no province had an event in range.
func (s *Server) topRiskyProvince(c *gin.Context) {
	r, ok := s.statsRange(c)
	if !ok {
		return
	}
	top, err := s.deps.Stats.TopRiskyProvince(c.Request.Context(), r)
	if err != nil {
		s.fail(c, "stats top risky province", err)
		return
	}
	c.JSON(http.StatusOK, top)
}
