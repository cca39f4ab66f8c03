package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type moderationRequest struct {
	Reason string `json:"reason"`
}

// reason reads the optional JSON body of an admin action.
func reason(c *gin.Context) (string, bool) {
	var req moderationRequest
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return "", false
	}
	return req.Reason, true
}

func (s *Server) rejectArticle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	why, ok := reason(c)
	if !ok {
		return
	}
	res, err := s.deps.Moderator.RejectArticle(c.Request.Context(), id, why)
	if err != nil {
		s.fail(c, "reject article", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) deleteEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	why, ok := reason(c)
	if !ok {
		return
	}
	n, err := s.deps.Moderator.DeleteEvent(c.Request.Context(), id, why)
	if err != nil {
		s.fail(c, "delete event", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": id, "articles_rejected": n})
}
