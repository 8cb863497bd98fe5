package assist

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/collabwrite/collabwrite/pkg/logger"
	"github.com/collabwrite/collabwrite/pkg/middleware"
)

// Handler exposes the text-assist endpoints. All routes expect an
// authenticated user; the realtime-suggestions route debounces upstream calls
// per user.
type Handler struct {
	client *Client
	deb    *Debouncer
}

func NewHandler(client *Client, deb *Debouncer) *Handler {
	return &Handler{client: client, deb: deb}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/ai")
	a.POST("/grammar-check", h.task(h.client.GrammarCheck, "suggestion"))
	a.POST("/enhance", h.task(h.client.Enhance, "suggestion"))
	a.POST("/summarize", h.task(h.client.Summarize, "summary"))
	a.POST("/complete", h.task(h.client.Complete, "completion"))
	a.POST("/suggestions", h.task(h.client.Suggestions, "suggestions"))
	a.POST("/realtime-suggestions", h.realtimeSuggestions)
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *Handler) task(fn func(ctx context.Context, text string) (string, error), field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req textRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
			return
		}
		out, err := fn(c.Request.Context(), req.Text)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{field: out})
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assist request failed"})
		return
	}
	logger.Errorf("assist call failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "assist request failed"})
}

func (h *Handler) realtimeSuggestions(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	// too little context to suggest anything yet
	if len(strings.TrimSpace(req.Text)) < 10 {
		c.JSON(http.StatusOK, gin.H{"suggestion": ""})
		return
	}

	key := middleware.UserID(c)
	if key == "" {
		key = c.ClientIP()
	}
	out, err := h.deb.Do(c.Request.Context(), key, func(ctx context.Context) (string, error) {
		return h.client.RealtimeSuggestion(ctx, req.Text)
	})
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			// a newer keystroke took over this debounce window
			c.JSON(http.StatusOK, gin.H{"suggestion": ""})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": out})
}
