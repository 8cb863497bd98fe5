package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/collabwrite/collabwrite/internal/document"
	"github.com/collabwrite/collabwrite/internal/document/service"
	"github.com/collabwrite/collabwrite/pkg/logger"
	"github.com/collabwrite/collabwrite/pkg/middleware"
)

// Handler exposes the document CRUD and sharing routes. All mutating routes
// run behind the auth middleware; only the share-token resolver is public.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the document routes. authed must already carry the auth
// middleware; public is the unauthenticated group for share-token resolution.
func (h *Handler) Register(authed, public *gin.RouterGroup) {
	d := authed.Group("/documents")
	d.GET("", h.list)
	d.POST("", h.create)
	d.GET("/:id", h.get)
	d.PUT("/:id", h.update)
	d.DELETE("/:id", h.delete)
	d.POST("/:id/share", h.share)
	d.POST("/:id/share-link", h.shareLink)

	public.GET("/documents/share/:token", h.resolveShareToken)
}

func docResponse(d *document.Document) gin.H {
	return gin.H{
		"id":         d.ID,
		"title":      d.Title,
		"content":    d.Content,
		"owner":      d.Owner,
		"sharedWith": d.SharedWith,
		"createdAt":  d.CreatedAt,
		"updatedAt":  d.UpdatedAt,
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, service.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		logger.Errorf("document request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.svc.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{"id": d.ID, "title": d.Title, "owner": d.Owner, "updatedAt": d.UpdatedAt})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) create(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	// a bodyless POST creates an untitled document
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	d, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, docResponse(d))
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.GetForUser(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docResponse(d))
}

func (h *Handler) update(c *gin.Context) {
	var req struct {
		Title   *string         `json:"title,omitempty"`
		Content json.RawMessage `json:"content,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Update(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Title, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docResponse(d))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) share(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Share(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.UserID, document.Role(req.Role))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docResponse(d))
}

func (h *Handler) shareLink(c *gin.Context) {
	token, err := h.svc.GenerateShareToken(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shareToken": token})
}

// resolveShareToken maps a token to the document it names. It deliberately
// returns only id and title; holding the link does not grant content access.
func (h *Handler) resolveShareToken(c *gin.Context) {
	d, err := h.svc.ResolveShareToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documentId": d.ID, "title": d.Title})
}
