package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/kydy-backend/internal/render"
	"github.com/yungbote/kydy-backend/internal/services"
)

type LessonHandler struct {
	svc      services.LessonService
	rendered services.RenderedStore
}

func NewLessonHandler(svc services.LessonService, rendered services.RenderedStore) *LessonHandler {
	return &LessonHandler{svc: svc, rendered: rendered}
}

type generateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// POST /generate
func (h *LessonHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	doc, err := h.svc.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"lesson_id":  doc.LessonID,
		"render_url": "/render/" + doc.LessonID,
		"lesson":     doc,
	})
}

// GET /lesson/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrLessonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// GET /lessons
func (h *LessonHandler) ListLessons(c *gin.Context) {
	lessons, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons, "count": len(lessons)})
}

// GET /render/:id
func (h *LessonHandler) RenderLesson(c *gin.Context) {
	h.render(c, render.ModeFull)
}

// GET /render/:id/embed
func (h *LessonHandler) RenderLessonEmbed(c *gin.Context) {
	h.render(c, render.ModeEmbed)
}

func (h *LessonHandler) render(c *gin.Context, mode string) {
	html, err := h.svc.Render(c.Request.Context(), c.Param("id"), mode)
	if err != nil {
		if errors.Is(err, services.ErrLessonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GET /rendered
func (h *LessonHandler) ListRendered(c *gin.Context) {
	files, err := h.rendered.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rendered_files": files, "count": len(files)})
}

// GET /rendered/:filename
func (h *LessonHandler) GetRendered(c *gin.Context) {
	html, err := h.rendered.Read(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rendered file not found"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
