package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/notely-app/notely-api/internal/application"
	"github.com/notely-app/notely-api/internal/domain/entity"
	"github.com/notely-app/notely-api/pkg/response"
	"github.com/notely-app/notely-api/pkg/validation"
)

type NoteHandler struct {
	Svc    *application.NoteService
	Logger *logrus.Logger
}

func NewNoteHandler(svc *application.NoteService, logger *logrus.Logger) *NoteHandler {
	return &NoteHandler{Svc: svc, Logger: logger}
}

type noteRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type notePayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toNotePayload(n *entity.Note) notePayload {
	return notePayload{ID: n.ID, Title: n.Title, Content: n.Content, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

func toNotePayloads(notes []*entity.Note) []notePayload {
	out := make([]notePayload, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNotePayload(n))
	}
	return out
}

func (h *NoteHandler) noteError(c *gin.Context, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(c, http.StatusBadRequest, "Title and content cannot be empty", nil)
	case errors.Is(err, application.ErrNoteNotFound):
		response.Error(c, http.StatusNotFound, "Note not found", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("note request failed")
		}
		response.Error(c, http.StatusInternalServerError, "Server error. Please try again later.", nil)
	}
}

// Create POST /api/notes
func (h *NoteHandler) Create(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Title and content are required", validation.ToDetails(err))
		return
	}
	n, err := h.Svc.Create(c.Request.Context(), c.GetString("userID"), req.Title, req.Content)
	if err != nil {
		h.noteError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"note": toNotePayload(n)}, "Note created successfully")
}

// List GET /api/notes
func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.Svc.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.noteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notes": toNotePayloads(notes), "count": len(notes)}, "Notes retrieved successfully")
}

// Get GET /api/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	n, err := h.Svc.Get(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.noteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"note": toNotePayload(n)}, "Note retrieved successfully")
}

// Update PUT /api/notes/:id
func (h *NoteHandler) Update(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Title and content are required", validation.ToDetails(err))
		return
	}
	n, err := h.Svc.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Title, req.Content)
	if err != nil {
		h.noteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"note": toNotePayload(n)}, "Note updated successfully")
}

// Delete DELETE /api/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	n, err := h.Svc.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.noteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deletedNote": gin.H{"id": n.ID, "title": n.Title}}, "Note deleted successfully")
}

// Search GET /api/notes/search?q=...&size=...
func (h *NoteHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "Query parameter q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), c.GetString("userID"), q, size)
	if err != nil {
		h.noteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": hits, "count": len(hits)}, "Search completed")
}
