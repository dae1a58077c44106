package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"framenote-backend/internal/ai"
	"framenote-backend/internal/annotation"
	"framenote-backend/internal/auth"
	"framenote-backend/internal/geometry"
	"framenote-backend/internal/hub"
	"framenote-backend/internal/model"
	"framenote-backend/internal/timeline"
	"framenote-backend/pkg/logger"
)

// CommentHandler annotation endpoints
type CommentHandler struct {
	db         *gorm.DB
	store      annotation.Store
	hub        *hub.Hub
	summarizer *ai.Summarizer
}

// NewCommentHandler creates a CommentHandler. summarizer may be nil when
// AI is disabled.
func NewCommentHandler(db *gorm.DB, store annotation.Store, h *hub.Hub, summarizer *ai.Summarizer) *CommentHandler {
	return &CommentHandler{db: db, store: store, hub: h, summarizer: summarizer}
}

// AddCommentRequest comment submission
type AddCommentRequest struct {
	Text      string           `json:"text"`
	Timestamp float64          `json:"timestamp"`
	Drawing   geometry.Drawing `json:"drawing,omitempty"`
}

// ResolveCommentRequest resolve toggle
type ResolveCommentRequest struct {
	Resolved bool `json:"resolved"`
}

// CommentResponse comment payload with its parsed drawing
type CommentResponse struct {
	ID         string           `json:"id"`
	ProjectID  int64            `json:"project_id"`
	AuthorID   int64            `json:"author_id"`
	AuthorName string           `json:"author_name"`
	Text       string           `json:"text"`
	Timestamp  float64          `json:"timestamp"`
	Resolved   bool             `json:"resolved"`
	Drawing    geometry.Drawing `json:"drawing,omitempty"`
	CreatedAt  string           `json:"created_at"`
}

func commentResponse(c *model.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         c.ID,
		ProjectID:  c.ProjectID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Text:       c.Text,
		Timestamp:  c.Timestamp,
		Resolved:   c.Resolved,
		CreatedAt:  c.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if c.DrawingData != nil {
		if drawing, err := geometry.UnmarshalDrawing([]byte(*c.DrawingData)); err == nil {
			resp.Drawing = drawing
		}
	}
	return resp
}

// AddComment appends a comment (optionally carrying a drawing) to a project.
// A rejected draft leaves store state untouched so the client keeps the text.
func (h *CommentHandler) AddComment(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	project, err := resolveProject(h.db, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	var req AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	comment, err := h.store.Add(c.Context(), project.ID, annotation.Draft{
		AuthorID:   claims.UserID,
		AuthorName: claims.DisplayName,
		Text:       req.Text,
		Timestamp:  req.Timestamp,
		Drawing:    req.Drawing,
	})
	if err != nil {
		if annotation.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if annotation.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Sugar.Errorw("add comment failed", "project_id", project.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save comment",
		})
	}

	// Push the new state to subscribers; polling would catch it anyway.
	h.hub.Notify(c.Context(), project.ID)

	return c.Status(fiber.StatusCreated).JSON(commentResponse(comment))
}

// ListComments returns the project's comments in marker order, plus the
// precomputed scrubber markers.
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	project, err := resolveProject(h.db, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	comments, err := h.store.List(c.Context(), project.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch comments",
		})
	}

	resp := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		resp = append(resp, commentResponse(&comments[i]))
	}

	return c.JSON(fiber.Map{
		"comments": resp,
		"markers":  timeline.MarkerPositions(comments, project.Duration),
	})
}

// ResolveComment sets the resolved flag. Repeating the same value is a no-op.
func (h *CommentHandler) ResolveComment(c *fiber.Ctx) error {
	project, err := resolveProject(h.db, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	var req ResolveCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	commentID := c.Params("commentId")
	if err := h.store.SetResolved(c.Context(), project.ID, commentID, req.Resolved); err != nil {
		if annotation.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "comment not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update comment",
		})
	}

	h.hub.Notify(c.Context(), project.ID)

	return c.JSON(fiber.Map{"success": true})
}

// Summarize digests the project's unresolved comments for the editor.
// Failures come back as a message in the summary field, never an error.
func (h *CommentHandler) Summarize(c *fiber.Ctx) error {
	project, err := resolveProject(h.db, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	if h.summarizer == nil {
		return c.JSON(fiber.Map{"summary": ai.FallbackMessage})
	}

	comments, err := h.store.List(c.Context(), project.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch comments",
		})
	}

	summary := h.summarizer.Summarize(c.Context(), comments, project.Title)
	return c.JSON(fiber.Map{"summary": summary})
}
