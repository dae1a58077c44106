package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"framenote-backend/internal/annotation"
	"framenote-backend/internal/auth"
	"framenote-backend/internal/model"
	"framenote-backend/internal/presence"
	"framenote-backend/pkg/logger"
)

// ProjectHandler project endpoints
type ProjectHandler struct {
	db       *gorm.DB
	store    annotation.Store
	presence *presence.Manager
}

// NewProjectHandler creates a ProjectHandler
func NewProjectHandler(db *gorm.DB, store annotation.Store, presenceMgr *presence.Manager) *ProjectHandler {
	return &ProjectHandler{db: db, store: store, presence: presenceMgr}
}

// CreateProjectRequest new project request
type CreateProjectRequest struct {
	Title string `json:"title"`
}

// ProjectResponse project payload
type ProjectResponse struct {
	ID        int64   `json:"id"`
	PublicID  string  `json:"public_id"`
	EditorID  int64   `json:"editor_id"`
	Title     string  `json:"title"`
	VideoURL  string  `json:"video_url,omitempty"`
	Status    string  `json:"status"`
	Duration  float64 `json:"duration"`
	CreatedAt string  `json:"created_at"`
}

func projectResponse(p *model.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		PublicID:  p.PublicID,
		EditorID:  p.EditorID,
		Title:     p.Title,
		VideoURL:  p.VideoURL,
		Status:    p.Status,
		Duration:  p.Duration,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateProject creates a project in PROCESSING state; the video arrives
// later through the upload presign/confirm flow.
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	req.Title = strings.TrimSpace(req.Title)
	if len(req.Title) < 2 || len(req.Title) > 200 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title must be between 2 and 200 characters",
		})
	}

	project := model.Project{
		EditorID: claims.UserID,
		Title:    req.Title,
		Status:   model.ProjectStatusProcessing.String(),
	}

	// publicId collisions are vanishingly rare at 8 hex chars but cheap to
	// retry against the unique index.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		project.PublicID = strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
		if err = h.db.Create(&project).Error; err == nil {
			break
		}
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create project",
		})
	}

	logger.Sugar.Infow("project created", "project_id", project.ID, "editor_id", claims.UserID)
	return c.Status(fiber.StatusCreated).JSON(projectResponse(&project))
}

// GetMyProjects lists the caller's projects, newest first
func (h *ProjectHandler) GetMyProjects(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	var projects []model.Project
	if err := h.db.Where("editor_id = ?", claims.UserID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch projects",
		})
	}

	resp := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		resp = append(resp, projectResponse(&projects[i]))
	}
	return c.JSON(resp)
}

// GetProject fetches one project by numeric id or by its shareable publicId;
// both resolve to the same record.
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.resolveProject(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}
	return c.JSON(projectResponse(project))
}

// DeleteProject removes a project; comments cascade with it
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	project, err := h.resolveProject(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}
	if project.EditorID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "only the editor can delete a project",
		})
	}

	if err := h.store.DeleteProject(c.Context(), project.ID); err != nil {
		if annotation.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "project not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete project",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// JoinReview marks the caller as actively reviewing the project
func (h *ProjectHandler) JoinReview(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	project, err := h.resolveProject(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	if h.presence != nil {
		if err := h.presence.Join(project.ID, claims.UserID, claims.DisplayName); err != nil {
			logger.Sugar.Warnw("presence join failed", "project_id", project.ID, "error", err)
		}
	}
	return c.JSON(fiber.Map{
		"success":            true,
		"heartbeat_interval": presence.HeartbeatInterval.Seconds(),
	})
}

// HeartbeatReview extends the caller's reviewer presence
func (h *ProjectHandler) HeartbeatReview(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	project, err := h.resolveProject(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	if h.presence != nil {
		if err := h.presence.Heartbeat(project.ID, claims.UserID); err != nil {
			// Expired between beats; rejoin transparently.
			_ = h.presence.Join(project.ID, claims.UserID, claims.DisplayName)
		}
	}
	return c.JSON(fiber.Map{"success": true})
}

// LeaveReview drops the caller's reviewer presence
func (h *ProjectHandler) LeaveReview(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	project, err := h.resolveProject(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	if h.presence != nil {
		_ = h.presence.Leave(project.ID, claims.UserID)
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetReviewers lists who is currently reviewing the project
func (h *ProjectHandler) GetReviewers(c *fiber.Ctx) error {
	project, err := h.resolveProject(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	if h.presence == nil {
		return c.JSON([]presence.ReviewerData{})
	}

	reviewers, err := h.presence.Reviewers(project.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch reviewers",
		})
	}
	return c.JSON(reviewers)
}

// GetSharedProject fetches a project through its share link. Works without
// a login; authenticated callers additionally learn whether they own it.
func (h *ProjectHandler) GetSharedProject(c *fiber.Ctx) error {
	var project model.Project
	if err := h.db.Where("public_id = ?", c.Params("publicId")).First(&project).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}

	isEditor := false
	if claims, ok := c.Locals("claims").(*auth.Claims); ok {
		isEditor = claims.UserID == project.EditorID
	}

	return c.JSON(fiber.Map{
		"project":   projectResponse(&project),
		"is_editor": isEditor,
	})
}

// resolveProject looks a project up by numeric id, falling back to publicId
func (h *ProjectHandler) resolveProject(param string) (*model.Project, error) {
	return resolveProject(h.db, param)
}

func resolveProject(db *gorm.DB, param string) (*model.Project, error) {
	var project model.Project

	if id, err := strconv.ParseInt(param, 10, 64); err == nil {
		if err := db.First(&project, id).Error; err == nil {
			return &project, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if err := db.Where("public_id = ?", param).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}
