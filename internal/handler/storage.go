package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"framenote-backend/internal/auth"
	"framenote-backend/internal/model"
	"framenote-backend/internal/storage"
	"framenote-backend/pkg/logger"
)

// StorageHandler source-video upload endpoints
type StorageHandler struct {
	db     *gorm.DB
	s3     *storage.S3Service
	region string
}

// NewStorageHandler creates a StorageHandler. s3 may be nil when the bucket
// is not configured; upload endpoints then answer 503.
func NewStorageHandler(db *gorm.DB, s3 *storage.S3Service, region string) *StorageHandler {
	return &StorageHandler{db: db, s3: s3, region: region}
}

// GetPresignedURLRequest upload slot request
type GetPresignedURLRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// ConfirmUploadRequest upload completion notice. Duration comes from the
// client's decode of the file; the server treats the video as opaque bytes.
type ConfirmUploadRequest struct {
	Key      string  `json:"key"`
	Duration float64 `json:"duration"`
}

// GetPresignedURL presigns a PUT for the project's source video
func (h *StorageHandler) GetPresignedURL(c *fiber.Ctx) error {
	if h.s3 == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "S3 service is not configured",
		})
	}

	claims := c.Locals("claims").(*auth.Claims)
	project, err := resolveProject(h.db, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}
	if project.EditorID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "only the editor can upload the video",
		})
	}

	var req GetPresignedURLRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.FileName == "" || req.ContentType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file_name and content_type are required",
		})
	}

	presigned, err := h.s3.GenerateUploadURL(project.ID, req.FileName, req.ContentType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate presigned URL",
		})
	}

	return c.JSON(fiber.Map{
		"upload_url": presigned.URL,
		"key":        presigned.Key,
		"expires_at": presigned.ExpiresAt,
	})
}

// GetVideoURL presigns a GET for the project's video so private buckets
// still play back
func (h *StorageHandler) GetVideoURL(c *fiber.Ctx) error {
	if h.s3 == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "S3 service is not configured",
		})
	}

	project, err := resolveProject(h.db, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}
	if project.VideoURL == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project has no video yet",
		})
	}

	key := h.s3.KeyFromURL(project.VideoURL)
	if key == "" {
		// Externally hosted video; hand the stored URL back as-is.
		return c.JSON(fiber.Map{"url": project.VideoURL})
	}

	url, err := h.s3.GenerateDownloadURL(key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate video URL",
		})
	}
	return c.JSON(fiber.Map{"url": url})
}

// ConfirmUpload records the uploaded video and flips the project READY
func (h *StorageHandler) ConfirmUpload(c *fiber.Ctx) error {
	if h.s3 == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "S3 service is not configured",
		})
	}

	claims := c.Locals("claims").(*auth.Claims)
	project, err := resolveProject(h.db, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "project not found",
		})
	}
	if project.EditorID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "only the editor can upload the video",
		})
	}

	var req ConfirmUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "key is required",
		})
	}
	if req.Duration < 0 {
		req.Duration = 0
	}

	// Re-upload replaces the object; drop the old one, best effort.
	if project.VideoURL != "" {
		if oldKey := h.s3.KeyFromURL(project.VideoURL); oldKey != "" && oldKey != req.Key {
			if err := h.s3.DeleteObject(c.Context(), oldKey); err != nil {
				logger.Sugar.Warnw("failed to delete replaced video", "key", oldKey, "error", err)
			}
		}
	}

	updates := map[string]interface{}{
		"video_url": h.s3.ObjectURL(h.region, req.Key),
		"duration":  req.Duration,
		"status":    model.ProjectStatusReady.String(),
	}
	if err := h.db.Model(&model.Project{}).Where("id = ?", project.ID).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update project",
		})
	}

	logger.Sugar.Infow("video upload confirmed",
		"project_id", project.ID, "key", req.Key, "duration", req.Duration)

	return c.JSON(fiber.Map{
		"success":   true,
		"video_url": updates["video_url"],
		"status":    model.ProjectStatusReady.String(),
	})
}
