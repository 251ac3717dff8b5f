package handlers

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader) (string, error)
}

// UploadHandler accepts multipart uploads from the kiosk and the app.
type UploadHandler struct {
	uploads Uploader
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(uploads Uploader) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload stores the multipart field "file".
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", map[string]any{"field": "file"})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("could not read upload", nil)
	}
	defer file.Close()

	fileURL, err := h.uploads.Upload(c.UserContext(), file)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"url": fileURL}})
}
