package service

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/spec-kit/frontdesk/internal/storage"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

var allowedUploadTypes = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// UploadService stores visitor photos and attachments in object storage.
type UploadService struct {
	store    storage.ObjectStore
	maxBytes int64
}

// NewUploadService constructs the service. store may be nil when storage
// is not configured.
func NewUploadService(store storage.ObjectStore, maxBytes int64) *UploadService {
	return &UploadService{store: store, maxBytes: maxBytes}
}

// Upload sniffs the content type, rejects anything outside the allow-list
// and stores the file under uploads/<uuid><ext>. It returns the public URL.
func (s *UploadService) Upload(ctx context.Context, body io.Reader) (string, error) {
	if s.store == nil {
		return "", apperrors.NewUnavailable("file storage is not configured")
	}
	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return "", apperrors.NewValidationError("could not read upload", nil)
	}
	if len(data) == 0 {
		return "", apperrors.NewValidationError("file is empty", nil)
	}
	if int64(len(data)) > s.maxBytes {
		return "", apperrors.NewPayloadTooLarge("file exceeds the upload limit", map[string]any{"maxBytes": s.maxBytes})
	}

	detected := mimetype.Detect(data)
	var contentType, ext string
	for m := detected; m != nil; m = m.Parent() {
		if e, ok := allowedUploadTypes[m.String()]; ok {
			contentType, ext = m.String(), e
			break
		}
	}
	if ext == "" {
		return "", apperrors.NewUnsupportedMediaType("file type not allowed", map[string]any{"type": detected.String()})
	}

	key := "uploads/" + uuid.NewString() + ext
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return "", apperrors.NewUnavailable("file storage is not configured")
		}
		return "", apperrors.NewInternalError(err)
	}
	return url, nil
}
