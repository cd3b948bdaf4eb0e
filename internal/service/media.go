package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/model"
)

const maxImageSize = 2 << 20 // 2 MiB

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type MediaRefStore interface {
	SwapMediaRef(ctx context.Context, userID string, slot model.MediaSlot, ref string) (string, error)
}

// ObjectStorage is the external media collaborator. Refs are object keys.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type MediaService struct {
	repo    MediaRefStore
	storage ObjectStorage
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewMediaService(repo MediaRefStore, storage ObjectStorage, log *slog.Logger, m *metrics.Metrics) *MediaService {
	if log == nil {
		log = slog.Default()
	}
	return &MediaService{repo: repo, storage: storage, log: log.With("component", "media"), metrics: m}
}

// UpdateImage uploads a new avatar or cover image and points the user at it.
// Deleting the replaced object is best-effort: a failure is reported as
// CleanupFailed in the result, not as an error.
func (s *MediaService) UpdateImage(ctx context.Context, userID string, slot model.MediaSlot, upload model.MediaUpload) (*model.MediaUpdateResult, error) {
	if slot != model.SlotAvatar && slot != model.SlotCover {
		return nil, fmt.Errorf("%w: unknown media slot %q", ErrInvalidArgument, slot)
	}
	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an image file (jpeg, png, jpg, webp, gif)", ErrInvalidArgument, slot)
	}
	if upload.Size <= 0 || upload.Size > maxImageSize {
		return nil, fmt.Errorf("%w: %s file size must be less than 2MB", ErrInvalidArgument, slot)
	}
	if upload.Body == nil {
		return nil, fmt.Errorf("%w: %s file is required", ErrInvalidArgument, slot)
	}

	key := path.Join(string(slot), userID, uuid.NewString()+ext)
	if err := s.storage.Put(ctx, key, contentType, upload.Size, upload.Body); err != nil {
		return nil, fmt.Errorf("upload %s: %w", slot, err)
	}

	previous, err := s.repo.SwapMediaRef(ctx, userID, slot, key)
	if err != nil {
		s.deleteBestEffort(ctx, slot, key)
		if db.IsNoRows(err) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}

	result := &model.MediaUpdateResult{Ref: key, URL: s.storage.URL(key), Cleanup: model.CleanupSkipped}
	if previous != "" && previous != key {
		result.Cleanup = s.deleteBestEffort(ctx, slot, previous)
	}
	return result, nil
}

func (s *MediaService) deleteBestEffort(ctx context.Context, slot model.MediaSlot, key string) model.CleanupOutcome {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.log.WarnContext(ctx, "stale media cleanup failed", "slot", slot, "key", key, "error", err)
		s.metrics.CleanupFailure(string(slot))
		return model.CleanupFailed
	}
	return model.CleanupDone
}
