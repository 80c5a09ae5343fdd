package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/novelverse/internal/blob"
	"github.com/redmonkez12/novelverse/internal/logging"
)

// MaxCoverBytes is the largest decoded cover image accepted
const MaxCoverBytes = 2_500_000

const defaultExtension = "png"

var (
	ErrInvalidDataURL = errors.New("invalid dataUrl")
	ErrCoverTooLarge  = errors.New("cover too large (max ~2.5MB)")
)

type Service struct {
	store blob.Store
	now   func() time.Time
}

func NewService(store blob.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// UploadCover stores a cover image given as a data URL and returns its public URL
func (s *Service) UploadCover(ctx context.Context, userID uuid.UUID, dataURL, filename string) (string, error) {
	logger := logging.GetLoggerFromContext(ctx)

	contentType, data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if len(data) > MaxCoverBytes {
		return "", ErrCoverTooLarge
	}

	key := fmt.Sprintf("covers/%s/%d.%s", userID, s.now().UnixMilli(), extension(filename))
	url, err := s.store.Put(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("failed to store cover: %w", err)
	}

	logger.Info("cover uploaded", "user_id", userID, "key", key, "bytes", len(data))
	return url, nil
}
