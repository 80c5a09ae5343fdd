package blob

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redmonkez12/novelverse/internal/config"
)

// Store persists public binary objects and returns the URL they are served from
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// NewStore builds the Store selected by cfg.Driver
func NewStore(cfg config.BlobConfig) (Store, error) {
	switch cfg.Driver {
	case config.BlobDriverLocal:
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL), nil
	case config.BlobDriverVercel:
		return NewVercelStore(cfg.APIURL, cfg.Token, &http.Client{Timeout: 30 * time.Second}), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
