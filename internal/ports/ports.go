package ports

import (
	"context"
	"errors"

	"github.com/forPelevin/shortsfinder/internal/types"
)

// ErrNotFound is returned by sources for unknown episode ids.
var ErrNotFound = errors.New("not found")

type TranscriptSource interface {
	Episodes(ctx context.Context) ([]types.Episode, error)
	Episode(ctx context.Context, id string) (types.Episode, error)
}

// Cache is an externally owned key-value store for encoded responses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}
