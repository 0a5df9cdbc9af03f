// internal/store/store.go
package store

import (
	"context"

	"github.com/tavernlabs/liarsbar/internal/game"
)

// Store persists the full registry snapshot. Save must be atomic: a crash
// mid-write can never leave a half-written document behind. Load returns
// (nil, nil) when no snapshot exists yet.
type Store interface {
	Save(ctx context.Context, snap *game.Snapshot) error
	Load(ctx context.Context) (*game.Snapshot, error)
	Close() error
}
