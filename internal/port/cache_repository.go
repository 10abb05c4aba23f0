package port

import (
	"context"
	"time"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
)

type CacheRepository interface {
	// AcquireLock sets a mutual-exclusion key, returns false if another
	// holder already has it. Used to keep bulk maintenance runs from
	// interleaving.
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ReleaseLock drops the key; safe to call when not held.
	ReleaseLock(ctx context.Context, key string) error

	// BumpMovementCounter increments the daily counter for a movement
	// direction (dashboard fast path).
	BumpMovementCounter(ctx context.Context, direction domain.Direction, day time.Time) error

	// MovementCounter reads a daily counter; ok is false when the
	// counter has expired or was never written.
	MovementCounter(ctx context.Context, direction domain.Direction, day time.Time) (count int, ok bool, err error)
}
