package port

import (
	"context"
	"time"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
)

// LocationFilter narrows ListLocations; zero values mean "all".
type LocationFilter struct {
	Status domain.LocationStatus
	Row    string
	Bay    string
}

// LocationWeightUpdate is the only mutation the engine applies to a
// location after setup: a new weight and its derived status.
type LocationWeightUpdate struct {
	CurrentWeight float64
	Status        domain.LocationStatus
}

// LocationRepair backfills capacity fields on inconsistent records.
type LocationRepair struct {
	MaxWeight     float64
	CurrentWeight float64
	Status        domain.LocationStatus
}

// Store is the persistent document store the engine works against. The
// engine owns no durable state of its own; it reads, validates and
// conditionally writes through this interface.
type Store interface {
	ListLocations(ctx context.Context, filter LocationFilter) ([]domain.Location, error)
	GetLocationByCode(ctx context.Context, code string) (*domain.Location, error)
	CreateLocations(ctx context.Context, locations []domain.Location) error

	GetItem(ctx context.Context, id string) (*domain.Item, error)
	ListItems(ctx context.Context, status domain.ItemStatus) ([]domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) error
	CountItems(ctx context.Context) (int, error)

	ListMovements(ctx context.Context, direction domain.Direction) ([]domain.Movement, error)
	CountMovementsSince(ctx context.Context, direction domain.Direction, since time.Time) (int, error)

	// InTransaction runs fn inside one isolated store transaction.
	// Returning an error rolls everything back; nothing fn wrote is
	// visible to other sessions until commit.
	InTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the commit-path operations. Lock* reads take row locks so
// that two sessions committing into the same bay serialize instead of
// silently overshooting the bay cap.
type Tx interface {
	LockLocationByCode(ctx context.Context, code string) (*domain.Location, error)
	LockBayLocations(ctx context.Context, row, bay string) ([]domain.Location, error)

	// ConditionalUpdateLocation applies the update only if the stored
	// version still equals expectedVersion; otherwise it returns
	// domain.ErrConflict and writes nothing.
	ConditionalUpdateLocation(ctx context.Context, code string, expectedVersion int64, update LocationWeightUpdate) error
	RepairLocation(ctx context.Context, code string, repair LocationRepair) error

	GetItem(ctx context.Context, id string) (*domain.Item, error)
	SetItemPlaced(ctx context.Context, id, locationCode string) error
	SetItemRemoved(ctx context.Context, id string) error

	AppendMovement(ctx context.Context, movement domain.Movement) error
}
