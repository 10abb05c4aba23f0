package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/port"
)

const repairLockKey = "lock:repair:locations"
const repairLockTTL = 5 * time.Minute

// TransactionManager applies weight changes to locations. Every commit
// re-reads the target and its bay inside one store transaction and
// re-validates both ceilings, so concurrent sessions aiming at the same
// bay cannot overshoot the shared cap. Conflicts are surfaced, never
// retried here; retry policy belongs to the caller.
type TransactionManager struct {
	store port.Store
	cache port.CacheRepository
	cfg   domain.CapacityConfig
}

func NewTransactionManager(store port.Store, cache port.CacheRepository, cfg domain.CapacityConfig) *TransactionManager {
	return &TransactionManager{store: store, cache: cache, cfg: cfg}
}

// ApplyWeightDelta adds delta (negative on removal) to one location's
// weight, recomputes its status and commits, all-or-nothing.
func (m *TransactionManager) ApplyWeightDelta(ctx context.Context, code string, delta float64) (*domain.Location, error) {
	var updated *domain.Location
	err := m.store.InTransaction(ctx, func(tx port.Tx) error {
		loc, err := m.applyDelta(ctx, tx, code, delta)
		if err != nil {
			return err
		}
		updated = loc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// applyDelta is the heart of a commit: lock, validate against the
// location and bay ceilings, conditional write on the location's
// version. Runs inside a caller-owned transaction so composite commits
// stay atomic with item and movement writes.
func (m *TransactionManager) applyDelta(ctx context.Context, tx port.Tx, code string, delta float64) (*domain.Location, error) {
	loc, err := tx.LockLocationByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("read location: %w", err)
	}
	if loc == nil {
		return nil, fmt.Errorf("%w: location %s", domain.ErrNotFound, code)
	}

	newWeight := loc.CurrentWeight + delta
	if newWeight < 0 {
		return nil, fmt.Errorf("%w: weight of %s would drop below zero", domain.ErrValidation, code)
	}
	if newWeight > loc.MaxWeight {
		return nil, fmt.Errorf("%w: %s cannot exceed its %gkg limit", domain.ErrValidation, code, loc.MaxWeight)
	}

	bayLocations, err := tx.LockBayLocations(ctx, loc.Row, loc.Bay)
	if err != nil {
		return nil, fmt.Errorf("read bay %s%s: %w", loc.Row, loc.Bay, err)
	}
	var otherWeight float64
	for _, other := range bayLocations {
		if other.Code != code {
			otherWeight += other.CurrentWeight
		}
	}
	if otherWeight+newWeight > m.cfg.BayMaxWeight {
		return nil, fmt.Errorf("%w: bay %s%s cannot exceed its %gkg limit",
			domain.ErrValidation, loc.Row, loc.Bay, m.cfg.BayMaxWeight)
	}

	update := port.LocationWeightUpdate{
		CurrentWeight: newWeight,
		Status:        domain.StatusFor(newWeight, loc.MaxWeight),
	}
	if err := tx.ConditionalUpdateLocation(ctx, code, loc.Version, update); err != nil {
		return nil, err
	}

	out := *loc
	out.CurrentWeight = update.CurrentWeight
	out.Status = update.Status
	out.Version++
	return &out, nil
}

// CommitPlacement finalizes a verified placement: the location gains
// the item's weight, the item becomes placed at that location, and a
// Movement(IN) record is appended in one transaction, all-or-nothing.
func (m *TransactionManager) CommitPlacement(ctx context.Context, itemID, locationCode, operator, notes string) (*domain.Location, error) {
	var updated *domain.Location
	err := m.store.InTransaction(ctx, func(tx port.Tx) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("read item: %w", err)
		}
		if item == nil {
			return fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
		}
		if item.Status != domain.ItemStatusPending {
			return fmt.Errorf("%w: item %s is %s, only pending items can be placed",
				domain.ErrValidation, item.SystemCode, item.Status)
		}

		loc, err := m.applyDelta(ctx, tx, locationCode, item.Weight)
		if err != nil {
			return err
		}

		if err := tx.SetItemPlaced(ctx, item.ID, locationCode); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		if err := tx.AppendMovement(ctx, domain.Movement{
			ID:            uuid.NewString(),
			ItemID:        item.ID,
			ItemReference: item.ReferenceCode,
			Direction:     domain.DirectionIn,
			Weight:        item.Weight,
			LocationCode:  locationCode,
			Operator:      operator,
			Notes:         notes,
			Timestamp:     time.Now(),
		}); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}

		updated = loc
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.bumpCounter(ctx, domain.DirectionIn)
	return updated, nil
}

// CommitRemoval finalizes a verified pick: the recorded location loses
// the item's weight, the item becomes removed with no location, and a
// Movement(OUT) record is appended atomically.
func (m *TransactionManager) CommitRemoval(ctx context.Context, itemID, operator, notes string) (*domain.Location, error) {
	var updated *domain.Location
	err := m.store.InTransaction(ctx, func(tx port.Tx) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("read item: %w", err)
		}
		if item == nil {
			return fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
		}
		if item.Status != domain.ItemStatusPlaced || item.Location == "" {
			return fmt.Errorf("%w: item %s is %s, only placed items can be removed",
				domain.ErrValidation, item.SystemCode, item.Status)
		}

		loc, err := m.applyDelta(ctx, tx, item.Location, -item.Weight)
		if err != nil {
			return err
		}

		if err := tx.SetItemRemoved(ctx, item.ID); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		if err := tx.AppendMovement(ctx, domain.Movement{
			ID:            uuid.NewString(),
			ItemID:        item.ID,
			ItemReference: item.ReferenceCode,
			Direction:     domain.DirectionOut,
			Weight:        item.Weight,
			LocationCode:  item.Location,
			Operator:      operator,
			Notes:         notes,
			Timestamp:     time.Now(),
		}); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}

		updated = loc
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.bumpCounter(ctx, domain.DirectionOut)
	return updated, nil
}

// bumpCounter feeds the dashboard fast path. Counters are advisory;
// stats fall back to store counts when a bump was lost.
func (m *TransactionManager) bumpCounter(ctx context.Context, direction domain.Direction) {
	if m.cache == nil {
		return
	}
	_ = m.cache.BumpMovementCounter(ctx, direction, time.Now())
}

// RepairLocations backfills maxWeight and status on inconsistent
// location records: maxWeight from the level ceiling, status derived
// from the existing weight. Only dirty records are written, so a second
// run over a consistent set writes nothing. A cache lock keeps
// concurrent runs from interleaving.
func (m *TransactionManager) RepairLocations(ctx context.Context) (int, error) {
	if m.cache != nil {
		ok, err := m.cache.AcquireLock(ctx, repairLockKey, repairLockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire repair lock: %w", err)
		}
		if !ok {
			return 0, fmt.Errorf("%w: repair already running", domain.ErrConflict)
		}
		defer func() { _ = m.cache.ReleaseLock(ctx, repairLockKey) }()
	}

	locations, err := m.store.ListLocations(ctx, port.LocationFilter{})
	if err != nil {
		return 0, fmt.Errorf("list locations: %w", err)
	}

	var dirty []domain.Location
	for _, loc := range locations {
		if loc.MaxWeight <= 0 || loc.Status == "" {
			dirty = append(dirty, loc)
		}
	}
	if len(dirty) == 0 {
		return 0, nil
	}

	err = m.store.InTransaction(ctx, func(tx port.Tx) error {
		for _, loc := range dirty {
			maxWeight := loc.MaxWeight
			if maxWeight <= 0 {
				maxWeight = m.cfg.LevelCeilingOrFallback(loc.Level)
			}
			repair := port.LocationRepair{
				MaxWeight:     maxWeight,
				CurrentWeight: loc.CurrentWeight,
				Status:        domain.StatusFor(loc.CurrentWeight, maxWeight),
			}
			if err := tx.RepairLocation(ctx, loc.Code, repair); err != nil {
				return fmt.Errorf("repair %s: %w", loc.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(dirty), nil
}
