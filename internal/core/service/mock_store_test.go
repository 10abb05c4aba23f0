package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/port"
)

// memStore is an in-memory port.Store. Transactions stage their writes
// and apply them on commit only, under one store-wide mutex, matching
// the isolation the real adapter gets from the database.
type memStore struct {
	mu        sync.Mutex
	locations map[string]domain.Location
	items     map[string]domain.Item
	movements []domain.Movement

	// failAppendMovement makes AppendMovement fail once, to exercise
	// rollback of composite commits.
	failAppendMovement bool
	// conflictNextUpdate makes the next ConditionalUpdateLocation
	// report a version conflict.
	conflictNextUpdate bool
}

func newMemStore() *memStore {
	return &memStore{
		locations: make(map[string]domain.Location),
		items:     make(map[string]domain.Item),
	}
}

func (s *memStore) addLocation(loc domain.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.Code] = loc
}

func (s *memStore) addItem(item domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *memStore) location(code string) domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locations[code]
}

func (s *memStore) item(id string) domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

func (s *memStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

func (s *memStore) listLocked(filter port.LocationFilter) []domain.Location {
	var out []domain.Location
	for _, loc := range s.locations {
		if filter.Status != "" && loc.Status != filter.Status {
			continue
		}
		if filter.Row != "" && loc.Row != filter.Row {
			continue
		}
		if filter.Bay != "" && loc.Bay != filter.Bay {
			continue
		}
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (s *memStore) ListLocations(ctx context.Context, filter port.LocationFilter) ([]domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(filter), nil
}

func (s *memStore) GetLocationByCode(ctx context.Context, code string) (*domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loc, ok := s.locations[code]; ok {
		out := loc
		return &out, nil
	}
	return nil, nil
}

func (s *memStore) CreateLocations(ctx context.Context, locations []domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, loc := range locations {
		if _, exists := s.locations[loc.Code]; exists {
			return fmt.Errorf("location %s already exists", loc.Code)
		}
	}
	for _, loc := range locations {
		s.locations[loc.Code] = loc
	}
	return nil
}

func (s *memStore) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[id]; ok {
		out := item
		return &out, nil
	}
	return nil, nil
}

func (s *memStore) ListItems(ctx context.Context, status domain.ItemStatus) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Item
	for _, item := range s.items {
		if status == "" || item.Status == status {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateItem(ctx context.Context, item domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("item %s already exists", item.ID)
	}
	s.items[item.ID] = item
	return nil
}

func (s *memStore) CountItems(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *memStore) ListMovements(ctx context.Context, direction domain.Direction) ([]domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Movement
	for _, mv := range s.movements {
		if direction == "" || mv.Direction == direction {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (s *memStore) CountMovementsSince(ctx context.Context, direction domain.Direction, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, mv := range s.movements {
		if mv.Direction == direction && !mv.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *memStore) InTransaction(ctx context.Context, fn func(tx port.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:       s,
		stagedLocs:  make(map[string]domain.Location),
		stagedItems: make(map[string]domain.Item),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for code, loc := range tx.stagedLocs {
		s.locations[code] = loc
	}
	for id, item := range tx.stagedItems {
		s.items[id] = item
	}
	s.movements = append(s.movements, tx.stagedMoves...)
	return nil
}

// memTx reads through to the store (its own writes first) and stages
// all writes until commit. The store mutex is held for the whole
// transaction.
type memTx struct {
	store       *memStore
	stagedLocs  map[string]domain.Location
	stagedItems map[string]domain.Item
	stagedMoves []domain.Movement
}

func (t *memTx) readLocation(code string) (domain.Location, bool) {
	if loc, ok := t.stagedLocs[code]; ok {
		return loc, true
	}
	loc, ok := t.store.locations[code]
	return loc, ok
}

func (t *memTx) LockLocationByCode(ctx context.Context, code string) (*domain.Location, error) {
	if loc, ok := t.readLocation(code); ok {
		out := loc
		return &out, nil
	}
	return nil, nil
}

func (t *memTx) LockBayLocations(ctx context.Context, row, bay string) ([]domain.Location, error) {
	locs := t.store.listLocked(port.LocationFilter{Row: row, Bay: bay})
	for i, loc := range locs {
		if staged, ok := t.stagedLocs[loc.Code]; ok {
			locs[i] = staged
		}
	}
	return locs, nil
}

func (t *memTx) ConditionalUpdateLocation(ctx context.Context, code string, expectedVersion int64, update port.LocationWeightUpdate) error {
	if t.store.conflictNextUpdate {
		t.store.conflictNextUpdate = false
		return fmt.Errorf("%w: location %s changed since read", domain.ErrConflict, code)
	}
	loc, ok := t.readLocation(code)
	if !ok || loc.Version != expectedVersion {
		return fmt.Errorf("%w: location %s changed since read", domain.ErrConflict, code)
	}
	loc.CurrentWeight = update.CurrentWeight
	loc.Status = update.Status
	loc.Version++
	loc.UpdatedAt = time.Now()
	t.stagedLocs[code] = loc
	return nil
}

func (t *memTx) RepairLocation(ctx context.Context, code string, repair port.LocationRepair) error {
	loc, ok := t.readLocation(code)
	if !ok {
		return fmt.Errorf("location %s missing", code)
	}
	loc.MaxWeight = repair.MaxWeight
	loc.CurrentWeight = repair.CurrentWeight
	loc.Status = repair.Status
	loc.UpdatedAt = time.Now()
	t.stagedLocs[code] = loc
	return nil
}

func (t *memTx) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	if item, ok := t.stagedItems[id]; ok {
		out := item
		return &out, nil
	}
	if item, ok := t.store.items[id]; ok {
		out := item
		return &out, nil
	}
	return nil, nil
}

func (t *memTx) SetItemPlaced(ctx context.Context, id, locationCode string) error {
	item, err := t.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s missing", id)
	}
	item.Status = domain.ItemStatusPlaced
	item.Location = locationCode
	item.UpdatedAt = time.Now()
	t.stagedItems[id] = *item
	return nil
}

func (t *memTx) SetItemRemoved(ctx context.Context, id string) error {
	item, err := t.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s missing", id)
	}
	item.Status = domain.ItemStatusRemoved
	item.Location = ""
	item.UpdatedAt = time.Now()
	t.stagedItems[id] = *item
	return nil
}

func (t *memTx) AppendMovement(ctx context.Context, mv domain.Movement) error {
	if t.store.failAppendMovement {
		t.store.failAppendMovement = false
		return fmt.Errorf("movement store unavailable")
	}
	t.stagedMoves = append(t.stagedMoves, mv)
	return nil
}

// mockCache is an in-memory port.CacheRepository.
type mockCache struct {
	mu       sync.Mutex
	locks    map[string]bool
	counters map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{
		locks:    make(map[string]bool),
		counters: make(map[string]int),
	}
}

func (c *mockCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] {
		return false, nil
	}
	c.locks[key] = true
	return true, nil
}

func (c *mockCache) ReleaseLock(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, key)
	return nil
}

func (c *mockCache) counterKey(direction domain.Direction, day time.Time) string {
	return strings.Join([]string{string(direction), day.Format("2006-01-02")}, ":")
}

func (c *mockCache) BumpMovementCounter(ctx context.Context, direction domain.Direction, day time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[c.counterKey(direction, day)]++
	return nil
}

func (c *mockCache) MovementCounter(ctx context.Context, direction domain.Direction, day time.Time) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, ok := c.counters[c.counterKey(direction, day)]
	return count, ok, nil
}
