package service

import (
	"context"
	"fmt"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/port"
)

// LocationService is the read side of the location registry plus the
// one-time grid setup. All weight mutations go through the
// TransactionManager.
type LocationService struct {
	store port.Store
	cfg   domain.CapacityConfig
}

func NewLocationService(store port.Store, cfg domain.CapacityConfig) *LocationService {
	return &LocationService{store: store, cfg: cfg}
}

func (s *LocationService) All(ctx context.Context) ([]domain.Location, error) {
	return s.store.ListLocations(ctx, port.LocationFilter{})
}

func (s *LocationService) ByStatus(ctx context.Context, status domain.LocationStatus) ([]domain.Location, error) {
	return s.store.ListLocations(ctx, port.LocationFilter{Status: status})
}

func (s *LocationService) BayLocations(ctx context.Context, row, bay string) ([]domain.Location, error) {
	return s.store.ListLocations(ctx, port.LocationFilter{Row: row, Bay: bay})
}

func (s *LocationService) ByCode(ctx context.Context, code string) (*domain.Location, error) {
	loc, err := s.store.GetLocationByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("%w: location %s", domain.ErrNotFound, code)
	}
	return loc, nil
}

// AvailableFor lists every location that could accept the given weight
// right now, considering both the level ceiling and its bay's headroom.
func (s *LocationService) AvailableFor(ctx context.Context, weight float64) ([]domain.Location, error) {
	locations, err := s.store.ListLocations(ctx, port.LocationFilter{})
	if err != nil {
		return nil, err
	}

	bayGroups := domain.GroupByBay(locations)
	var available []domain.Location
	for _, loc := range locations {
		if s.cfg.CanAccept(loc, weight, bayGroups[loc.BayKey()]) {
			available = append(available, loc)
		}
	}
	return available, nil
}

// SetupRow generates and persists the location grid for one row across
// a bay range. Intended for initial warehouse commissioning; existing
// codes cause the store to reject the batch.
func (s *LocationService) SetupRow(ctx context.Context, row string, startBay, endBay int) ([]domain.Location, error) {
	locations, err := domain.GenerateBayRange(row, startBay, endBay, s.cfg)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateLocations(ctx, locations); err != nil {
		return nil, fmt.Errorf("create locations: %w", err)
	}
	return locations, nil
}
