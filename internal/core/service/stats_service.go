package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/port"
)

type DashboardStats struct {
	TotalItems   int `json:"total_items"`
	GoodsInToday int `json:"goods_in_today"`
	PicksToday   int `json:"picks_today"`
}

// StatsService aggregates the dashboard counts. Daily movement counts
// come from cache counters when present and fall back to store counts.
type StatsService struct {
	store port.Store
	cache port.CacheRepository
}

func NewStatsService(store port.Store, cache port.CacheRepository) *StatsService {
	return &StatsService{store: store, cache: cache}
}

func (s *StatsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats

	total, err := s.store.CountItems(ctx)
	if err != nil {
		return stats, fmt.Errorf("count items: %w", err)
	}
	stats.TotalItems = total

	now := time.Now()
	stats.GoodsInToday, err = s.movementsToday(ctx, domain.DirectionIn, now)
	if err != nil {
		return stats, err
	}
	stats.PicksToday, err = s.movementsToday(ctx, domain.DirectionOut, now)
	if err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *StatsService) movementsToday(ctx context.Context, direction domain.Direction, now time.Time) (int, error) {
	if s.cache != nil {
		count, ok, err := s.cache.MovementCounter(ctx, direction, now)
		if err == nil && ok {
			return count, nil
		}
		// Fall through to the store on a cache miss or error.
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := s.store.CountMovementsSince(ctx, direction, midnight)
	if err != nil {
		return 0, fmt.Errorf("count %s movements: %w", direction, err)
	}
	return count, nil
}
