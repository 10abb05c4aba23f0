package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/port"
)

// ItemService handles goods-in intake and item reads. Items enter as
// pending with a generated barcode value and wait for a confirmation
// session to place them.
type ItemService struct {
	store port.Store
}

func NewItemService(store port.Store) *ItemService {
	return &ItemService{store: store}
}

func (s *ItemService) Receive(ctx context.Context, referenceCode, description string, weight float64, category string) (*domain.Item, error) {
	if referenceCode == "" {
		return nil, fmt.Errorf("%w: reference code is required", domain.ErrValidation)
	}
	if weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", domain.ErrValidation)
	}

	item := domain.Item{
		ID:            uuid.NewString(),
		ReferenceCode: referenceCode,
		SystemCode:    domain.GenerateItemCode(category, time.Now()),
		Description:   description,
		Weight:        weight,
		Category:      category,
		Status:        domain.ItemStatusPending,
		UpdatedAt:     time.Now(),
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, id)
	}
	return item, nil
}

func (s *ItemService) ListByStatus(ctx context.Context, status domain.ItemStatus) ([]domain.Item, error) {
	return s.store.ListItems(ctx, status)
}

func (s *ItemService) Movements(ctx context.Context, direction domain.Direction) ([]domain.Movement, error) {
	return s.store.ListMovements(ctx, direction)
}
