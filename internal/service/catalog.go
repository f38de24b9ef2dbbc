package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// CatalogService manages flights and hotels as sellable items: their base
// price and the number of seats or rooms that can be sold.
type CatalogService struct {
	store repository.CatalogStore
	log   *zap.Logger
}

func NewCatalogService(store repository.CatalogStore, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{store: store, log: log}
}

// Upsert creates or resizes an item.  Resizing keeps the units already
// sold, so the available count never exceeds what is left to sell.
func (s *CatalogService) Upsert(ctx context.Context, item model.CatalogItem) (*model.CatalogItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	item.Name = strings.TrimSpace(item.Name)
	if item.ID == "" || item.Name == "" || !item.Kind.Valid() || item.BasePrice <= 0 || item.TotalCount < 0 {
		return nil, repository.ErrInvalidInput
	}
	item.BasePrice = roundMoney(item.BasePrice)
	if err := s.store.UpsertItem(ctx, &item); err != nil {
		return nil, err
	}
	s.log.Info("catalog item saved",
		zap.String("item_id", item.ID),
		zap.String("kind", item.Kind.String()),
		zap.Int("total", item.TotalCount),
		zap.Int("available", item.AvailableCount),
	)
	return &item, nil
}

// Get returns ErrNotFound when the item does not exist.
func (s *CatalogService) Get(ctx context.Context, kind model.ItemKind, id string) (*model.CatalogItem, error) {
	return s.store.GetItem(ctx, kind, id)
}

// List returns every item of one kind.
func (s *CatalogService) List(ctx context.Context, kind model.ItemKind) ([]model.CatalogItem, error) {
	if !kind.Valid() {
		return nil, repository.ErrInvalidInput
	}
	return s.store.ListItems(ctx, kind)
}
