package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCounterRepository implements invoice.CounterRepository using GORM
type GormCounterRepository struct {
	db *gorm.DB
}

// NewGormCounterRepository creates a new GormCounterRepository
func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// LatestForShop returns the most recent counter row for a shop,
// ordered by the update ordinate descending.
func (r *GormCounterRepository) LatestForShop(ctx context.Context, shopID string) (*invoice.NumberCounter, error) {
	var model models.NumberCounterModel
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("updated_at DESC").
		Limit(1).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load counter for shop %s: %w", shopID, err)
	}
	return model.ToDomain(), nil
}

// Upsert inserts or replaces the counter row keyed by shop id
func (r *GormCounterRepository) Upsert(ctx context.Context, counter *invoice.NumberCounter) error {
	counter.UpdatedAt = time.Now()
	model := models.NumberCounterModelFromDomain(counter)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_id"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert counter for shop %s: %w", counter.ShopID, err)
	}
	return nil
}

// Ensure GormCounterRepository implements invoice.CounterRepository
var _ invoice.CounterRepository = (*GormCounterRepository)(nil)
