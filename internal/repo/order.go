package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

const itemBatchSize = 100

// CreateOrder inserts the order row and then its items in one batch.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	db := r.DB.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := db.Omit(clause.Associations).CreateInBatches(items, itemBatchSize).Error; err != nil {
		return err
	}
	order.Items = items
	return nil
}

func expanded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Buyer").
		Preload("Store").
		Preload("Store.Owner").
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Items.Product")
}

// LoadOrder returns the order with buyer, store owner and item products.
func (r *GormRepo) LoadOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := expanded(r.DB.WithContext(ctx)).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// LockOrder reads the order row FOR UPDATE.
func (r *GormRepo) LockOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) SetOrderStatus(ctx context.Context, id uint, status string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *GormRepo) ListOrdersByBuyer(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	return r.listOrders(ctx, "user_id = ?", userID, offset, limit)
}

func (r *GormRepo) ListOrdersByStore(ctx context.Context, storeID uint, offset, limit int) (int64, []models.Order, error) {
	return r.listOrders(ctx, "store_id = ?", storeID, offset, limit)
}

func (r *GormRepo) listOrders(ctx context.Context, where string, arg uint, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where(where, arg).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := expanded(r.DB.WithContext(ctx)).
		Where(where, arg).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}
