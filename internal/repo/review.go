package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// CreateReview inserts rv unless the user already reviewed the product.
func (r *GormRepo) CreateReview(ctx context.Context, rv *models.ProductReview) (created bool, err error) {
	res := r.DB.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).Create(rv)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasPurchased reports whether userID holds a non-cancelled order containing productID.
func (r *GormRepo) HasPurchased(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ? AND orders.status <> ?", userID, productID, models.OrderCancelled).
		Count(&n).Error
	return n > 0, err
}

func reviewAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

func (r *GormRepo) GetReview(ctx context.Context, id uint) (*models.ProductReview, error) {
	var rv models.ProductReview
	if err := r.DB.WithContext(ctx).Preload("User", reviewAuthor).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *GormRepo) ListReviews(ctx context.Context, productID uint) ([]models.ProductReview, error) {
	var items []models.ProductReview
	if err := r.DB.WithContext(ctx).Preload("User", reviewAuthor).
		Where("product_id = ?", productID).Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AverageRating is 0 for a product nobody reviewed.
func (r *GormRepo) AverageRating(ctx context.Context, productID uint) (float64, error) {
	var avg float64
	err := r.DB.WithContext(ctx).Model(&models.ProductReview{}).
		Select("COALESCE(AVG(rating), 0)").
		Where("product_id = ?", productID).Scan(&avg).Error
	return avg, err
}
