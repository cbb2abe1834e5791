package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Transaction runs fn against a repo bound to one database transaction.
// fn must use the tx repo only; the outer pool may be a single connection.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func (r *GormRepo) Dialect() string {
	return r.DB.Dialector.Name()
}

// SetLockTimeout bounds row-lock waits for the rest of the current transaction.
// SQLite has no row locks, so it is a no-op there.
func (r *GormRepo) SetLockTimeout(ctx context.Context, d time.Duration) error {
	if r.Dialect() != "postgres" || d <= 0 {
		return nil
	}
	// SET does not accept bind parameters.
	return r.DB.WithContext(ctx).Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds())).Error
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Store{},
		&models.Product{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.CartItem{},
		&models.RefreshToken{},
		&models.ProductReview{},
	)
}
