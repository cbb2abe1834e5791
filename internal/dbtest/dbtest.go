// Package dbtest opens migrated in-memory databases and seeds marketplace fixtures for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	pkgdb "github.com/Skotchmaster/marketplace/pkg/db"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return db
}

type Fixture struct {
	Buyer   models.User
	Seller  models.User
	Admin   models.User
	Store   models.Store
	Address models.Address
}

// Seed creates a buyer, a seller with one store, an admin and the buyer's address.
func Seed(t testing.TB, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{
		Buyer:  models.User{Name: "Bob Buyer", Email: "buyer@example.com", PasswordHash: "x", Role: models.RoleCustomer},
		Seller: models.User{Name: "Sue Seller", Email: "seller@example.com", PasswordHash: "x", Role: models.RoleSeller},
		Admin:  models.User{Name: "Ann Admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin},
	}
	require.NoError(t, db.Create(&f.Buyer).Error)
	require.NoError(t, db.Create(&f.Seller).Error)
	require.NoError(t, db.Create(&f.Admin).Error)

	f.Store = models.Store{Name: "Sue's Goods", OwnerID: f.Seller.ID}
	require.NoError(t, db.Create(&f.Store).Error)

	f.Address = models.Address{
		UserID: f.Buyer.ID, Street: "1 Main St", City: "Springfield",
		State: "IL", ZipCode: "62701", Country: "US", IsDefault: true,
	}
	require.NoError(t, db.Create(&f.Address).Error)
	return f
}

func (f *Fixture) Product(t testing.TB, db *gorm.DB, storeID uint, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:    "item",
		Price:   decimal.RequireFromString(price),
		Stock:   stock,
		StoreID: storeID,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func (f *Fixture) OtherStore(t testing.TB, db *gorm.DB) models.Store {
	t.Helper()
	owner := models.User{Name: "Other Seller", Email: "other@example.com", PasswordHash: "x", Role: models.RoleSeller}
	require.NoError(t, db.Create(&owner).Error)
	s := models.Store{Name: "Elsewhere", OwnerID: owner.ID}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func Stock(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}

func Count(t testing.TB, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
