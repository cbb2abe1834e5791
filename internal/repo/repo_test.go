package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/dbtest"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

func TestLockProducts_DedupAndMissing(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	p1 := f.Product(t, db, f.Store.ID, "10.00", 5)
	p2 := f.Product(t, db, f.Store.ID, "3.50", 1)
	r := repo.New(db)

	err := r.Transaction(context.Background(), func(tx *repo.GormRepo) error {
		locked, err := tx.LockProducts(context.Background(), []uint{p2.ID, p1.ID, p2.ID, 9999})
		require.NoError(t, err)
		assert.Len(t, locked, 2)
		assert.Equal(t, 5, locked[p1.ID].Stock)
		assert.Nil(t, locked[9999])
		return nil
	})
	require.NoError(t, err)
}

func TestDecrementStock_Guard(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	p := f.Product(t, db, f.Store.ID, "10.00", 3)
	r := repo.New(db)
	ctx := context.Background()

	n, err := r.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, dbtest.Stock(t, db, p.ID))

	n, err = r.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 1, dbtest.Stock(t, db, p.ID))
}

func TestStockCheckConstraint(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	p := f.Product(t, db, f.Store.ID, "10.00", 1)

	err := db.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", -1).Error
	require.Error(t, err)
}

func TestProductRequiresStore(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	err := db.Create(&models.Product{Name: "orphan", Price: decimal.NewFromInt(1), StoreID: 4242}).Error
	require.Error(t, err)
}

func TestCreateAndLoadOrder(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	p := f.Product(t, db, f.Store.ID, "4.25", 10)
	r := repo.New(db)
	ctx := context.Background()

	order := &models.Order{
		UserID:          f.Buyer.ID,
		StoreID:         f.Store.ID,
		TotalAmount:     decimal.RequireFromString("8.50"),
		DeliveryAddress: f.Address.Snapshot(),
		Status:          models.OrderPaymentPending,
	}
	items := []models.OrderItem{{ProductID: p.ID, Quantity: 2, PriceAtOrder: p.Price}}
	require.NoError(t, r.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.CreateOrder(ctx, order, items)
	}))
	require.NotZero(t, order.ID)

	got, err := r.LoadOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Buyer)
	assert.Equal(t, f.Buyer.Email, got.Buyer.Email)
	require.NotNil(t, got.Store)
	require.NotNil(t, got.Store.Owner)
	assert.Equal(t, f.Seller.ID, got.Store.Owner.ID)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("8.50")))
	assert.True(t, got.Items[0].PriceAtOrder.Equal(decimal.RequireFromString("4.25")))

	total, list, err := r.ListOrdersByBuyer(ctx, f.Buyer.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	total, _, err = r.ListOrdersByStore(ctx, f.Store.ID+100, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTransactionRollback(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	p := f.Product(t, db, f.Store.ID, "1.00", 5)
	r := repo.New(db)
	ctx := context.Background()

	err := r.Transaction(ctx, func(tx *repo.GormRepo) error {
		_, err := tx.DecrementStock(ctx, p.ID, 5)
		require.NoError(t, err)
		return gorm.ErrInvalidData
	})
	require.ErrorIs(t, err, gorm.ErrInvalidData)
	assert.Equal(t, 5, dbtest.Stock(t, db, p.ID))
}

func TestRotateRefreshToken(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	r := repo.New(db)
	ctx := context.Background()

	old := &models.RefreshToken{UserID: f.Buyer.ID, TokenHash: "h1", JTI: "j1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.CreateRefreshToken(ctx, old))

	next := &models.RefreshToken{TokenHash: "h2", JTI: "j2", ExpiresAt: time.Now().Add(time.Hour)}
	uid, err := r.RotateRefreshToken(ctx, "j1", "h1", next)
	require.NoError(t, err)
	assert.Equal(t, f.Buyer.ID, uid)
	assert.Equal(t, f.Buyer.ID, next.UserID)

	_, err = r.RotateRefreshToken(ctx, "j1", "h1", &models.RefreshToken{TokenHash: "h3", JTI: "j3", ExpiresAt: time.Now().Add(time.Hour)})
	require.ErrorIs(t, err, repo.ErrRefreshUnusable)

	_, err = r.RotateRefreshToken(ctx, "j2", "wrong", &models.RefreshToken{TokenHash: "h4", JTI: "j4", ExpiresAt: time.Now().Add(time.Hour)})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartAndAddresses(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	p := f.Product(t, db, f.Store.ID, "2.00", 5)
	r := repo.New(db)
	ctx := context.Background()

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: f.Buyer.ID, ProductID: p.ID, Quantity: 1}))
	item := &models.CartItem{UserID: f.Buyer.ID, ProductID: p.ID, Quantity: 2}
	require.NoError(t, r.AddToCart(ctx, item))
	assert.Equal(t, 3, item.Quantity)

	deleted, got, err := r.DeleteOneFromCart(ctx, f.Buyer.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 2, got.Quantity)

	require.NoError(t, r.ClearCart(ctx, f.Buyer.ID))
	cart, err := r.GetCart(ctx, f.Buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	second := &models.Address{UserID: f.Buyer.ID, Street: "2 Oak", City: "X", Country: "US", IsDefault: true}
	require.NoError(t, r.CreateAddress(ctx, second))
	list, err := r.ListAddresses(ctx, f.Buyer.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.False(t, list[1].IsDefault)

	require.ErrorIs(t, r.DeleteAddress(ctx, f.Seller.ID, second.ID), gorm.ErrRecordNotFound)
	require.NoError(t, r.DeleteAddress(ctx, f.Buyer.ID, second.ID))
}
