package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/dbtest"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

func TestReviewService(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	r := repo.New(db)
	svc := &ReviewService{Repo: r}
	catalog := &CatalogService{Repo: r}
	ctx := context.Background()
	buyer := Identity{UserID: f.Buyer.ID, Role: models.RoleCustomer}

	p := f.Product(t, db, f.Store.ID, "8.00", 4)

	_, err := svc.Create(ctx, buyer, ReviewInput{ProductID: p.ID, Rating: 5})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, db.Create(&models.Order{
		UserID: f.Buyer.ID, StoreID: f.Store.ID, TotalAmount: p.Price,
		DeliveryAddress: f.Address.Snapshot(), Status: models.OrderPaymentPending,
		Items: []models.OrderItem{{ProductID: p.ID, Quantity: 1, PriceAtOrder: p.Price}},
	}).Error)

	_, err = svc.Create(ctx, buyer, ReviewInput{ProductID: p.ID, Rating: 6})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "rating")

	_, err = svc.Create(ctx, buyer, ReviewInput{ProductID: 999, Rating: 3})
	require.ErrorIs(t, err, ErrProductNotFound)

	rv, err := svc.Create(ctx, buyer, ReviewInput{ProductID: p.ID, Rating: 4, Comment: " sturdy "})
	require.NoError(t, err)
	assert.Equal(t, "sturdy", rv.Comment)
	require.NotNil(t, rv.User)
	assert.Equal(t, f.Buyer.Name, rv.User.Name)
	assert.Empty(t, rv.User.Email)

	_, err = svc.Create(ctx, buyer, ReviewInput{ProductID: p.ID, Rating: 1})
	require.ErrorIs(t, err, ErrConflict)

	// A second buyer with their own order.
	other := models.User{Name: "Cat Customer", Email: "cat@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&models.Order{
		UserID: other.ID, StoreID: f.Store.ID, TotalAmount: p.Price,
		DeliveryAddress: f.Address.Snapshot(), Status: models.OrderDelivered,
		Items: []models.OrderItem{{ProductID: p.ID, Quantity: 1, PriceAtOrder: p.Price}},
	}).Error)
	_, err = svc.Create(ctx, Identity{UserID: other.ID, Role: models.RoleCustomer}, ReviewInput{ProductID: p.ID, Rating: 1})
	require.NoError(t, err)

	list, err := svc.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Reviews, 2)
	require.NotNil(t, got.AverageRating)
	assert.InDelta(t, 2.5, *got.AverageRating, 0.001)
}

func TestReviewService_CancelledOrderDoesNotCount(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := &ReviewService{Repo: repo.New(db)}
	p := f.Product(t, db, f.Store.ID, "8.00", 4)

	require.NoError(t, db.Create(&models.Order{
		UserID: f.Buyer.ID, StoreID: f.Store.ID, TotalAmount: p.Price,
		DeliveryAddress: f.Address.Snapshot(), Status: models.OrderCancelled,
		Items: []models.OrderItem{{ProductID: p.ID, Quantity: 1, PriceAtOrder: p.Price}},
	}).Error)

	_, err := svc.Create(context.Background(), Identity{UserID: f.Buyer.ID, Role: models.RoleCustomer}, ReviewInput{ProductID: p.ID, Rating: 5})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCatalog_UnreviewedProductAveragesZero(t *testing.T) {
	t.Parallel()
	svc, f := newCatalog(t)
	p := f.Product(t, svc.Repo.DB, f.Store.ID, "1.00", 1)

	got, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Reviews)
	require.NotNil(t, got.AverageRating)
	assert.Zero(t, *got.AverageRating)
}
