package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/dbtest"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := &NotificationService{Repo: repo.New(db)}
	ctx := context.Background()

	order := &models.Order{
		ID: 5, UserID: f.Buyer.ID, StoreID: f.Store.ID,
		TotalAmount: decimal.RequireFromString("3.50"),
		Buyer:       &f.Buyer, Store: &f.Store,
	}
	require.NoError(t, svc.OrderPlaced(ctx, order))
	require.NoError(t, svc.StatusChanged(ctx, order, models.OrderPaymentConfirmed))

	list, err := svc.List(ctx, f.Buyer.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotifyOrderStatusUpdate, list[0].Type)
	assert.Equal(t, models.NotifyOrderConfirmation, list[1].Type)
	assert.Equal(t, "Your order #5 for 3.50 has been placed successfully!", list[1].Message)

	n, err := svc.MarkRead(ctx, f.Buyer.ID, list[1].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	n, err = svc.MarkRead(ctx, f.Buyer.ID, list[1].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	unread, err := svc.List(ctx, f.Buyer.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, list[0].ID, unread[0].ID)

	_, err = svc.MarkRead(ctx, f.Seller.ID, list[0].ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.MarkRead(ctx, f.Buyer.ID, 9999)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	seller, err := svc.List(ctx, f.Seller.ID, false)
	require.NoError(t, err)
	require.Len(t, seller, 1)
	assert.Equal(t, "You have a new order #5 from Bob Buyer for 3.50.", seller[0].Message)
}

func TestNotificationService_CancelWithoutAdmins(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", f.Admin.ID).Update("role", models.RoleCustomer).Error)
	svc := &NotificationService{Repo: repo.New(db)}

	order := &models.Order{ID: 9, UserID: f.Buyer.ID, StoreID: f.Store.ID, Store: &f.Store}
	require.NoError(t, svc.StatusChanged(context.Background(), order, models.OrderCancelled))
	assert.Equal(t, int64(2), dbtest.Count(t, db, &models.Notification{}))
}

func TestStatusMessage(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Your order #3 has been cancelled.", statusMessage(3, models.OrderCancelled))
	assert.Equal(t, "Your order #3 status has been updated to payment_pending.", statusMessage(3, models.OrderPaymentPending))
}
