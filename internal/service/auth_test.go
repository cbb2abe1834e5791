package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/dbtest"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		Repo:          repo.New(dbtest.Open(t)),
		AccessSecret:  []byte("access"),
		RefreshSecret: []byte("refresh"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func TestAuth_RegisterLogin(t *testing.T) {
	t.Parallel()
	svc := newAuth(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ann", "Ann@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = svc.Register(ctx, "Ann again", "ann@example.com", "secret1")
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, "", "not-an-email", "123")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)

	pair, err := svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, svc.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.Equal(t, "1", claims.Subject)

	_, err = svc.Login(ctx, "ann@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_RefreshRotationAndLogout(t *testing.T) {
	t.Parallel()
	svc := newAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	first, err := svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, svc.Logout(ctx, second.RefreshToken))
	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestAuth_BecomeSeller(t *testing.T) {
	t.Parallel()
	svc := newAuth(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	pair, err := svc.BecomeSeller(ctx, Identity{UserID: u.ID, Role: models.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, pair.Role)

	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, svc.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, claims.Role)

	_, err = svc.BecomeSeller(ctx, Identity{UserID: u.ID, Role: models.RoleSeller})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.BecomeSeller(ctx, Identity{})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuth_BecomeSellerRevokesCustomerTokens(t *testing.T) {
	t.Parallel()
	svc := newAuth(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	old, err := svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	upgraded, err := svc.BecomeSeller(ctx, Identity{UserID: u.ID, Role: models.RoleCustomer})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, old.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	next, err := svc.Refresh(ctx, upgraded.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, next.Role)
}

func TestAuth_RefreshRejectsInactiveUser(t *testing.T) {
	t.Parallel()
	svc := newAuth(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Repo.DB.Model(&models.User{}).Where("id = ?", u.ID).Update("status", models.StatusInactive).Error)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuth_Me(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := &AuthService{Repo: repo.New(db)}
	ctx := context.Background()

	p := f.Product(t, db, f.Store.ID, "3.00", 2)
	require.NoError(t, db.Create(&models.CartItem{UserID: f.Buyer.ID, ProductID: p.ID, Quantity: 2}).Error)

	me, err := svc.Me(ctx, Identity{UserID: f.Buyer.ID, Role: models.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, f.Buyer.Email, me.Email)
	assert.Empty(t, me.Stores)
	assert.Len(t, me.Addresses, 1)
	require.Len(t, me.Cart, 1)
	assert.Equal(t, 2, me.Cart[0].Quantity)

	me, err = svc.Me(ctx, Identity{UserID: f.Seller.ID, Role: models.RoleSeller})
	require.NoError(t, err)
	require.Len(t, me.Stores, 1)
	assert.Equal(t, f.Store.ID, me.Stores[0].ID)

	_, err = svc.Me(ctx, Identity{})
	require.ErrorIs(t, err, ErrUnauthenticated)
}
