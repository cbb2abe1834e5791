package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	pkg_hash "github.com/Skotchmaster/marketplace/pkg/hash"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const minPasswordLen = 6

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	f := fieldErrors{}
	if name == "" {
		f.add("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		f.add("email", "must be a valid email")
	}
	if len(password) < minPasswordLen {
		f.add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleCustomer,
		Status:       models.StatusActive,
	}
	created, err := s.Repo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if !created {
		l.Warn("register_error", "status", 409, "reason", "user already exist")
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if notFound(err, ErrNotFound) == ErrNotFound {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if user.Status != models.StatusActive {
		l.Warn("login_failed", "status", 401, "reason", "inactive user", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// issue mints an access token and a freshly stored refresh token.
func (s *AuthService) issue(ctx context.Context, user *models.User) (*tokens.Pair, error) {
	pair, rt, err := s.mint(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) mint(user *models.User) (*tokens.Pair, *models.RefreshToken, error) {
	now := time.Now()
	sub := strconv.FormatUint(uint64(user.ID), 10)

	accessExp := now.Add(s.AccessTTL)
	access, err := tokens.NewAccessToken(s.AccessSecret, sub, user.Role, accessExp)
	if err != nil {
		return nil, nil, err
	}

	refreshExp := now.Add(s.RefreshTTL)
	refresh, jti, err := tokens.NewRefreshToken(s.RefreshSecret, sub, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	rt := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: tokens.Sha256Hex(refresh),
		JTI:       jti,
		ExpiresAt: refreshExp,
	}
	return &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Role:         user.Role,
	}, rt, nil
}

// Refresh rotates a refresh token. A token can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "bad token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}
	user, err := s.Repo.GetUser(ctx, uint(uid))
	if err != nil {
		return nil, wrapMissing(err, ErrInvalidRefreshToken, "user %d", uid)
	}
	if user.Status != models.StatusActive {
		l.Warn("refresh_failed", "status", 401, "reason", "inactive user", "user_id", user.ID)
		return nil, ErrInvalidRefreshToken
	}

	pair, next, err := s.mint(user)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.RotateRefreshToken(ctx, claims.ID, tokens.Sha256Hex(refreshToken), next); err != nil {
		if errors.Is(err, repo.ErrRefreshUnusable) || notFound(err, ErrNotFound) == ErrNotFound {
			l.Warn("refresh_failed", "status", 401, "reason", "revoked or unknown", "user_id", user.ID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return pair, nil
}

// Logout revokes the token; an unparsable token is ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, claims.ID)
}

// BecomeSeller upgrades a customer and returns tokens carrying the new role.
func (s *AuthService) BecomeSeller(ctx context.Context, actor Identity) (*tokens.Pair, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	user, err := s.Repo.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, wrapMissing(err, ErrNotFound, "user %d", actor.UserID)
	}
	if user.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%w: user is already a %s", ErrConflict, user.Role)
	}

	user.Role = models.RoleSeller
	pair, rt, err := s.mint(user)
	if err != nil {
		return nil, err
	}
	// Tokens minted for the customer role stop refreshing once the role changes.
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.SetUserRole(ctx, user.ID, models.RoleSeller); err != nil {
			return err
		}
		if err := tx.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			return err
		}
		return tx.CreateRefreshToken(ctx, rt)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("become_seller_success", "svc", "auth.become_seller", "user_id", user.ID)
	return pair, nil
}

// Me returns the caller with their store, addresses and cart.
func (s *AuthService) Me(ctx context.Context, actor Identity) (*Profile, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	user, err := s.Repo.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, wrapMissing(err, ErrNotFound, "user %d", actor.UserID)
	}
	stores, err := s.Repo.StoresByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	addrs, err := s.Repo.ListAddresses(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	cart, err := s.Repo.GetCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Stores: stores, Addresses: addrs, Cart: cart}, nil
}

type Profile struct {
	*models.User
	Stores    []models.Store    `json:"stores"`
	Addresses []models.Address  `json:"addresses"`
	Cart      []models.CartItem `json:"cart"`
}
