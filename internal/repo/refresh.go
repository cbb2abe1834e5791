package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

var ErrRefreshUnusable = errors.New("refresh token expired or revoked")

func (r *GormRepo) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func refreshUsable(db *gorm.DB, jti, hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("jti = ? AND token_hash = ?", jti, hash).First(&t).Error; err != nil {
		return nil, err
	}
	if t.Revoked || t.ExpiresAt.Before(time.Now()) {
		return nil, ErrRefreshUnusable
	}
	return &t, nil
}

// RotateRefreshToken revokes the old token and stores its replacement atomically.
// It returns the owner of the old token.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, next *models.RefreshToken) (uint, error) {
	var userID uint
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := refreshUsable(tx, oldJTI, oldHash)
		if err != nil {
			return err
		}
		userID = old.UserID
		if err := tx.Model(&models.RefreshToken{}).Where("id = ?", old.ID).Update("revoked", true).Error; err != nil {
			return err
		}
		next.UserID = old.UserID
		return tx.Create(next).Error
	})
	return userID, err
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).Where("jti = ?", jti).Update("revoked", true).Error
}

func (r *GormRepo) RevokeUserRefreshTokens(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).Update("revoked", true).Error
}
