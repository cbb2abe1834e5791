package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", a.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}

func (r *GormRepo) GetAddress(ctx context.Context, id uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var items []models.Address
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default DESC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateAddressFields writes the named columns of an address userID owns.
// Promoting it to default clears the flag on the owner's other addresses.
func (r *GormRepo) UpdateAddressFields(ctx context.Context, userID, id uint, fields map[string]any) (*models.Address, error) {
	var a models.Address
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
			return err
		}
		if def, ok := fields["is_default"].(bool); ok && def {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND id <> ? AND is_default = ?", userID, id, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		if len(fields) > 0 {
			if err := tx.Model(&a).Updates(fields).Error; err != nil {
				return err
			}
		}
		return tx.First(&a, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAddress removes the address only if userID owns it.
func (r *GormRepo) DeleteAddress(ctx context.Context, userID, id uint) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
