package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) (created bool, err error) {
	res := r.DB.WithContext(ctx).Where(models.Category{Name: c.Name}).FirstOrCreate(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// RenameCategory reports renamed=false when another category already holds name.
func (r *GormRepo) RenameCategory(ctx context.Context, id uint, name string) (renamed bool, err error) {
	var taken int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("name = ? AND id <> ?", name, id).Count(&taken).Error; err != nil {
		return false, err
	}
	if taken > 0 {
		return false, nil
	}
	res := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, gorm.ErrRecordNotFound
	}
	return true, nil
}

// DeleteCategory detaches the category from its products, then removes it.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) CreateStore(ctx context.Context, s *models.Store) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetStore(ctx context.Context, id uint) (*models.Store, error) {
	var s models.Store
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) GetStoreWithOwner(ctx context.Context, id uint) (*models.Store, error) {
	var s models.Store
	if err := r.DB.WithContext(ctx).Preload("Owner").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) ListStores(ctx context.Context, offset, limit int) (int64, []models.Store, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Store{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var stores []models.Store
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&stores).Error; err != nil {
		return 0, nil, err
	}
	return total, stores, nil
}

func (r *GormRepo) StoresByOwner(ctx context.Context, ownerID uint) ([]models.Store, error) {
	var stores []models.Store
	if err := r.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *GormRepo) UpdateStoreFields(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&models.Store{}).Where("id = ?", id).Updates(fields).Error
}
