package repo

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// CreateUser inserts u unless the email is taken; created reports which happened.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) (created bool, err error) {
	res := r.DB.WithContext(ctx).Where(models.User{Email: u.Email}).FirstOrCreate(u)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) SetUserRole(ctx context.Context, id uint, role string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role).Error
}

func (r *GormRepo) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	if err := r.DB.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("id ASC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}
