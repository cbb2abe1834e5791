package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

type AddressService struct {
	Repo *repo.GormRepo
}

type AddressInput struct {
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
	IsDefault bool
}

func (s *AddressService) Create(ctx context.Context, userID uint, in AddressInput) (*models.Address, error) {
	f := fieldErrors{}
	if strings.TrimSpace(in.Street) == "" {
		f.add("street", "is required")
	}
	if strings.TrimSpace(in.City) == "" {
		f.add("city", "is required")
	}
	if strings.TrimSpace(in.Country) == "" {
		f.add("country", "is required")
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	a := &models.Address{
		UserID:    userID,
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		Country:   strings.TrimSpace(in.Country),
		IsDefault: in.IsDefault,
	}
	if err := s.Repo.CreateAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

type AddressPatch struct {
	Street    *string
	City      *string
	State     *string
	ZipCode   *string
	Country   *string
	IsDefault *bool
}

func (s *AddressService) Update(ctx context.Context, userID, id uint, patch AddressPatch) (*models.Address, error) {
	f := fieldErrors{}
	fields := map[string]any{}
	required := func(key, col string, v *string) {
		if v == nil {
			return
		}
		if strings.TrimSpace(*v) == "" {
			f.add(key, "must not be empty")
		}
		fields[col] = strings.TrimSpace(*v)
	}
	required("street", "street", patch.Street)
	required("city", "city", patch.City)
	required("country", "country", patch.Country)
	if patch.State != nil {
		fields["state"] = strings.TrimSpace(*patch.State)
	}
	if patch.ZipCode != nil {
		fields["zip_code"] = strings.TrimSpace(*patch.ZipCode)
	}
	if patch.IsDefault != nil {
		fields["is_default"] = *patch.IsDefault
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	a, err := s.Repo.UpdateAddressFields(ctx, userID, id, fields)
	if err != nil {
		return nil, wrapMissing(err, ErrAddressNotFound, "address %d", id)
	}
	return a, nil
}

func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.Repo.DeleteAddress(ctx, userID, id); err != nil {
		return wrapMissing(err, ErrAddressNotFound, "address %d", id)
	}
	return nil
}
