package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) Get(ctx context.Context, userID uint) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, userID)
}

func (s *CartService) Add(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	f := fieldErrors{}
	if productID == 0 {
		f.add("productId", "is required")
	}
	if quantity < 1 {
		f.add("quantity", "must be >= 1")
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, wrapMissing(err, ErrProductNotFound, "product %d", productID)
	}

	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.Repo.AddToCart(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveOne drops a single unit; deleted reports that the line is gone.
func (s *CartService) RemoveOne(ctx context.Context, userID, productID uint) (bool, *models.CartItem, error) {
	deleted, item, err := s.Repo.DeleteOneFromCart(ctx, userID, productID)
	if err != nil {
		return false, nil, wrapMissing(err, ErrNotFound, "cart item for product %d", productID)
	}
	return deleted, item, nil
}

// SetQuantity overwrites a line's quantity; zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uint, quantity int) (bool, *models.CartItem, error) {
	if quantity < 0 {
		return false, nil, &ValidationError{Fields: map[string]string{"quantity": "must be >= 0"}}
	}
	if quantity == 0 {
		if err := s.Repo.DeleteCartItem(ctx, userID, productID); err != nil {
			return false, nil, wrapMissing(err, ErrNotFound, "cart item for product %d", productID)
		}
		return true, &models.CartItem{UserID: userID, ProductID: productID}, nil
	}
	item, err := s.Repo.SetCartQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return false, nil, wrapMissing(err, ErrNotFound, "cart item for product %d", productID)
	}
	return false, item, nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
