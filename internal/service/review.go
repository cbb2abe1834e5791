package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const maxReviewComment = 500

type ReviewService struct {
	Repo *repo.GormRepo
}

type ReviewInput struct {
	ProductID uint
	Rating    int
	Comment   string
}

// Create records a buyer's single review of a product they ordered.
func (s *ReviewService) Create(ctx context.Context, actor Identity, in ReviewInput) (*models.ProductReview, error) {
	l := logging.FromContext(ctx).With("svc", "review.create", "user_id", actor.UserID, "product_id", in.ProductID)
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}

	f := fieldErrors{}
	if in.ProductID == 0 {
		f.add("productId", "is required")
	}
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		f.add("rating", fmt.Sprintf("must be between %d and %d", models.MinRating, models.MaxRating))
	}
	comment := strings.TrimSpace(in.Comment)
	if len([]rune(comment)) > maxReviewComment {
		f.add("comment", fmt.Sprintf("must be at most %d characters", maxReviewComment))
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetProduct(ctx, in.ProductID); err != nil {
		return nil, wrapMissing(err, ErrProductNotFound, "product %d", in.ProductID)
	}
	bought, err := s.Repo.HasPurchased(ctx, actor.UserID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !bought {
		l.Warn("review_error", "status", 403, "reason", "product not purchased")
		return nil, fmt.Errorf("%w: only buyers of product %d can review it", ErrForbidden, in.ProductID)
	}

	rv := &models.ProductReview{
		UserID:    actor.UserID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   comment,
	}
	created, err := s.Repo.CreateReview(ctx, rv)
	if err != nil {
		return nil, err
	}
	if !created {
		l.Warn("review_error", "status", 409, "reason", "already reviewed")
		return nil, fmt.Errorf("%w: product %d already reviewed", ErrConflict, in.ProductID)
	}
	l.Info("review_created", "review_id", rv.ID)
	return s.Repo.GetReview(ctx, rv.ID)
}

func (s *ReviewService) List(ctx context.Context, productID uint) ([]models.ProductReview, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, wrapMissing(err, ErrProductNotFound, "product %d", productID)
	}
	return s.Repo.ListReviews(ctx, productID)
}
