package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// ProductIndex is the full-text side of the catalog.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	RemoveProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events EventPublisher
}

type StoreInput struct {
	Name        string
	Description string
	ImageURL    string
}

type ProductInput struct {
	StoreID     uint
	CategoryID  *uint
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Stock       int
}

type ProductPatch struct {
	CategoryID  *uint
	Name        *string
	Description *string
	ImageURL    *string
	Price       *decimal.Decimal
	Stock       *int
	Status      *string
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor Identity, name string) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins manage categories", ErrForbidden)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "is required"}}
	}

	c := &models.Category{Name: name}
	created, err := s.Repo.CreateCategory(ctx, c)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, actor Identity, id uint, name string) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins manage categories", ErrForbidden)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "is required"}}
	}

	renamed, err := s.Repo.RenameCategory(ctx, id, name)
	if err != nil {
		return nil, wrapMissing(err, ErrNotFound, "category %d", id)
	}
	if !renamed {
		return nil, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
	}
	return &models.Category{ID: id, Name: name}, nil
}

// DeleteCategory leaves the category's products uncategorised.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor Identity, id uint) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins manage categories", ErrForbidden)
	}
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return wrapMissing(err, ErrNotFound, "category %d", id)
	}
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateStore(ctx context.Context, actor Identity, in StoreInput) (*models.Store, error) {
	if actor.Role != models.RoleSeller && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: become a seller to open a store", ErrForbidden)
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "is required"}}
	}

	st := &models.Store{
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		OwnerID:     actor.UserID,
		Status:      models.StatusActive,
	}
	if err := s.Repo.CreateStore(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *CatalogService) GetStore(ctx context.Context, id uint) (*models.Store, error) {
	st, err := s.Repo.GetStoreWithOwner(ctx, id)
	if err != nil {
		return nil, wrapMissing(err, ErrStoreNotFound, "store %d", id)
	}
	return st, nil
}

type StorePatch struct {
	Name        *string
	Description *string
	ImageURL    *string
}

// UpdateStore is open to the store owner and admins.
func (s *CatalogService) UpdateStore(ctx context.Context, actor Identity, id uint, patch StorePatch) (*models.Store, error) {
	store, err := s.Repo.GetStore(ctx, id)
	if err != nil {
		return nil, wrapMissing(err, ErrStoreNotFound, "store %d", id)
	}
	if !canManageStore(actor, store) {
		return nil, fmt.Errorf("%w: store %d belongs to another seller", ErrForbidden, id)
	}

	fields := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, &ValidationError{Fields: map[string]string{"name": "must not be empty"}}
		}
		fields["name"] = name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.ImageURL != nil {
		fields["image_url"] = *patch.ImageURL
	}
	if err := s.Repo.UpdateStoreFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.Repo.GetStore(ctx, id)
}

func (s *CatalogService) ListStores(ctx context.Context, offset, limit int) (int64, []models.Store, error) {
	return s.Repo.ListStores(ctx, offset, limit)
}

func checkCategory(ctx context.Context, r *repo.GormRepo, id *uint, f fieldErrors) error {
	if id == nil {
		return nil
	}
	if _, err := r.GetCategory(ctx, *id); err != nil {
		if notFound(err, ErrNotFound) == ErrNotFound {
			f.add("categoryId", "unknown category")
			return nil
		}
		return err
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor Identity, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product", "user_id", actor.UserID, "store_id", in.StoreID)

	f := fieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		f.add("name", "is required")
	}
	if !in.Price.IsPositive() {
		f.add("price", "must be > 0")
	}
	if in.Stock < 0 {
		f.add("stock", "must be >= 0")
	}
	if in.StoreID == 0 {
		f.add("storeId", "is required")
	}
	if err := checkCategory(ctx, s.Repo, in.CategoryID, f); err != nil {
		return nil, err
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	store, err := s.Repo.GetStore(ctx, in.StoreID)
	if err != nil {
		return nil, wrapMissing(err, ErrStoreNotFound, "store %d", in.StoreID)
	}
	if !canManageStore(actor, store) {
		return nil, fmt.Errorf("%w: store %d belongs to another seller", ErrForbidden, in.StoreID)
	}

	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		StoreID:     in.StoreID,
		CategoryID:  in.CategoryID,
		Status:      models.StatusActive,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	l.Info("product_created", "product_id", p.ID)

	s.afterProductWrite(ctx, p, events.ProductCreated)
	return p, nil
}

// PatchProduct writes only the patched columns, under a row lock, so
// concurrent checkouts keep their stock decrements.
func (s *CatalogService) PatchProduct(ctx context.Context, actor Identity, id uint, patch ProductPatch) (*models.Product, error) {
	var p *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		cur, err := tx.LockProduct(ctx, id)
		if err != nil {
			return wrapMissing(err, ErrProductNotFound, "product %d", id)
		}
		store, err := tx.GetStore(ctx, cur.StoreID)
		if err != nil {
			return err
		}
		if !canManageStore(actor, store) {
			return fmt.Errorf("%w: product %d belongs to another seller", ErrForbidden, id)
		}

		fields, err := productFields(ctx, tx, patch)
		if err != nil {
			return err
		}
		if err := tx.UpdateProductFields(ctx, id, fields); err != nil {
			return err
		}
		p, err = tx.GetProduct(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterProductWrite(ctx, p, events.ProductUpdated)
	return p, nil
}

func productFields(ctx context.Context, tx *repo.GormRepo, patch ProductPatch) (map[string]any, error) {
	f := fieldErrors{}
	fields := map[string]any{}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			f.add("name", "must not be empty")
		}
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.ImageURL != nil {
		fields["image_url"] = *patch.ImageURL
	}
	if patch.Price != nil {
		if !patch.Price.IsPositive() {
			f.add("price", "must be > 0")
		}
		fields["price"] = patch.Price.Round(2)
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			f.add("stock", "must be >= 0")
		}
		fields["stock"] = *patch.Stock
	}
	if patch.Status != nil {
		if *patch.Status != models.StatusActive && *patch.Status != models.StatusInactive {
			f.add("status", "must be active or inactive")
		}
		fields["status"] = *patch.Status
	}
	if patch.CategoryID != nil {
		if err := checkCategory(ctx, tx, patch.CategoryID, f); err != nil {
			return nil, err
		}
		fields["category_id"] = *patch.CategoryID
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return fields, nil
}

// DeleteProduct removes a product that no order references. Ordered
// products are kept for order history and can only be deactivated.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor Identity, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "user_id", actor.UserID, "product_id", id)

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		cur, err := tx.LockProduct(ctx, id)
		if err != nil {
			return wrapMissing(err, ErrProductNotFound, "product %d", id)
		}
		store, err := tx.GetStore(ctx, cur.StoreID)
		if err != nil {
			return err
		}
		if !canManageStore(actor, store) {
			return fmt.Errorf("%w: product %d belongs to another seller", ErrForbidden, id)
		}
		ordered, err := tx.ProductOrdered(ctx, id)
		if err != nil {
			return err
		}
		if ordered {
			return fmt.Errorf("%w: product %d has orders, set it inactive instead", ErrConflict, id)
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	l.Info("product_deleted")

	ctx = context.WithoutCancel(ctx)
	if s.Index != nil {
		if err := s.Index.RemoveProduct(ctx, id); err != nil {
			l.Warn("product_index_error", "error", err)
		}
	}
	if s.Events != nil {
		ev := events.New(events.ProductDeleted, strconv.FormatUint(uint64(id), 10), map[string]uint{"id": id})
		if err := s.Events.Publish(ctx, events.TopicProducts, ev); err != nil {
			l.Warn("event_publish_error", "event", events.ProductDeleted, "error", err)
		}
	}
	return nil
}

// afterProductWrite indexes and announces a product. Both are best-effort.
func (s *CatalogService) afterProductWrite(ctx context.Context, p *models.Product, evType string) {
	l := logging.FromContext(ctx).With("svc", "catalog", "product_id", p.ID)
	ctx = context.WithoutCancel(ctx)

	if s.Index != nil {
		var err error
		if p.Status == models.StatusInactive {
			err = s.Index.RemoveProduct(ctx, p.ID)
		} else {
			err = s.Index.IndexProduct(ctx, p)
		}
		if err != nil {
			l.Warn("product_index_error", "error", err)
		}
	}
	if s.Events != nil {
		ev := events.New(evType, strconv.FormatUint(uint64(p.ID), 10), p)
		if err := s.Events.Publish(ctx, events.TopicProducts, ev); err != nil {
			l.Warn("event_publish_error", "event", evType, "error", err)
		}
	}
}

// GetProduct returns the product with its reviews and average rating.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, wrapMissing(err, ErrProductNotFound, "product %d", id)
	}
	if p.Reviews, err = s.Repo.ListReviews(ctx, id); err != nil {
		return nil, err
	}
	avg, err := s.Repo.AverageRating(ctx, id)
	if err != nil {
		return nil, err
	}
	p.AverageRating = &avg
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, offset, limit)
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, categoryID uint, offset, limit int) (int64, []models.Product, error) {
	if _, err := s.Repo.GetCategory(ctx, categoryID); err != nil {
		return 0, nil, wrapMissing(err, ErrNotFound, "category %d", categoryID)
	}
	return s.Repo.ListProductsByCategory(ctx, categoryID, offset, limit)
}

// SearchProducts prefers the search index and falls back to the database.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, &ValidationError{Fields: map[string]string{"q": "is required"}}
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := s.productsInOrder(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "svc", "catalog.search", "error", err)
	}
	return s.Repo.SearchProducts(ctx, query, offset, limit)
}

func (s *CatalogService) productsInOrder(ctx context.Context, ids []uint) ([]models.Product, error) {
	rows, err := s.Repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
