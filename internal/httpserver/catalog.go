package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_categories")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return writeError(c, l, "list_categories", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_category")

	var req transport.CategoryRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "create_category", err)
	}

	cat, err := h.Svc.CreateCategory(ctx, identity(c), req.Name)
	if err != nil {
		return writeError(c, l, "create_category", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) CreateStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_store")

	var req transport.StoreRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "create_store", err)
	}

	store, err := h.Svc.CreateStore(ctx, identity(c), service.StoreInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return writeError(c, l, "create_store", err)
	}

	l.Info("store_created", "store_id", store.ID)
	return c.JSON(http.StatusCreated, store)
}

func (h *CatalogHTTP) GetStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_store")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "get_store", err)
	}

	store, err := h.Svc.GetStore(ctx, id)
	if err != nil {
		return writeError(c, l, "get_store", err)
	}
	return c.JSON(http.StatusOK, store)
}

func (h *CatalogHTTP) ListStores(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_stores")

	pg, offset, limit := pageParams(c)
	total, stores, err := h.Svc.ListStores(ctx, offset, limit)
	if err != nil {
		return writeError(c, l, "list_stores", err)
	}
	return paged(c, pg, offset, limit, total, stores)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.CreateProductRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "create_product", err)
	}

	p, err := h.Svc.CreateProduct(ctx, identity(c), service.ProductInput{
		StoreID:     req.StoreID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		return writeError(c, l, "create_product", err)
	}

	l.Info("product_created", "product_id", p.ID, "store_id", p.StoreID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "patch_product", err)
	}

	var req transport.PatchProductRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "patch_product", err)
	}

	p, err := h.Svc.PatchProduct(ctx, identity(c), id, service.ProductPatch{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
		Status:      req.Status,
	})
	if err != nil {
		return writeError(c, l, "patch_product", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "get_product", err)
	}

	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return writeError(c, l, "get_product", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products")

	pg, offset, limit := pageParams(c)
	total, products, err := h.Svc.ListProducts(ctx, offset, limit)
	if err != nil {
		return writeError(c, l, "list_products", err)
	}
	return paged(c, pg, offset, limit, total, products)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	pg, offset, limit := pageParams(c)
	total, products, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return writeError(c, l, "search_products", err)
	}
	return paged(c, pg, offset, limit, total, products)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_category")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "update_category", err)
	}
	var req transport.CategoryRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "update_category", err)
	}

	cat, err := h.Svc.UpdateCategory(ctx, identity(c), id, req.Name)
	if err != nil {
		return writeError(c, l, "update_category", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_category")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "delete_category", err)
	}
	if err := h.Svc.DeleteCategory(ctx, identity(c), id); err != nil {
		return writeError(c, l, "delete_category", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) ListCategoryProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_category_products")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "list_category_products", err)
	}

	pg, offset, limit := pageParams(c)
	total, products, err := h.Svc.ListProductsByCategory(ctx, id, offset, limit)
	if err != nil {
		return writeError(c, l, "list_category_products", err)
	}
	return paged(c, pg, offset, limit, total, products)
}

func (h *CatalogHTTP) PatchStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_store")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "patch_store", err)
	}
	var req transport.PatchStoreRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "patch_store", err)
	}

	store, err := h.Svc.UpdateStore(ctx, identity(c), id, service.StorePatch{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return writeError(c, l, "patch_store", err)
	}
	return c.JSON(http.StatusOK, store)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "delete_product", err)
	}
	if err := h.Svc.DeleteProduct(ctx, identity(c), id); err != nil {
		return writeError(c, l, "delete_product", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type ReviewHTTP struct {
	Svc *service.ReviewService
}

func (h *ReviewHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create")

	productID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "create_review", err)
	}
	var req transport.ReviewRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "create_review", err)
	}

	rv, err := h.Svc.Create(ctx, identity(c), service.ReviewInput{
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return writeError(c, l, "create_review", err)
	}
	return c.JSON(http.StatusCreated, rv)
}

func (h *ReviewHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	productID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "list_reviews", err)
	}
	items, err := h.Svc.List(ctx, productID)
	if err != nil {
		return writeError(c, l, "list_reviews", err)
	}
	return c.JSON(http.StatusOK, items)
}
