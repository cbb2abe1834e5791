package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type AddressHTTP struct {
	Svc *service.AddressService
}

func (h *AddressHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.create")

	var req transport.AddressRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "create_address", err)
	}

	addr, err := h.Svc.Create(ctx, identity(c).UserID, service.AddressInput{
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		return writeError(c, l, "create_address", err)
	}
	return c.JSON(http.StatusCreated, addr)
}

func (h *AddressHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.list")

	addrs, err := h.Svc.List(ctx, identity(c).UserID)
	if err != nil {
		return writeError(c, l, "list_addresses", err)
	}
	return c.JSON(http.StatusOK, addrs)
}

func (h *AddressHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.patch")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "patch_address", err)
	}
	var req transport.PatchAddressRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "patch_address", err)
	}

	addr, err := h.Svc.Update(ctx, identity(c).UserID, id, service.AddressPatch{
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		return writeError(c, l, "patch_address", err)
	}
	return c.JSON(http.StatusOK, addr)
}

func (h *AddressHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.delete")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "delete_address", err)
	}
	if err := h.Svc.Delete(ctx, identity(c).UserID, id); err != nil {
		return writeError(c, l, "delete_address", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	items, err := h.Svc.Get(ctx, identity(c).UserID)
	if err != nil {
		return writeError(c, l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.CartItemRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "add_to_cart", err)
	}

	item, err := h.Svc.Add(ctx, identity(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, l, "add_to_cart", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveOne(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_one")

	productID, err := pathID(c, "productId")
	if err != nil {
		return writeError(c, l, "remove_from_cart", err)
	}

	deleted, item, err := h.Svc.RemoveOne(ctx, identity(c).UserID, productID)
	if err != nil {
		return writeError(c, l, "remove_from_cart", err)
	}
	if deleted {
		return c.JSON(http.StatusOK, map[string]any{"deleted": true, "product_id": productID})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	productID, err := pathID(c, "productId")
	if err != nil {
		return writeError(c, l, "set_cart_quantity", err)
	}
	var req transport.CartQuantityRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "set_cart_quantity", err)
	}

	deleted, item, err := h.Svc.SetQuantity(ctx, identity(c).UserID, productID, req.Quantity)
	if err != nil {
		return writeError(c, l, "set_cart_quantity", err)
	}
	if deleted {
		return c.JSON(http.StatusOK, map[string]any{"deleted": true, "product_id": productID})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, identity(c).UserID); err != nil {
		return writeError(c, l, "clear_cart", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type NotificationHTTP struct {
	Svc *service.NotificationService
}

func (h *NotificationHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.list")

	unread, _ := strconv.ParseBool(c.QueryParam("unread"))
	items, err := h.Svc.List(ctx, identity(c).UserID, unread)
	if err != nil {
		return writeError(c, l, "list_notifications", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *NotificationHTTP) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.mark_read")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "mark_read", err)
	}

	n, err := h.Svc.MarkRead(ctx, identity(c).UserID, id)
	if err != nil {
		return writeError(c, l, "mark_read", err)
	}
	return c.JSON(http.StatusOK, n)
}
