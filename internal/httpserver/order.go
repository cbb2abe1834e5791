package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/idempotency"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const (
	HeaderIdempotencyKey     = "Idempotency-Key"
	HeaderNotificationStatus = "X-Notification-Status"
)

type IdempotencyStore interface {
	Reserve(ctx context.Context, userID uint, key string) (uint, error)
	Complete(ctx context.Context, userID uint, key string, orderID uint) error
	Release(ctx context.Context, userID uint, key string) error
}

type OrderHTTP struct {
	Svc *service.OrderService
	// Idem is optional; without it every request checks out.
	Idem IdempotencyStore
}

// reserve reports whether the key is held by this request and, on replay,
// the order it already produced.
func (h *OrderHTTP) reserve(ctx context.Context, l *slog.Logger, uid uint, key string) (held bool, replay uint, err error) {
	if h.Idem == nil || key == "" {
		return false, 0, nil
	}

	id, err := h.Idem.Reserve(ctx, uid, key)
	switch {
	case errors.Is(err, idempotency.ErrBadKey):
		return false, 0, &service.ValidationError{Fields: map[string]string{"Idempotency-Key": "must be 1-255 characters"}}
	case errors.Is(err, idempotency.ErrInProgress):
		return false, 0, service.ErrRequestInProgress
	case err != nil:
		l.Warn("idempotency_error", "status", http.StatusOK, "reason", "guard skipped", "error", err)
		return false, 0, nil
	}
	return id == 0, id, nil
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	var req transport.PlaceOrderRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "place_order", err)
	}

	actor := identity(c)
	key := c.Request().Header.Get(HeaderIdempotencyKey)

	held, replay, err := h.reserve(ctx, l, actor.UserID, key)
	if err != nil {
		return writeError(c, l, "place_order", err)
	}
	if replay != 0 {
		order, err := h.Svc.GetOrder(ctx, actor, replay)
		if err != nil {
			return writeError(c, l, "place_order", err)
		}
		l.Info("order_replayed", "order_id", order.ID)
		return c.JSON(http.StatusOK, order)
	}

	in := service.PlaceOrderInput{StoreID: req.StoreID, AddressID: req.AddressID}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.OrderLine{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			PriceAtOrder: it.PriceAtOrder,
		})
	}

	placed, err := h.Svc.PlaceOrder(ctx, actor, in)
	if err != nil {
		if held {
			if rerr := h.Idem.Release(context.WithoutCancel(ctx), actor.UserID, key); rerr != nil {
				l.Warn("idempotency_release_error", "error", rerr)
			}
		}
		return writeError(c, l, "place_order", err)
	}

	if held {
		h.complete(context.WithoutCancel(ctx), l, actor.UserID, key, placed.Order.ID)
	}

	status := "sent"
	if placed.NotificationErr != nil {
		status = "failed"
	}
	c.Response().Header().Set(HeaderNotificationStatus, status)
	return c.JSON(http.StatusCreated, placed.Order)
}

// complete records the order under key, retrying once. A key that still
// cannot be completed is released so it does not stay in progress until expiry.
func (h *OrderHTTP) complete(ctx context.Context, l *slog.Logger, userID uint, key string, orderID uint) {
	err := h.Idem.Complete(ctx, userID, key, orderID)
	if err != nil {
		err = h.Idem.Complete(ctx, userID, key, orderID)
	}
	if err == nil {
		return
	}
	l.Warn("idempotency_complete_error", "order_id", orderID, "error", err)
	if rerr := h.Idem.Release(ctx, userID, key); rerr != nil {
		l.Warn("idempotency_release_error", "order_id", orderID, "error", rerr)
	}
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "update_status", err)
	}

	var req transport.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "update_status", err)
	}

	tr, err := h.Svc.UpdateStatus(ctx, identity(c), id, req.Status)
	if err != nil {
		return writeError(c, l, "update_status", err)
	}

	status := "sent"
	if tr.NotificationErr != nil {
		status = "failed"
	}
	c.Response().Header().Set(HeaderNotificationStatus, status)
	return c.JSON(http.StatusOK, tr.Order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "get_order", err)
	}

	order, err := h.Svc.GetOrder(ctx, identity(c), id)
	if err != nil {
		return writeError(c, l, "get_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_mine")

	pg, offset, limit := pageParams(c)
	total, orders, err := h.Svc.ListMyOrders(ctx, identity(c), offset, limit)
	if err != nil {
		return writeError(c, l, "list_orders", err)
	}
	return paged(c, pg, offset, limit, total, orders)
}

func (h *OrderHTTP) ListStoreOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_store")

	storeID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, l, "list_store_orders", err)
	}

	pg, offset, limit := pageParams(c)
	total, orders, err := h.Svc.ListStoreOrders(ctx, identity(c), storeID, offset, limit)
	if err != nil {
		return writeError(c, l, "list_store_orders", err)
	}
	return paged(c, pg, offset, limit, total, orders)
}
