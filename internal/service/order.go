package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, ev events.Event) error
}

type OrderLine struct {
	ProductID    uint
	Quantity     int
	PriceAtOrder decimal.Decimal
}

type PlaceOrderInput struct {
	StoreID   uint
	AddressID uint
	Items     []OrderLine
}

// Placement is a committed order. NotificationErr reports post-commit
// notification failures; the order stands regardless.
type Placement struct {
	Order           *models.Order
	NotificationErr error
}

type Transition struct {
	Order           *models.Order
	From            string
	NotificationErr error
}

type OrderService struct {
	Repo     *repo.GormRepo
	Notifier Notifier
	Events   EventPublisher

	LockTimeout     time.Duration
	CheckoutTimeout time.Duration
	NotifyTimeout   time.Duration

	inflight sync.WaitGroup
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (in PlaceOrderInput) validate() error {
	f := fieldErrors{}
	if in.StoreID == 0 {
		f.add("storeId", "is required")
	}
	if in.AddressID == 0 {
		f.add("addressId", "is required")
	}
	if len(in.Items) == 0 {
		f.add("items", "must not be empty")
	}
	for i, it := range in.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if it.ProductID == 0 {
			f.add(prefix+".productId", "is required")
		}
		if it.Quantity < 1 {
			f.add(prefix+".quantity", "must be >= 1")
		}
		if !it.PriceAtOrder.IsPositive() {
			f.add(prefix+".priceAtOrder", "must be > 0")
		}
	}
	return f.err()
}

// PlaceOrder validates stock and commits the order, its items and the stock
// decrement as one transaction, then notifies buyer and store owner.
func (s *OrderService) PlaceOrder(ctx context.Context, buyer Identity, in PlaceOrderInput) (*Placement, error) {
	l := logging.FromContext(ctx).With("svc", "order.place", "user_id", buyer.UserID, "store_id", in.StoreID)

	if !buyer.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		l.Warn("place_order_invalid", "error", err)
		return nil, err
	}

	txCtx, cancel := withTimeout(ctx, s.CheckoutTimeout)
	defer cancel()

	var order *models.Order
	err := s.Repo.Transaction(txCtx, func(tx *repo.GormRepo) error {
		if err := tx.SetLockTimeout(txCtx, s.LockTimeout); err != nil {
			return err
		}

		if _, err := tx.GetStore(txCtx, in.StoreID); err != nil {
			return wrapMissing(err, ErrStoreNotFound, "store %d", in.StoreID)
		}

		addr, err := tx.GetAddress(txCtx, in.AddressID)
		if err != nil {
			return wrapMissing(err, ErrAddressNotFound, "address %d", in.AddressID)
		}
		if addr.UserID != buyer.UserID {
			return fmt.Errorf("%w: address %d", ErrAddressNotFound, in.AddressID)
		}

		ids := make([]uint, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		locked, err := tx.LockProducts(txCtx, ids)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(in.Items))
		taken := make(map[uint]int, len(locked))
		for _, it := range in.Items {
			p, ok := locked[it.ProductID]
			if !ok {
				return fmt.Errorf("%w: product %d", ErrProductNotFound, it.ProductID)
			}
			if p.StoreID != in.StoreID {
				return fmt.Errorf("%w: product %d belongs to store %d, not %d", ErrProductStoreMismatch, p.ID, p.StoreID, in.StoreID)
			}
			if p.Stock < it.Quantity {
				return &StockError{ProductID: p.ID, Available: p.Stock, Requested: it.Quantity}
			}
			if !p.Price.Equal(it.PriceAtOrder) {
				l.Info("price_mismatch", "product_id", p.ID, "client_price", it.PriceAtOrder.String(), "price", p.Price.String())
			}

			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			p.Stock -= it.Quantity
			taken[p.ID] += it.Quantity
			items = append(items, models.OrderItem{
				ProductID:    p.ID,
				Quantity:     it.Quantity,
				PriceAtOrder: p.Price,
			})
		}

		touched := make([]uint, 0, len(taken))
		for id := range taken {
			touched = append(touched, id)
		}
		slices.Sort(touched)
		for _, id := range touched {
			n, err := tx.DecrementStock(txCtx, id, taken[id])
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: stock of product %d changed during checkout", ErrConflict, id)
			}
		}

		order = &models.Order{
			UserID:          buyer.UserID,
			StoreID:         in.StoreID,
			TotalAmount:     total,
			DeliveryAddress: addr.Snapshot(),
			Status:          models.OrderPaymentPending,
		}
		return tx.CreateOrder(txCtx, order, items)
	})
	if err != nil {
		err = classifyBusy(err)
		logCheckoutFailure(l, err)
		return nil, err
	}

	l.Info("order_placed", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2), "items", len(order.Items))

	// the order is committed; nothing below may undo it or be cut short by the client
	nctx, ncancel := withTimeout(context.WithoutCancel(ctx), s.NotifyTimeout)
	defer ncancel()

	placement := &Placement{Order: order}
	full, err := s.Repo.LoadOrder(nctx, order.ID)
	if err != nil {
		l.Error("order_reload_error", "order_id", order.ID, "error", err)
		placement.NotificationErr = fmt.Errorf("reload order %d: %w", order.ID, err)
		return placement, nil
	}
	placement.Order = full

	if s.Notifier != nil {
		if err := s.Notifier.OrderPlaced(nctx, full); err != nil {
			l.Error("order_notification_error", "order_id", full.ID, "error", err)
			placement.NotificationErr = err
		}
	}
	s.publish(nctx, l, events.New(events.OrderCreated, orderKey(full.ID), newOrderEvent(full)))

	return placement, nil
}

func logCheckoutFailure(l *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrBusy):
		l.Warn("place_order_busy", "error", err)
	case errors.Is(err, ErrStoreNotFound), errors.Is(err, ErrAddressNotFound),
		errors.Is(err, ErrProductNotFound), errors.Is(err, ErrProductStoreMismatch),
		errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrConflict):
		l.Warn("place_order_rejected", "error", err)
	default:
		l.Error("place_order_error", "error", err)
	}
}

// UpdateStatus moves an order one step along its lifecycle or cancels it.
// Only the owning seller or an admin may do so.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Identity, orderID uint, status string) (*Transition, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status", "user_id", actor.UserID, "order_id", orderID)

	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	f := fieldErrors{}
	if orderID == 0 {
		f.add("orderId", "is required")
	}
	if !models.ValidOrderStatus(status) {
		f.add("status", "must be one of payment_pending, payment_confirmed, delivery_agreed, delivered_payment_received, cancelled")
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	txCtx, cancel := withTimeout(ctx, s.CheckoutTimeout)
	defer cancel()

	var from string
	err := s.Repo.Transaction(txCtx, func(tx *repo.GormRepo) error {
		if err := tx.SetLockTimeout(txCtx, s.LockTimeout); err != nil {
			return err
		}

		o, err := tx.LockOrder(txCtx, orderID)
		if err != nil {
			return wrapMissing(err, ErrOrderNotFound, "order %d", orderID)
		}
		store, err := tx.GetStore(txCtx, o.StoreID)
		if err != nil {
			return wrapMissing(err, ErrStoreNotFound, "store %d", o.StoreID)
		}
		if !canManageStore(actor, store) {
			return fmt.Errorf("%w: order %d belongs to another store", ErrForbidden, orderID)
		}
		if !models.CanTransition(o.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
		}

		from = o.Status
		return tx.SetOrderStatus(txCtx, o.ID, status)
	})
	if err != nil {
		err = classifyBusy(err)
		l.Warn("update_status_error", "status", status, "error", err)
		return nil, err
	}
	l.Info("order_status_changed", "from", from, "to", status)

	nctx, ncancel := withTimeout(context.WithoutCancel(ctx), s.NotifyTimeout)
	defer ncancel()

	full, err := s.Repo.LoadOrder(nctx, orderID)
	if err != nil {
		l.Error("order_reload_error", "error", err)
		return &Transition{
			Order:           &models.Order{ID: orderID, Status: status},
			From:            from,
			NotificationErr: fmt.Errorf("reload order %d: %w", orderID, err),
		}, nil
	}

	t := &Transition{Order: full, From: from}
	if s.Notifier != nil {
		if err := s.Notifier.StatusChanged(nctx, full, status); err != nil {
			l.Error("status_notification_error", "error", err)
			t.NotificationErr = err
		}
	}
	s.publish(nctx, l, events.New(events.OrderStatusChanged, orderKey(full.ID), statusEvent{
		OrderID: full.ID,
		StoreID: full.StoreID,
		UserID:  full.UserID,
		From:    from,
		To:      status,
	}))
	return t, nil
}

// GetOrder hides orders the actor may not see behind ErrOrderNotFound.
func (s *OrderService) GetOrder(ctx context.Context, actor Identity, id uint) (*models.Order, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	o, err := s.Repo.LoadOrder(ctx, id)
	if err != nil {
		return nil, wrapMissing(err, ErrOrderNotFound, "order %d", id)
	}
	if o.UserID == actor.UserID || actor.IsAdmin() || (o.Store != nil && o.Store.OwnerID == actor.UserID) {
		return o, nil
	}
	return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, id)
}

func (s *OrderService) ListMyOrders(ctx context.Context, actor Identity, offset, limit int) (int64, []models.Order, error) {
	if !actor.Authenticated() {
		return 0, nil, ErrUnauthenticated
	}
	return s.Repo.ListOrdersByBuyer(ctx, actor.UserID, offset, limit)
}

func (s *OrderService) ListStoreOrders(ctx context.Context, actor Identity, storeID uint, offset, limit int) (int64, []models.Order, error) {
	if !actor.Authenticated() {
		return 0, nil, ErrUnauthenticated
	}
	store, err := s.Repo.GetStore(ctx, storeID)
	if err != nil {
		return 0, nil, wrapMissing(err, ErrStoreNotFound, "store %d", storeID)
	}
	if !canManageStore(actor, store) {
		return 0, nil, fmt.Errorf("%w: store %d", ErrForbidden, storeID)
	}
	return s.Repo.ListOrdersByStore(ctx, storeID, offset, limit)
}

func canManageStore(actor Identity, store *models.Store) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == models.RoleSeller && store.OwnerID == actor.UserID
}

// publish hands ev to the broker off the response path.
func (s *OrderService) publish(ctx context.Context, l *slog.Logger, ev events.Event) {
	if s.Events == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		pctx, cancel := withTimeout(ctx, s.NotifyTimeout)
		defer cancel()
		if err := s.Events.Publish(pctx, events.TopicOrders, ev); err != nil {
			l.Warn("event_publish_error", "event", ev.Type, "error", err)
		}
	}()
}

// Wait blocks until every pending event publish has returned.
func (s *OrderService) Wait() {
	s.inflight.Wait()
}

func orderKey(id uint) string { return strconv.FormatUint(uint64(id), 10) }

type orderEventItem struct {
	ProductID    uint            `json:"product_id"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

type orderEvent struct {
	OrderID     uint             `json:"order_id"`
	UserID      uint             `json:"user_id"`
	StoreID     uint             `json:"store_id"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Status      string           `json:"status"`
	Items       []orderEventItem `json:"items"`
}

func newOrderEvent(o *models.Order) orderEvent {
	items := make([]orderEventItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderEventItem{ProductID: it.ProductID, Quantity: it.Quantity, PriceAtOrder: it.PriceAtOrder})
	}
	return orderEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		StoreID:     o.StoreID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		Items:       items,
	}
}

type statusEvent struct {
	OrderID uint   `json:"order_id"`
	StoreID uint   `json:"store_id"`
	UserID  uint   `json:"user_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
