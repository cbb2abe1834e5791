package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// Notifier raises the in-app notifications that follow an order event.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	StatusChanged(ctx context.Context, order *models.Order, status string) error
}

type NotificationService struct {
	Repo *repo.GormRepo
}

var _ Notifier = (*NotificationService)(nil)

func (s *NotificationService) send(ctx context.Context, userID uint, typ, msg string, orderID uint) error {
	n := &models.Notification{
		UserID:            userID,
		Type:              typ,
		Message:           msg,
		RelatedEntityID:   orderID,
		RelatedEntityType: models.EntityOrder,
	}
	if err := s.Repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notify user %d (%s): %w", userID, typ, err)
	}
	return nil
}

// OrderPlaced expects order to carry Buyer and Store.
func (s *NotificationService) OrderPlaced(ctx context.Context, order *models.Order) error {
	total := order.TotalAmount.StringFixed(2)
	buyerName := ""
	if order.Buyer != nil {
		buyerName = order.Buyer.Name
	}

	var errs []error
	errs = append(errs, s.send(ctx, order.UserID, models.NotifyOrderConfirmation,
		fmt.Sprintf("Your order #%d for %s has been placed successfully!", order.ID, total), order.ID))

	if order.Store != nil {
		errs = append(errs, s.send(ctx, order.Store.OwnerID, models.NotifyNewOrder,
			fmt.Sprintf("You have a new order #%d from %s for %s.", order.ID, buyerName, total), order.ID))
	}
	return errors.Join(errs...)
}

func statusMessage(orderID uint, status string) string {
	switch status {
	case models.OrderPaymentConfirmed:
		return fmt.Sprintf("Your order #%d payment has been confirmed!", orderID)
	case models.OrderDeliveryAgreed:
		return fmt.Sprintf("Delivery for your order #%d has been agreed upon.", orderID)
	case models.OrderDelivered:
		return fmt.Sprintf("Your order #%d has been delivered and payment received.", orderID)
	case models.OrderCancelled:
		return fmt.Sprintf("Your order #%d has been cancelled.", orderID)
	default:
		return fmt.Sprintf("Your order #%d status has been updated to %s.", orderID, status)
	}
}

// StatusChanged tells the buyer; a cancellation also reaches the store owner and every admin.
func (s *NotificationService) StatusChanged(ctx context.Context, order *models.Order, status string) error {
	var errs []error
	errs = append(errs, s.send(ctx, order.UserID, models.NotifyOrderStatusUpdate, statusMessage(order.ID, status), order.ID))

	if status != models.OrderCancelled {
		return errors.Join(errs...)
	}

	if order.Store != nil {
		errs = append(errs, s.send(ctx, order.Store.OwnerID, models.NotifyOrderCancelled,
			fmt.Sprintf("Order #%d for your store has been cancelled.", order.ID), order.ID))
	}

	admins, err := s.Repo.ListAdmins(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("list admins: %w", err))
		return errors.Join(errs...)
	}
	for _, admin := range admins {
		errs = append(errs, s.send(ctx, admin.ID, models.NotifyAdminAlert,
			fmt.Sprintf("Order #%d has been cancelled.", order.ID), order.ID))
	}
	return errors.Join(errs...)
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	return s.Repo.ListNotifications(ctx, userID, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) (*models.Notification, error) {
	l := logging.FromContext(ctx).With("svc", "notification.mark_read", "notification_id", id)

	n, err := s.Repo.GetNotification(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotificationNotFound)
	}
	if n.UserID != userID {
		l.Warn("mark_read_forbidden", "user_id", userID)
		return nil, fmt.Errorf("%w: notification belongs to another user", ErrForbidden)
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.Repo.MarkNotificationRead(ctx, id); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}
