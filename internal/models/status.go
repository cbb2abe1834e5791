package models

const (
	OrderPaymentPending   = "payment_pending"
	OrderPaymentConfirmed = "payment_confirmed"
	OrderDeliveryAgreed   = "delivery_agreed"
	OrderDelivered        = "delivered_payment_received"
	OrderCancelled        = "cancelled"
)

var orderFlow = []string{
	OrderPaymentPending,
	OrderPaymentConfirmed,
	OrderDeliveryAgreed,
	OrderDelivered,
}

func ValidOrderStatus(s string) bool {
	if s == OrderCancelled {
		return true
	}
	for _, st := range orderFlow {
		if st == s {
			return true
		}
	}
	return false
}

func TerminalOrderStatus(s string) bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransition allows the next forward step, or cancellation from any non-terminal state.
func CanTransition(from, to string) bool {
	if TerminalOrderStatus(from) {
		return false
	}
	if to == OrderCancelled {
		return true
	}
	for i := 0; i < len(orderFlow)-1; i++ {
		if orderFlow[i] == from {
			return orderFlow[i+1] == to
		}
	}
	return false
}
