package finance

import (
	"errors"
	"fmt"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
)

// Status rule violations. All of them are user-correctable.
var (
	ErrInvalidStatus         = errors.New("unknown order status")
	ErrBackwardTransition    = errors.New("order status cannot move backwards")
	ErrReceiptRequired       = errors.New("attach a receipt before marking as Paid")
	ErrSentReceiptRequired   = errors.New("attach a receipt before marking as Sent")
	ErrCompanyEmailRequired  = errors.New("company has no email address to send the order to")
	ErrCompanyPhoneRequired  = errors.New("company has no phone number")
	ErrNonPositiveAmount     = errors.New("amount must be greater than zero")
	ErrNonPositiveCardsCount = errors.New("cards count must be greater than zero")
)

var statusRank = map[models.OrderStatus]int{
	models.OrderStatusPending:  0,
	models.OrderStatusSent:     1,
	models.OrderStatusReceived: 2,
	models.OrderStatusPaid:     3,
}

// IsValidStatus reports whether s is one of the four lifecycle states.
func IsValidStatus(s models.OrderStatus) bool {
	_, ok := statusRank[s]
	return ok
}

// Transition is a checked plan for moving an order between statuses.
type Transition struct {
	From models.OrderStatus
	To   models.OrderStatus

	// NoOp is set when To equals From; nothing is written or sent.
	NoOp bool

	// SendEmail is set when entering Sent: the receipt must be delivered to
	// the company before the status is persisted.
	SendEmail bool
}

// PlanTransition validates moving order to the target status. Any forward
// move is allowed, skipping states included; re-selecting the current state
// is a no-op. Guards are checked before any side effect happens.
func PlanTransition(order *models.Order, company *models.Company, to models.OrderStatus) (Transition, error) {
	if !IsValidStatus(to) {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	from := order.Status
	if !IsValidStatus(from) {
		return Transition{}, fmt.Errorf("%w: stored status %q", ErrInvalidStatus, from)
	}

	t := Transition{From: from, To: to}

	if to == from {
		t.NoOp = true
		return t, nil
	}
	if statusRank[to] < statusRank[from] {
		return Transition{}, fmt.Errorf("%w: %s to %s", ErrBackwardTransition, from, to)
	}

	switch to {
	case models.OrderStatusPaid:
		if !order.HasReceipt() {
			return Transition{}, ErrReceiptRequired
		}
	case models.OrderStatusSent:
		if !company.HasEmail() {
			return Transition{}, ErrCompanyEmailRequired
		}
		if !order.HasReceipt() {
			return Transition{}, ErrSentReceiptRequired
		}
		t.SendEmail = true
	}

	return t, nil
}

// TimestampColumn names the column stamped when entering a status.
func TimestampColumn(to models.OrderStatus) string {
	switch to {
	case models.OrderStatusSent:
		return "date_sent"
	case models.OrderStatusReceived:
		return "date_received"
	case models.OrderStatusPaid:
		return "date_paid"
	default:
		return ""
	}
}
