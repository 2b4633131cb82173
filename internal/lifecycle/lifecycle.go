// Package lifecycle derives an order's status from its independently mutable
// facts. It holds no state and performs no I/O; every mutation path in the
// service layer calls Next with the facts it just read under lock.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/kiwari-pos/resto/internal/enum"
)

// Errors returned by Next.
var (
	ErrInvalidState = errors.New("operation not allowed in current order state")
	ErrAlreadyPaid  = errors.New("order is already paid")
	ErrUnpaidVacate = fmt.Errorf("order is unpaid, vacating requires force: %w", ErrInvalidState)
)

// Action is the fact change that triggered a recomputation.
type Action int

const (
	ActionItemToggle Action = iota + 1
	ActionMarkAllReady
	ActionRecordPayment
	ActionCancel
	ActionVacate
	// ActionForceVacate vacates regardless of payment state (manager override).
	ActionForceVacate
)

func (a Action) String() string {
	switch a {
	case ActionItemToggle:
		return "item_toggle"
	case ActionMarkAllReady:
		return "mark_all_ready"
	case ActionRecordPayment:
		return "record_payment"
	case ActionCancel:
		return "cancel"
	case ActionVacate:
		return "vacate"
	case ActionForceVacate:
		return "force_vacate"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Facts is the persisted state of one order as read inside a transaction.
// For ActionItemToggle, Served must already include the toggled item.
type Facts struct {
	Status  enum.OrderStatus
	Payment enum.PaymentStatus
	Type    enum.OrderType
	Served  int
	Total   int
}

// Outcome is what the caller must persist.
type Outcome struct {
	Status  enum.OrderStatus
	Payment enum.PaymentStatus
	// ServeAll means every item of the order must be stored as Served.
	ServeAll bool
	// ReleaseTable means the order's table goes back to Available.
	ReleaseTable bool
}

// Changed reports whether o differs from the facts it was derived from.
func (o Outcome) Changed(f Facts) bool {
	return o.Status != f.Status || o.Payment != f.Payment || o.ServeAll
}

// Next applies action to facts. Rules are evaluated in a fixed precedence:
// cancel, mark-all-ready, item toggle, payment, vacate, each ending in the
// readiness recomputation of Derive.
func Next(f Facts, action Action) (Outcome, error) {
	out := Outcome{Status: f.Status, Payment: f.Payment}

	switch action {
	case ActionCancel:
		if f.Payment == enum.PaymentStatusLunas {
			return out, fmt.Errorf("cancel paid order: %w", ErrInvalidState)
		}
		if f.Status.Terminal() {
			return out, fmt.Errorf("cancel %s order: %w", f.Status, ErrInvalidState)
		}
		out.Status = enum.OrderStatusDibatalkan

	case ActionMarkAllReady:
		if f.Status.Terminal() {
			return out, fmt.Errorf("mark ready on %s order: %w", f.Status, ErrInvalidState)
		}
		out.ServeAll = true
		out.Status = Derive(f.Total, f.Total, f.Payment)

	case ActionItemToggle:
		if f.Status.Terminal() {
			return out, fmt.Errorf("toggle item on %s order: %w", f.Status, ErrInvalidState)
		}
		// Pending with at least one served item passes through Diproses;
		// Derive lands there or further.
		out.Status = Derive(f.Served, f.Total, f.Payment)

	case ActionRecordPayment:
		if f.Payment == enum.PaymentStatusLunas {
			return out, ErrAlreadyPaid
		}
		if f.Status.Terminal() {
			return out, fmt.Errorf("pay %s order: %w", f.Status, ErrInvalidState)
		}
		out.Payment = enum.PaymentStatusLunas
		out.Status = derivePaid(f.Served, f.Total, f.Type)

	case ActionVacate, ActionForceVacate:
		if f.Type != enum.OrderTypeDineIn {
			return out, fmt.Errorf("vacate %s order: %w", f.Type, ErrInvalidState)
		}
		if f.Status.Terminal() {
			return out, fmt.Errorf("vacate %s order: %w", f.Status, ErrInvalidState)
		}
		if action == ActionVacate && f.Payment != enum.PaymentStatusLunas {
			return out, ErrUnpaidVacate
		}
		out.ServeAll = true
		out.Status = enum.OrderStatusSelesai

	default:
		return out, fmt.Errorf("unknown action %s", action)
	}

	out.ReleaseTable = f.Type == enum.OrderTypeDineIn &&
		!f.Status.Terminal() && out.Status.Terminal()
	return out, nil
}

// Derive recomputes status from readiness counts and payment state.
func Derive(served, total int, payment enum.PaymentStatus) enum.OrderStatus {
	switch {
	case total > 0 && served >= total:
		if payment == enum.PaymentStatusLunas {
			return enum.OrderStatusSelesai
		}
		// An unpaid all-ready order waits for payment (takeaway) or vacate (dine-in).
		return enum.OrderStatusSiap
	case served > 0:
		return enum.OrderStatusDiproses
	default:
		return enum.OrderStatusPending
	}
}

// derivePaid is Derive at the moment payment is recorded: a dine-in order
// keeps its table until an explicit vacate, so it stops at Siap.
func derivePaid(served, total int, orderType enum.OrderType) enum.OrderStatus {
	if total > 0 && served >= total {
		if orderType == enum.OrderTypeTakeaway {
			return enum.OrderStatusSelesai
		}
		return enum.OrderStatusSiap
	}
	return Derive(served, total, enum.PaymentStatusLunas)
}
