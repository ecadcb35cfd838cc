package booking

import (
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
)

// Trigger identifies who is driving a state transition. Users may only
// cancel; every other transition is system-driven (checkout, payment
// confirmation, fulfillment).
type Trigger string

const (
	TriggerUser   Trigger = "user"
	TriggerSystem Trigger = "system"
)

var allowedTransitions = map[enums.BookingStatus][]enums.BookingStatus{
	enums.BookingStatusDraft: {
		enums.BookingStatusPendingPayment,
		enums.BookingStatusCancelled,
	},
	enums.BookingStatusPendingPayment: {
		enums.BookingStatusConfirmed,
		enums.BookingStatusPending,
		enums.BookingStatusFailed,
		enums.BookingStatusCancelled,
	},
	enums.BookingStatusPending: {
		enums.BookingStatusConfirmed,
		enums.BookingStatusFailed,
		enums.BookingStatusCancelled,
	},
	enums.BookingStatusConfirmed: {
		enums.BookingStatusCompleted,
		enums.BookingStatusCancelled,
	},
}

// CanTransition reports whether the move from current to target is legal,
// ignoring the trigger.
func CanTransition(current, target enums.BookingStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ValidateTransition checks the transition graph and the trigger. Terminal
// states reject every transition attempt rather than ignoring it.
func ValidateTransition(current, target enums.BookingStatus, trigger Trigger) error {
	if current.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is in a terminal state").
			WithDetails(map[string]string{
				"current_status":   current.String(),
				"requested_status": target.String(),
			})
	}
	if trigger == TriggerUser && target != enums.BookingStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only cancellation can be requested directly").
			WithDetails(map[string]string{"requested_status": target.String()})
	}
	if !CanTransition(current, target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "state transition disallowed").
			WithDetails(map[string]string{
				"current_status":   current.String(),
				"requested_status": target.String(),
			})
	}
	return nil
}
