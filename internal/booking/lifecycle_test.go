package booking

import (
	"testing"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
)

func TestValidateTransition_HappyPaths(t *testing.T) {
	cases := []struct {
		from    enums.BookingStatus
		to      enums.BookingStatus
		trigger Trigger
	}{
		{enums.BookingStatusDraft, enums.BookingStatusPendingPayment, TriggerSystem},
		{enums.BookingStatusPendingPayment, enums.BookingStatusConfirmed, TriggerSystem},
		{enums.BookingStatusPendingPayment, enums.BookingStatusPending, TriggerSystem},
		{enums.BookingStatusPendingPayment, enums.BookingStatusFailed, TriggerSystem},
		{enums.BookingStatusPending, enums.BookingStatusConfirmed, TriggerSystem},
		{enums.BookingStatusPending, enums.BookingStatusFailed, TriggerSystem},
		{enums.BookingStatusConfirmed, enums.BookingStatusCompleted, TriggerSystem},
		{enums.BookingStatusDraft, enums.BookingStatusCancelled, TriggerUser},
		{enums.BookingStatusPendingPayment, enums.BookingStatusCancelled, TriggerUser},
		{enums.BookingStatusPending, enums.BookingStatusCancelled, TriggerUser},
		{enums.BookingStatusConfirmed, enums.BookingStatusCancelled, TriggerUser},
	}
	for _, tc := range cases {
		if err := ValidateTransition(tc.from, tc.to, tc.trigger); err != nil {
			t.Errorf("%s -> %s (%s): unexpected error %v", tc.from, tc.to, tc.trigger, err)
		}
	}
}

func TestValidateTransition_TerminalStatesRejectEverything(t *testing.T) {
	terminals := []enums.BookingStatus{
		enums.BookingStatusCancelled,
		enums.BookingStatusFailed,
		enums.BookingStatusCompleted,
	}
	for _, from := range terminals {
		err := ValidateTransition(from, enums.BookingStatusConfirmed, TriggerSystem)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Errorf("%s: expected state conflict, got %v", from, err)
		}
	}
}

func TestValidateTransition_UserCanOnlyCancel(t *testing.T) {
	err := ValidateTransition(enums.BookingStatusPendingPayment, enums.BookingStatusConfirmed, TriggerUser)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestValidateTransition_DisallowedEdges(t *testing.T) {
	cases := []struct {
		from enums.BookingStatus
		to   enums.BookingStatus
	}{
		{enums.BookingStatusDraft, enums.BookingStatusConfirmed},
		{enums.BookingStatusDraft, enums.BookingStatusCompleted},
		{enums.BookingStatusPending, enums.BookingStatusPendingPayment},
		{enums.BookingStatusConfirmed, enums.BookingStatusPending},
	}
	for _, tc := range cases {
		err := ValidateTransition(tc.from, tc.to, TriggerSystem)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Errorf("%s -> %s: expected state conflict, got %v", tc.from, tc.to, err)
		}
	}
}
