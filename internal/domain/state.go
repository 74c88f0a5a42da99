package domain

import "time"

// RegistrationState is the derived answer to "what may this user do with this
// event right now". It is computed fresh on every read and never persisted,
// so it cannot drift from the underlying rows.
type RegistrationState string

const (
	StateUnregistered   RegistrationState = "UNREGISTERED"
	StatePendingPayment RegistrationState = "PENDING_PAYMENT"
	StateRegistered     RegistrationState = "REGISTERED"
	StateFull           RegistrationState = "FULL"
	StateCompleted      RegistrationState = "COMPLETED"
)

// ResolveState computes the registration state for a user against an event.
// reg is nil when the user holds no registration. finalizedCount is the
// current number of finalized registrations for the event.
//
// Evaluation order is strict, first match wins:
//  1. Completed  — the event is past its end timestamp.
//  2. Full       — finite capacity reached and the user holds no registration.
//     A user with an existing registration already holds a slot and is
//     exempt, so their own pending attempt stays visible.
//  3. Registered — the user's registration is paid, or the event is free.
//  4. PendingPayment — payment started but not confirmed on a paid event.
//  5. Unregistered.
func ResolveState(event *Event, reg *Registration, finalizedCount int, now time.Time) RegistrationState {
	if event.Ended(now) {
		return StateCompleted
	}
	if event.Capacity != nil && finalizedCount >= *event.Capacity && reg == nil {
		return StateFull
	}
	if reg != nil {
		if reg.PaymentState == PaymentStatePaid || event.Free() {
			return StateRegistered
		}
		if reg.PaymentState == PaymentStatePending && event.PriceMinor > 0 {
			return StatePendingPayment
		}
	}
	return StateUnregistered
}
