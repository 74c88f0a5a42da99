package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveState(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	capTwo := 2

	approvedEvent := func(price int64, capacity *int) *Event {
		return &Event{
			ID:         "ev-1",
			StartsAt:   now.Add(time.Hour),
			EndsAt:     now.Add(3 * time.Hour),
			Capacity:   capacity,
			PriceMinor: price,
			Status:     EventStatusApproved,
		}
	}
	pendingReg := &Registration{ID: "reg-1", EventID: "ev-1", PaymentState: PaymentStatePending}
	paidReg := &Registration{ID: "reg-1", EventID: "ev-1", PaymentState: PaymentStatePaid}

	tests := []struct {
		name           string
		event          *Event
		reg            *Registration
		finalizedCount int
		want           RegistrationState
	}{
		{
			name:  "no registration on open event",
			event: approvedEvent(0, nil),
			want:  StateUnregistered,
		},
		{
			name:           "capacity reached without registration",
			event:          approvedEvent(500, &capTwo),
			finalizedCount: 2,
			want:           StateFull,
		},
		{
			name:           "capacity reached but user holds a pending slot",
			event:          approvedEvent(500, &capTwo),
			reg:            pendingReg,
			finalizedCount: 2,
			want:           StatePendingPayment,
		},
		{
			name:  "paid registration",
			event: approvedEvent(500, &capTwo),
			reg:   paidReg,
			want:  StateRegistered,
		},
		{
			name:  "free event registration counts as registered even when unpaid",
			event: approvedEvent(0, nil),
			reg:   &Registration{ID: "reg-1", PaymentState: PaymentStateUnpaid},
			want:  StateRegistered,
		},
		{
			name:  "pending payment on paid event",
			event: approvedEvent(500, nil),
			reg:   pendingReg,
			want:  StatePendingPayment,
		},
		{
			name: "completed dominates paid registration",
			event: &Event{
				ID:         "ev-1",
				StartsAt:   now.Add(-4 * time.Hour),
				EndsAt:     now.Add(-time.Hour),
				PriceMinor: 500,
				Status:     EventStatusApproved,
			},
			reg:  paidReg,
			want: StateCompleted,
		},
		{
			name:           "completed dominates full",
			event:          &Event{ID: "ev-1", EndsAt: now.Add(-time.Minute), Capacity: &capTwo, Status: EventStatusApproved},
			finalizedCount: 5,
			want:           StateCompleted,
		},
		{
			name:  "unpaid registration on paid event falls through to unregistered",
			event: approvedEvent(500, nil),
			reg:   &Registration{ID: "reg-1", PaymentState: PaymentStateUnpaid},
			want:  StateUnregistered,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveState(tc.event, tc.reg, tc.finalizedCount, now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEventRegistrable(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	ev := &Event{Status: EventStatusApproved, EndsAt: now.Add(time.Hour)}
	assert.True(t, ev.Registrable(now))

	ev.Status = EventStatusPending
	assert.False(t, ev.Registrable(now))

	ev.Status = EventStatusApproved
	ev.EndsAt = now
	assert.False(t, ev.Registrable(now), "end timestamp itself is past")
}
