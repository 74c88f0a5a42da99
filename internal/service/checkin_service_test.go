package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clubhub-io/event-registration/internal/domain"
	"github.com/clubhub-io/event-registration/internal/events"
)

type checkinFixture struct {
	admission  *AdmissionService
	checkin    *CheckinService
	store      *fakeStore
	dispatcher *captureDispatcher
}

func newCheckinFixture(evs ...*domain.Event) *checkinFixture {
	store := newFakeStore(evs...)
	regs := &fakeRegRepo{store: store}
	tickets := &fakeTicketRepo{store: store}
	dispatcher := &captureDispatcher{}

	return &checkinFixture{
		admission: NewAdmissionService(AdmissionDependencies{
			EventRepo:  &fakeEventRepo{store: store},
			RegRepo:    regs,
			TicketRepo: tickets,
			Issuer:     NewTicketIssuer(regs, tickets),
			Dispatcher: dispatcher,
			Logger:     zap.NewNop(),
		}),
		checkin:    NewCheckinService(tickets, dispatcher, nil, zap.NewNop()),
		store:      store,
		dispatcher: dispatcher,
	}
}

func (f *checkinFixture) issueTicket(t *testing.T, eventID, userID string) string {
	t.Helper()
	reg, err := f.admission.StartRegistration(context.Background(), eventID, userID,
		ContactInput{Name: "Ada", Email: "ada@club.edu"})
	require.NoError(t, err)
	require.NotNil(t, reg.TicketCode)
	return *reg.TicketCode
}

func TestCheckInSuccess(t *testing.T) {
	ctx := context.Background()
	f := newCheckinFixture(testEvent("ev-1", 0, 0))
	code := f.issueTicket(t, "ev-1", "user-1")

	outcome, err := f.checkin.CheckIn(ctx, "ev-1", code)
	require.NoError(t, err)
	assert.Equal(t, ScanSuccess, outcome.Status)
	assert.Equal(t, code, outcome.TicketCode)
	assert.Equal(t, "Ada", outcome.AttendeeName)
	require.NotNil(t, outcome.CheckedInAt)

	assert.Len(t, f.dispatcher.byType(events.EventTicketCheckedIn), 1)
}

func TestCheckInSecondScanReportsOriginalTime(t *testing.T) {
	ctx := context.Background()
	f := newCheckinFixture(testEvent("ev-1", 0, 0))
	code := f.issueTicket(t, "ev-1", "user-1")

	first, err := f.checkin.CheckIn(ctx, "ev-1", code)
	require.NoError(t, err)
	require.Equal(t, ScanSuccess, first.Status)

	time.Sleep(5 * time.Millisecond)
	second, err := f.checkin.CheckIn(ctx, "ev-1", code)
	require.NoError(t, err)
	assert.Equal(t, ScanAlreadyUsed, second.Status)
	assert.Equal(t, "Ada", second.AttendeeName)
	require.NotNil(t, second.CheckedInAt)
	assert.Equal(t, first.CheckedInAt.UnixNano(), second.CheckedInAt.UnixNano(),
		"repeat scan must surface the original check-in time")

	assert.Len(t, f.dispatcher.byType(events.EventTicketCheckedIn), 1)
}

func TestCheckInUnknownCode(t *testing.T) {
	ctx := context.Background()
	f := newCheckinFixture(testEvent("ev-1", 0, 0))

	outcome, err := f.checkin.CheckIn(ctx, "ev-1", "TKT-NO-SUCH-CODE")
	require.NoError(t, err)
	assert.Equal(t, ScanNotFound, outcome.Status)
	assert.Empty(t, outcome.AttendeeName)
}

func TestCheckInRejectsCrossEventTicket(t *testing.T) {
	ctx := context.Background()
	f := newCheckinFixture(testEvent("ev-1", 0, 0), testEvent("ev-2", 0, 0))
	code := f.issueTicket(t, "ev-1", "user-1")

	outcome, err := f.checkin.CheckIn(ctx, "ev-2", code)
	require.NoError(t, err)
	assert.Equal(t, ScanNotFound, outcome.Status)

	// the ticket is still valid at its own event
	f.store.mu.Lock()
	assert.False(t, f.store.tickets[code].CheckedIn)
	f.store.mu.Unlock()

	outcome, err = f.checkin.CheckIn(ctx, "ev-1", code)
	require.NoError(t, err)
	assert.Equal(t, ScanSuccess, outcome.Status)
}

func TestCheckInConcurrentScansSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newCheckinFixture(testEvent("ev-1", 0, 0))
	code := f.issueTicket(t, "ev-1", "user-1")

	const scanners = 8
	outcomes := make([]*ScanOutcome, scanners)
	errs := make([]error, scanners)
	var wg sync.WaitGroup
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = f.checkin.CheckIn(ctx, "ev-1", code)
		}(i)
	}
	wg.Wait()

	success, used := 0, 0
	for i := 0; i < scanners; i++ {
		require.NoError(t, errs[i])
		switch outcomes[i].Status {
		case ScanSuccess:
			success++
		case ScanAlreadyUsed:
			used++
		default:
			t.Fatalf("unexpected status %s", outcomes[i].Status)
		}
	}
	assert.Equal(t, 1, success, "exactly one scan may win")
	assert.Equal(t, scanners-1, used)
}

func TestCheckInParsesPayloadVariants(t *testing.T) {
	ctx := context.Background()
	f := newCheckinFixture(testEvent("ev-1", 0, 0))
	code := f.issueTicket(t, "ev-1", "user-1")

	t.Run("json envelope", func(t *testing.T) {
		payload := fmt.Sprintf(`{"ticket_code":%q,"registration_id":"reg-1","checked_in":true}`, code)
		outcome, err := f.checkin.CheckIn(ctx, "ev-1", payload)
		require.NoError(t, err)
		// the embedded checked_in claim is ignored; the store decides
		assert.Equal(t, ScanSuccess, outcome.Status)
	})

	t.Run("whitespace around bare code", func(t *testing.T) {
		outcome, err := f.checkin.CheckIn(ctx, "ev-1", "  "+code+"\n")
		require.NoError(t, err)
		assert.Equal(t, ScanAlreadyUsed, outcome.Status)
	})

	t.Run("malformed json", func(t *testing.T) {
		outcome, err := f.checkin.CheckIn(ctx, "ev-1", `{"ticket_code": nope`)
		require.NoError(t, err)
		assert.Equal(t, ScanNotFound, outcome.Status)
	})

	t.Run("empty payload", func(t *testing.T) {
		outcome, err := f.checkin.CheckIn(ctx, "ev-1", "   ")
		require.NoError(t, err)
		assert.Equal(t, ScanNotFound, outcome.Status)
	})
}
