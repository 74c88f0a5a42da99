package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clubhub-io/event-registration/internal/domain"
	"github.com/clubhub-io/event-registration/internal/events"
	"github.com/clubhub-io/event-registration/internal/gateway/payment"
	"github.com/clubhub-io/event-registration/internal/repository"
)

// fakeStore is a mutex-guarded in-memory stand-in for Postgres. The mutex
// plays the role of the store's transactional guarantees: unique indexes,
// row locks and conditional updates all resolve inside one critical section.
type fakeStore struct {
	mu             sync.Mutex
	events         map[string]*domain.Event
	regs           map[string]*domain.Registration
	regByEventUser map[string]string
	regByOrder     map[string]string
	tickets        map[string]*domain.Ticket // by code
	ticketByReg    map[string]string
	nextReg        int
	nextTicket     int
}

func newFakeStore(evs ...*domain.Event) *fakeStore {
	s := &fakeStore{
		events:         make(map[string]*domain.Event),
		regs:           make(map[string]*domain.Registration),
		regByEventUser: make(map[string]string),
		regByOrder:     make(map[string]string),
		tickets:        make(map[string]*domain.Ticket),
		ticketByReg:    make(map[string]string),
	}
	for _, ev := range evs {
		s.events[ev.ID] = ev
	}
	return s
}

func eventUserKey(eventID string, userID *string) string {
	if userID == nil {
		return ""
	}
	return eventID + "|" + *userID
}

func (s *fakeStore) countPaidLocked(eventID string) int {
	count := 0
	for _, reg := range s.regs {
		if reg.EventID == eventID && reg.PaymentState == domain.PaymentStatePaid {
			count++
		}
	}
	return count
}

func (s *fakeStore) capacityLeftLocked(eventID string) error {
	event, ok := s.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	if event.Capacity != nil && s.countPaidLocked(eventID) >= *event.Capacity {
		return repository.ErrEventFull
	}
	return nil
}

func (s *fakeStore) insertTicketLocked(ticket *domain.Ticket) error {
	if _, exists := s.tickets[ticket.Code]; exists {
		return repository.ErrDuplicateTicketCode
	}
	s.nextTicket++
	ticket.ID = fmt.Sprintf("tick-%d", s.nextTicket)
	ticket.IssuedAt = time.Now()
	saved := *ticket
	s.tickets[ticket.Code] = &saved
	s.ticketByReg[ticket.RegistrationID] = ticket.Code
	return nil
}

type fakeEventRepo struct{ store *fakeStore }

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	event, ok := f.store.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (f *fakeEventRepo) ListApproved(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var result []domain.Event
	for _, event := range f.store.events {
		if event.Status == domain.EventStatusApproved {
			result = append(result, *event)
		}
	}
	return result, nil
}

type fakeRegRepo struct{ store *fakeStore }

func (f *fakeRegRepo) Create(ctx context.Context, reg *domain.Registration) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.createLocked(reg)
}

func (f *fakeRegRepo) createLocked(reg *domain.Registration) error {
	key := eventUserKey(reg.EventID, reg.UserID)
	if key != "" {
		if _, exists := f.store.regByEventUser[key]; exists {
			return repository.ErrDuplicateRegistration
		}
	}
	f.store.nextReg++
	reg.ID = fmt.Sprintf("reg-%d", f.store.nextReg)
	reg.CreatedAt = time.Now()
	saved := *reg
	f.store.regs[reg.ID] = &saved
	if key != "" {
		f.store.regByEventUser[key] = reg.ID
	}
	return nil
}

func (f *fakeRegRepo) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	reg, ok := f.store.regs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *reg
	return &copied, nil
}

func (f *fakeRegRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	id, ok := f.store.regByEventUser[eventID+"|"+userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *f.store.regs[id]
	return &copied, nil
}

func (f *fakeRegRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.Registration, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	id, ok := f.store.regByOrder[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *f.store.regs[id]
	return &copied, nil
}

func (f *fakeRegRepo) CountFinalized(ctx context.Context, eventID string) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.countPaidLocked(eventID), nil
}

func (f *fakeRegRepo) SetPaymentOrder(ctx context.Context, registrationID, orderID string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	reg, ok := f.store.regs[registrationID]
	if !ok {
		return repository.ErrNotFound
	}
	if reg.PaymentOrderID != nil {
		delete(f.store.regByOrder, *reg.PaymentOrderID)
	}
	reg.PaymentOrderID = &orderID
	f.store.regByOrder[orderID] = registrationID
	return nil
}

func (f *fakeRegRepo) CreateFinalizedWithTicket(ctx context.Context, reg *domain.Registration, ticket *domain.Ticket) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	if err := f.store.capacityLeftLocked(reg.EventID); err != nil {
		return err
	}
	reg.PaymentState = domain.PaymentStatePaid
	if err := f.createLocked(reg); err != nil {
		return err
	}
	code := ticket.Code
	reg.TicketCode = &code
	f.store.regs[reg.ID].TicketCode = &code

	ticket.RegistrationID = reg.ID
	ticket.EventID = reg.EventID
	if err := f.store.insertTicketLocked(ticket); err != nil {
		// roll the insert back like the real transaction would
		delete(f.store.regs, reg.ID)
		delete(f.store.regByEventUser, eventUserKey(reg.EventID, reg.UserID))
		return err
	}
	return nil
}

func (f *fakeRegRepo) FinalizeWithTicket(ctx context.Context, registrationID string, ticket *domain.Ticket) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	reg, ok := f.store.regs[registrationID]
	if !ok {
		return repository.ErrNotFound
	}
	if reg.TicketCode != nil {
		return repository.ErrAlreadyFinalized
	}
	if err := f.store.capacityLeftLocked(reg.EventID); err != nil {
		return err
	}

	ticket.RegistrationID = registrationID
	ticket.EventID = reg.EventID
	if err := f.store.insertTicketLocked(ticket); err != nil {
		return err
	}
	reg.PaymentState = domain.PaymentStatePaid
	code := ticket.Code
	reg.TicketCode = &code
	return nil
}

type fakeTicketRepo struct{ store *fakeStore }

func (f *fakeTicketRepo) GetByRegistration(ctx context.Context, registrationID string) (*domain.Ticket, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	code, ok := f.store.ticketByReg[registrationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *f.store.tickets[code]
	return &copied, nil
}

func (f *fakeTicketRepo) GetScanRow(ctx context.Context, code, eventID string) (*repository.ScanRow, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.scanRowLocked(code, eventID)
}

func (f *fakeTicketRepo) scanRowLocked(code, eventID string) (*repository.ScanRow, error) {
	ticket, ok := f.store.tickets[code]
	if !ok || ticket.EventID != eventID {
		return nil, repository.ErrNotFound
	}
	reg := f.store.regs[ticket.RegistrationID]
	return &repository.ScanRow{
		Ticket:        *ticket,
		AttendeeName:  reg.AttendeeName,
		AttendeeEmail: reg.AttendeeEmail,
	}, nil
}

func (f *fakeTicketRepo) MarkCheckedIn(ctx context.Context, code, eventID string, at time.Time) (*repository.ScanRow, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	ticket, ok := f.store.tickets[code]
	if !ok || ticket.EventID != eventID || ticket.CheckedIn {
		return nil, repository.ErrNotFound
	}
	ticket.CheckedIn = true
	checkedAt := at
	ticket.CheckedInAt = &checkedAt
	return f.scanRowLocked(code, eventID)
}

// fakeGateway signs callbacks with a known secret and can be told to fail.
type fakeGateway struct {
	mu        sync.Mutex
	secret    string
	nextOrder int
	createErr error
	orders    map[string]int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{secret: "test-secret", orders: make(map[string]int64)}
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*payment.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextOrder++
	id := fmt.Sprintf("ord_%d", g.nextOrder)
	g.orders[id] = amountMinor
	return &payment.Order{ID: id, AmountMinor: amountMinor, Currency: "INR", Status: "created"}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return payment.VerifySignature(g.secret, orderID, paymentID, signature)
}

func (g *fakeGateway) sign(orderID, paymentID string) string {
	return payment.Sign(g.secret, orderID, paymentID)
}

// captureDispatcher records published events for assertions.
type captureDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *captureDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
