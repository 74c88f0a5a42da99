package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubhub-io/event-registration/internal/domain"
	"github.com/clubhub-io/event-registration/internal/repository"
)

// codeIssueAttempts bounds regeneration on ticket code collisions. The store's
// unique index is the final authority; collisions are practically impossible
// but the retry keeps them harmless.
const codeIssueAttempts = 5

// TicketIssuer creates the unique ticket that proves a finalized registration.
type TicketIssuer struct {
	registrations repository.RegistrationRepository
	tickets       repository.TicketRepository
	now           func() time.Time
}

// NewTicketIssuer constructs the issuer.
func NewTicketIssuer(registrations repository.RegistrationRepository, tickets repository.TicketRepository) *TicketIssuer {
	return &TicketIssuer{
		registrations: registrations,
		tickets:       tickets,
		now:           time.Now,
	}
}

// Issue finalizes an existing registration and persists its ticket in one
// transaction. Re-invoking on an already-finalized registration is a no-op
// returning the existing ticket.
func (i *TicketIssuer) Issue(ctx context.Context, registrationID string) (*domain.Ticket, error) {
	for attempt := 0; attempt < codeIssueAttempts; attempt++ {
		ticket := &domain.Ticket{Code: i.newCode()}
		err := i.registrations.FinalizeWithTicket(ctx, registrationID, ticket)
		switch {
		case err == nil:
			return ticket, nil
		case errors.Is(err, repository.ErrDuplicateTicketCode):
			continue
		case errors.Is(err, repository.ErrAlreadyFinalized):
			return i.tickets.GetByRegistration(ctx, registrationID)
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("ticket code collision persisted after %d attempts", codeIssueAttempts)
}

// IssueForNewRegistration inserts a finalized registration together with its
// ticket (the free-event path). The registration insert is guarded by the
// (event, user) unique index; repository.ErrDuplicateRegistration and
// repository.ErrEventFull pass through for the caller to resolve.
func (i *TicketIssuer) IssueForNewRegistration(ctx context.Context, reg *domain.Registration) (*domain.Ticket, error) {
	for attempt := 0; attempt < codeIssueAttempts; attempt++ {
		ticket := &domain.Ticket{Code: i.newCode()}
		err := i.registrations.CreateFinalizedWithTicket(ctx, reg, ticket)
		switch {
		case err == nil:
			return ticket, nil
		case errors.Is(err, repository.ErrDuplicateTicketCode):
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("ticket code collision persisted after %d attempts", codeIssueAttempts)
}

// newCode combines a millisecond timestamp with uuid-derived entropy, so
// codes are unguessable and collisions need both components to coincide.
func (i *TicketIssuer) newCode() string {
	ts := strings.ToUpper(strconv.FormatInt(i.now().UnixMilli(), 36))
	id := uuid.New()
	random := strings.ToUpper(hex.EncodeToString(id[:6]))
	return "TKT-" + ts + "-" + random
}
