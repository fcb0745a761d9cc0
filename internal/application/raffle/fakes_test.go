package raffle

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
)

// In-memory fakes backing the service tests. The ticket fake serializes
// allocations behind a mutex the same way the SQL implementation serializes
// them behind a row lock.

type memRaffleRepo struct {
	mu      sync.Mutex
	raffles map[uuid.UUID]*raffle.Raffle

	saveErr error
}

func newMemRaffleRepo() *memRaffleRepo {
	return &memRaffleRepo{raffles: make(map[uuid.UUID]*raffle.Raffle)}
}

func (m *memRaffleRepo) FindByID(_ context.Context, id uuid.UUID) (*raffle.Raffle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.raffles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memRaffleRepo) FindAll(_ context.Context, filter shared.Filter) ([]raffle.Raffle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []raffle.Raffle
	for _, r := range m.raffles {
		if status, ok := filter.Filters["status"]; ok && r.Status.String() != status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRaffleRepo) Count(_ context.Context, filter shared.Filter) (int64, error) {
	rs, _ := m.FindAll(context.Background(), filter)
	return int64(len(rs)), nil
}

func (m *memRaffleRepo) Save(_ context.Context, r *raffle.Raffle) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *r
	m.raffles[r.ID] = &copied
	return nil
}

func (m *memRaffleRepo) SaveWithLock(_ context.Context, r *raffle.Raffle) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.raffles[r.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != r.Version {
		return shared.ErrConcurrencyConflict
	}
	r.IncrementVersion()
	copied := *r
	m.raffles[r.ID] = &copied
	return nil
}

type memTicketRepo struct {
	mu      sync.Mutex
	raffles *memRaffleRepo
	tickets map[uuid.UUID]*raffle.Ticket

	allocateErr error
	releaseErr  error
	released    [][]uuid.UUID
}

func newMemTicketRepo(raffles *memRaffleRepo) *memTicketRepo {
	return &memTicketRepo{raffles: raffles, tickets: make(map[uuid.UUID]*raffle.Ticket)}
}

func (m *memTicketRepo) AllocateTickets(ctx context.Context, raffleID, customerID, orderID uuid.UUID, quantity int) ([]raffle.Ticket, error) {
	if m.allocateErr != nil {
		return nil, m.allocateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.raffles.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	nextNumber := 1
	var held int64
	for _, t := range m.tickets {
		if t.RaffleID != raffleID {
			continue
		}
		if t.TicketNumber >= nextNumber {
			nextNumber = t.TicketNumber + 1
		}
		if t.CustomerID == customerID {
			held++
		}
	}

	batch, err := raffle.AllocateBatch(r, customerID, orderID, quantity, nextNumber, held)
	if err != nil {
		return nil, err
	}
	for i := range batch {
		copied := batch[i]
		m.tickets[copied.ID] = &copied
	}
	return batch, nil
}

func (m *memTicketRepo) ReleaseTickets(_ context.Context, ticketIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, ticketIDs)
	if m.releaseErr != nil {
		return m.releaseErr
	}
	for _, id := range ticketIDs {
		delete(m.tickets, id)
	}
	return nil
}

func (m *memTicketRepo) FindByID(_ context.Context, id uuid.UUID) (*raffle.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *memTicketRepo) FindByNumber(_ context.Context, raffleID uuid.UUID, number int) (*raffle.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.RaffleID == raffleID && t.TicketNumber == number {
			copied := *t
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memTicketRepo) FindByRaffle(_ context.Context, raffleID uuid.UUID, _ shared.Filter) ([]raffle.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []raffle.Ticket
	for _, t := range m.tickets {
		if t.RaffleID == raffleID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTicketRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]raffle.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []raffle.Ticket
	for _, t := range m.tickets {
		if t.OrderID == orderID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTicketRepo) MarkPaidByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for _, t := range m.tickets {
		if t.OrderID == orderID && t.Status == raffle.TicketStatusReserved {
			t.Status = raffle.TicketStatusPaid
			changed++
		}
	}
	return changed, nil
}

func (m *memTicketRepo) Save(_ context.Context, t *raffle.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *t
	m.tickets[t.ID] = &copied
	return nil
}

func (m *memTicketRepo) CountByRaffle(_ context.Context, raffleID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, t := range m.tickets {
		if t.RaffleID == raffleID {
			count++
		}
	}
	return count, nil
}

func (m *memTicketRepo) CountByCustomer(_ context.Context, raffleID, customerID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, t := range m.tickets {
		if t.RaffleID == raffleID && t.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

type memDrawRepo struct {
	mu    sync.Mutex
	draws map[uuid.UUID]*raffle.Draw

	saveErr error
	deleted []uuid.UUID
}

func newMemDrawRepo() *memDrawRepo {
	return &memDrawRepo{draws: make(map[uuid.UUID]*raffle.Draw)}
}

func (m *memDrawRepo) FindByID(_ context.Context, id uuid.UUID) (*raffle.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.draws[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *memDrawRepo) FindByRequestID(_ context.Context, requestID string) (*raffle.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.draws {
		if d.RandomnessRequestID == requestID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memDrawRepo) FindByRaffle(_ context.Context, raffleID uuid.UUID) ([]raffle.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []raffle.Draw
	for _, d := range m.draws {
		if d.RaffleID == raffleID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDrawRepo) HasNonFailedDraw(_ context.Context, raffleID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.draws {
		if d.RaffleID == raffleID && d.Status != raffle.DrawStatusFailed {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDrawRepo) ClaimForSettlement(_ context.Context, d *raffle.Draw) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.draws[d.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Status != raffle.DrawStatusRequested {
		return shared.ErrConcurrencyConflict
	}
	stored.Status = raffle.DrawStatusPending
	return d.MarkPending()
}

func (m *memDrawRepo) Save(_ context.Context, d *raffle.Draw) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *d
	m.draws[d.ID] = &copied
	return nil
}

func (m *memDrawRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	delete(m.draws, id)
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

type stubRandomness struct {
	requestID string
	err       error
	calls     int
}

func (s *stubRandomness) RequestRandomness(_ context.Context, _ uuid.UUID) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.requestID, nil
}

type memIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{seen: make(map[string]bool)}
}

func (m *memIdempotencyStore) MarkProcessed(_ context.Context, messageID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[messageID] {
		return false, nil
	}
	m.seen[messageID] = true
	return true, nil
}

func (m *memIdempotencyStore) IsProcessed(_ context.Context, messageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[messageID], nil
}

func (m *memIdempotencyStore) Close() error { return nil }
