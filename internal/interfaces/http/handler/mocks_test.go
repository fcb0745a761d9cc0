package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	raffleapp "github.com/rafflehub/backend/internal/application/raffle"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"github.com/rafflehub/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// In-memory repositories backing the handler tests. Services are real;
// only persistence and the oracle are faked.

type mockRaffleRepo struct {
	mu      sync.Mutex
	raffles map[uuid.UUID]*raffle.Raffle
}

func newMockRaffleRepo() *mockRaffleRepo {
	return &mockRaffleRepo{raffles: make(map[uuid.UUID]*raffle.Raffle)}
}

func (m *mockRaffleRepo) FindByID(_ context.Context, id uuid.UUID) (*raffle.Raffle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.raffles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockRaffleRepo) FindAll(_ context.Context, filter shared.Filter) ([]raffle.Raffle, error) {
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

func (m *mockRaffleRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	rs, _ := m.FindAll(ctx, filter)
	return int64(len(rs)), nil
}

func (m *mockRaffleRepo) Save(_ context.Context, r *raffle.Raffle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *r
	m.raffles[r.ID] = &copied
	return nil
}

func (m *mockRaffleRepo) SaveWithLock(_ context.Context, r *raffle.Raffle) error {
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

type mockTicketRepo struct {
	mu      sync.Mutex
	raffles *mockRaffleRepo
	tickets map[uuid.UUID]*raffle.Ticket
}

func newMockTicketRepo(raffles *mockRaffleRepo) *mockTicketRepo {
	return &mockTicketRepo{raffles: raffles, tickets: make(map[uuid.UUID]*raffle.Ticket)}
}

func (m *mockTicketRepo) AllocateTickets(ctx context.Context, raffleID, customerID, orderID uuid.UUID, quantity int) ([]raffle.Ticket, error) {
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

func (m *mockTicketRepo) ReleaseTickets(_ context.Context, ticketIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ticketIDs {
		delete(m.tickets, id)
	}
	return nil
}

func (m *mockTicketRepo) FindByID(_ context.Context, id uuid.UUID) (*raffle.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *mockTicketRepo) FindByNumber(_ context.Context, raffleID uuid.UUID, number int) (*raffle.Ticket, error) {
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

func (m *mockTicketRepo) FindByRaffle(_ context.Context, raffleID uuid.UUID, filter shared.Filter) ([]raffle.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []raffle.Ticket
	for _, t := range m.tickets {
		if t.RaffleID != raffleID {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && string(t.Status) != status {
			continue
		}
		if customerID, ok := filter.Filters["customer_id"]; ok && t.CustomerID != customerID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTicketRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]raffle.Ticket, error) {
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

func (m *mockTicketRepo) MarkPaidByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
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

func (m *mockTicketRepo) Save(_ context.Context, t *raffle.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *t
	m.tickets[t.ID] = &copied
	return nil
}

func (m *mockTicketRepo) CountByRaffle(_ context.Context, raffleID uuid.UUID) (int64, error) {
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

func (m *mockTicketRepo) CountByCustomer(_ context.Context, raffleID, customerID uuid.UUID) (int64, error) {
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

type mockDrawRepo struct {
	mu    sync.Mutex
	draws map[uuid.UUID]*raffle.Draw
}

func newMockDrawRepo() *mockDrawRepo {
	return &mockDrawRepo{draws: make(map[uuid.UUID]*raffle.Draw)}
}

func (m *mockDrawRepo) FindByID(_ context.Context, id uuid.UUID) (*raffle.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.draws[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *mockDrawRepo) FindByRequestID(_ context.Context, requestID string) (*raffle.Draw, error) {
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

func (m *mockDrawRepo) FindByRaffle(_ context.Context, raffleID uuid.UUID) ([]raffle.Draw, error) {
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

func (m *mockDrawRepo) HasNonFailedDraw(_ context.Context, raffleID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.draws {
		if d.RaffleID == raffleID && d.Status != raffle.DrawStatusFailed {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDrawRepo) ClaimForSettlement(_ context.Context, d *raffle.Draw) error {
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

func (m *mockDrawRepo) Save(_ context.Context, d *raffle.Draw) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *d
	m.draws[d.ID] = &copied
	return nil
}

func (m *mockDrawRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.draws, id)
	return nil
}

// dispatchPublisher synchronously forwards events to registered handlers,
// standing in for the event bus
type dispatchPublisher struct {
	mu       sync.Mutex
	handlers []shared.EventHandler
	events   []shared.DomainEvent
}

func (p *dispatchPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	handlers := append([]shared.EventHandler(nil), p.handlers...)
	p.events = append(p.events, events...)
	p.mu.Unlock()

	for _, e := range events {
		for _, h := range handlers {
			for _, et := range h.EventTypes() {
				if et == e.EventType() {
					_ = h.Handle(ctx, e)
				}
			}
		}
	}
	return nil
}

type stubRandomness struct {
	requestID string
	err       error
}

func (s *stubRandomness) RequestRandomness(_ context.Context, _ uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.requestID, nil
}

// testEnv wires real services over the mock repositories and mounts all
// raffle routes on a fresh engine
type testEnv struct {
	engine     *gin.Engine
	raffleRepo *mockRaffleRepo
	ticketRepo *mockTicketRepo
	drawRepo   *mockDrawRepo
	publisher  *dispatchPublisher
	randomness *stubRandomness
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	raffleRepo := newMockRaffleRepo()
	ticketRepo := newMockTicketRepo(raffleRepo)
	drawRepo := newMockDrawRepo()
	publisher := &dispatchPublisher{}
	randomness := &stubRandomness{requestID: "vrf-req-1"}

	raffleService := raffleapp.NewRaffleService(raffleRepo, ticketRepo, drawRepo, publisher, nil)
	purchaseService := raffleapp.NewPurchaseService(raffleRepo, ticketRepo, publisher, nil)
	drawService := raffleapp.NewDrawService(raffleRepo, ticketRepo, drawRepo, randomness, publisher, nil)

	raffleHandler := NewRaffleHandler(raffleService)
	purchaseHandler := NewPurchaseHandler(purchaseService)
	drawHandler := NewDrawHandler(drawService)
	webhookHandler := NewWebhookHandler(drawService, publisher)

	engine := gin.New()
	engine.POST("/raffles", raffleHandler.Create)
	engine.GET("/raffles", raffleHandler.List)
	engine.GET("/raffles/:id", raffleHandler.GetByID)
	engine.PATCH("/raffles/:id", raffleHandler.Update)
	engine.POST("/raffles/:id/publish", raffleHandler.Publish)
	engine.POST("/raffles/:id/cancel", raffleHandler.Cancel)
	engine.POST("/raffles/:id/resume", raffleHandler.Resume)
	engine.GET("/raffles/:id/tickets", raffleHandler.ListTickets)
	engine.GET("/tickets/:id", raffleHandler.GetTicket)
	engine.POST("/raffles/:id/purchases", purchaseHandler.Purchase)
	engine.POST("/raffles/:id/draws", drawHandler.StartDraw)
	engine.GET("/raffles/:id/draws", drawHandler.ListDraws)
	engine.GET("/draws/:id", drawHandler.GetDraw)
	engine.POST("/webhooks/randomness", webhookHandler.HandleRandomnessCallback)
	engine.POST("/webhooks/payment-captured", webhookHandler.HandlePaymentCaptured)

	return &testEnv{
		engine:     engine,
		raffleRepo: raffleRepo,
		ticketRepo: ticketRepo,
		drawRepo:   drawRepo,
		publisher:  publisher,
		randomness: randomness,
	}
}

// do performs a JSON request against the test engine
func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// createRaffle creates a raffle over HTTP and returns its ID
func (e *testEnv) createRaffle(t *testing.T, totalTickets, maxPerCustomer int) uuid.UUID {
	t.Helper()

	w, resp := e.do(t, http.MethodPost, "/raffles", gin.H{
		"title":                    "Vintage Console Raffle",
		"ticket_price":             "4.99",
		"total_tickets":            totalTickets,
		"max_tickets_per_customer": maxPerCustomer,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := resp.Data.(map[string]any)
	id, err := uuid.Parse(data["id"].(string))
	require.NoError(t, err)
	return id
}

// publishRaffle publishes a draft raffle over HTTP
func (e *testEnv) publishRaffle(t *testing.T, id uuid.UUID) {
	t.Helper()
	w, _ := e.do(t, http.MethodPost, "/raffles/"+id.String()+"/publish", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
