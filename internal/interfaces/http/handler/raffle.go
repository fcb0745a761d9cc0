package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	raffleapp "github.com/rafflehub/backend/internal/application/raffle"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/shopspring/decimal"
)

// RaffleHandler handles raffle lifecycle API endpoints
type RaffleHandler struct {
	BaseHandler
	raffleService *raffleapp.RaffleService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(raffleService *raffleapp.RaffleService) *RaffleHandler {
	return &RaffleHandler{
		raffleService: raffleService,
	}
}

// CreateRaffleRequest represents a request to create a raffle
// @Description Request body for creating a raffle
type CreateRaffleRequest struct {
	Title                 string            `json:"title" binding:"required,min=1,max=200" example:"Vintage Console Raffle"`
	Description           string            `json:"description" binding:"max=2000"`
	ImageURL              string            `json:"image_url" binding:"omitempty,url,max=500"`
	Terms                 string            `json:"terms" binding:"max=5000"`
	Metadata              map[string]string `json:"metadata"`
	TicketPrice           string            `json:"ticket_price" binding:"required" example:"4.99"`
	TotalTickets          int               `json:"total_tickets" binding:"required,min=1" example:"500"`
	MaxTicketsPerCustomer int               `json:"max_tickets_per_customer" binding:"min=0" example:"20"`
	StartsAt              *time.Time        `json:"starts_at"`
	EndsAt                *time.Time        `json:"ends_at"`
	DrawAt                *time.Time        `json:"draw_at"`
}

// UpdateRaffleRequest represents a partial raffle update
// @Description Request body for updating a raffle
type UpdateRaffleRequest struct {
	Title                 *string            `json:"title" binding:"omitempty,min=1,max=200"`
	Description           *string            `json:"description" binding:"omitempty,max=2000"`
	ImageURL              *string            `json:"image_url" binding:"omitempty,url,max=500"`
	Terms                 *string            `json:"terms" binding:"omitempty,max=5000"`
	Metadata              *map[string]string `json:"metadata"`
	TicketPrice           *string            `json:"ticket_price" example:"5.99"`
	TotalTickets          *int               `json:"total_tickets" binding:"omitempty,min=1"`
	MaxTicketsPerCustomer *int               `json:"max_tickets_per_customer" binding:"omitempty,min=0"`
	StartsAt              *time.Time         `json:"starts_at"`
	EndsAt                *time.Time         `json:"ends_at"`
	DrawAt                *time.Time         `json:"draw_at"`
}

// CancelRaffleRequest represents a request to cancel a raffle
// @Description Request body for cancelling a raffle
type CancelRaffleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"supplier withdrew the prize"`
}

// Create godoc
// @Summary      Create a new raffle
// @Description  Create a raffle in DRAFT status
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        request body CreateRaffleRequest true "Raffle creation request"
// @Success      201 {object} APIResponse[raffleapp.RaffleResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /raffles [post]
func (h *RaffleHandler) Create(c *gin.Context) {
	var req CreateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	price, err := decimal.NewFromString(req.TicketPrice)
	if err != nil {
		h.BadRequest(c, "Invalid ticket price format")
		return
	}

	appReq := raffleapp.CreateRaffleRequest{
		Title:                 req.Title,
		Description:           req.Description,
		ImageURL:              req.ImageURL,
		Terms:                 req.Terms,
		Metadata:              req.Metadata,
		TicketPrice:           price,
		TotalTickets:          req.TotalTickets,
		MaxTicketsPerCustomer: req.MaxTicketsPerCustomer,
		StartsAt:              req.StartsAt,
		EndsAt:                req.EndsAt,
		DrawAt:                req.DrawAt,
	}

	created, err := h.raffleService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, created)
}

// GetByID godoc
// @Summary      Get raffle by ID
// @Tags         raffles
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Success      200 {object} APIResponse[raffleapp.RaffleResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /raffles/{id} [get]
func (h *RaffleHandler) GetByID(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	result, err := h.raffleService.GetByID(c.Request.Context(), raffleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// List godoc
// @Summary      List raffles
// @Description  List raffles with optional status filter and pagination
// @Tags         raffles
// @Produce      json
// @Param        status query string false "Filter by status" Enums(DRAFT,ACTIVE,SOLD_OUT,DRAWING,COMPLETED,CANCELLED)
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]raffleapp.RaffleResponse]
// @Router       /raffles [get]
func (h *RaffleHandler) List(c *gin.Context) {
	filter := raffleapp.RaffleListFilter{Page: 1, PageSize: 20}

	if err := bindPagination(c, &filter.Page, &filter.PageSize); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if statusParam := c.Query("status"); statusParam != "" {
		status := raffle.RaffleStatus(statusParam)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid raffle status: "+statusParam)
			return
		}
		filter.Status = &status
	}

	page, err := h.raffleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update godoc
// @Summary      Update a raffle
// @Description  Partially update a raffle. Structural fields are immutable once published.
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Param        request body UpdateRaffleRequest true "Raffle update request"
// @Success      200 {object} APIResponse[raffleapp.RaffleResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /raffles/{id} [patch]
func (h *RaffleHandler) Update(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	var req UpdateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := raffleapp.UpdateRaffleRequest{
		Title:                 req.Title,
		Description:           req.Description,
		ImageURL:              req.ImageURL,
		Terms:                 req.Terms,
		Metadata:              req.Metadata,
		TotalTickets:          req.TotalTickets,
		MaxTicketsPerCustomer: req.MaxTicketsPerCustomer,
		StartsAt:              req.StartsAt,
		EndsAt:                req.EndsAt,
		DrawAt:                req.DrawAt,
	}
	if req.TicketPrice != nil {
		price, err := decimal.NewFromString(*req.TicketPrice)
		if err != nil {
			h.BadRequest(c, "Invalid ticket price format")
			return
		}
		appReq.TicketPrice = &price
	}

	updated, err := h.raffleService.Update(c.Request.Context(), raffleID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, updated)
}

// Publish godoc
// @Summary      Publish a raffle
// @Description  Transition a DRAFT raffle to ACTIVE, opening it for purchases
// @Tags         raffles
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Success      200 {object} APIResponse[raffleapp.RaffleResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /raffles/{id}/publish [post]
func (h *RaffleHandler) Publish(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	published, err := h.raffleService.Publish(c.Request.Context(), raffleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, published)
}

// Cancel godoc
// @Summary      Cancel a raffle
// @Description  Cancel a raffle with a reason. Completed raffles cannot be cancelled.
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Param        request body CancelRaffleRequest true "Cancellation reason"
// @Success      200 {object} APIResponse[raffleapp.RaffleResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /raffles/{id}/cancel [post]
func (h *RaffleHandler) Cancel(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	var req CancelRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cancelled, err := h.raffleService.Cancel(c.Request.Context(), raffleID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, cancelled)
}

// Resume godoc
// @Summary      Resume a raffle stuck in DRAWING
// @Description  Return a raffle whose draw failed back to its selling state
// @Tags         raffles
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Success      200 {object} APIResponse[raffleapp.RaffleResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /raffles/{id}/resume [post]
func (h *RaffleHandler) Resume(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	resumed, err := h.raffleService.Resume(c.Request.Context(), raffleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resumed)
}

// ListTickets godoc
// @Summary      List tickets of a raffle
// @Description  List allocated tickets ordered by ticket number
// @Tags         raffles
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Param        status query string false "Filter by ticket status" Enums(RESERVED,PAID,WINNER,LOSER)
// @Param        customer_id query string false "Filter by customer" format(uuid)
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]raffleapp.TicketResponse]
// @Router       /raffles/{id}/tickets [get]
func (h *RaffleHandler) ListTickets(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	filter := raffleapp.TicketListFilter{Page: 1, PageSize: 20}
	if err := bindPagination(c, &filter.Page, &filter.PageSize); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if statusParam := c.Query("status"); statusParam != "" {
		status := raffle.TicketStatus(statusParam)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid ticket status: "+statusParam)
			return
		}
		filter.Status = &status
	}
	if customerParam := c.Query("customer_id"); customerParam != "" {
		customerID, err := uuid.Parse(customerParam)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		filter.CustomerID = &customerID
	}

	page, err := h.raffleService.ListTickets(c.Request.Context(), raffleID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetTicket godoc
// @Summary      Get a ticket by ID
// @Tags         tickets
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} APIResponse[raffleapp.TicketResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /tickets/{id} [get]
func (h *RaffleHandler) GetTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ticket ID format")
		return
	}

	ticket, err := h.raffleService.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ticket)
}
