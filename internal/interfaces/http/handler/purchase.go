package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	raffleapp "github.com/rafflehub/backend/internal/application/raffle"
)

// PurchaseHandler handles ticket purchase API endpoints
type PurchaseHandler struct {
	BaseHandler
	purchaseService *raffleapp.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService *raffleapp.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// PurchaseTicketsRequest represents a request to purchase tickets
// @Description Request body for purchasing raffle tickets
type PurchaseTicketsRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	OrderID    string `json:"order_id" binding:"required,uuid" example:"9b2f4c11-03a7-4c5e-8f2a-6f1e0d9c8b7a"`
	Quantity   int    `json:"quantity" binding:"required,min=1" example:"5"`
}

// Purchase godoc
// @Summary      Purchase raffle tickets
// @Description  Allocate a contiguous block of ticket numbers for an order
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Param        request body PurchaseTicketsRequest true "Purchase request"
// @Success      201 {object} APIResponse[raffleapp.PurchaseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /raffles/{id}/purchases [post]
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	var req PurchaseTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.purchaseService.Purchase(c.Request.Context(), raffleapp.PurchaseRequest{
		RaffleID:   raffleID,
		CustomerID: customerID,
		OrderID:    orderID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}
