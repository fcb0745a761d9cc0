package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	raffleapp "github.com/rafflehub/backend/internal/application/raffle"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"github.com/rafflehub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// WebhookHandler handles callbacks from external systems. These endpoints
// are called by the randomness oracle and the order service, not by users.
type WebhookHandler struct {
	BaseHandler
	drawService *raffleapp.DrawService
	publisher   shared.EventPublisher
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(drawService *raffleapp.DrawService, publisher shared.EventPublisher) *WebhookHandler {
	return &WebhookHandler{
		drawService: drawService,
		publisher:   publisher,
	}
}

// RandomnessCallbackRequest represents the oracle's randomness delivery
// @Description Randomness oracle callback payload
type RandomnessCallbackRequest struct {
	RequestID   string   `json:"request_id" binding:"required" example:"vrf-req-42"`
	RandomWords []string `json:"random_words" binding:"required,min=1"`
}

// HandleRandomnessCallback godoc
// @Summary      Receive randomness from the oracle
// @Description  Settle the pending draw identified by the request ID
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request body RandomnessCallbackRequest true "Randomness delivery"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Router       /webhooks/randomness [post]
func (h *WebhookHandler) HandleRandomnessCallback(c *gin.Context) {
	var req RandomnessCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	logger.L(c.Request.Context()).Info("randomness callback received",
		zap.String("request_id", req.RequestID),
		zap.Int("word_count", len(req.RandomWords)),
	)

	err := h.drawService.HandleRandomnessCallback(c.Request.Context(), raffle.RandomnessCallback{
		RequestID:   req.RequestID,
		RandomWords: req.RandomWords,
		ReceivedAt:  time.Now(),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, nil)
}

// PaymentCapturedRequest represents the order service's payment notification
// @Description Payment captured webhook payload
type PaymentCapturedRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid" example:"9b2f4c11-03a7-4c5e-8f2a-6f1e0d9c8b7a"`
}

// HandlePaymentCaptured godoc
// @Summary      Receive a payment captured notification
// @Description  Mark the order's reserved tickets as paid via the event bus
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request body PaymentCapturedRequest true "Payment notification"
// @Success      200 {object} SuccessResponse
// @Router       /webhooks/payment-captured [post]
func (h *WebhookHandler) HandlePaymentCaptured(c *gin.Context) {
	var req PaymentCapturedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), raffleapp.NewPaymentCapturedEvent(orderID)); err != nil {
		h.InternalError(c, "Failed to dispatch payment notification")
		return
	}

	h.Success(c, nil)
}
