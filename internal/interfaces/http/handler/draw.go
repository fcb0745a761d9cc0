package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	raffleapp "github.com/rafflehub/backend/internal/application/raffle"
	"github.com/rafflehub/backend/internal/interfaces/http/dto"
)

// DrawHandler handles draw orchestration API endpoints
type DrawHandler struct {
	BaseHandler
	drawService *raffleapp.DrawService
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(drawService *raffleapp.DrawService) *DrawHandler {
	return &DrawHandler{
		drawService: drawService,
	}
}

// StartDrawRequest represents a request to start a draw
// @Description Request body for starting a raffle draw
type StartDrawRequest struct {
	ExecutedBy string `json:"executed_by" binding:"required,uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
}

// StartDraw godoc
// @Summary      Start a raffle draw
// @Description  Freeze sales and request verifiable randomness for winner selection
// @Tags         draws
// @Accept       json
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Param        request body StartDrawRequest true "Draw start request"
// @Success      202 {object} APIResponse[raffleapp.DrawResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /raffles/{id}/draws [post]
func (h *DrawHandler) StartDraw(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	var req StartDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	executedBy, err := uuid.Parse(req.ExecutedBy)
	if err != nil {
		h.BadRequest(c, "Invalid executed_by format")
		return
	}

	draw, err := h.drawService.StartDraw(c.Request.Context(), raffleID, executedBy)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	// The draw completes asynchronously when the oracle calls back
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(draw))
}

// ListDraws godoc
// @Summary      List draws of a raffle
// @Description  List draw attempts for a raffle, newest first
// @Tags         draws
// @Produce      json
// @Param        id path string true "Raffle ID" format(uuid)
// @Success      200 {object} APIResponse[[]raffleapp.DrawResponse]
// @Router       /raffles/{id}/draws [get]
func (h *DrawHandler) ListDraws(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid raffle ID format")
		return
	}

	draws, err := h.drawService.ListDraws(c.Request.Context(), raffleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, draws)
}

// GetDraw godoc
// @Summary      Get a draw by ID
// @Tags         draws
// @Produce      json
// @Param        id path string true "Draw ID" format(uuid)
// @Success      200 {object} APIResponse[raffleapp.DrawResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /draws/{id} [get]
func (h *DrawHandler) GetDraw(c *gin.Context) {
	drawID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid draw ID format")
		return
	}

	draw, err := h.drawService.GetDraw(c.Request.Context(), drawID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, draw)
}
