package handler

import (
	"payvault/internal/adapter/http/dto"
	"payvault/internal/adapter/http/middleware"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
	"payvault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardHandler handles virtual card endpoints.
type CardHandler struct {
	cardSvc ports.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

// Create handles POST /api/v1/cards.
func (h *CardHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CardCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	card, txn, err := h.cardSvc.Create(c.Request.Context(), ports.CreateCardRequest{
		UserID:         userID,
		FundingSource:  ports.CardFundingSource(req.FundingSource),
		CryptoCurrency: req.CryptoCurrency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"card": card, "transaction": txn})
}

func (h *CardHandler) bindAmount(c *gin.Context) (uuid.UUID, uuid.UUID, decimal.Decimal, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, uuid.Nil, decimal.Zero, false
	}

	var req dto.CardAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return uuid.Nil, uuid.Nil, decimal.Zero, false
	}
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		response.Error(c, apperror.Validation("card_id must be a UUID"))
		return uuid.Nil, uuid.Nil, decimal.Zero, false
	}
	amount, appErr := dto.ParseAmount(req.AmountUSD)
	if appErr != nil {
		response.Error(c, appErr)
		return uuid.Nil, uuid.Nil, decimal.Zero, false
	}
	return userID, cardID, amount, true
}

// Fund handles POST /api/v1/cards/fund.
func (h *CardHandler) Fund(c *gin.Context) {
	userID, cardID, amount, ok := h.bindAmount(c)
	if !ok {
		return
	}
	txn, err := h.cardSvc.Fund(c.Request.Context(), ports.CardFundingRequest{
		UserID:    userID,
		CardID:    cardID,
		AmountUSD: amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txn)
}

// Withdraw handles POST /api/v1/cards/withdraw.
func (h *CardHandler) Withdraw(c *gin.Context) {
	userID, cardID, amount, ok := h.bindAmount(c)
	if !ok {
		return
	}
	txn, err := h.cardSvc.Withdraw(c.Request.Context(), ports.CardWithdrawalRequest{
		UserID:    userID,
		CardID:    cardID,
		AmountUSD: amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txn)
}
