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

// CryptoHandler handles crypto trade and send endpoints.
type CryptoHandler struct {
	cryptoSvc ports.CryptoService
}

// NewCryptoHandler creates a new CryptoHandler.
func NewCryptoHandler(cryptoSvc ports.CryptoService) *CryptoHandler {
	return &CryptoHandler{cryptoSvc: cryptoSvc}
}

func (h *CryptoHandler) bindTrade(c *gin.Context) (uuid.UUID, decimal.Decimal, string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, decimal.Zero, "", false
	}

	var req dto.CryptoTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return uuid.Nil, decimal.Zero, "", false
	}
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, decimal.Zero, "", false
	}
	return userID, amount, req.CryptoCurrency, true
}

// PreviewBuy handles POST /api/v1/crypto/buy/preview.
func (h *CryptoHandler) PreviewBuy(c *gin.Context) {
	userID, amount, currency, ok := h.bindTrade(c)
	if !ok {
		return
	}
	quote, err := h.cryptoSvc.PreviewBuy(c.Request.Context(), userID, amount, currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quote)
}

// Buy handles POST /api/v1/crypto/buy.
func (h *CryptoHandler) Buy(c *gin.Context) {
	userID, amount, currency, ok := h.bindTrade(c)
	if !ok {
		return
	}
	txn, err := h.cryptoSvc.Buy(c.Request.Context(), userID, amount, currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txn)
}

// PreviewSell handles POST /api/v1/crypto/sell/preview.
func (h *CryptoHandler) PreviewSell(c *gin.Context) {
	userID, amount, currency, ok := h.bindTrade(c)
	if !ok {
		return
	}
	quote, err := h.cryptoSvc.PreviewSell(c.Request.Context(), userID, amount, currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quote)
}

// Sell handles POST /api/v1/crypto/sell.
func (h *CryptoHandler) Sell(c *gin.Context) {
	userID, amount, currency, ok := h.bindTrade(c)
	if !ok {
		return
	}
	txn, err := h.cryptoSvc.Sell(c.Request.Context(), userID, amount, currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txn)
}

// Send handles POST /api/v1/crypto/send.
func (h *CryptoHandler) Send(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CryptoSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	txn, err := h.cryptoSvc.Send(c.Request.Context(), ports.CryptoSendRequest{
		UserID:         userID,
		CryptoCurrency: req.CryptoCurrency,
		Amount:         amount,
		Address:        req.Address,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txn)
}
