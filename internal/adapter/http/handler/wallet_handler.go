package handler

import (
	"payvault/internal/adapter/http/dto"
	"payvault/internal/adapter/http/middleware"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
	"payvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles balances, deposits and bank withdrawals.
type WalletHandler struct {
	reportingSvc  ports.ReportingService
	depositSvc    ports.DepositService
	withdrawalSvc ports.WithdrawalService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(
	reportingSvc ports.ReportingService,
	depositSvc ports.DepositService,
	withdrawalSvc ports.WithdrawalService,
) *WalletHandler {
	return &WalletHandler{
		reportingSvc:  reportingSvc,
		depositSvc:    depositSvc,
		withdrawalSvc: withdrawalSvc,
	}
}

// GetBalances handles GET /api/v1/wallets/balances.
func (h *WalletHandler) GetBalances(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	summary, err := h.reportingSvc.GetBalances(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, summary)
}

// InitiateDeposit handles POST /api/v1/deposits.
func (h *WalletHandler) InitiateDeposit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.DepositInitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	deposit, err := h.depositSvc.Initiate(c.Request.Context(), userID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, deposit)
}

// ConfirmDeposit handles POST /api/v1/deposits/confirm.
func (h *WalletHandler) ConfirmDeposit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.DepositConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.depositSvc.Confirm(c.Request.Context(), userID, req.Reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txn)
}

// Withdraw handles POST /api/v1/withdrawals.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawalRequest
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

	txn, err := h.withdrawalSvc.Withdraw(c.Request.Context(), ports.WithdrawalRequest{
		UserID:        userID,
		Amount:        amount,
		BankCode:      req.BankCode,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		Pin:           req.Pin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txn)
}
