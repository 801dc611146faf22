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

// BillPaymentHandler handles the two-phase bill payment endpoints.
type BillPaymentHandler struct {
	billSvc ports.BillPaymentService
}

// NewBillPaymentHandler creates a new BillPaymentHandler.
func NewBillPaymentHandler(billSvc ports.BillPaymentService) *BillPaymentHandler {
	return &BillPaymentHandler{billSvc: billSvc}
}

// Initiate handles POST /api/v1/bill-payments.
func (h *BillPaymentHandler) Initiate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.BillPaymentInitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount := decimal.Zero
	if req.Amount != "" {
		var err error
		amount, err = dto.ParseAmount(req.Amount)
		if err != nil {
			response.Error(c, err)
			return
		}
	}

	var beneficiaryID *uuid.UUID
	if req.BeneficiaryID != "" {
		id, err := uuid.Parse(req.BeneficiaryID)
		if err != nil {
			response.Error(c, apperror.Validation("beneficiary_id must be a UUID"))
			return
		}
		beneficiaryID = &id
	}

	txn, err := h.billSvc.Initiate(c.Request.Context(), ports.InitiateBillPaymentRequest{
		UserID:        userID,
		CategoryCode:  req.CategoryCode,
		ProviderCode:  req.ProviderCode,
		PlanCode:      req.PlanCode,
		Amount:        amount,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		BeneficiaryID: beneficiaryID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, txn)
}

// Confirm handles POST /api/v1/bill-payments/confirm.
func (h *BillPaymentHandler) Confirm(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.BillPaymentConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.billSvc.Confirm(c.Request.Context(), ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: req.TransactionID,
		Pin:           req.Pin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txn)
}
