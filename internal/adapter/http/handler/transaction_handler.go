package handler

import (
	"payvault/internal/adapter/http/dto"
	"payvault/internal/adapter/http/middleware"
	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
	"payvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler handles history and stats endpoints.
type TransactionHandler struct {
	reportingSvc ports.ReportingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(reportingSvc ports.ReportingService) *TransactionHandler {
	return &TransactionHandler{reportingSvc: reportingSvc}
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var q dto.TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.TransactionListParams{
		UserID:   userID,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.Status != "" {
		status := domain.TransactionStatus(q.Status)
		params.Status = &status
	}
	if q.Type != "" {
		txType := domain.TransactionType(q.Type)
		params.Type = &txType
	}

	items, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	response.OK(c, dto.ListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// Stats handles GET /api/v1/transactions/stats?period=week|month|year|all.
func (h *TransactionHandler) Stats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	stats, err := h.reportingSvc.GetStats(c.Request.Context(), userID, c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, stats)
}
