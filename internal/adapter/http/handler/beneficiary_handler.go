package handler

import (
	"payvault/internal/adapter/http/dto"
	"payvault/internal/adapter/http/middleware"
	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
	"payvault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BeneficiaryHandler handles saved-beneficiary endpoints.
type BeneficiaryHandler struct {
	benefSvc ports.BeneficiaryService
}

// NewBeneficiaryHandler creates a new BeneficiaryHandler.
func NewBeneficiaryHandler(benefSvc ports.BeneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{benefSvc: benefSvc}
}

// Create handles POST /api/v1/beneficiaries.
func (h *BeneficiaryHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.BeneficiaryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	b, err := h.benefSvc.Create(c.Request.Context(), &domain.Beneficiary{
		UserID:        userID,
		CategoryCode:  req.CategoryCode,
		ProviderCode:  req.ProviderCode,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, b)
}

// List handles GET /api/v1/beneficiaries.
func (h *BeneficiaryHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	items, err := h.benefSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, items)
}

// Delete handles DELETE /api/v1/beneficiaries/:id.
func (h *BeneficiaryHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	if err := h.benefSvc.Delete(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "beneficiary removed"})
}
