package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	packdto "github.com/orris-inc/keyhub/internal/application/pack/dto"
	packusecases "github.com/orris-inc/keyhub/internal/application/pack/usecases"
	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/shared/logger"
	"github.com/orris-inc/keyhub/internal/shared/utils"
)

type CreateBatchRequest struct {
	PackID     uint  `json:"pack_id" binding:"required,gt=0"`
	ResellerID uint  `json:"reseller_id" binding:"required,gt=0"`
	ModuleID   *uint `json:"module_id" binding:"omitempty,gt=0"`
}

// BatchPaymentRequest is the payment processor callback body.
type BatchPaymentRequest struct {
	Status string `json:"status" binding:"required,oneof=paid expired"`
}

type BatchHandler struct {
	createBatch   createBatchUseCase
	completeBatch completeBatchPaymentUseCase
	logger        logger.Interface
}

func NewBatchHandler(createBatch createBatchUseCase, completeBatch completeBatchPaymentUseCase, logger logger.Interface) *BatchHandler {
	return &BatchHandler{
		createBatch:   createBatch,
		completeBatch: completeBatch,
		logger:        logger,
	}
}

// CreateBatch opens a pending batch for a reseller.
// @Summary Create batch
// @Description Create a pending key batch for a reseller from a pack
// @Tags Batches
// @Accept json
// @Produce json
// @Param request body CreateBatchRequest true "Pack and reseller"
// @Success 201 {object} utils.APIResponse{data=packdto.BatchDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /batches [post]
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create batch", "error", err)
		respondError(c, utils.BindingError(err))
		return
	}

	b, err := h.createBatch.Execute(c.Request.Context(), packusecases.CreateBatchCommand{
		PackID:     req.PackID,
		ResellerID: req.ResellerID,
		ModuleID:   req.ModuleID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, packdto.ToBatchDTO(b, nil), "Batch created")
}

// CompletePayment applies the processor's verdict. A paid batch comes back
// with every issued key.
// @Summary Complete batch payment
// @Description Mark a pending batch paid or expired. Paying issues the batch's keys
// @Tags Batches
// @Accept json
// @Produce json
// @Param id path int true "Batch ID"
// @Param request body BatchPaymentRequest true "Payment verdict"
// @Success 200 {object} utils.APIResponse{data=packdto.BatchDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /batches/{id}/payment [post]
func (h *BatchHandler) CompletePayment(c *gin.Context) {
	batchID, err := utils.ParseUintParam(c, "id", "batch")
	if err != nil {
		respondError(c, err)
		return
	}

	var req BatchPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for batch payment", "batch_id", batchID, "error", err)
		respondError(c, utils.BindingError(err))
		return
	}

	result, err := h.completeBatch.Execute(c.Request.Context(), packusecases.CompleteBatchCommand{
		BatchID: batchID,
		Status:  pack.BatchStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", packdto.ToBatchDTO(result.Batch, result.Keys))
}
