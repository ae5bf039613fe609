package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	violationdto "github.com/orris-inc/keyhub/internal/application/violation/dto"
	violationusecases "github.com/orris-inc/keyhub/internal/application/violation/usecases"
	"github.com/orris-inc/keyhub/internal/shared/logger"
	"github.com/orris-inc/keyhub/internal/shared/utils"
)

// ReportViolationRequest is what an external IP-limit monitor posts when a
// panel user exceeds its connection limit.
type ReportViolationRequest struct {
	UserIdentifier   string   `json:"user_identifier" binding:"required"`
	DetectedIPsCount int      `json:"detected_ips_count" binding:"gte=0"`
	Limit            int      `json:"limit" binding:"gte=0"`
	AllUserIPs       []string `json:"all_user_ips" binding:"omitempty,dive,ip"`
}

type ViolationHandler struct {
	reportViolation reportViolationUseCase
	ignoreViolation ignoreViolationUseCase
	logger          logger.Interface
}

func NewViolationHandler(report reportViolationUseCase, ignore ignoreViolationUseCase, logger logger.Interface) *ViolationHandler {
	return &ViolationHandler{
		reportViolation: report,
		ignoreViolation: ignore,
		logger:          logger,
	}
}

// Report records a connection limit violation from the monitor.
// @Summary Report violation
// @Description Record a connection limit violation for a panel user and run the escalation step it reaches
// @Tags Violations
// @Accept json
// @Produce json
// @Param request body ReportViolationRequest true "Detected connections"
// @Success 200 {object} utils.APIResponse{data=violationdto.RecordResultDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /violations/report [post]
func (h *ViolationHandler) Report(c *gin.Context) {
	var req ReportViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for violation report", "error", err)
		respondError(c, utils.BindingError(err))
		return
	}

	result, err := h.reportViolation.Execute(c.Request.Context(), violationusecases.ReportViolationCommand{
		UserIdentifier:   req.UserIdentifier,
		DetectedIPsCount: req.DetectedIPsCount,
		Limit:            req.Limit,
		AllUserIPs:       req.AllUserIPs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	var replacementCode string
	if result.ReplacementKey != nil {
		replacementCode = result.ReplacementKey.Code()
	}
	utils.SuccessResponse(c, http.StatusOK, "", violationdto.ToRecordResultDTO(
		result.Violation,
		string(result.Step),
		string(result.Outcome),
		replacementCode,
		string(result.Skipped),
	))
}

// Ignore closes a violation without further escalation.
// @Summary Ignore violation
// @Description Stop escalating an active violation
// @Tags Violations
// @Produce json
// @Param id path int true "Violation ID"
// @Success 200 {object} utils.APIResponse{data=violationdto.ViolationDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /violations/{id}/ignore [post]
func (h *ViolationHandler) Ignore(c *gin.Context) {
	violationID, err := utils.ParseUintParam(c, "id", "violation")
	if err != nil {
		respondError(c, err)
		return
	}

	v, err := h.ignoreViolation.Execute(c.Request.Context(), violationID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Violation ignored", violationdto.ToViolationDTO(v))
}
