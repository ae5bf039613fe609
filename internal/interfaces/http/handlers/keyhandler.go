package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	keydto "github.com/orris-inc/keyhub/internal/application/key/dto"
	keyusecases "github.com/orris-inc/keyhub/internal/application/key/usecases"
	"github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
	"github.com/orris-inc/keyhub/internal/shared/utils"
)

type ActivateKeyRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

type TransferKeyRequest struct {
	FromUserID int64 `json:"from_user_id" binding:"required,gt=0"`
	ToUserID   int64 `json:"to_user_id" binding:"required,gt=0"`
}

type KeyHandler struct {
	getKey      getKeyUseCase
	activateKey activateKeyUseCase
	transferKey transferKeyUseCase
	logger      logger.Interface
}

func NewKeyHandler(
	getKey getKeyUseCase,
	activateKey activateKeyUseCase,
	transferKey transferKeyUseCase,
	logger logger.Interface,
) *KeyHandler {
	return &KeyHandler{
		getKey:      getKey,
		activateKey: activateKey,
		transferKey: transferKey,
		logger:      logger,
	}
}

// GetKey reconciles the key's expiry and returns it with live usage when active.
// @Summary Get key
// @Description Get a key by code. Expiry is reconciled first and an active key carries its live traffic usage
// @Tags Keys
// @Produce json
// @Param code path string true "Key code"
// @Success 200 {object} utils.APIResponse{data=keydto.KeyDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /keys/{code} [get]
func (h *KeyHandler) GetKey(c *gin.Context) {
	code, err := keyCodeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.getKey.Execute(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ActivateKey binds an unused key to a user and creates its panel account.
// @Summary Activate key
// @Description Activate a key for a user. The key gets a panel account on the least loaded configured panel
// @Tags Keys
// @Accept json
// @Produce json
// @Param code path string true "Key code"
// @Param request body ActivateKeyRequest true "Activating user"
// @Success 200 {object} utils.APIResponse{data=keydto.KeyDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 410 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /keys/{code}/activate [post]
func (h *KeyHandler) ActivateKey(c *gin.Context) {
	code, err := keyCodeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req ActivateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for activate key", "key_code", code, "error", err)
		respondError(c, utils.BindingError(err))
		return
	}

	k, err := h.activateKey.Execute(c.Request.Context(), keyusecases.ActivateKeyCommand{
		KeyCode: code,
		UserID:  req.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Key activated", keydto.ToKeyDTO(k))
}

// TransferKey hands an active key to another user.
// @Summary Transfer key
// @Description Move an active key from its owner to another user
// @Tags Keys
// @Accept json
// @Produce json
// @Param code path string true "Key code"
// @Param request body TransferKeyRequest true "Current and new owner"
// @Success 200 {object} utils.APIResponse{data=keydto.KeyDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 410 {object} utils.APIResponse
// @Router /keys/{code}/transfer [post]
func (h *KeyHandler) TransferKey(c *gin.Context) {
	code, err := keyCodeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req TransferKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for transfer key", "key_code", code, "error", err)
		respondError(c, utils.BindingError(err))
		return
	}
	if req.FromUserID == req.ToUserID {
		respondError(c, errors.NewValidationError("key is already owned by this user"))
		return
	}

	k, err := h.transferKey.Execute(c.Request.Context(), keyusecases.TransferKeyCommand{
		KeyCode:    code,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Key transferred", keydto.ToKeyDTO(k))
}

func keyCodeParam(c *gin.Context) (string, error) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return "", errors.NewValidationError("key code is required")
	}
	return code, nil
}
