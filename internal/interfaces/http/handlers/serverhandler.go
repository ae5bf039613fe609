package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	provisioningdto "github.com/orris-inc/keyhub/internal/application/provisioning/dto"
	provisioningusecases "github.com/orris-inc/keyhub/internal/application/provisioning/usecases"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/shared/logger"
	"github.com/orris-inc/keyhub/internal/shared/utils"
)

type ConfigureServerRequest struct {
	Provider   string `json:"provider" binding:"required,oneof=hetzner vultr"`
	LocationID uint   `json:"location_id" binding:"required,gt=0"`
	IsFree     bool   `json:"is_free"`
}

type SetPanelRequest struct {
	PanelType string `json:"panel_type" binding:"required,panel_type"`
}

type TransferServerUserRequest struct {
	TargetPanelID uint `json:"target_panel_id" binding:"required,gt=0"`
}

// ServerHandler exposes the provisioning operations: servers, their panels,
// and panel accounts.
type ServerHandler struct {
	configureServer configureServerUseCase
	checkStatus     checkServerStatusUseCase
	setPanel        setPanelUseCase
	deleteServer    deleteServerUseCase
	panels          panelOperations
	logger          logger.Interface
}

func NewServerHandler(
	configureServer configureServerUseCase,
	checkStatus checkServerStatusUseCase,
	setPanel setPanelUseCase,
	deleteServer deleteServerUseCase,
	panels panelOperations,
	logger logger.Interface,
) *ServerHandler {
	return &ServerHandler{
		configureServer: configureServer,
		checkStatus:     checkStatus,
		setPanel:        setPanel,
		deleteServer:    deleteServer,
		panels:          panels,
		logger:          logger,
	}
}

// ConfigureServer orders a new server from a vendor.
// @Summary Order server
// @Description Rent a server from a vendor in a location. The server stays in created until its status check succeeds
// @Tags Servers
// @Accept json
// @Produce json
// @Param request body ConfigureServerRequest true "Vendor and location"
// @Success 201 {object} utils.APIResponse{data=provisioningdto.ServerDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /servers [post]
func (h *ServerHandler) ConfigureServer(c *gin.Context) {
	var req ConfigureServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for configure server", "error", err)
		respondError(c, utils.BindingError(err))
		return
	}

	s, err := h.configureServer.Execute(c.Request.Context(), provisioningusecases.ConfigureServerCommand{
		Provider:   req.Provider,
		LocationID: req.LocationID,
		IsFree:     req.IsFree,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, provisioningdto.ToServerDTO(s), "Server ordered")
}

// CheckStatus polls the vendor and finishes configuring a ready server.
// @Summary Check server status
// @Description Poll the vendor for a server that is still provisioning and configure it once it is running
// @Tags Servers
// @Produce json
// @Param id path int true "Server ID"
// @Success 200 {object} utils.APIResponse{data=provisioningdto.ServerDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /servers/{id}/check [post]
func (h *ServerHandler) CheckStatus(c *gin.Context) {
	serverID, err := utils.ParseUintParam(c, "id", "server")
	if err != nil {
		respondError(c, err)
		return
	}

	s, err := h.checkStatus.Execute(c.Request.Context(), serverID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", provisioningdto.ToServerDTO(s))
}

// SetPanel installs a panel on a configured server.
// @Summary Install panel
// @Description Install a panel of the given type on a configured server and authenticate against it
// @Tags Servers
// @Accept json
// @Produce json
// @Param id path int true "Server ID"
// @Param request body SetPanelRequest true "Panel type"
// @Success 201 {object} utils.APIResponse{data=provisioningdto.PanelDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /servers/{id}/panel [post]
func (h *ServerHandler) SetPanel(c *gin.Context) {
	serverID, err := utils.ParseUintParam(c, "id", "server")
	if err != nil {
		respondError(c, err)
		return
	}

	var req SetPanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for set panel", "server_id", serverID, "error", err)
		respondError(c, utils.BindingError(err))
		return
	}

	p, err := h.setPanel.Execute(c.Request.Context(), provisioningusecases.SetPanelCommand{
		ServerID:  serverID,
		PanelType: panel.Type(req.PanelType),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, provisioningdto.ToPanelDTO(p), "Panel installed")
}

// DeleteServer retires the server's panel and releases the server.
// @Summary Delete server
// @Description Take the server's panel out of rotation, remove its DNS record and release it at the vendor
// @Tags Servers
// @Param id path int true "Server ID"
// @Success 204 "Server deleted"
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /servers/{id} [delete]
func (h *ServerHandler) DeleteServer(c *gin.Context) {
	serverID, err := utils.ParseUintParam(c, "id", "server")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.deleteServer.Execute(c.Request.Context(), serverID); err != nil {
		respondError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// UpdatePanelToken re-authenticates against a panel.
// @Summary Refresh panel token
// @Description Log in to the panel again and store the new API token
// @Tags Panels
// @Produce json
// @Param id path int true "Panel ID"
// @Success 200 {object} utils.APIResponse{data=provisioningdto.PanelDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /panels/{id}/token [post]
func (h *ServerHandler) UpdatePanelToken(c *gin.Context) {
	panelID, err := utils.ParseUintParam(c, "id", "panel")
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := h.panels.UpdateToken(c.Request.Context(), panelID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Panel token refreshed", provisioningdto.ToPanelDTO(p))
}

// TransferServerUser moves a panel account, and the key it serves, to another panel.
// @Summary Transfer server user
// @Description Recreate a panel account on another panel and delete it from the old one
// @Tags Panels
// @Accept json
// @Produce json
// @Param id path int true "Server user ID"
// @Param request body TransferServerUserRequest true "Target panel"
// @Success 200 {object} utils.APIResponse{data=provisioningdto.ServerUserDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /server-users/{id}/transfer [post]
func (h *ServerHandler) TransferServerUser(c *gin.Context) {
	serverUserID, err := utils.ParseUintParam(c, "id", "server user")
	if err != nil {
		respondError(c, err)
		return
	}

	var req TransferServerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for server user transfer", "server_user_id", serverUserID, "error", err)
		respondError(c, utils.BindingError(err))
		return
	}

	u, err := h.panels.TransferUser(c.Request.Context(), serverUserID, req.TargetPanelID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Server user transferred", provisioningdto.ToServerUserDTO(u))
}
