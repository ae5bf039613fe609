package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/infrastructure/cache"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
	"github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/utils"
)

// respondError writes err using the status its type implies. Typed domain and
// provider failures are translated to AppErrors first, anything unknown is a 500.
func respondError(c *gin.Context, err error) {
	utils.ErrorResponseWithError(c, toAppError(err))
}

func toAppError(err error) error {
	var activationErr *key.ActivationError
	if stderrors.As(err, &activationErr) {
		return activationAppError(activationErr)
	}

	if pe, ok := provider.AsProvisioningError(err); ok {
		return provisioningAppError(pe)
	}

	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr
	}

	if stderrors.Is(err, cache.ErrLockTimeout) {
		return errors.NewUnavailableError("key is busy, try again")
	}
	return err
}

func activationAppError(e *key.ActivationError) *errors.AppError {
	reason := string(e.Reason)
	switch e.Reason {
	case key.ReasonInvalidStatus:
		return errors.NewConflictError("key cannot be activated in its current status", reason)
	case key.ReasonDeadlineExpired:
		return errors.NewGoneError("activation deadline has passed", reason)
	case key.ReasonConflictingOwner:
		return errors.NewConflictError("key belongs to another user", reason)
	case key.ReasonNoPanelAvailable:
		return errors.NewUnavailableError("no panel is available for this key", reason)
	case key.ReasonProvisioningFailure:
		return errors.NewUpstreamError("panel account could not be created", reason)
	default:
		return errors.NewInternalError("key activation failed", reason)
	}
}

func provisioningAppError(e *provider.ProvisioningError) *errors.AppError {
	details := e.Provider + " " + e.Op
	switch e.Kind {
	case provider.KindDNSConflict:
		return errors.NewConflictError("DNS record conflict", details)
	case provider.KindInvalidProviderResponse:
		return errors.NewUpstreamError("provider returned an invalid response", details)
	default:
		return errors.NewUpstreamError("provider API is unreachable", details)
	}
}
