package utils

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/shared/errors"
)

type panelRequest struct {
	PanelType string `json:"panel_type" binding:"required,panel_type" validate:"required,panel_type"`
	Count     int    `json:"count" validate:"gte=1"`
}

func TestPanelTypeValidator(t *testing.T) {
	v := validator.New()
	require.NoError(t, configure(v))

	assert.NoError(t, v.Struct(panelRequest{PanelType: "marzban", Count: 1}))
	assert.NoError(t, v.Struct(panelRequest{PanelType: "3x-ui", Count: 1}))

	err := v.Struct(panelRequest{PanelType: "wireguard", Count: 0})
	require.Error(t, err)

	appErr := errors.GetAppError(BindingError(err))
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Details, "panel_type must be one of [marzban 3x-ui]")
	assert.Contains(t, appErr.Details, "count must be greater than or equal to 1")
}

func TestRegisterValidators(t *testing.T) {
	assert.NoError(t, RegisterValidators())
}
