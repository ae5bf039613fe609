package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/domain/reseller"
)

func TestResolveChannel(t *testing.T) {
	moduleID := uint(9)
	viaModule, err := pack.NewPackBatch(1, 1, &moduleID, time.Hour, time.Now())
	require.NoError(t, err)
	direct, err := pack.NewPackBatch(1, 1, nil, time.Hour, time.Now())
	require.NoError(t, err)

	withBot := reseller.ReconstructReseller(1, "shop", "111:AAA", "ru", time.Now(), time.Now())
	withoutBot := reseller.ReconstructReseller(2, "shop2", "", "en", time.Now(), time.Now())
	module := reseller.ReconstructBotModule(9, 1, "222:BBB", "shop_module_bot", time.Now())

	tests := []struct {
		name   string
		batch  *pack.PackBatch
		res    *reseller.Reseller
		module *reseller.BotModule
		want   ChannelKind
		token  string
	}{
		{"module wins", viaModule, withBot, module, ChannelEmbedded, "222:BBB"},
		{"reseller bot", direct, withBot, nil, ChannelResellerBot, "111:AAA"},
		{"module missing falls back", viaModule, withBot, nil, ChannelResellerBot, "111:AAA"},
		{"default bot", direct, withoutBot, nil, ChannelDefaultBot, ""},
		{"nothing known", nil, nil, nil, ChannelDefaultBot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := ResolveChannel(tt.batch, tt.res, tt.module)
			assert.Equal(t, tt.want, ch.Kind)
			assert.Equal(t, tt.token, ch.Token)
		})
	}
}

func TestOutcomeCounting(t *testing.T) {
	assert.True(t, OutcomeSuccess.CountsAsSent())
	assert.True(t, OutcomeBlocked.CountsAsSent())
	assert.False(t, OutcomeUserNotFound.CountsAsSent())
	assert.False(t, OutcomeTechnicalError.CountsAsSent())
	assert.True(t, OutcomeTechnicalError.IsRetryable())
	assert.False(t, OutcomeUserNotFound.IsRetryable())
}
