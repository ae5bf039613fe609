package pack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/domain/key"
)

func testPack(t *testing.T, price int64, count int) *Pack {
	t.Helper()
	p, err := ReconstructPack(3, PackParams{
		Name:             "Monthly x5",
		Price:            price,
		PeriodDays:       30,
		TrafficLimit:     100 << 30,
		Count:            count,
		ActivationWindow: 72 * time.Hour,
		ConnectionLimit:  2,
		PanelType:        "marzban",
	}, time.Now(), time.Now())
	require.NoError(t, err)
	return p
}

func TestIssueKeys(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	p := testPack(t, 500, 5)

	keys, err := p.IssueKeys(42, now)
	require.NoError(t, err)
	require.Len(t, keys, 5)

	codes := make(map[string]bool)
	for _, k := range keys {
		assert.Equal(t, key.StatusIssued, k.Status())
		assert.Equal(t, p.TrafficLimit(), k.TrafficLimit())
		assert.Equal(t, uint(42), k.BatchID())
		assert.Equal(t, 2, k.ConnectionLimit())
		require.NotNil(t, k.ActivationDeadline())
		assert.Equal(t, now.Add(72*time.Hour), *k.ActivationDeadline())
		codes[k.Code()] = true
	}
	assert.Len(t, codes, 5, "key codes are unique")
}

func TestApplyPaymentResult(t *testing.T) {
	now := time.Now().UTC()

	t.Run("free pack forces paid", func(t *testing.T) {
		b, err := NewPackBatch(1, 1, nil, time.Hour, now)
		require.NoError(t, err)

		require.NoError(t, b.ApplyPaymentResult(BatchStatusExpired, 0, now))
		assert.Equal(t, BatchStatusPaid, b.Status())
		assert.NotNil(t, b.PaidAt())
	})

	t.Run("paid pack follows requested status", func(t *testing.T) {
		b, err := NewPackBatch(1, 1, nil, time.Hour, now)
		require.NoError(t, err)

		require.NoError(t, b.ApplyPaymentResult(BatchStatusExpired, 990, now))
		assert.Equal(t, BatchStatusExpired, b.Status())
		assert.Nil(t, b.PaidAt())
	})

	t.Run("unpaid is not a result", func(t *testing.T) {
		b, err := NewPackBatch(1, 1, nil, time.Hour, now)
		require.NoError(t, err)

		assert.ErrorIs(t, b.ApplyPaymentResult(BatchStatusUnpaid, 990, now), ErrInvalidStatusTransition)
	})

	t.Run("second result is rejected", func(t *testing.T) {
		b, err := NewPackBatch(1, 1, nil, time.Hour, now)
		require.NoError(t, err)

		require.NoError(t, b.ApplyPaymentResult(BatchStatusPaid, 990, now))
		assert.ErrorIs(t, b.ApplyPaymentResult(BatchStatusPaid, 990, now), ErrInvalidStatusTransition)
	})
}

func TestExpireUnpaid(t *testing.T) {
	now := time.Now().UTC()
	b, err := NewPackBatch(1, 1, nil, 30*time.Minute, now)
	require.NoError(t, err)

	assert.False(t, b.ExpireUnpaid(now.Add(10*time.Minute)))
	assert.True(t, b.ExpireUnpaid(now.Add(time.Hour)))
	assert.Equal(t, BatchStatusExpired, b.Status())
	assert.False(t, b.ExpireUnpaid(now.Add(2*time.Hour)))
}

func TestPackValidation(t *testing.T) {
	_, err := NewPack(PackParams{Price: 1, PeriodDays: 30, Count: 0, ActivationWindow: time.Hour, PanelType: "marzban"})
	assert.Error(t, err)

	_, err = NewPack(PackParams{Price: -1, PeriodDays: 30, Count: 1, ActivationWindow: time.Hour, PanelType: "marzban"})
	assert.Error(t, err)

	p, err := NewPack(PackParams{Price: 0, PeriodDays: 7, Count: 1, ActivationWindow: time.Hour, PanelType: "3x-ui"})
	require.NoError(t, err)
	assert.True(t, p.IsFree())
	assert.Equal(t, 1, p.ConnectionLimit())
}
