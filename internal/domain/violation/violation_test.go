package violation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/domain/notification"
)

func newTestViolation(t *testing.T) *Violation {
	t.Helper()
	v, err := NewViolation(Detection{KeyID: 1, ServerUserID: 2, PanelID: 3, Allowed: 1, Actual: 3, IPs: []string{"10.0.0.2", "10.0.0.1", "10.0.0.2"}}, time.Now())
	require.NoError(t, err)
	return v
}

func TestStepFor(t *testing.T) {
	assert.Equal(t, StepWarning1, StepFor(1))
	assert.Equal(t, StepWarning2, StepFor(2))
	assert.Equal(t, StepReplace, StepFor(3))
	assert.Equal(t, StepReplace, StepFor(10))
}

func TestNewViolation(t *testing.T) {
	v := newTestViolation(t)
	assert.Equal(t, StatusActive, v.Status())
	assert.Zero(t, v.ViolationCount())
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, v.ObservedIPs())

	_, err := NewViolation(Detection{KeyID: 1}, time.Now())
	assert.Error(t, err)
}

func TestRecordNotification(t *testing.T) {
	now := time.Now()

	t.Run("blocked counts as sent", func(t *testing.T) {
		v := newTestViolation(t)
		v.RecordNotification(StepWarning1, notification.OutcomeBlocked, now)
		assert.Equal(t, 1, v.NotificationsSent())
		assert.Zero(t, v.NotificationRetryCount())
		assert.Equal(t, notification.OutcomeBlocked, v.LastNotificationOutcome())
	})

	t.Run("technical error only bumps retries", func(t *testing.T) {
		v := newTestViolation(t)
		v.RecordNotification(StepWarning2, notification.OutcomeTechnicalError, now)
		assert.Zero(t, v.NotificationsSent())
		assert.Equal(t, 1, v.NotificationRetryCount())
		assert.Equal(t, StepWarning2, v.NotificationStep())
		assert.True(t, v.NeedsRetry(5))
		assert.False(t, v.NeedsRetry(1))
	})

	t.Run("user not found is terminal", func(t *testing.T) {
		v := newTestViolation(t)
		v.RecordNotification(StepWarning1, notification.OutcomeUserNotFound, now)
		assert.Zero(t, v.NotificationsSent())
		assert.Zero(t, v.NotificationRetryCount())
		assert.False(t, v.NeedsRetry(5))
	})
}

func TestResolveAndIgnore(t *testing.T) {
	now := time.Now()

	v := newTestViolation(t)
	require.NoError(t, v.Resolve(42, now))
	assert.Equal(t, StatusResolved, v.Status())
	require.NotNil(t, v.ReplacementKeyID())
	assert.Equal(t, uint(42), *v.ReplacementKeyID())
	assert.True(t, v.IsReplacementClaimed())
	assert.ErrorIs(t, v.Ignore(now), ErrInvalidStatusTransition)

	w := newTestViolation(t)
	require.NoError(t, w.Ignore(now))
	w.RecordNotification(StepWarning1, notification.OutcomeTechnicalError, now)
	assert.False(t, w.NeedsRetry(5), "ignored violations are not retried")
	assert.ErrorIs(t, w.Resolve(1, now), ErrInvalidStatusTransition)
}

func TestRecordDelivery_KeepsPartsOnlyForRetries(t *testing.T) {
	now := time.Now()
	v := newTestViolation(t)

	v.RecordDelivery(StepWarning1, notification.Delivery{Outcome: notification.OutcomeTechnicalError, PartsSent: 2}, now)
	assert.Equal(t, 2, v.NotificationPartsSent())
	assert.Equal(t, 2, v.DeliveredParts(StepWarning1))
	assert.Zero(t, v.DeliveredParts(StepWarning2), "another step starts from the first part")

	v.RecordDelivery(StepWarning1, notification.Delivery{Outcome: notification.OutcomeSuccess, PartsSent: 3}, now)
	assert.Zero(t, v.NotificationPartsSent())
	assert.Zero(t, v.DeliveredParts(StepWarning1))
}
