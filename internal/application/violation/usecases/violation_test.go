package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keyusecases "github.com/orris-inc/keyhub/internal/application/key/usecases"
	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/infrastructure/cache"
	"github.com/orris-inc/keyhub/internal/infrastructure/repository"
	"github.com/orris-inc/keyhub/internal/shared/db"
	apperrors "github.com/orris-inc/keyhub/internal/shared/errors"
	"github.com/orris-inc/keyhub/internal/shared/logger"
	"github.com/orris-inc/keyhub/internal/shared/testutil"
)

const ownerID = int64(777000)

type violationHarness struct {
	keyRepo        key.Repository
	serverUserRepo panel.ServerUserRepository
	violationRepo  violation.Repository
	panels         *fakePanels
	dispatcher     *fakeDispatcher
	activate       *keyusecases.ActivateKeyUseCase
	record         *RecordViolationUseCase
	report         *ReportViolationUseCase
	check          *CheckConnectionsUseCase
	retry          *RetryNotificationsUseCase
	ignore         *IgnoreViolationUseCase
}

func newViolationHarness(t *testing.T, dedup ReportDeduplicator, cooldown time.Duration) *violationHarness {
	t.Helper()
	gdb := testutil.NewTestDB(t)
	log := logger.NewNopLogger()
	ctx := context.Background()

	h := &violationHarness{
		keyRepo:        repository.NewKeyRepository(gdb, log),
		serverUserRepo: repository.NewServerUserRepository(gdb, log),
		violationRepo:  repository.NewViolationRepository(gdb, log),
		dispatcher:     &fakeDispatcher{},
	}

	now := time.Now().UTC()
	p, err := panel.NewPanel(1, panel.TypeMarzban, "https://panel.test:8000", "admin", "pw", now)
	require.NoError(t, err)
	require.NoError(t, p.SetToken("tok", now.Add(24*time.Hour), now))
	require.NoError(t, repository.NewPanelRepository(gdb, log).Create(ctx, p))
	h.panels = newFakePanels(p, h.serverUserRepo)

	txManager := db.NewTransactionManager(gdb)
	locker := cache.NewLocalKeyLocker(5 * time.Second)
	reconciler := keyusecases.NewReconcileKeyExpiryUseCase(h.keyRepo, locker, h.panels, nil, log)
	h.activate = keyusecases.NewActivateKeyUseCase(h.keyRepo, h.serverUserRepo, h.panels, locker, reconciler, txManager, nil, log)

	notifier := NewViolationNotifier(h.dispatcher, h.violationRepo, "https://t.me/support", log)
	replacer := NewReplaceKeyUseCase(h.keyRepo, h.violationRepo, locker, h.activate, h.panels, nil, log)
	h.record = NewRecordViolationUseCase(h.violationRepo, reconciler, replacer, notifier, dedup, cooldown, txManager, nil, log)
	h.report = NewReportViolationUseCase(h.serverUserRepo, h.keyRepo, h.record, log)
	h.check = NewCheckConnectionsUseCase(h.keyRepo, h.panels, h.record, log)
	h.retry = NewRetryNotificationsUseCase(h.violationRepo, h.keyRepo, h.panels, notifier, 3, log)
	h.ignore = NewIgnoreViolationUseCase(h.violationRepo, log)
	return h
}

func (h *violationHarness) activeKey(t *testing.T) *key.Key {
	t.Helper()
	k, err := key.NewKey(key.Template{
		BatchID:         11,
		TrafficLimit:    10 << 30,
		PeriodDays:      30,
		ConnectionLimit: 2,
		PanelType:       string(panel.TypeMarzban),
	}, time.Hour, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, h.keyRepo.Create(context.Background(), k))

	active, err := h.activate.Execute(context.Background(), keyusecases.ActivateKeyCommand{KeyCode: k.Code(), UserID: ownerID})
	require.NoError(t, err)
	return active
}

func detectionFor(k *key.Key, panelID uint, actual int) violation.Detection {
	ips := make([]string, 0, actual)
	for i := 0; i < actual; i++ {
		ips = append(ips, "198.51.100."+string(rune('1'+i)))
	}
	return violation.Detection{
		KeyID:        k.ID(),
		ServerUserID: *k.ServerUserID(),
		PanelID:      panelID,
		Allowed:      k.ConnectionLimit(),
		Actual:       actual,
		IPs:          ips,
	}
}

func TestRecordViolation_EscalationLadder(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	ctx := context.Background()
	k := h.activeKey(t)
	d := detectionFor(k, h.panels.panel.ID(), 4)

	res, err := h.record.Execute(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, violation.StepWarning1, res.Step)
	assert.Equal(t, 1, res.Violation.ViolationCount())

	res, err = h.record.Execute(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, violation.StepWarning2, res.Step)
	assert.Equal(t, 2, res.Violation.ViolationCount())

	res, err = h.record.Execute(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, violation.StepReplace, res.Step)
	require.NotNil(t, res.ReplacementKey)

	successor := res.ReplacementKey
	assert.Equal(t, key.StatusActive, successor.Status())
	assert.True(t, successor.IsOwnedBy(ownerID))
	require.NotNil(t, successor.ReplacesKeyID())
	assert.Equal(t, k.ID(), *successor.ReplacesKeyID())
	assert.WithinDuration(t, *k.FinishAt(), *successor.FinishAt(), time.Second, "remaining period is kept")

	old, err := h.keyRepo.GetByID(ctx, k.ID())
	require.NoError(t, err)
	assert.Equal(t, key.StatusExpired, old.Status())

	v, err := h.violationRepo.GetByID(ctx, res.Violation.ID())
	require.NoError(t, err)
	assert.Equal(t, violation.StatusResolved, v.Status())
	require.NotNil(t, v.ReplacementKeyID())
	assert.Equal(t, successor.ID(), *v.ReplacementKeyID())
	assert.Equal(t, 3, v.NotificationsSent())

	assert.Equal(t, []notification.Template{
		notification.TemplateViolationWarning1,
		notification.TemplateViolationWarning2,
		notification.TemplateKeyReplaced,
	}, h.dispatcher.templates())
	last := h.dispatcher.sent[2]
	assert.Equal(t, successor.Code(), last.Notice.KeyCode)
	assert.Equal(t, ownerID, last.Notice.Recipient)
	assert.Equal(t, uint(11), last.BatchID)
	assert.NotEmpty(t, last.Notice.SubscriptionURL)

	res, err = h.record.Execute(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, SkipKeyInactive, res.Skipped, "the replaced key no longer escalates")
}

func TestRecordViolation_WithinLimitIsIgnored(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	k := h.activeKey(t)

	res, err := h.record.Execute(context.Background(), detectionFor(k, h.panels.panel.ID(), 2))
	require.NoError(t, err)
	assert.Equal(t, SkipWithinLimit, res.Skipped)
	assert.Empty(t, h.dispatcher.templates())
}

func TestRecordViolation_ConcurrentDetectionsReplaceOnce(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	ctx := context.Background()
	k := h.activeKey(t)
	d := detectionFor(k, h.panels.panel.ID(), 5)

	for i := 0; i < 2; i++ {
		_, err := h.record.Execute(ctx, d)
		require.NoError(t, err)
	}

	const workers = 4
	var wg sync.WaitGroup
	results := make([]*RecordResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.record.Execute(ctx, d)
		}(i)
	}
	wg.Wait()

	replaced := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].ReplacementKey != nil {
			replaced++
		}
	}
	assert.Equal(t, 1, replaced)

	keys, err := h.keyRepo.ListByBatch(ctx, k.BatchID())
	require.NoError(t, err)
	assert.Len(t, keys, 2, "exactly one successor key")
}

func TestRecordViolation_FailedReplacementReleasesClaim(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	ctx := context.Background()
	k := h.activeKey(t)
	d := detectionFor(k, h.panels.panel.ID(), 3)

	first, err := h.record.Execute(ctx, d)
	require.NoError(t, err)
	_, err = h.record.Execute(ctx, d)
	require.NoError(t, err)

	h.panels.addErr = assert.AnError
	res, err := h.record.Execute(ctx, d)
	require.Error(t, err)
	assert.Nil(t, res)

	v, err := h.violationRepo.GetByID(ctx, first.Violation.ID())
	require.NoError(t, err)
	assert.False(t, v.IsReplacementClaimed())
	assert.Equal(t, violation.StatusActive, v.Status())

	old, err := h.keyRepo.GetByID(ctx, k.ID())
	require.NoError(t, err)
	assert.Equal(t, key.StatusActive, old.Status(), "the old key keeps working")

	h.panels.addErr = nil
	res, err = h.record.Execute(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, res.ReplacementKey)

	keys, err := h.keyRepo.ListByBatch(ctx, k.BatchID())
	require.NoError(t, err)
	active := 0
	for _, bk := range keys {
		if bk.IsActive() {
			active++
		}
	}
	assert.Equal(t, 1, active, "the discarded successor stays expired")
}

func TestRecordViolation_Cooldown(t *testing.T) {
	h := newViolationHarness(t, cache.NewMemoryReportDeduplicator(), time.Minute)
	k := h.activeKey(t)
	d := detectionFor(k, h.panels.panel.ID(), 3)

	res, err := h.record.Execute(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, violation.StepWarning1, res.Step)

	res, err = h.record.Execute(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, SkipCooldown, res.Skipped)
}

func TestNotificationBookkeeping(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	ctx := context.Background()
	k := h.activeKey(t)
	d := detectionFor(k, h.panels.panel.ID(), 3)

	h.dispatcher.outcomes = []notification.Outcome{notification.OutcomeTechnicalError}
	res, err := h.record.Execute(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeTechnicalError, res.Outcome)

	v, err := h.violationRepo.GetByID(ctx, res.Violation.ID())
	require.NoError(t, err)
	assert.Zero(t, v.NotificationsSent())
	assert.Equal(t, 1, v.NotificationRetryCount())
	assert.Equal(t, violation.StepWarning1, v.NotificationStep())

	delivered, err := h.retry.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	v, err = h.violationRepo.GetByID(ctx, v.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, v.NotificationsSent())
	assert.Equal(t, notification.OutcomeSuccess, v.LastNotificationOutcome())

	delivered, err = h.retry.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, delivered, "nothing left to retry")

	h.dispatcher.outcomes = []notification.Outcome{notification.OutcomeUserNotFound}
	_, err = h.record.Execute(ctx, d)
	require.NoError(t, err)
	v, err = h.violationRepo.GetByID(ctx, v.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, v.NotificationsSent(), "user_not_found is terminal and not counted")
	assert.Equal(t, 1, v.NotificationRetryCount())
	assert.Equal(t, violation.StepWarning2, v.NotificationStep())
}

func TestRetryResumesAfterDeliveredParts(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	ctx := context.Background()
	k := h.activeKey(t)
	d := detectionFor(k, h.panels.panel.ID(), 3)

	h.dispatcher.outcomes = []notification.Outcome{notification.OutcomeTechnicalError}
	h.dispatcher.parts = []int{1}
	res, err := h.record.Execute(ctx, d)
	require.NoError(t, err)

	v, err := h.violationRepo.GetByID(ctx, res.Violation.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, v.NotificationPartsSent())

	delivered, err := h.retry.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	h.dispatcher.mu.Lock()
	require.Len(t, h.dispatcher.sent, 2)
	assert.Zero(t, h.dispatcher.sent[0].Notice.SkipParts)
	assert.Equal(t, 1, h.dispatcher.sent[1].Notice.SkipParts, "the retry starts after the delivered part")
	h.dispatcher.mu.Unlock()

	v, err = h.violationRepo.GetByID(ctx, v.ID())
	require.NoError(t, err)
	assert.Zero(t, v.NotificationPartsSent())
	assert.Equal(t, notification.OutcomeSuccess, v.LastNotificationOutcome())
}

func TestIgnoreViolation(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	ctx := context.Background()
	k := h.activeKey(t)
	d := detectionFor(k, h.panels.panel.ID(), 3)

	res, err := h.record.Execute(ctx, d)
	require.NoError(t, err)

	ignored, err := h.ignore.Execute(ctx, res.Violation.ID())
	require.NoError(t, err)
	assert.Equal(t, violation.StatusIgnored, ignored.Status())

	d.Actual = 6
	res, err = h.record.Execute(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, SkipIgnored, res.Skipped)

	v, err := h.violationRepo.GetByID(ctx, ignored.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, v.ViolationCount())
	assert.Equal(t, 6, v.ActualConnections(), "observation is refreshed")

	_, err = h.ignore.Execute(ctx, ignored.ID())
	assert.True(t, apperrors.IsConflictError(err))
	_, err = h.ignore.Execute(ctx, 9999)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestReportViolation(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	ctx := context.Background()
	k := h.activeKey(t)
	u, err := h.serverUserRepo.GetByID(ctx, *k.ServerUserID())
	require.NoError(t, err)

	res, err := h.report.Execute(ctx, ReportViolationCommand{
		UserIdentifier:   u.Username(),
		DetectedIPsCount: 3,
		AllUserIPs:       []string{"203.0.113.1", "203.0.113.2", "203.0.113.3", "203.0.113.3"},
	})
	require.NoError(t, err)
	assert.Equal(t, violation.StepWarning1, res.Step)
	assert.Equal(t, 2, res.Violation.AllowedConnections())
	assert.Equal(t, []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"}, res.Violation.ObservedIPs())

	_, err = h.report.Execute(ctx, ReportViolationCommand{UserIdentifier: "nobody", DetectedIPsCount: 5, Limit: 1})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestCheckConnections(t *testing.T) {
	h := newViolationHarness(t, nil, 0)
	ctx := context.Background()
	calm := h.activeKey(t)
	busy := h.activeKey(t)

	h.panels.connect(*calm.ServerUserID(), "192.0.2.1")
	h.panels.connect(*busy.ServerUserID(), "192.0.2.1", "192.0.2.2", "192.0.2.3")

	res, err := h.check.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, 1, res.Violations)
	assert.Zero(t, res.Failures)
	require.Len(t, h.dispatcher.sent, 1)
	assert.Equal(t, 3, h.dispatcher.sent[0].Notice.Actual)
}
