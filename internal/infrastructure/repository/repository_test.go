package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/shared/db"
	"github.com/orris-inc/keyhub/internal/shared/logger"
	"github.com/orris-inc/keyhub/internal/shared/testutil"
)

func TestKeyRepository_VersionCAS(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewKeyRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	k, err := key.NewKey(key.Template{BatchID: 1, TrafficLimit: 1 << 30, PeriodDays: 30, PanelType: "marzban"}, time.Hour, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, k))
	require.NotZero(t, k.ID())
	assert.Equal(t, 1, k.Version())

	stale, err := repo.GetByCode(ctx, k.Code())
	require.NoError(t, err)
	require.NotNil(t, stale)

	require.NoError(t, k.Activate(7, 99, now.Add(24*time.Hour), now))
	require.NoError(t, repo.Update(ctx, k))
	assert.Equal(t, 2, k.Version())

	require.NoError(t, stale.Activate(8, 100, now.Add(24*time.Hour), now))
	assert.ErrorIs(t, repo.Update(ctx, stale), key.ErrVersionConflict)

	got, err := repo.GetByID(ctx, k.ID())
	require.NoError(t, err)
	assert.True(t, got.IsOwnedBy(7))
	assert.Nil(t, got.ActivationDeadline())

	missing, err := repo.GetByCode(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestKeyRepository_ListPastDeadline(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewKeyRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()
	now := time.Now().UTC()
	tpl := key.Template{BatchID: 1, PeriodDays: 30, PanelType: "marzban"}

	lapsed, err := key.NewKey(tpl, time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)
	fresh, err := key.NewKey(tpl, time.Hour, now)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBatch(ctx, []*key.Key{lapsed, fresh}))

	list, err := repo.ListPastDeadline(ctx, now, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, lapsed.Code(), list[0].Code())

	list, err = repo.ListPastDeadline(ctx, now, lapsed.ID(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransactionRollsBackKeys(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewKeyRepository(gdb, logger.NewNopLogger())
	tm := db.NewTransactionManager(gdb)
	ctx := context.Background()
	tpl := key.Template{BatchID: 5, PeriodDays: 30, PanelType: "marzban"}

	err := tm.RunInTransaction(ctx, func(txCtx context.Context) error {
		k, err := key.NewKey(tpl, time.Hour, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Create(txCtx, k))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	list, err := repo.ListByBatch(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestViolationRepository_CountAndClaim(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewViolationRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()
	now := time.Now().UTC()
	d := violation.Detection{KeyID: 1, ServerUserID: 2, PanelID: 3, Allowed: 1, Actual: 2, IPs: []string{"a", "b"}}

	first, err := repo.FindOrCreate(ctx, d, now)
	require.NoError(t, err)
	again, err := repo.FindOrCreate(ctx, d, now)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), again.ID(), "one row per triple")

	for want := 1; want <= 3; want++ {
		v, err := repo.IncrementCount(ctx, first.ID(), d, now)
		require.NoError(t, err)
		assert.Equal(t, want, v.ViolationCount())
	}

	won, err := repo.ClaimReplacement(ctx, first.ID(), now)
	require.NoError(t, err)
	assert.True(t, won)
	won, err = repo.ClaimReplacement(ctx, first.ID(), now)
	require.NoError(t, err)
	assert.False(t, won, "claim is taken at most once")

	require.NoError(t, repo.ReleaseReplacement(ctx, first.ID()))
	won, err = repo.ClaimReplacement(ctx, first.ID(), now)
	require.NoError(t, err)
	assert.True(t, won, "released claim can be retaken")
}

func TestViolationRepository_PendingRetry(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewViolationRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	v, err := repo.FindOrCreate(ctx, violation.Detection{KeyID: 1, ServerUserID: 1, PanelID: 1, Allowed: 1, Actual: 2}, now)
	require.NoError(t, err)
	v.RecordNotification(violation.StepWarning1, notification.OutcomeTechnicalError, now)
	require.NoError(t, repo.Update(ctx, v))

	list, err := repo.ListPendingRetry(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, violation.StepWarning1, list[0].NotificationStep())

	list, err = repo.ListPendingRetry(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServerUserRepository_CountActiveByPanel(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewServerUserRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	var deleted *panel.ServerUser
	for i, panelID := range []uint{1, 1, 2} {
		u, err := panel.NewServerUser(panelID, uint(i+1), "kh_user"+string(rune('a'+i)), "", panel.Credentials{"vless": {"id": "x"}}, 0, now, now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, u))
		deleted = u
	}
	require.NoError(t, repo.SoftDelete(ctx, deleted.ID()))

	counts, err := repo.CountActiveByPanel(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[1])
	assert.Zero(t, counts[2])

	got, err := repo.GetByID(ctx, deleted.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsDeleted())
	assert.Equal(t, "x", got.Credentials()["vless"]["id"])

	byName, err := repo.GetByUsername(ctx, deleted.Username())
	require.NoError(t, err)
	assert.Nil(t, byName, "deleted accounts are hidden from username lookups")
}

func TestPanelRepository_ListConfiguredByTypeSkipsDeadServers(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	log := logger.NewNopLogger()
	servers := NewServerRepository(gdb, log)
	panels := NewPanelRepository(gdb, log)
	ctx := context.Background()
	now := time.Now().UTC()

	addPanel := func(ref string, serverStatus server.Status) *panel.Panel {
		s, err := server.NewServer("hetzner", ref, 1, "khsrv-"+ref, false, now)
		require.NoError(t, err)
		if serverStatus != server.StatusCreated {
			require.NoError(t, s.MarkConfigured("203.0.113.1", "", "", now))
		}
		if serverStatus == server.StatusDeleted {
			require.NoError(t, s.MarkDeleted(now))
		}
		require.NoError(t, servers.Create(ctx, s))

		p, err := panel.NewPanel(s.ID(), panel.TypeMarzban, "https://"+ref+".test", "admin", "pw", now)
		require.NoError(t, err)
		require.NoError(t, p.SetToken("tok", now.Add(time.Hour), now))
		require.NoError(t, panels.Create(ctx, p))
		return p
	}

	live := addPanel("live", server.StatusConfigured)
	addPanel("gone", server.StatusDeleted)
	addPanel("booting", server.StatusCreated)

	got, err := panels.ListConfiguredByType(ctx, panel.TypeMarzban)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, live.ID(), got[0].ID())
}
