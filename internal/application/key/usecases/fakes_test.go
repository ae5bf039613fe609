package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
)

// fakeGateway keeps panel accounts in memory and the ServerUser rows in the
// real repository, like the panel service does.
type fakeGateway struct {
	mu       sync.Mutex
	panel    *panel.Panel
	repo     panel.ServerUserRepository
	live     map[string]bool
	seq      int
	addErr   error
	usageErr error
	retired  []uint
}

func newFakeGateway(p *panel.Panel, repo panel.ServerUserRepository) *fakeGateway {
	return &fakeGateway{panel: p, repo: repo, live: map[string]bool{}}
}

func (g *fakeGateway) SelectLeastLoaded(_ context.Context, t panel.Type) (*panel.Panel, error) {
	if g.panel == nil || g.panel.Type() != t {
		return nil, nil
	}
	return g.panel, nil
}

func (g *fakeGateway) AddServerUser(_ context.Context, p *panel.Panel, spec panel.AccountSpec) (*panel.ServerUser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.addErr != nil {
		return nil, g.addErr
	}
	g.seq++
	username := fmt.Sprintf("kh_test_%d", g.seq)
	g.live[username] = true
	return panel.NewServerUser(p.ID(), spec.KeyID, username, "https://sub.test/"+username, nil, spec.TrafficLimit, spec.ExpireAt, time.Now().UTC())
}

func (g *fakeGateway) DeleteServerUser(_ context.Context, _ *panel.Panel, u *panel.ServerUser) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.live, u.Username())
	return nil
}

func (g *fakeGateway) ResolveServerUser(ctx context.Context, id uint) (*panel.Panel, *panel.ServerUser, error) {
	u, err := g.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || u.IsDeleted() {
		return nil, nil, errors.New("server user not found")
	}
	return g.panel, u, nil
}

func (g *fakeGateway) GetSubscribeInfo(_ context.Context, _ *panel.Panel, u *panel.ServerUser) (*provider.UserUsage, error) {
	if g.usageErr != nil {
		return nil, g.usageErr
	}
	return &provider.UserUsage{Used: 1 << 20, Limit: u.TrafficLimit(), Online: true, ExpireAt: u.ExpireAt()}, nil
}

func (g *fakeGateway) RetireServerUser(ctx context.Context, id uint) error {
	g.mu.Lock()
	g.retired = append(g.retired, id)
	g.mu.Unlock()
	u, err := g.repo.GetByID(ctx, id)
	if err != nil || u == nil {
		return err
	}
	_ = g.DeleteServerUser(ctx, g.panel, u)
	return g.repo.SoftDelete(ctx, id)
}

// created counts every account ever created on the panel.
func (g *fakeGateway) created() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

func (g *fakeGateway) liveAccounts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.live)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, uint) (func(), error) { return func() {}, nil }

type failingLocker struct{}

func (failingLocker) Lock(context.Context, uint) (func(), error) {
	return nil, errors.New("lock wait timed out")
}

// busyLocker reports a lock timeout for the keys in busy.
type busyLocker struct {
	KeyLocker
	busy map[uint]bool
}

func (l *busyLocker) Lock(ctx context.Context, keyID uint) (func(), error) {
	if l.busy[keyID] {
		return nil, errors.New("lock wait timed out")
	}
	return l.KeyLocker.Lock(ctx, keyID)
}

// flakyKeyRepo fails every Update once failUpdates is set.
type flakyKeyRepo struct {
	key.Repository
	failUpdates bool
}

func (r *flakyKeyRepo) Update(ctx context.Context, k *key.Key) error {
	if r.failUpdates {
		return errors.New("database is locked")
	}
	return r.Repository.Update(ctx, k)
}
