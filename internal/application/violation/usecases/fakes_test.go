package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
)

// fakePanels stands in for the panel service: accounts live in memory, rows
// in the real repository.
type fakePanels struct {
	mu     sync.Mutex
	panel  *panel.Panel
	repo   panel.ServerUserRepository
	seq    int
	live   map[string]bool
	ips    map[uint][]string
	addErr error
}

func newFakePanels(p *panel.Panel, repo panel.ServerUserRepository) *fakePanels {
	return &fakePanels{panel: p, repo: repo, live: map[string]bool{}, ips: map[uint][]string{}}
}

func (f *fakePanels) SelectLeastLoaded(_ context.Context, _ panel.Type) (*panel.Panel, error) {
	return f.panel, nil
}

func (f *fakePanels) AddServerUser(_ context.Context, p *panel.Panel, spec panel.AccountSpec) (*panel.ServerUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.seq++
	name := fmt.Sprintf("kh_v_%d", f.seq)
	f.live[name] = true
	return panel.NewServerUser(p.ID(), spec.KeyID, name, "https://sub.test/"+name, nil, spec.TrafficLimit, spec.ExpireAt, time.Now().UTC())
}

func (f *fakePanels) DeleteServerUser(_ context.Context, _ *panel.Panel, u *panel.ServerUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, u.Username())
	return nil
}

func (f *fakePanels) ResolveServerUser(ctx context.Context, id uint) (*panel.Panel, *panel.ServerUser, error) {
	u, err := f.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || u.IsDeleted() {
		return nil, nil, errors.New("server user not found")
	}
	return f.panel, u, nil
}

func (f *fakePanels) GetSubscribeInfo(_ context.Context, _ *panel.Panel, u *panel.ServerUser) (*provider.UserUsage, error) {
	return &provider.UserUsage{Limit: u.TrafficLimit(), ExpireAt: u.ExpireAt()}, nil
}

func (f *fakePanels) RetireServerUser(ctx context.Context, id uint) error {
	u, err := f.repo.GetByID(ctx, id)
	if err != nil || u == nil {
		return err
	}
	_ = f.DeleteServerUser(ctx, f.panel, u)
	return f.repo.SoftDelete(ctx, id)
}

func (f *fakePanels) CheckOnline(_ context.Context, _ *panel.Panel, u *panel.ServerUser) (*provider.OnlineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ips := f.ips[u.ID()]
	return &provider.OnlineStatus{Online: len(ips) > 0, IPs: ips}, nil
}

func (f *fakePanels) connect(serverUserID uint, ips ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ips[serverUserID] = ips
}

type sentNotice struct {
	BatchID uint
	Notice  notification.Notice
}

type fakeDispatcher struct {
	mu       sync.Mutex
	outcomes []notification.Outcome
	parts    []int
	sent     []sentNotice
}

// Send replies with the queued outcomes and part counts in order, then success.
func (d *fakeDispatcher) Send(_ context.Context, batchID uint, n notification.Notice) notification.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentNotice{BatchID: batchID, Notice: n})
	outcome := notification.OutcomeSuccess
	if len(d.outcomes) > 0 {
		outcome = d.outcomes[0]
		d.outcomes = d.outcomes[1:]
	}
	parts := n.SkipParts
	if len(d.parts) > 0 {
		parts = d.parts[0]
		d.parts = d.parts[1:]
	}
	return notification.Result{Outcome: outcome, Channel: notification.ChannelDefaultBot, PartsSent: parts}
}

func (d *fakeDispatcher) templates() []notification.Template {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notification.Template, 0, len(d.sent))
	for _, s := range d.sent {
		out = append(out, s.Notice.Template)
	}
	return out
}
