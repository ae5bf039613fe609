package usecases

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
)

type fakeVendor struct {
	mu        sync.Mutex
	vms       map[string]*provider.VM
	nextID    int
	deleteErr error
	resets    int
	calls     []string
}

func newFakeVendor() *fakeVendor {
	return &fakeVendor{vms: make(map[string]*provider.VM)}
}

func (f *fakeVendor) Name() string { return "fakecloud" }

func (f *fakeVendor) CreateServer(_ context.Context, spec provider.ServerSpec) (*provider.VM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	vm := &provider.VM{ID: fmt.Sprintf("vm-%d", f.nextID), State: provider.VMPending, RootPassword: "initial"}
	f.vms[vm.ID] = vm
	return &provider.VM{ID: vm.ID, State: vm.State, RootPassword: vm.RootPassword}, nil
}

func (f *fakeVendor) boot(id, ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vms[id].State = provider.VMRunning
	f.vms[id].IPv4 = ip
}

func (f *fakeVendor) GetServer(_ context.Context, id string) (*provider.VM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vm, ok := f.vms[id]
	if !ok {
		return nil, provider.InvalidResponse(f.Name(), "get_server", 404, fmt.Errorf("not found"))
	}
	cp := *vm
	cp.RootPassword = ""
	return &cp, nil
}

func (f *fakeVendor) ResetRootPassword(_ context.Context, vm *provider.VM, current string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return fmt.Sprintf("rotated-%d", f.resets), nil
}

func (f *fakeVendor) DeleteServer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "vm:"+id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.vms, id)
	return nil
}

type fakeDNS struct {
	mu      sync.Mutex
	records map[string]provider.DNSRecord
	seq     int
	creates int
	updates int
	calls   *[]string
}

func newFakeDNS() *fakeDNS {
	return &fakeDNS{records: make(map[string]provider.DNSRecord)}
}

func (f *fakeDNS) Name() string { return "fakedns" }

func (f *fakeDNS) FQDN(label string) string { return label + ".vpn.test" }

func (f *fakeDNS) ListARecords(_ context.Context, fqdn string) ([]provider.DNSRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []provider.DNSRecord
	for _, r := range f.records {
		if r.Name == fqdn {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDNS) CreateARecord(_ context.Context, fqdn, ip string) (*provider.DNSRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.creates++
	r := provider.DNSRecord{ID: fmt.Sprintf("rec-%d", f.seq), Name: fqdn, Content: ip}
	f.records[r.ID] = r
	return &r, nil
}

func (f *fakeDNS) UpdateARecord(_ context.Context, id, fqdn, ip string) (*provider.DNSRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	r := provider.DNSRecord{ID: id, Name: fqdn, Content: ip}
	f.records[id] = r
	return &r, nil
}

func (f *fakeDNS) DeleteRecord(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls != nil {
		*f.calls = append(*f.calls, "dns:"+id)
	}
	delete(f.records, id)
	return nil
}

type fakePanelClient struct {
	typ       panel.Type
	authCalls atomic.Int32
	authErr   error
	createErr error
	deleteErr error
	mu        sync.Mutex
	users     map[string]provider.CreateUserRequest
	deleted   []string
	used      int64
}

func newFakePanelClient(t panel.Type) *fakePanelClient {
	return &fakePanelClient{typ: t, users: make(map[string]provider.CreateUserRequest)}
}

func (f *fakePanelClient) Type() panel.Type { return f.typ }

func (f *fakePanelClient) Authenticate(_ context.Context, p *panel.Panel) (*provider.PanelToken, error) {
	f.authCalls.Add(1)
	if f.authErr != nil {
		return nil, f.authErr
	}
	return &provider.PanelToken{Token: "tok-" + p.Username(), ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

func (f *fakePanelClient) CreateUser(_ context.Context, p *panel.Panel, req provider.CreateUserRequest) (*provider.CreatedUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.users[req.Username] = req
	return &provider.CreatedUser{
		SubscriptionURL: p.APIURL() + "/sub/" + req.Username,
		Credentials:     panel.Credentials{"vless": {"id": "uuid-" + req.Username}},
	}, nil
}

func (f *fakePanelClient) DeleteUser(_ context.Context, _ *panel.Panel, u *panel.ServerUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, u.Username())
	delete(f.users, u.Username())
	return nil
}

func (f *fakePanelClient) GetUsage(_ context.Context, _ *panel.Panel, u *panel.ServerUser) (*provider.UserUsage, error) {
	return &provider.UserUsage{Used: f.used, Limit: u.TrafficLimit(), ExpireAt: u.ExpireAt()}, nil
}

func (f *fakePanelClient) CheckOnline(_ context.Context, _ *panel.Panel, _ *panel.ServerUser) (*provider.OnlineStatus, error) {
	return &provider.OnlineStatus{Online: true, IPs: []string{"10.0.0.1"}}, nil
}

type fakeInstaller struct{}

func (fakeInstaller) Type() panel.Type { return panel.TypeMarzban }

func (fakeInstaller) InstallScript(username, password string) (string, []byte, error) {
	return "install-panel", []byte("admin: " + username), nil
}

func (fakeInstaller) APIURL(host string) string { return "https://" + host + ":8000" }

type fakeRemote struct {
	uploads  []string
	commands []string
	runErr   error
}

func (f *fakeRemote) Upload(_ context.Context, host, _ string, path string, _ []byte) error {
	f.uploads = append(f.uploads, host+":"+path)
	return nil
}

func (f *fakeRemote) Run(_ context.Context, host, _ string, command string, _ []byte) ([]byte, error) {
	f.commands = append(f.commands, host+":"+command)
	return nil, f.runErr
}
