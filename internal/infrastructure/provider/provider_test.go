package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/shared/config"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	assert.NoError(t, err)
	var out map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func testPanel(t *testing.T, typ panel.Type, apiURL, token string) *panel.Panel {
	t.Helper()
	exp := time.Now().Add(time.Hour)
	p, err := panel.ReconstructPanel(panel.PanelState{
		ID:             7,
		ServerID:       3,
		Type:           typ,
		APIURL:         apiURL,
		Username:       "admin",
		Password:       "s3cret",
		Token:          token,
		TokenExpiresAt: &exp,
		Status:         panel.StatusConfigured,
	})
	require.NoError(t, err)
	return p
}

func TestHetznerCreateServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer htoken", r.Header.Get("Authorization"))
		assert.Equal(t, "/servers", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "khsrv-a", body["name"])
		assert.Equal(t, "fsn1", body["location"])
		assert.Equal(t, "cx11", body["server_type"], "free servers use the free type")

		writeJSON(t, w, http.StatusCreated, map[string]interface{}{
			"server": map[string]interface{}{
				"id":     4711,
				"status": "initializing",
				"public_net": map[string]interface{}{
					"ipv4": map[string]interface{}{"ip": "203.0.113.7"},
				},
			},
			"root_password": "initial",
		})
	}))
	defer srv.Close()

	p := NewHetznerProvider(config.HetznerConfig{Token: "htoken", BaseURL: srv.URL, ServerType: "cx22", FreeType: "cx11", Image: "ubuntu-22.04"}, srv.Client(), nil)
	vm, err := p.CreateServer(t.Context(), ServerSpec{Name: "khsrv-a", Location: "fsn1", IsFree: true})
	require.NoError(t, err)
	assert.Equal(t, "4711", vm.ID)
	assert.Equal(t, VMPending, vm.State)
	assert.Equal(t, "203.0.113.7", vm.IPv4)
	assert.Equal(t, "initial", vm.RootPassword)
}

func TestHetznerErrorClassification(t *testing.T) {
	status := http.StatusInternalServerError
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"code":"x","message":"failed"}}`))
	}))
	defer srv.Close()

	p := NewHetznerProvider(config.HetznerConfig{Token: "t", BaseURL: srv.URL}, srv.Client(), nil)

	_, err := p.GetServer(t.Context(), "1")
	assert.Equal(t, KindAPIUnreachable, KindOf(err))

	status = http.StatusUnprocessableEntity
	_, err = p.GetServer(t.Context(), "1")
	assert.Equal(t, KindInvalidProviderResponse, KindOf(err))
	pe, ok := AsProvisioningError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, pe.StatusCode)
	assert.Equal(t, ProviderHetzner, pe.Provider)

	status = http.StatusNotFound
	assert.NoError(t, p.DeleteServer(t.Context(), "1"), "deleting a missing server succeeds")

	_, err = p.GetServer(t.Context(), "not-a-number")
	assert.Equal(t, KindInvalidProviderResponse, KindOf(err))
}

func TestHetznerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewHetznerProvider(config.HetznerConfig{Token: "t", BaseURL: url}, nil, nil)
	_, err := p.GetServer(t.Context(), "1")
	assert.Equal(t, KindAPIUnreachable, KindOf(err))
}

func TestHetznerResetPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/servers/42/actions/reset_password", r.URL.Path)
		writeJSON(t, w, http.StatusCreated, map[string]interface{}{
			"root_password": "rotated",
			"action":        map[string]interface{}{"id": 1, "command": "reset_password", "status": "running"},
		})
	}))
	defer srv.Close()

	p := NewHetznerProvider(config.HetznerConfig{Token: "t", BaseURL: srv.URL}, srv.Client(), nil)
	pw, err := p.ResetRootPassword(t.Context(), &VM{ID: "42"}, "")
	require.NoError(t, err)
	assert.Equal(t, "rotated", pw)
}

type recordingChanger struct {
	host, current, next string
}

func (r *recordingChanger) ChangeRootPassword(_ context.Context, host, current, next string) error {
	r.host, r.current, r.next = host, current, next
	return nil
}

func TestVultrGetServerAndRotate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer vkey", r.Header.Get("Authorization"))
		assert.Equal(t, "/v2/instances/uuid-1", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"instance": map[string]interface{}{
				"id":           "uuid-1",
				"main_ip":      "0.0.0.0",
				"status":       "pending",
				"power_status": "stopped",
			},
		})
	}))
	defer srv.Close()

	changer := &recordingChanger{}
	p := NewVultrProvider(config.VultrConfig{APIKey: "vkey", BaseURL: srv.URL}, srv.Client(), nil, changer)

	vm, err := p.GetServer(t.Context(), "uuid-1")
	require.NoError(t, err)
	assert.Empty(t, vm.IPv4, "placeholder address is not an address")

	_, err = p.ResetRootPassword(t.Context(), &VM{ID: "uuid-1", IPv4: "198.51.100.2"}, "")
	assert.Error(t, err, "rotation needs the initial password")

	pw, err := p.ResetRootPassword(t.Context(), &VM{ID: "uuid-1", IPv4: "198.51.100.2"}, "initial")
	require.NoError(t, err)
	assert.NotEmpty(t, pw)
	assert.Equal(t, "198.51.100.2", changer.host)
	assert.Equal(t, "initial", changer.current)
	assert.Equal(t, pw, changer.next)
}

func TestVultrDeleteMissingInstance(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method)
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "Invalid instance-id."})
	}))
	defer srv.Close()

	p := NewVultrProvider(config.VultrConfig{APIKey: "vkey", BaseURL: srv.URL}, srv.Client(), nil, nil)
	assert.NoError(t, p.DeleteServer(t.Context(), "uuid-gone"))
	assert.Equal(t, []string{http.MethodDelete, http.MethodGet}, calls)

	_, err := p.GetServer(t.Context(), "uuid-gone")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, KindInvalidProviderResponse, KindOf(err))
}

func TestInstallerRendersAnswers(t *testing.T) {
	i := NewScriptInstaller(panel.TypeXUI, config.PanelTypeConfig{
		InstallCommand:   "install.sh --answers /root/keyhub-panel.yaml",
		Port:             2053,
		Scheme:           "https",
		BasePath:         "panel/",
		SubscriptionPort: 2096,
		InboundIDs:       []int{1, 2},
	})

	cmd, answers, err := i.InstallScript("admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "install.sh --answers /root/keyhub-panel.yaml", cmd)
	assert.Contains(t, string(answers), "panel: 3x-ui")
	assert.Contains(t, string(answers), "username: admin")
	assert.Contains(t, string(answers), "subscription_port: 2096")
	assert.Equal(t, "https://203.0.113.7:2053/panel", i.APIURL("203.0.113.7"))

	_, _, err = i.InstallScript("", "")
	assert.Error(t, err)
}

func TestRegistryLookups(t *testing.T) {
	r, err := NewRegistryFromConfig(config.ProvidersConfig{
		Hetzner: config.HetznerConfig{Token: "t"},
	}, config.PanelsConfig{}, nil, nil)
	require.NoError(t, err)

	_, err = r.ServerProvider(ProviderHetzner)
	assert.NoError(t, err)

	_, err = r.ServerProvider(ProviderVultr)
	require.Error(t, err, "vultr has no credentials")
	assert.Contains(t, err.Error(), "unknown server provider")

	c, err := r.PanelClient(panel.TypeMarzban)
	require.NoError(t, err)
	assert.Equal(t, panel.TypeMarzban, c.Type())

	_, err = r.PanelClient(panel.Type("wireguard"))
	assert.Error(t, err)

	assert.Nil(t, r.DNS())
	assert.Equal(t, []string{ProviderHetzner}, r.ServerProviders())
}
