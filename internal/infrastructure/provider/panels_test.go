package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/shared/config"
)

func TestCloudflareRecords(t *testing.T) {
	var created map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer cf", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/zones/z1/dns_records":
			assert.Equal(t, "A", r.URL.Query().Get("type"))
			assert.Equal(t, "khsrv-a.vpn.example.com", r.URL.Query().Get("name"))
			writeJSON(t, w, http.StatusOK, map[string]interface{}{
				"success":     true,
				"result":      []map[string]string{{"id": "r1", "type": "A", "name": "khsrv-a.vpn.example.com", "content": "203.0.113.7"}},
				"result_info": map[string]int{"page": 1, "per_page": 100, "count": 1, "total_count": 1, "total_pages": 1},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/zones/z1/dns_records":
			created = decodeBody(t, r)
			writeJSON(t, w, http.StatusOK, map[string]interface{}{
				"success": true,
				"result":  map[string]string{"id": "r2", "name": "khsrv-b.vpn.example.com", "content": "203.0.113.8"},
			})
		case r.Method == http.MethodPatch && r.URL.Path == "/zones/z1/dns_records/r1":
			writeJSON(t, w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"errors":  []map[string]interface{}{{"code": 81057, "message": "record already exists"}},
			})
		default:
			writeJSON(t, w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"errors":  []map[string]interface{}{{"code": 81044, "message": "Record does not exist."}},
			})
		}
	}))
	defer srv.Close()

	dns, err := NewCloudflareDNS(config.CloudflareConfig{APIToken: "cf", BaseURL: srv.URL, ZoneID: "z1", BaseDomain: "vpn.example.com."}, srv.Client(), nil)
	require.NoError(t, err)
	assert.Equal(t, "khsrv-a.vpn.example.com", dns.FQDN("khsrv-a"))

	records, err := dns.ListARecords(t.Context(), "khsrv-a.vpn.example.com")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "203.0.113.7", records[0].Content)

	rec, err := dns.CreateARecord(t.Context(), "khsrv-b.vpn.example.com", "203.0.113.8")
	require.NoError(t, err)
	assert.Equal(t, "r2", rec.ID)
	assert.Equal(t, "A", created["type"])
	assert.Equal(t, "203.0.113.8", created["content"])

	_, err = dns.UpdateARecord(t.Context(), "r1", "khsrv-a.vpn.example.com", "203.0.113.9")
	require.Error(t, err)
	assert.Equal(t, KindInvalidProviderResponse, KindOf(err))
	assert.Contains(t, err.Error(), "record already exists")
	assert.False(t, IsNotFound(err))

	assert.NoError(t, dns.DeleteRecord(t.Context(), "gone"), "404 on delete is tolerated")
}

func TestMarzbanAuthenticateAndCreateUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/token":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "admin", r.PostForm.Get("username"))
			assert.Equal(t, "s3cret", r.PostForm.Get("password"))
			writeJSON(t, w, http.StatusOK, map[string]string{"access_token": "jwt", "token_type": "bearer"})
		case "/api/user":
			assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
			body := decodeBody(t, r)
			proxies, _ := body["proxies"].(map[string]interface{})
			assert.Len(t, proxies, 4)
			assert.Equal(t, float64(10<<30), body["data_limit"])
			assert.Equal(t, "no_reset", body["data_limit_reset_strategy"])
			writeJSON(t, w, http.StatusOK, map[string]interface{}{
				"username":         body["username"],
				"subscription_url": "/sub/abc",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewMarzbanClient(config.PanelTypeConfig{}, 24*time.Hour, srv.Client(), nil)
	p := testPanel(t, panel.TypeMarzban, srv.URL, "")

	tok, err := c.Authenticate(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), tok.ExpiresAt, time.Minute)

	require.NoError(t, p.SetToken(tok.Token, tok.ExpiresAt, time.Now()))
	created, err := c.CreateUser(t.Context(), p, CreateUserRequest{
		Username:     "kh_abc",
		TrafficLimit: 10 << 30,
		ExpireAt:     time.Now().Add(30 * 24 * time.Hour),
		KeyID:        9,
	})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/sub/abc", created.SubscriptionURL)
	assert.Contains(t, created.Credentials, "vless")
	assert.Equal(t, marzbanShadowsocksMethod, created.Credentials["shadowsocks"]["method"])
	assert.NotEmpty(t, created.Credentials["trojan"]["password"])
}

func TestMarzbanOnlineFromLastSeen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	onlineAt := "2025-06-01T11:59:30"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/kh_abc", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"username":     "kh_abc",
			"used_traffic": 1024,
			"data_limit":   2048,
			"expire":       now.Add(time.Hour).Unix(),
			"online_at":    onlineAt,
		})
	}))
	defer srv.Close()

	c := NewMarzbanClient(config.PanelTypeConfig{}, time.Hour, srv.Client(), nil)
	c.now = func() time.Time { return now }
	p := testPanel(t, panel.TypeMarzban, srv.URL, "jwt")
	u := panel.ReconstructServerUser(1, 7, 9, "kh_abc", "", nil, 2048, now, now, nil)

	st, err := c.CheckOnline(t.Context(), p, u)
	require.NoError(t, err)
	assert.True(t, st.Online)
	assert.Empty(t, st.IPs)

	usage, err := c.GetUsage(t.Context(), p, u)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), usage.Used)
	assert.Equal(t, int64(2048), usage.Limit)
	assert.Equal(t, now.Add(time.Hour), usage.ExpireAt)

	onlineAt = "2025-06-01T10:00:00"
	st, err = c.CheckOnline(t.Context(), p, u)
	require.NoError(t, err)
	assert.False(t, st.Online)
}

func TestXUIFlow(t *testing.T) {
	var added []map[string]interface{}
	var deleted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			assert.Equal(t, "3x-ui=sess", r.Header.Get("Cookie"))
		}
		switch {
		case r.URL.Path == "/login":
			http.SetCookie(w, &http.Cookie{Name: "3x-ui", Value: "sess"})
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true})
		case r.URL.Path == "/panel/api/inbounds/addClient":
			added = append(added, decodeBody(t, r))
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true})
		case r.URL.Path == "/panel/api/inbounds/onlines":
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "obj": []string{"kh_x", "someone"}})
		case r.URL.Path == "/panel/api/inbounds/clientIps/kh_x":
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "obj": []string{"10.0.0.2 (2025-01-01 10:00:00)", "10.0.0.1"}})
		case r.URL.Path == "/panel/api/inbounds/getClientTraffics/kh_x":
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "obj": map[string]interface{}{"up": 10, "down": 20, "total": 100}})
		case r.URL.Path == "/panel/api/inbounds/getClientTraffics/kh_x-2":
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "obj": map[string]interface{}{"up": 1, "down": 2, "total": 100}})
		case len(r.URL.Path) > len("/panel/api/inbounds/") && r.Method == http.MethodPost:
			deleted = append(deleted, r.URL.Path)
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewXUIClient(config.PanelTypeConfig{InboundIDs: []int{1, 2}, SubscriptionPort: 2096, Scheme: "https"}, time.Hour, srv.Client(), nil)
	p := testPanel(t, panel.TypeXUI, srv.URL, "")

	tok, err := c.Authenticate(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, "3x-ui=sess", tok.Token)
	require.NoError(t, p.SetToken(tok.Token, tok.ExpiresAt, time.Now()))

	created, err := c.CreateUser(t.Context(), p, CreateUserRequest{Username: "kh_x", TrafficLimit: 100, ConnectionLimit: 2})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, float64(1), added[0]["id"])
	assert.Contains(t, added[0]["settings"], `"limitIp":2`)
	assert.Equal(t, "kh_x", created.Credentials["inbound:1"]["email"])
	assert.Equal(t, "kh_x-2", created.Credentials["inbound:2"]["email"])
	assert.Contains(t, created.SubscriptionURL, ":2096/sub/")

	u := panel.ReconstructServerUser(1, 7, 9, "kh_x", created.SubscriptionURL, created.Credentials, 100, time.Time{}, time.Now(), nil)

	st, err := c.CheckOnline(t.Context(), p, u)
	require.NoError(t, err)
	assert.True(t, st.Online)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, st.IPs)

	usage, err := c.GetUsage(t.Context(), p, u)
	require.NoError(t, err)
	assert.Equal(t, int64(33), usage.Used)
	assert.True(t, usage.Online)

	require.NoError(t, c.DeleteUser(t.Context(), p, u))
	assert.Len(t, deleted, 2)
}

func TestParseClientIPs(t *testing.T) {
	ips, err := parseClientIPs([]byte(`"No IP Record"`))
	require.NoError(t, err)
	assert.Empty(t, ips)

	ips, err = parseClientIPs([]byte(`"[\"1.1.1.1\"]"`))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1"}, ips)

	_, err = parseClientIPs([]byte(`{"a":1}`))
	assert.Error(t, err)
}
