package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/config"
	"github.com/orris-inc/keyhub/internal/shared/id"
)

const (
	marzbanShadowsocksMethod = "chacha20-ietf-poly1305"
	// marzbanOnlineWindow is how recent online_at must be to count as connected.
	marzbanOnlineWindow = 2 * time.Minute
)

var defaultMarzbanProtocols = []string{"vless", "vmess", "trojan", "shadowsocks"}

// MarzbanClient talks to the Marzban admin REST API.
type MarzbanClient struct {
	httpClient    *http.Client
	metrics       *metrics.Metrics
	protocols     []string
	tokenLifetime time.Duration
	now           func() time.Time
}

type marzbanUser struct {
	Username        string  `json:"username"`
	Status          string  `json:"status"`
	UsedTraffic     int64   `json:"used_traffic"`
	DataLimit       *int64  `json:"data_limit"`
	Expire          *int64  `json:"expire"`
	OnlineAt        *string `json:"online_at"`
	SubscriptionURL string  `json:"subscription_url"`
}

func NewMarzbanClient(cfg config.PanelTypeConfig, tokenLifetime time.Duration, httpClient *http.Client, m *metrics.Metrics) *MarzbanClient {
	protocols := cfg.Protocols
	if len(protocols) == 0 {
		protocols = defaultMarzbanProtocols
	}
	return &MarzbanClient{
		httpClient:    httpClient,
		metrics:       m,
		protocols:     protocols,
		tokenLifetime: tokenLifetime,
		now:           time.Now,
	}
}

func (c *MarzbanClient) Type() panel.Type { return panel.TypeMarzban }

func (c *MarzbanClient) Authenticate(ctx context.Context, p *panel.Panel) (*PanelToken, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", p.Username())
	form.Set("password", p.Password())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if _, err := c.api(p, "").doForm(ctx, "authenticate", "/api/admin/token", form, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, invalidf(c.name(), "authenticate", "response has no access token")
	}
	return &PanelToken{Token: resp.AccessToken, ExpiresAt: c.now().Add(c.tokenLifetime)}, nil
}

// CreateUser creates one account carrying a client for every enabled protocol.
func (c *MarzbanClient) CreateUser(ctx context.Context, p *panel.Panel, req CreateUserRequest) (*CreatedUser, error) {
	proxies, creds, err := c.buildProxies()
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"username":                  req.Username,
		"proxies":                   proxies,
		"data_limit":                req.TrafficLimit,
		"data_limit_reset_strategy": "no_reset",
		"status":                    "active",
		"note":                      fmt.Sprintf("key %d", req.KeyID),
	}
	if !req.ExpireAt.IsZero() {
		body["expire"] = req.ExpireAt.Unix()
	}

	var user marzbanUser
	if err := c.api(p, p.Token()).doJSON(ctx, "create_user", http.MethodPost, "/api/user", body, &user); err != nil {
		return nil, err
	}
	if user.Username == "" {
		return nil, invalidf(c.name(), "create_user", "response has no username")
	}
	return &CreatedUser{
		SubscriptionURL: absoluteURL(p.APIURL(), user.SubscriptionURL),
		Credentials:     creds,
	}, nil
}

func (c *MarzbanClient) DeleteUser(ctx context.Context, p *panel.Panel, u *panel.ServerUser) error {
	err := c.api(p, p.Token()).doJSON(ctx, "delete_user", http.MethodDelete, "/api/user/"+url.PathEscape(u.Username()), nil, nil)
	if err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

func (c *MarzbanClient) GetUsage(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*UserUsage, error) {
	user, err := c.getUser(ctx, p, u.Username())
	if err != nil {
		return nil, err
	}

	usage := &UserUsage{
		Used:            user.UsedTraffic,
		Online:          c.isOnline(user.OnlineAt),
		SubscriptionURL: absoluteURL(p.APIURL(), user.SubscriptionURL),
	}
	if user.DataLimit != nil {
		usage.Limit = *user.DataLimit
	}
	if user.Expire != nil && *user.Expire > 0 {
		usage.ExpireAt = time.Unix(*user.Expire, 0).UTC()
	}
	return usage, nil
}

// CheckOnline reports presence only; Marzban does not expose client addresses.
func (c *MarzbanClient) CheckOnline(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*OnlineStatus, error) {
	user, err := c.getUser(ctx, p, u.Username())
	if err != nil {
		return nil, err
	}
	return &OnlineStatus{Online: c.isOnline(user.OnlineAt)}, nil
}

func (c *MarzbanClient) getUser(ctx context.Context, p *panel.Panel, username string) (*marzbanUser, error) {
	var user marzbanUser
	if err := c.api(p, p.Token()).doJSON(ctx, "get_user", http.MethodGet, "/api/user/"+url.PathEscape(username), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *MarzbanClient) buildProxies() (map[string]map[string]string, panel.Credentials, error) {
	proxies := make(map[string]map[string]string, len(c.protocols))
	for _, proto := range c.protocols {
		switch proto {
		case "vless", "vmess":
			proxies[proto] = map[string]string{"id": uuid.NewString()}
		case "trojan":
			secret, err := id.NewSecret()
			if err != nil {
				return nil, nil, err
			}
			proxies[proto] = map[string]string{"password": secret}
		case "shadowsocks":
			secret, err := id.NewSecret()
			if err != nil {
				return nil, nil, err
			}
			proxies[proto] = map[string]string{"password": secret, "method": marzbanShadowsocksMethod}
		default:
			return nil, nil, invalidf(c.name(), "create_user", "unsupported protocol %q", proto)
		}
	}

	creds := make(panel.Credentials, len(proxies))
	for proto, params := range proxies {
		creds[proto] = params
	}
	return proxies, creds, nil
}

func (c *MarzbanClient) isOnline(onlineAt *string) bool {
	if onlineAt == nil || *onlineAt == "" {
		return false
	}
	seen, ok := parseMarzbanTime(*onlineAt)
	if !ok {
		return false
	}
	return c.now().Sub(seen) <= marzbanOnlineWindow
}

func (c *MarzbanClient) api(p *panel.Panel, token string) *apiClient {
	var authorize func(*http.Request)
	if token != "" {
		authorize = func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return newAPIClient(c.name(), p.APIURL(), c.httpClient, c.metrics, authorize)
}

func (c *MarzbanClient) name() string { return string(panel.TypeMarzban) }

// Marzban serialises naive UTC timestamps, with or without fractions.
func parseMarzbanTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// absoluteURL resolves a panel-relative link against the panel's base URL.
func absoluteURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	u, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return u.Scheme + "://" + u.Host + "/" + strings.TrimLeft(ref, "/")
}
