package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/config"
	"github.com/orris-inc/keyhub/internal/shared/id"
)

const (
	xuiInboundPrefix = "inbound:"
	xuiNoIPRecord    = "No IP Record"
	xuiDefaultScheme = "https"
)

// XUIClient talks to the 3x-ui panel API. The admin session is a cookie; its
// "name=value" form is stored as the panel token.
type XUIClient struct {
	httpClient       *http.Client
	metrics          *metrics.Metrics
	inboundIDs       []int
	subscriptionPort int
	scheme           string
	tokenLifetime    time.Duration
	now              func() time.Time
}

type xuiEnvelope struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

type xuiClient struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	LimitIP    int    `json:"limitIp"`
	TotalGB    int64  `json:"totalGB"`
	ExpiryTime int64  `json:"expiryTime"`
	Enable     bool   `json:"enable"`
	SubID      string `json:"subId"`
	Flow       string `json:"flow"`
	TgID       string `json:"tgId"`
}

type xuiTraffic struct {
	Email      string `json:"email"`
	Up         int64  `json:"up"`
	Down       int64  `json:"down"`
	Total      int64  `json:"total"`
	ExpiryTime int64  `json:"expiryTime"`
	Enable     bool   `json:"enable"`
}

func NewXUIClient(cfg config.PanelTypeConfig, tokenLifetime time.Duration, httpClient *http.Client, m *metrics.Metrics) *XUIClient {
	inbounds := cfg.InboundIDs
	if len(inbounds) == 0 {
		inbounds = []int{1}
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = xuiDefaultScheme
	}
	return &XUIClient{
		httpClient:       httpClient,
		metrics:          m,
		inboundIDs:       inbounds,
		subscriptionPort: cfg.SubscriptionPort,
		scheme:           scheme,
		tokenLifetime:    tokenLifetime,
		now:              time.Now,
	}
}

func (c *XUIClient) Type() panel.Type { return panel.TypeXUI }

func (c *XUIClient) Authenticate(ctx context.Context, p *panel.Panel) (*PanelToken, error) {
	form := url.Values{}
	form.Set("username", p.Username())
	form.Set("password", p.Password())

	var env xuiEnvelope
	resp, err := c.api(p, "").doForm(ctx, "authenticate", "/login", form, &env)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, invalidf(c.name(), "authenticate", "login rejected: %s", env.Msg)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Value != "" {
			return &PanelToken{
				Token:     cookie.Name + "=" + cookie.Value,
				ExpiresAt: c.now().Add(c.tokenLifetime),
			}, nil
		}
	}
	return nil, invalidf(c.name(), "authenticate", "login returned no session cookie")
}

// CreateUser adds a vless client to every configured inbound. All clients
// share one subscription id so a single link lists them.
func (c *XUIClient) CreateUser(ctx context.Context, p *panel.Panel, req CreateUserRequest) (*CreatedUser, error) {
	subID, err := id.Generate(16)
	if err != nil {
		return nil, err
	}

	var expiry int64
	if !req.ExpireAt.IsZero() {
		expiry = req.ExpireAt.UnixMilli()
	}

	api := c.api(p, p.Token())
	creds := make(panel.Credentials, len(c.inboundIDs))
	for i, inboundID := range c.inboundIDs {
		client := xuiClient{
			ID:         uuid.NewString(),
			Email:      clientEmail(req.Username, inboundID, i),
			LimitIP:    req.ConnectionLimit,
			TotalGB:    req.TrafficLimit,
			ExpiryTime: expiry,
			Enable:     true,
			SubID:      subID,
		}
		settings, err := json.Marshal(map[string][]xuiClient{"clients": {client}})
		if err != nil {
			return nil, invalidf(c.name(), "create_user", "failed to encode client settings: %v", err)
		}

		body := map[string]interface{}{"id": inboundID, "settings": string(settings)}
		var env xuiEnvelope
		if err := api.doJSON(ctx, "create_user", http.MethodPost, "/panel/api/inbounds/addClient", body, &env); err != nil {
			return nil, err
		}
		if !env.Success {
			return nil, invalidf(c.name(), "create_user", "inbound %d rejected client: %s", inboundID, env.Msg)
		}
		creds[xuiInboundPrefix+strconv.Itoa(inboundID)] = map[string]string{"id": client.ID, "email": client.Email}
	}

	return &CreatedUser{SubscriptionURL: c.subscriptionURL(p, subID), Credentials: creds}, nil
}

func (c *XUIClient) DeleteUser(ctx context.Context, p *panel.Panel, u *panel.ServerUser) error {
	api := c.api(p, p.Token())
	for inboundID, client := range inboundClients(u.Credentials()) {
		path := fmt.Sprintf("/panel/api/inbounds/%d/delClient/%s", inboundID, url.PathEscape(client["id"]))
		var env xuiEnvelope
		if err := api.doJSON(ctx, "delete_user", http.MethodPost, path, nil, &env); err != nil {
			if IsNotFound(err) {
				continue
			}
			return err
		}
		if !env.Success && !strings.Contains(strings.ToLower(env.Msg), "not found") {
			return invalidf(c.name(), "delete_user", "inbound %d: %s", inboundID, env.Msg)
		}
	}
	return nil
}

func (c *XUIClient) GetUsage(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*UserUsage, error) {
	api := c.api(p, p.Token())
	usage := &UserUsage{SubscriptionURL: u.SubscriptionURL()}

	for _, email := range clientEmails(u.Credentials()) {
		var env xuiEnvelope
		if err := api.doJSON(ctx, "get_usage", http.MethodGet, "/panel/api/inbounds/getClientTraffics/"+url.PathEscape(email), nil, &env); err != nil {
			return nil, err
		}
		if !env.Success {
			return nil, invalidf(c.name(), "get_usage", "%s", env.Msg)
		}
		var t xuiTraffic
		if err := json.Unmarshal(env.Obj, &t); err != nil {
			return nil, InvalidResponse(c.name(), "get_usage", 0, fmt.Errorf("failed to decode traffic: %w", err))
		}
		usage.Used += t.Up + t.Down
		if t.Total > usage.Limit {
			usage.Limit = t.Total
		}
		if t.ExpiryTime > 0 {
			usage.ExpireAt = time.UnixMilli(t.ExpiryTime).UTC()
		}
	}

	online, err := c.onlineEmails(ctx, api)
	if err != nil {
		return nil, err
	}
	for _, email := range clientEmails(u.Credentials()) {
		if online[email] {
			usage.Online = true
			break
		}
	}
	return usage, nil
}

// CheckOnline merges the recorded client addresses of every inbound client.
func (c *XUIClient) CheckOnline(ctx context.Context, p *panel.Panel, u *panel.ServerUser) (*OnlineStatus, error) {
	api := c.api(p, p.Token())
	online, err := c.onlineEmails(ctx, api)
	if err != nil {
		return nil, err
	}

	status := &OnlineStatus{}
	seen := make(map[string]struct{})
	for _, email := range clientEmails(u.Credentials()) {
		if !online[email] {
			continue
		}
		status.Online = true

		var env xuiEnvelope
		if err := api.doJSON(ctx, "client_ips", http.MethodPost, "/panel/api/inbounds/clientIps/"+url.PathEscape(email), nil, &env); err != nil {
			return nil, err
		}
		ips, err := parseClientIPs(env.Obj)
		if err != nil {
			return nil, InvalidResponse(c.name(), "client_ips", 0, err)
		}
		for _, ip := range ips {
			if _, ok := seen[ip]; !ok {
				seen[ip] = struct{}{}
				status.IPs = append(status.IPs, ip)
			}
		}
	}
	sort.Strings(status.IPs)
	return status, nil
}

func (c *XUIClient) onlineEmails(ctx context.Context, api *apiClient) (map[string]bool, error) {
	var env xuiEnvelope
	if err := api.doJSON(ctx, "onlines", http.MethodPost, "/panel/api/inbounds/onlines", nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, invalidf(c.name(), "onlines", "%s", env.Msg)
	}
	var emails []string
	if len(env.Obj) > 0 && string(env.Obj) != "null" {
		if err := json.Unmarshal(env.Obj, &emails); err != nil {
			return nil, InvalidResponse(c.name(), "onlines", 0, fmt.Errorf("failed to decode online list: %w", err))
		}
	}
	online := make(map[string]bool, len(emails))
	for _, e := range emails {
		online[e] = true
	}
	return online, nil
}

func (c *XUIClient) subscriptionURL(p *panel.Panel, subID string) string {
	u, err := url.Parse(p.APIURL())
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := u.Hostname()
	if c.subscriptionPort > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(c.subscriptionPort))
	}
	return fmt.Sprintf("%s://%s/sub/%s", c.scheme, host, subID)
}

func (c *XUIClient) api(p *panel.Panel, session string) *apiClient {
	var authorize func(*http.Request)
	if session != "" {
		authorize = func(req *http.Request) {
			req.Header.Set("Cookie", session)
		}
	}
	return newAPIClient(c.name(), p.APIURL(), c.httpClient, c.metrics, authorize)
}

func (c *XUIClient) name() string { return string(panel.TypeXUI) }

// 3x-ui requires emails to be unique across inbounds.
func clientEmail(username string, inboundID, index int) string {
	if index == 0 {
		return username
	}
	return fmt.Sprintf("%s-%d", username, inboundID)
}

func inboundClients(creds panel.Credentials) map[int]map[string]string {
	out := make(map[int]map[string]string)
	for k, v := range creds {
		raw, ok := strings.CutPrefix(k, xuiInboundPrefix)
		if !ok {
			continue
		}
		inboundID, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		out[inboundID] = v
	}
	return out
}

func clientEmails(creds panel.Credentials) []string {
	clients := inboundClients(creds)
	ids := make([]int, 0, len(clients))
	for inboundID := range clients {
		ids = append(ids, inboundID)
	}
	sort.Ints(ids)

	emails := make([]string, 0, len(ids))
	for _, inboundID := range ids {
		if e := clients[inboundID]["email"]; e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}

// parseClientIPs accepts the list form, including entries suffixed with a
// timestamp ("1.2.3.4 (2024-01-01 10:00:00)"), and the "No IP Record" string.
func parseClientIPs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" || text == xuiNoIPRecord {
			return nil, nil
		}
		var nested []string
		if err := json.Unmarshal([]byte(text), &nested); err == nil {
			return trimIPs(nested), nil
		}
		return nil, fmt.Errorf("unexpected client ips: %q", text)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode client ips: %w", err)
	}
	return trimIPs(list), nil
}

func trimIPs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		ip, _, _ := strings.Cut(strings.TrimSpace(s), " ")
		if ip != "" {
			out = append(out, ip)
		}
	}
	return out
}
