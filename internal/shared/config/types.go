package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	BaseURL  string `mapstructure:"base_url"`
	Timezone string `mapstructure:"timezone"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is either "mysql" or "sqlite".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	// SourceLevels is "all" or "warn" (warn and error only).
	SourceLevels string `mapstructure:"source_levels"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type TelegramConfig struct {
	DefaultBotToken string        `mapstructure:"default_bot_token"`
	APIEndpoint     string        `mapstructure:"api_endpoint"`
	SendTimeout     time.Duration `mapstructure:"send_timeout"`
	DefaultLang     string        `mapstructure:"default_lang"`
}

type ActivationConfig struct {
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
	LockWait time.Duration `mapstructure:"lock_wait"`
}

type ViolationConfig struct {
	Cooldown               time.Duration `mapstructure:"cooldown"`
	MaxNotificationRetries int           `mapstructure:"max_notification_retries"`
	CheckInterval          time.Duration `mapstructure:"check_interval"`
	SupportURL             string        `mapstructure:"support_url"`

	// Report limits apply per client IP on the report endpoint, and only with Redis.
	ReportsPerMinute int `mapstructure:"reports_per_minute"`
	ReportsPerHour   int `mapstructure:"reports_per_hour"`
}

type BatchConfig struct {
	PaymentWindow time.Duration `mapstructure:"payment_window"`
}

type HetznerConfig struct {
	Token      string `mapstructure:"token"`
	BaseURL    string `mapstructure:"base_url"`
	ServerType string `mapstructure:"server_type"`
	FreeType   string `mapstructure:"free_type"`
	Image      string `mapstructure:"image"`
}

type VultrConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Plan     string `mapstructure:"plan"`
	FreePlan string `mapstructure:"free_plan"`
	OSID     int    `mapstructure:"os_id"`
}

type CloudflareConfig struct {
	APIToken   string `mapstructure:"api_token"`
	BaseURL    string `mapstructure:"base_url"`
	ZoneID     string `mapstructure:"zone_id"`
	BaseDomain string `mapstructure:"base_domain"`
	Proxied    bool   `mapstructure:"proxied"`
}

type SSHConfig struct {
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

type ProvidersConfig struct {
	RequestTimeout time.Duration    `mapstructure:"request_timeout"`
	Hetzner        HetznerConfig    `mapstructure:"hetzner"`
	Vultr          VultrConfig      `mapstructure:"vultr"`
	Cloudflare     CloudflareConfig `mapstructure:"cloudflare"`
	SSH            SSHConfig        `mapstructure:"ssh"`
}

type PanelTypeConfig struct {
	InstallCommand   string   `mapstructure:"install_command"`
	Port             int      `mapstructure:"port"`
	Scheme           string   `mapstructure:"scheme"`
	BasePath         string   `mapstructure:"base_path"`
	SubscriptionPort int      `mapstructure:"subscription_port"`
	Protocols        []string `mapstructure:"protocols"`
	InboundIDs       []int    `mapstructure:"inbound_ids"`
}

type PanelsConfig struct {
	TokenLifetime time.Duration   `mapstructure:"token_lifetime"`
	TokenMargin   time.Duration   `mapstructure:"token_margin"`
	Marzban       PanelTypeConfig `mapstructure:"marzban"`
	XUI           PanelTypeConfig `mapstructure:"xui"`
}

type SchedulerConfig struct {
	KeyExpireInterval   time.Duration `mapstructure:"key_expire_interval"`
	BatchExpireInterval time.Duration `mapstructure:"batch_expire_interval"`
	RetryInterval       time.Duration `mapstructure:"retry_interval"`
	ReconcileInterval   time.Duration `mapstructure:"reconcile_interval"`
	JobTimeout          time.Duration `mapstructure:"job_timeout"`
}
