package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/keyhub/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	Telegram   sharedConfig.TelegramConfig   `mapstructure:"telegram"`
	Activation sharedConfig.ActivationConfig `mapstructure:"activation"`
	Violation  sharedConfig.ViolationConfig  `mapstructure:"violation"`
	Batch      sharedConfig.BatchConfig      `mapstructure:"batch"`
	Providers  sharedConfig.ProvidersConfig  `mapstructure:"providers"`
	Panels     sharedConfig.PanelsConfig     `mapstructure:"panels"`
	Scheduler  sharedConfig.SchedulerConfig  `mapstructure:"scheduler"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (or configPath when set) and KEYHUB_* environment variables.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("KEYHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults and environment variables still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "keyhub")
	v.SetDefault("database.path", "keyhub.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.source_levels", "warn")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("telegram.send_timeout", "15s")
	v.SetDefault("telegram.default_lang", "ru")

	v.SetDefault("activation.lock_ttl", "2m")
	v.SetDefault("activation.lock_wait", "30s")

	v.SetDefault("violation.cooldown", "10m")
	v.SetDefault("violation.max_notification_retries", 5)
	v.SetDefault("violation.check_interval", "5m")
	v.SetDefault("violation.reports_per_minute", 120)
	v.SetDefault("violation.reports_per_hour", 0)

	v.SetDefault("batch.payment_window", "30m")

	v.SetDefault("providers.request_timeout", "30s")
	v.SetDefault("providers.hetzner.base_url", "https://api.hetzner.cloud/v1")
	v.SetDefault("providers.hetzner.server_type", "cx22")
	v.SetDefault("providers.hetzner.free_type", "cx22")
	v.SetDefault("providers.hetzner.image", "ubuntu-22.04")
	v.SetDefault("providers.vultr.base_url", "https://api.vultr.com")
	v.SetDefault("providers.vultr.plan", "vc2-1c-1gb")
	v.SetDefault("providers.vultr.free_plan", "vc2-1c-0.5gb")
	v.SetDefault("providers.vultr.os_id", 1743)
	v.SetDefault("providers.cloudflare.base_url", "https://api.cloudflare.com/client/v4")
	v.SetDefault("providers.ssh.port", 22)
	v.SetDefault("providers.ssh.user", "root")
	v.SetDefault("providers.ssh.connect_timeout", "20s")
	v.SetDefault("providers.ssh.command_timeout", "15m")

	v.SetDefault("panels.token_lifetime", "24h")
	v.SetDefault("panels.token_margin", "10m")
	v.SetDefault("panels.marzban.port", 8000)
	v.SetDefault("panels.marzban.scheme", "https")
	v.SetDefault("panels.marzban.protocols", []string{"vless", "vmess", "trojan", "shadowsocks"})
	v.SetDefault("panels.marzban.install_command", "bash -c \"$(curl -sL https://github.com/Gozargah/Marzban-scripts/raw/master/marzban.sh)\" @ install --answers /root/keyhub-panel.yaml")
	v.SetDefault("panels.xui.port", 2053)
	v.SetDefault("panels.xui.scheme", "https")
	v.SetDefault("panels.xui.inbound_ids", []int{1})
	v.SetDefault("panels.xui.subscription_port", 2096)
	v.SetDefault("panels.xui.install_command", "bash <(curl -Ls https://raw.githubusercontent.com/mhsanaei/3x-ui/master/install.sh) --answers /root/keyhub-panel.yaml")

	v.SetDefault("scheduler.key_expire_interval", "1h")
	v.SetDefault("scheduler.batch_expire_interval", "10m")
	v.SetDefault("scheduler.retry_interval", "10m")
	v.SetDefault("scheduler.reconcile_interval", "5m")
	v.SetDefault("scheduler.job_timeout", "10m")
}
