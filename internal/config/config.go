package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================
// MAIN CONFIG
// ============================================================

type Config struct {
	General       GeneralConfig       `yaml:"general"`
	Notifications NotificationsConfig `yaml:"notifications"`
	StatusBar     StatusBarConfig     `yaml:"statusbar"`
	Dashboard     DashboardConfig     `yaml:"web_dashboard"`
	Advanced      AdvancedConfig      `yaml:"advanced"`
}

// ============================================================
// GENERAL CONFIG
// ============================================================

type GeneralConfig struct {
	MinRewards     float64 `yaml:"min_rewards"`
	MinSlashed     float64 `yaml:"min_slashed"`
	MinStakeAmount float64 `yaml:"min_stake_amount"`
	MinPeers       int     `yaml:"min_peers"`
	BufferBlocks   int64   `yaml:"buffer_blocks"`

	AutoStakeRewards        bool `yaml:"auto_stake_rewards"`
	AutoReclaimFullRestakes bool `yaml:"auto_reclaim_full_restakes"`

	PwdVarName string `yaml:"pwd_var_name"`
	UseSudo    bool   `yaml:"use_sudo"`
	EnableTmux bool   `yaml:"enable_tmux"`

	WalletCmd string `yaml:"wallet_cmd"`
	QueryCmd  string `yaml:"query_cmd"`
}

// ============================================================
// NOTIFICATIONS CONFIG
// ============================================================

type NotificationsConfig struct {
	DiscordWebhook   string `yaml:"discord_webhook"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
	PushoverUserKey  string `yaml:"pushover_user_key"`
	PushoverAppToken string `yaml:"pushover_app_token"`
	WebhookURL       string `yaml:"webhook_url"`
}

// Services returns the names of all configured notification channels.
func (n NotificationsConfig) Services() []string {
	var services []string
	if n.DiscordWebhook != "" {
		services = append(services, "Discord")
	}
	if n.TelegramBotToken != "" && n.TelegramChatID != "" {
		services = append(services, "Telegram")
	}
	if n.PushoverUserKey != "" && n.PushoverAppToken != "" {
		services = append(services, "Pushover")
	}
	if n.WebhookURL != "" {
		services = append(services, "Webhook")
	}
	return services
}

// ============================================================
// STATUSBAR CONFIG
// ============================================================

// StatusBarConfig controls which fields appear in the tmux status line.
// Fields are pointers so an omitted key defaults to shown.
type StatusBarConfig struct {
	ShowCurrentBlock *bool `yaml:"show_current_block"`
	ShowStaked       *bool `yaml:"show_staked"`
	ShowPublic       *bool `yaml:"show_public"`
	ShowShielded     *bool `yaml:"show_shielded"`
	ShowTotal        *bool `yaml:"show_total"`
	ShowRewards      *bool `yaml:"show_rewards"`
	ShowReclaimable  *bool `yaml:"show_reclaimable"`
	ShowPrice        *bool `yaml:"show_price"`
	ShowTimer        *bool `yaml:"show_timer"`
	ShowTriggerTime  *bool `yaml:"show_trigger_time"`
	ShowPeerCount    *bool `yaml:"show_peer_count"`
}

// Show reports whether an optional statusbar toggle is enabled.
// A missing key means shown.
func Show(b *bool) bool {
	return b == nil || *b
}

// ============================================================
// WEB DASHBOARD CONFIG
// ============================================================

type DashboardConfig struct {
	EnableDashboard bool   `yaml:"enable_dashboard"`
	DashIP          string `yaml:"dash_ip"`
	DashPort        int    `yaml:"dash_port"`
}

// ============================================================
// ADVANCED CONFIG
// ============================================================

type AdvancedConfig struct {
	SQLitePath    string `yaml:"sqlite_path"`
	ActionLog     string `yaml:"action_log"`
	MetricsPrefix string `yaml:"metrics_prefix"`
	PriceFeedURL  string `yaml:"price_feed_url"`
}

// ============================================================
// LOAD FUNCTION
// ============================================================

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Defaults for the general section
	if cfg.General.MinRewards == 0 {
		cfg.General.MinRewards = 1
	}
	if cfg.General.MinSlashed == 0 {
		cfg.General.MinSlashed = 1
	}
	if cfg.General.MinStakeAmount == 0 {
		cfg.General.MinStakeAmount = 1000
	}
	if cfg.General.MinPeers == 0 {
		cfg.General.MinPeers = 10
	}
	if cfg.General.BufferBlocks == 0 {
		cfg.General.BufferBlocks = 60
	}
	if cfg.General.PwdVarName == "" {
		cfg.General.PwdVarName = "WALLET_PASSWORD"
	}
	if cfg.General.WalletCmd == "" {
		cfg.General.WalletCmd = "rusk-wallet"
	}
	if cfg.General.QueryCmd == "" {
		cfg.General.QueryCmd = "ruskquery"
	}

	if cfg.Dashboard.DashIP == "" {
		cfg.Dashboard.DashIP = "0.0.0.0"
	}
	if cfg.Dashboard.DashPort == 0 {
		cfg.Dashboard.DashPort = 8080
	}

	if cfg.Advanced.ActionLog == "" {
		cfg.Advanced.ActionLog = "actions.log"
	}
	if cfg.Advanced.MetricsPrefix == "" {
		cfg.Advanced.MetricsPrefix = "dusk"
	}

	return &cfg, nil
}

// Password resolves the wallet password from the configured environment
// variable, falling back to WALLET_PASSWORD. The value itself is never logged.
func (c *Config) Password() (string, error) {
	if v := os.Getenv(c.General.PwdVarName); v != "" {
		return v, nil
	}
	if v := os.Getenv("WALLET_PASSWORD"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("wallet password not found in %q or WALLET_PASSWORD", c.General.PwdVarName)
}
