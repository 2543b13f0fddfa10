package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "general:\n  auto_stake_rewards: true\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := cfg.General
	if g.MinRewards != 1 || g.MinSlashed != 1 || g.MinStakeAmount != 1000 {
		t.Fatalf("thresholds = %v/%v/%v", g.MinRewards, g.MinSlashed, g.MinStakeAmount)
	}
	if g.MinPeers != 10 || g.BufferBlocks != 60 {
		t.Fatalf("peers/buffer = %d/%d", g.MinPeers, g.BufferBlocks)
	}
	if g.PwdVarName != "WALLET_PASSWORD" || g.WalletCmd != "rusk-wallet" || g.QueryCmd != "ruskquery" {
		t.Fatalf("commands = %q/%q/%q", g.PwdVarName, g.WalletCmd, g.QueryCmd)
	}
	if !g.AutoStakeRewards {
		t.Fatal("explicit auto_stake_rewards lost")
	}
	if cfg.Dashboard.DashIP != "0.0.0.0" || cfg.Dashboard.DashPort != 8080 {
		t.Fatalf("dashboard = %s:%d", cfg.Dashboard.DashIP, cfg.Dashboard.DashPort)
	}
	if cfg.Advanced.ActionLog != "actions.log" || cfg.Advanced.MetricsPrefix != "dusk" {
		t.Fatalf("advanced = %q/%q", cfg.Advanced.ActionLog, cfg.Advanced.MetricsPrefix)
	}
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
general:
  min_rewards: 2.5
  buffer_blocks: 120
  wallet_cmd: /opt/dusk/rusk-wallet
web_dashboard:
  dash_port: 9090
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.General.MinRewards != 2.5 || cfg.General.BufferBlocks != 120 {
		t.Fatalf("general = %+v", cfg.General)
	}
	if cfg.General.WalletCmd != "/opt/dusk/rusk-wallet" {
		t.Fatalf("wallet_cmd = %q", cfg.General.WalletCmd)
	}
	if cfg.Dashboard.DashPort != 9090 {
		t.Fatalf("dash_port = %d", cfg.Dashboard.DashPort)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "general: [broken")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestShow_NilDefaultsToShown(t *testing.T) {
	var sb StatusBarConfig
	if !Show(sb.ShowStaked) {
		t.Fatal("omitted toggle should be shown")
	}
	off := false
	sb.ShowStaked = &off
	if Show(sb.ShowStaked) {
		t.Fatal("explicit false should hide")
	}
}

func TestServices(t *testing.T) {
	n := NotificationsConfig{
		DiscordWebhook:   "https://discord.example/hook",
		TelegramBotToken: "token",
		// Incomplete Telegram pair stays disabled.
	}
	got := n.Services()
	if len(got) != 1 || got[0] != "Discord" {
		t.Fatalf("services = %v, want [Discord]", got)
	}
}

func TestPassword_FromConfiguredVariable(t *testing.T) {
	cfg := &Config{}
	cfg.General.PwdVarName = "DUSK_TEST_PWD"
	t.Setenv("DUSK_TEST_PWD", "hunter2")

	pwd, err := cfg.Password()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pwd != "hunter2" {
		t.Fatalf("password = %q", pwd)
	}
}

func TestPassword_Missing(t *testing.T) {
	cfg := &Config{}
	cfg.General.PwdVarName = "DUSK_TEST_PWD_UNSET"
	t.Setenv("WALLET_PASSWORD", "")

	if _, err := cfg.Password(); err == nil {
		t.Fatal("expected error when no password variable is set")
	}
}
