// Package config provides YAML-based configuration loading for Shiftbot.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Shiftbot configuration, loaded from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Line   LineConfig   `yaml:"line"`
	DB     DBConfig     `yaml:"db"`
	Admin  AdminConfig  `yaml:"admin"`
	Alerts AlertsConfig `yaml:"alerts"`
	Dialog DialogConfig `yaml:"dialog"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LineConfig holds LINE Messaging API credentials. ChannelSecret signs
// inbound webhooks; ChannelAccessToken authorizes outbound replies. When
// ChannelAccessToken is empty and ChannelID/ChannelSecret are set, a token
// is issued via the channel OAuth endpoint instead.
type LineConfig struct {
	ChannelID          string `yaml:"channel_id"`
	ChannelSecret      string `yaml:"channel_secret"`
	ChannelAccessToken string `yaml:"channel_access_token"`
}

// DBConfig holds database connection settings. Driver is "mysql" or
// "sqlite"; Path is only used by the sqlite driver.
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"`
}

// AdminConfig holds bootstrap credentials and token settings for the
// management API.
type AdminConfig struct {
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	JWTSecret      string `yaml:"jwt_secret"`
	TokenTTLMinute int    `yaml:"token_ttl_minutes"`
}

// AlertsConfig configures the operator alert channels. Both are optional;
// an empty token disables that channel.
type AlertsConfig struct {
	Slack   SlackAlertConfig   `yaml:"slack"`
	Discord DiscordAlertConfig `yaml:"discord"`
}

// SlackAlertConfig holds Slack alert delivery settings.
type SlackAlertConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// DiscordAlertConfig holds Discord alert delivery settings.
type DiscordAlertConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// DialogConfig controls conversation state housekeeping. CleanupSchedule is
// a 5-field cron expression; StateTTLHours is the idle age after which a
// dialog state is swept.
type DialogConfig struct {
	CleanupSchedule string `yaml:"cleanup_schedule"`
	StateTTLHours   int    `yaml:"state_ttl_hours"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "mysql"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.DB.Database == "" {
		c.DB.Database = "shiftbot"
	}
	if c.DB.Path == "" {
		c.DB.Path = "shiftbot.db"
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}
	if c.Admin.TokenTTLMinute == 0 {
		c.Admin.TokenTTLMinute = 60
	}
	if c.Dialog.CleanupSchedule == "" {
		c.Dialog.CleanupSchedule = "0 * * * *"
	}
	if c.Dialog.StateTTLHours == 0 {
		c.Dialog.StateTTLHours = 24
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("db.driver %q is not supported (mysql, sqlite)", c.DB.Driver))
	}
	if c.Line.ChannelAccessToken == "" && c.Line.ChannelID == "" {
		errs = append(errs, "line.channel_access_token or line.channel_id is required")
	}
	if c.Admin.JWTSecret == "" {
		errs = append(errs, "admin.jwt_secret is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
