// Package config loads the bot's runtime configuration from a YAML file
// with environment-variable overrides. A .env file in the working
// directory is honored for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	Redis   RedisConfig   `yaml:"redis"`
	Profile ProfileConfig `yaml:"profile"`
	Ops     OpsConfig     `yaml:"ops"`
	Tasks   TasksConfig   `yaml:"tasks"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DiscordConfig configures the chat platform connection.
type DiscordConfig struct {
	Token string `yaml:"token"`

	// HomeGuildID is the operator's own community; onboarding elsewhere
	// offers a profile there too.
	HomeGuildID string `yaml:"home_guild_id"`
}

// RedisConfig configures the conversation state store.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`

	// DistributedLock enables the Redis-backed per-user lock for
	// multi-replica deployments.
	DistributedLock bool `yaml:"distributed_lock"`
}

// ProfileConfig configures the external profile backend.
type ProfileConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`

	// ReportFormFmt formats a guild ID into the contribution reporting
	// form URL used when a guild carries no explicit report link.
	ReportFormFmt string `yaml:"report_form_fmt"`
}

// OpsConfig configures the operator HTTP surface.
type OpsConfig struct {
	Addr string `yaml:"addr"`
}

// TasksConfig configures the periodic jobs.
type TasksConfig struct {
	WeeklyReport WeeklyReportConfig `yaml:"weekly_report"`
}

// WeeklyReportConfig configures the weekly contribution summary.
type WeeklyReportConfig struct {
	Enabled   bool     `yaml:"enabled"`
	ChannelID string   `yaml:"channel_id"`
	GuildIDs  []string `yaml:"guild_ids"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() Config {
	return Config{
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Profile: ProfileConfig{
			Timeout:       10 * time.Second,
			ReportFormFmt: "https://airtable.com/shrBpLX3q2Ts6PyNz?prefill_DAO=%s",
		},
		Ops: OpsConfig{
			Addr: ":9090",
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path (missing file means defaults), loads a
// .env if present, and applies environment overrides on top.
func Load(path string) (Config, error) {
	godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Env-only configuration is fine.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Validate checks the fields the bot cannot run without. Offline commands
// (session inspection) skip this.
func (c Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("config: discord token is required (DISCORD_TOKEN)")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Discord.Token, "DISCORD_TOKEN")
	setString(&cfg.Discord.HomeGuildID, "HOME_GUILD_ID")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Profile.BaseURL, "PROFILE_API_URL")
	setString(&cfg.Profile.APIKey, "PROFILE_API_KEY")
	setString(&cfg.Ops.Addr, "OPS_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
