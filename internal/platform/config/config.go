package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed policy into module builders.
type Config struct {
	ServiceName   string        `envconfig:"SERVICE_NAME" default:"collegium"`
	HTTPPort      string        `envconfig:"HTTP_PORT" default:"8080"`
	PostgresDSN   string        `envconfig:"POSTGRES_DSN"`
	DBPingTimeout time.Duration `envconfig:"DB_PING_TIMEOUT" default:"5s"`
	PolicyFile    string        `envconfig:"GOVERNANCE_POLICY_FILE"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
	Debug         bool          `envconfig:"DEBUG"`

	Policy Policy `ignored:"true"`
}

// Policy holds the governance knobs that must never live as module-level
// constants. Values can be overridden per college deployment via a YAML file.
type Policy struct {
	Quorum                     int `yaml:"quorum"`
	MinRosterSize              int `yaml:"min_roster_size"`
	SpecialtyFallbackThreshold int `yaml:"specialty_fallback_threshold"`
	CooldownDays               int `yaml:"cooldown_days"`
	RoundDurationDays          int `yaml:"round_duration_days"`
	ReminderStaleDays          int `yaml:"reminder_stale_days"`
	PostponementNoticeDays     int `yaml:"postponement_notice_days"`
}

func DefaultPolicy() Policy {
	return Policy{
		Quorum:                     3,
		MinRosterSize:              6,
		SpecialtyFallbackThreshold: 5,
		CooldownDays:               730,
		RoundDurationDays:          14,
		ReminderStaleDays:          14,
		PostponementNoticeDays:     7,
	}
}

func (p Policy) Cooldown() time.Duration {
	return time.Duration(p.CooldownDays) * 24 * time.Hour
}

func (p Policy) RoundDuration() time.Duration {
	return time.Duration(p.RoundDurationDays) * 24 * time.Hour
}

func (p Policy) ReminderStaleAfter() time.Duration {
	return time.Duration(p.ReminderStaleDays) * 24 * time.Hour
}

func (p Policy) PostponementNotice() time.Duration {
	return time.Duration(p.PostponementNoticeDays) * 24 * time.Hour
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment config: %w", err)
	}

	cfg.Policy = DefaultPolicy()
	if cfg.PolicyFile != "" {
		raw, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			return Config{}, fmt.Errorf("read governance policy file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg.Policy); err != nil {
			return Config{}, fmt.Errorf("parse governance policy file: %w", err)
		}
	}
	if err := cfg.Policy.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (p Policy) validate() error {
	if p.Quorum < 1 {
		return fmt.Errorf("governance policy: quorum must be at least 1, got %d", p.Quorum)
	}
	if p.MinRosterSize < p.Quorum {
		return fmt.Errorf(
			"governance policy: min_roster_size %d below quorum %d",
			p.MinRosterSize, p.Quorum,
		)
	}
	if p.CooldownDays < 0 || p.RoundDurationDays < 1 {
		return fmt.Errorf("governance policy: invalid durations")
	}
	return nil
}
