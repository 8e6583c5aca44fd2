package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/security"
)

// Config is the full runtime configuration. Build it with Default or Load;
// both return a validated value.
type Config struct {
	Environment   string               `yaml:"environment"`
	Enabled       bool                 `yaml:"enabled"`
	Sensitivity   security.Sensitivity `yaml:"sensitivity"`
	Owners        []string             `yaml:"owners"`
	Modules       ModulesConfig        `yaml:"modules"`
	Actions       map[string]string    `yaml:"actions"`
	Engine        EngineConfig         `yaml:"engine"`
	Reputation    ReputationConfig     `yaml:"reputation"`
	RateLimit     RateLimitConfig      `yaml:"rate_limit"`
	Notifications NotificationConfig   `yaml:"notifications"`
	Logging       LoggingConfig        `yaml:"logging"`
	Database      DatabaseConfig       `yaml:"database"`
	Queue         QueueConfig          `yaml:"queue"`
	HTTP          HTTPConfig           `yaml:"http"`
	GeoIP         GeoIPConfig          `yaml:"geoip"`
}

// ModuleConfig toggles one detection module. An empty Sensitivity inherits
// the global level.
type ModuleConfig struct {
	Enabled     bool                 `yaml:"enabled"`
	Sensitivity security.Sensitivity `yaml:"sensitivity"`
}

// ModulesConfig has one field per detection module so partial YAML only
// overrides the keys it names.
type ModulesConfig struct {
	PromptInjection ModuleConfig `yaml:"prompt_injection"`
	Command         ModuleConfig `yaml:"command_validator"`
	URL             ModuleConfig `yaml:"url_validator"`
	Path            ModuleConfig `yaml:"path_validator"`
	Secret          ModuleConfig `yaml:"secret_detector"`
	Content         ModuleConfig `yaml:"content_scanner"`
}

// Get returns the settings for a module by name.
func (m ModulesConfig) Get(name string) (ModuleConfig, bool) {
	switch name {
	case patterns.ModulePromptInjection:
		return m.PromptInjection, true
	case patterns.ModuleCommand:
		return m.Command, true
	case patterns.ModuleURL:
		return m.URL, true
	case patterns.ModulePath:
		return m.Path, true
	case patterns.ModuleSecret:
		return m.Secret, true
	case patterns.ModuleContent:
		return m.Content, true
	}
	return ModuleConfig{}, false
}

type EngineConfig struct {
	ModuleTimeout time.Duration `yaml:"module_timeout"`
}

type PenaltyConfig struct {
	Medium   int `yaml:"medium"`
	High     int `yaml:"high"`
	Critical int `yaml:"critical"`
}

type ReputationConfig struct {
	DefaultTrust      int           `yaml:"default_trust"`
	LowTrustThreshold int           `yaml:"low_trust_threshold"`
	UpgradeTiers      int           `yaml:"upgrade_tiers"`
	RecoveryPerSafe   int           `yaml:"recovery_per_safe"`
	Penalties         PenaltyConfig `yaml:"penalties"`
	// RefreshInterval bounds how long a cached record goes without being
	// reconciled with the backend. Zero never re-reads it.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// CacheSize caps the identities held in memory.
	CacheSize int `yaml:"cache_size"`
	// Backend is "database" or "redis".
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Window            time.Duration `yaml:"window"`
	LockoutThreshold  int           `yaml:"lockout_threshold"`
	LockoutDuration   time.Duration `yaml:"lockout_duration"`
	CacheSize         int           `yaml:"cache_size"`
}

// Channel types understood by the dispatcher.
const (
	ChannelWebhook  = "webhook"
	ChannelSlack    = "slack"
	ChannelDiscord  = "discord"
	ChannelShoutrrr = "shoutrrr"
)

type ChannelConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	// Template overrides the webhook JSON body. Ignored by other types.
	Template string `yaml:"template"`
}

type NotificationConfig struct {
	Enabled       bool              `yaml:"enabled"`
	Threshold     security.Severity `yaml:"threshold"`
	Timeout       time.Duration     `yaml:"timeout"`
	RatePerMinute int               `yaml:"rate_per_minute"`
	Channels      []ChannelConfig   `yaml:"channels"`
}

type LoggingConfig struct {
	Debug             bool   `yaml:"debug"`
	File              string `yaml:"file"`
	MaxSizeMB         int    `yaml:"max_size_mb"`
	MaxBackups        int    `yaml:"max_backups"`
	MaxAgeDays        int    `yaml:"max_age_days"`
	RetentionDays     int    `yaml:"retention_days"`
	RetentionSchedule string `yaml:"retention_schedule"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type QueueConfig struct {
	Size    int `yaml:"size"`
	Workers int `yaml:"workers"`
}

type HTTPConfig struct {
	Port      string `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type GeoIPConfig struct {
	ASNDatabase string `yaml:"asn_database"`
}

// Default returns the built-in configuration.
func Default() Config {
	on := ModuleConfig{Enabled: true}
	actions := make(map[string]string, len(security.Severities))
	for sev, action := range security.DefaultActionPolicy() {
		actions[strings.ToLower(sev.String())] = string(action)
	}
	return Config{
		Environment: "development",
		Enabled:     true,
		Sensitivity: security.SensitivityMedium,
		Owners:      []string{},
		Modules: ModulesConfig{
			PromptInjection: on, Command: on, URL: on, Path: on, Secret: on, Content: on,
		},
		Actions: actions,
		Engine:  EngineConfig{ModuleTimeout: 100 * time.Millisecond},
		Reputation: ReputationConfig{
			DefaultTrust:      50,
			LowTrustThreshold: 20,
			UpgradeTiers:      1,
			RecoveryPerSafe:   1,
			Penalties:         PenaltyConfig{Medium: 2, High: 10, Critical: 25},
			RefreshInterval:   10 * time.Second,
			CacheSize:         10000,
			Backend:           "database",
			Redis:             RedisConfig{Addr: "localhost:6379", Prefix: "sentinel:reputation:"},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			Window:            time.Minute,
			LockoutThreshold:  5,
			LockoutDuration:   15 * time.Minute,
			CacheSize:         10000,
		},
		Notifications: NotificationConfig{
			Enabled:       false,
			Threshold:     security.SeverityHigh,
			Timeout:       10 * time.Second,
			RatePerMinute: 30,
			Channels:      []ChannelConfig{},
		},
		Logging: LoggingConfig{
			MaxSizeMB:         10,
			MaxBackups:        3,
			MaxAgeDays:        28,
			RetentionDays:     90,
			RetentionSchedule: "@daily",
		},
		Database: DatabaseConfig{Path: filepath.Join("data", "sentinel.db")},
		Queue:    QueueConfig{Size: 1024, Workers: 1},
		HTTP:     HTTPConfig{Port: "8080"},
	}
}

// Load applies the YAML file at path (optional) and then environment
// overrides on top of Default, validates the result and makes sure the
// database directory exists.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure data directory: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Environment = getEnv("SENTINEL_ENV", c.Environment)
	c.HTTP.Port = getEnv("SENTINEL_HTTP_PORT", c.HTTP.Port)
	c.Database.Path = getEnv("SENTINEL_DB_PATH", c.Database.Path)
	c.HTTP.JWTSecret = getEnv("SENTINEL_JWT_SECRET", c.HTTP.JWTSecret)
	if addr := getEnv("SENTINEL_REDIS_ADDR", ""); addr != "" {
		c.Reputation.Redis.Addr = addr
		c.Reputation.Backend = "redis"
	}
	if raw := getEnv("SENTINEL_ENABLED", ""); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return security.NewPreconditionError("load config", "SENTINEL_ENABLED", fmt.Sprintf("not a boolean: %q", raw))
		}
		c.Enabled = enabled
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

// ModuleSensitivity resolves the effective sensitivity for a module.
func (c Config) ModuleSensitivity(name string) security.Sensitivity {
	if m, ok := c.Modules.Get(name); ok && m.Sensitivity != "" {
		return m.Sensitivity
	}
	return c.Sensitivity
}

// ActionPolicy converts the validated action mapping into typed form.
func (c Config) ActionPolicy() (map[security.Severity]security.Action, error) {
	policy := make(map[security.Severity]security.Action, len(c.Actions))
	for key, value := range c.Actions {
		sev, err := security.ParseSeverity(key)
		if err != nil {
			return nil, err
		}
		action, err := security.ParseAction(value)
		if err != nil {
			return nil, err
		}
		policy[sev] = action
	}
	for _, sev := range security.Severities {
		if _, ok := policy[sev]; !ok {
			return nil, security.NewPreconditionError("load config", "actions", fmt.Sprintf("no action for %s", sev))
		}
	}
	return policy, nil
}

// Validate checks every enum and numeric field. All problems are reported
// together.
func (c Config) Validate() error {
	var errs []error
	bad := func(field, reason string) {
		errs = append(errs, security.NewPreconditionError("validate config", field, reason))
	}

	if !c.Sensitivity.Valid() {
		bad("sensitivity", fmt.Sprintf("unknown sensitivity %q", c.Sensitivity))
	}
	for _, name := range patterns.Modules() {
		m, _ := c.Modules.Get(name)
		if m.Sensitivity != "" && !m.Sensitivity.Valid() {
			bad("modules."+name+".sensitivity", fmt.Sprintf("unknown sensitivity %q", m.Sensitivity))
		}
	}
	for _, owner := range c.Owners {
		if strings.TrimSpace(owner) == "" {
			bad("owners", "empty owner id")
		}
	}
	if _, err := c.ActionPolicy(); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.ModuleTimeout <= 0 {
		bad("engine.module_timeout", "must be positive")
	}

	r := c.Reputation
	for field, v := range map[string]int{
		"reputation.default_trust":       r.DefaultTrust,
		"reputation.low_trust_threshold": r.LowTrustThreshold,
	} {
		if v < 0 || v > 100 {
			bad(field, "must be between 0 and 100")
		}
	}
	if r.UpgradeTiers <= 0 {
		bad("reputation.upgrade_tiers", "must be positive")
	}
	if r.RecoveryPerSafe < 0 || r.Penalties.Medium < 0 || r.Penalties.High < 0 || r.Penalties.Critical < 0 {
		bad("reputation.penalties", "must not be negative")
	}
	if r.RefreshInterval < 0 {
		bad("reputation.refresh_interval", "must not be negative")
	}
	if r.CacheSize <= 0 {
		bad("reputation.cache_size", "must be positive")
	}
	switch r.Backend {
	case "database":
	case "redis":
		if r.Redis.Addr == "" {
			bad("reputation.redis.addr", "required for the redis backend")
		}
	default:
		bad("reputation.backend", fmt.Sprintf("unknown backend %q", r.Backend))
	}

	if rl := c.RateLimit; rl.Enabled {
		if rl.RequestsPerMinute <= 0 {
			bad("rate_limit.requests_per_minute", "must be positive")
		}
		if rl.Window <= 0 {
			bad("rate_limit.window", "must be positive")
		}
		if rl.LockoutThreshold <= 0 {
			bad("rate_limit.lockout_threshold", "must be positive")
		}
		if rl.LockoutDuration <= 0 {
			bad("rate_limit.lockout_duration", "must be positive")
		}
		if rl.CacheSize <= 0 {
			bad("rate_limit.cache_size", "must be positive")
		}
	}

	n := c.Notifications
	if !n.Threshold.Valid() {
		bad("notifications.threshold", "unknown severity")
	}
	if n.Timeout <= 0 {
		bad("notifications.timeout", "must be positive")
	}
	if n.RatePerMinute < 0 {
		bad("notifications.rate_per_minute", "must not be negative")
	}
	names := map[string]bool{}
	for i, ch := range n.Channels {
		field := fmt.Sprintf("notifications.channels[%d]", i)
		switch ch.Type {
		case ChannelWebhook, ChannelSlack, ChannelDiscord, ChannelShoutrrr:
		default:
			bad(field+".type", fmt.Sprintf("unknown channel type %q", ch.Type))
		}
		if ch.Name == "" {
			bad(field+".name", "required")
		} else if names[ch.Name] {
			bad(field+".name", fmt.Sprintf("duplicate channel %q", ch.Name))
		}
		names[ch.Name] = true
		if ch.Enabled && ch.URL == "" {
			bad(field+".url", "required when enabled")
		}
	}

	if c.Logging.RetentionDays < 0 {
		bad("logging.retention_days", "must not be negative")
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		bad("logging", "rotation settings must not be negative")
	}
	if c.Database.Path == "" {
		bad("database.path", "required")
	}
	if c.Queue.Size <= 0 {
		bad("queue.size", "must be positive")
	}
	if c.Queue.Workers <= 0 {
		bad("queue.workers", "must be positive")
	}
	return errors.Join(errs...)
}
