package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultServerPort      = 8060
	defaultServerTimeout   = 30
	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5
	defaultRedisAddress    = "localhost:6379"

	defaultUsageThreshold = 3
	defaultScoreThreshold = 30
	defaultRecencyDays    = 180

	defaultFastHalfLifeDays   = 90
	defaultMediumHalfLifeDays = 180
	defaultSlowHalfLifeDays   = 365

	defaultCheckIntervalHours = 24
	defaultProbeTimeout       = 10 * time.Second
	defaultMaxChecksPerRun    = 50

	defaultEnrichBatchSize    = 50
	defaultEnrichWorkers      = 4
	defaultEnrichFetchTimeout = 5 * time.Second

	defaultEnrichSchedule      = "@every 5m"
	defaultRecalculateSchedule = "@daily"
)

type Config struct {
	Debug     bool            `env:"APP_DEBUG" yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Promotion PromotionConfig `yaml:"promotion"`
	Decay     DecayConfig     `yaml:"decay"`
	LinkRot   LinkRotConfig   `yaml:"link_rot"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Jobs      JobsConfig      `yaml:"jobs"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" yaml:"host"`
	Port         int           `env:"SERVER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST"     yaml:"host"`
	Port            int           `env:"DB_PORT"     yaml:"port"`
	User            string        `env:"DB_USER"     yaml:"user"`
	Password        string        `env:"DB_PASSWORD" yaml:"password"`
	DBName          string        `env:"DB_NAME"     yaml:"dbname"`
	SSLMode         string        `env:"DB_SSLMODE"  yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection configuration for transition event publishing.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"` // Feature flag for event publishing
}

// PromotionConfig holds the staging-to-catalog promotion thresholds.
type PromotionConfig struct {
	UsageThreshold int     `env:"PROMOTION_USAGE_THRESHOLD" yaml:"usage_threshold"`
	ScoreThreshold float64 `env:"PROMOTION_SCORE_THRESHOLD" yaml:"score_threshold"`
	RecencyDays    int     `env:"PROMOTION_RECENCY_DAYS"    yaml:"recency_days"`
}

// DecayConfig holds freshness half-lives per decay class, in days.
type DecayConfig struct {
	FastDays   int `yaml:"fast_days"`
	MediumDays int `yaml:"medium_days"`
	SlowDays   int `yaml:"slow_days"`
}

// LinkRotConfig holds liveness probe settings for the link-rot monitor.
type LinkRotConfig struct {
	CheckIntervalHours int           `env:"LINK_ROT_CHECK_INTERVAL_HOURS" yaml:"check_interval_hours"`
	Timeout            time.Duration `env:"LINK_ROT_TIMEOUT"              yaml:"timeout"`
	MaxChecksPerRun    int           `env:"LINK_ROT_MAX_CHECKS"           yaml:"max_checks_per_run"`
}

// EnrichConfig holds inbox enrichment batch settings.
type EnrichConfig struct {
	BatchSize    int           `env:"ENRICH_BATCH_SIZE" yaml:"batch_size"`
	Workers      int           `env:"ENRICH_WORKERS"    yaml:"workers"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// JobsConfig holds cron schedules for the background jobs.
type JobsConfig struct {
	EnrichSchedule      string `yaml:"enrich_schedule"`
	RecalculateSchedule string `yaml:"recalculate_schedule"`
	LinkRotSchedule     string `yaml:"link_rot_schedule"`
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port is required and must be positive")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.Port <= 0 {
		return errors.New("database.port is required and must be positive")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Promotion.UsageThreshold < 1 {
		return errors.New("promotion.usage_threshold must be at least 1")
	}
	if c.Promotion.ScoreThreshold < 0 || c.Promotion.ScoreThreshold > 100 {
		return errors.New("promotion.score_threshold must be within [0,100]")
	}
	if c.Promotion.RecencyDays <= 0 {
		return errors.New("promotion.recency_days must be positive")
	}
	if c.Decay.FastDays <= 0 || c.Decay.MediumDays <= 0 || c.Decay.SlowDays <= 0 {
		return errors.New("decay half-lives must be positive")
	}
	if c.LinkRot.Timeout <= 0 {
		return errors.New("link_rot.timeout must be positive")
	}
	if c.LinkRot.MaxChecksPerRun <= 0 {
		return errors.New("link_rot.max_checks_per_run must be positive")
	}
	if c.Enrich.BatchSize <= 0 {
		return errors.New("enrich.batch_size must be positive")
	}
	if c.Enrich.Workers <= 0 {
		return errors.New("enrich.workers must be positive")
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	setDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{
			"http://localhost:3000", // Catalog dashboard frontend
		}
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDatabasePort
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = defaultConnMaxLifetime * time.Minute
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Promotion.UsageThreshold == 0 {
		cfg.Promotion.UsageThreshold = defaultUsageThreshold
	}
	if cfg.Promotion.ScoreThreshold == 0 {
		cfg.Promotion.ScoreThreshold = defaultScoreThreshold
	}
	if cfg.Promotion.RecencyDays == 0 {
		cfg.Promotion.RecencyDays = defaultRecencyDays
	}
	if cfg.Decay.FastDays == 0 {
		cfg.Decay.FastDays = defaultFastHalfLifeDays
	}
	if cfg.Decay.MediumDays == 0 {
		cfg.Decay.MediumDays = defaultMediumHalfLifeDays
	}
	if cfg.Decay.SlowDays == 0 {
		cfg.Decay.SlowDays = defaultSlowHalfLifeDays
	}
	if cfg.LinkRot.CheckIntervalHours == 0 {
		cfg.LinkRot.CheckIntervalHours = defaultCheckIntervalHours
	}
	if cfg.LinkRot.Timeout == 0 {
		cfg.LinkRot.Timeout = defaultProbeTimeout
	}
	if cfg.LinkRot.MaxChecksPerRun == 0 {
		cfg.LinkRot.MaxChecksPerRun = defaultMaxChecksPerRun
	}
	if cfg.Enrich.BatchSize == 0 {
		cfg.Enrich.BatchSize = defaultEnrichBatchSize
	}
	if cfg.Enrich.Workers == 0 {
		cfg.Enrich.Workers = defaultEnrichWorkers
	}
	if cfg.Enrich.FetchTimeout == 0 {
		cfg.Enrich.FetchTimeout = defaultEnrichFetchTimeout
	}
	if cfg.Jobs.EnrichSchedule == "" {
		cfg.Jobs.EnrichSchedule = defaultEnrichSchedule
	}
	if cfg.Jobs.RecalculateSchedule == "" {
		cfg.Jobs.RecalculateSchedule = defaultRecalculateSchedule
	}
	if cfg.Jobs.LinkRotSchedule == "" {
		cfg.Jobs.LinkRotSchedule = fmt.Sprintf("@every %dh", cfg.LinkRot.CheckIntervalHours)
	}
}
