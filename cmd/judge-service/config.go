package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"codejudge/internal/common/cache"
	"codejudge/internal/common/db"
	"codejudge/internal/common/mq"
	"codejudge/internal/common/storage"
	"codejudge/internal/judge/sandbox/engine"
	"codejudge/internal/judge/sandbox/profile"
	"codejudge/pkg/utils/logger"

	"github.com/segmentio/kafka-go"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8085"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultWorkRoot       = "/tmp/codejudge"
	defaultRunTimeout     = 5 * time.Second
	defaultCompileTimeout = 10 * time.Second
	defaultKillGrace      = 500 * time.Millisecond
	defaultMaxOutputBytes = 16 << 20
	defaultAcquireTimeout = 2 * time.Second

	defaultStatusTTL     = 24 * time.Hour
	defaultStatusTimeout = 2 * time.Second
	defaultFinalTopic    = "judge.status.final"

	defaultProblemTTL      = 5 * time.Minute
	defaultProblemEmptyTTL = 30 * time.Second

	defaultSourcePrefix = "sources"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// KafkaConfig holds producer settings for final status events.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"clientId"`
	BatchSize    int           `yaml:"batchSize"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	RequiredAcks int           `yaml:"requiredAcks"`
	Compression  string        `yaml:"compression"`
}

// AuthConfig holds JWT settings for submitter identity.
type AuthConfig struct {
	// Mode is "public" (trust X-User-Id) or "token" (bearer JWT required).
	Mode                  string        `yaml:"mode"`
	JWTSecret             string        `yaml:"jwtSecret"`
	JWTIssuer             string        `yaml:"jwtIssuer"`
	BlacklistLocalSize    int           `yaml:"blacklistLocalSize"`
	BlacklistLocalTTL     time.Duration `yaml:"blacklistLocalTTL"`
	BlacklistRedisTimeout time.Duration `yaml:"blacklistRedisTimeout"`
}

// WorkerConfig bounds concurrent judge executions.
type WorkerConfig struct {
	PoolSize       int           `yaml:"poolSize"`
	AcquireTimeout time.Duration `yaml:"acquireTimeout"`
}

// ExecutionConfig holds the process limits and the transient file arena.
type ExecutionConfig struct {
	WorkRoot             string        `yaml:"workRoot"`
	RunTimeout           time.Duration `yaml:"runTimeout"`
	CompileTimeout       time.Duration `yaml:"compileTimeout"`
	KillGrace            time.Duration `yaml:"killGrace"`
	StdoutStderrMaxBytes int64         `yaml:"stdoutStderrMaxBytes"`
	MaxOutputBytes       int64         `yaml:"maxOutputBytes"`
	MaxCodeBytes         int           `yaml:"maxCodeBytes"`
	MaxInputBytes        int           `yaml:"maxInputBytes"`
}

// StatusConfig holds live status storage settings.
type StatusConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	Timeout    time.Duration `yaml:"timeout"`
	FinalTopic string        `yaml:"finalTopic"`
}

// ProblemCacheConfig holds Redis cache settings for problems and test cases.
type ProblemCacheConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	EmptyTTL time.Duration `yaml:"emptyTTL"`
}

// SourceConfig selects where submitted sources are archived.
// An empty MinIO endpoint disables archiving.
type SourceConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// LanguageConfig overrides the built-in language table.
type LanguageConfig struct {
	Languages []profile.LanguageSpec `yaml:"languages"`
}

// AppConfig is the root config for the judge service.
type AppConfig struct {
	Server       ServerConfig        `yaml:"server"`
	Logger       logger.Config       `yaml:"logger"`
	Database     db.MySQLConfig      `yaml:"database"`
	Redis        cache.RedisConfig   `yaml:"redis"`
	Kafka        KafkaConfig         `yaml:"kafka"`
	MinIO        storage.MinIOConfig `yaml:"minio"`
	Auth         AuthConfig          `yaml:"auth"`
	Worker       WorkerConfig        `yaml:"worker"`
	Execution    ExecutionConfig     `yaml:"execution"`
	Status       StatusConfig        `yaml:"status"`
	ProblemCache ProblemCacheConfig  `yaml:"problemCache"`
	Source       SourceConfig        `yaml:"source"`
	Language     LanguageConfig      `yaml:"language"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *AppConfig) applyDefaults() error {
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	applyRedisDefaults(&cfg.Redis)
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = "public"
	}
	if !strings.EqualFold(cfg.Auth.Mode, "public") && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret is required in %s mode", cfg.Auth.Mode)
	}
	if cfg.Auth.BlacklistLocalSize <= 0 {
		cfg.Auth.BlacklistLocalSize = 1024
	}
	if cfg.Auth.BlacklistLocalTTL == 0 {
		cfg.Auth.BlacklistLocalTTL = 2 * time.Minute
	}
	if cfg.Auth.BlacklistRedisTimeout == 0 {
		cfg.Auth.BlacklistRedisTimeout = cfg.Redis.ReadTimeout
	}

	if cfg.Worker.PoolSize <= 0 {
		cfg.Worker.PoolSize = runtime.NumCPU()
	}
	if cfg.Worker.AcquireTimeout == 0 {
		cfg.Worker.AcquireTimeout = defaultAcquireTimeout
	}

	exec := &cfg.Execution
	if exec.WorkRoot == "" {
		exec.WorkRoot = defaultWorkRoot
	}
	if exec.RunTimeout == 0 {
		exec.RunTimeout = defaultRunTimeout
	}
	if exec.CompileTimeout == 0 {
		exec.CompileTimeout = defaultCompileTimeout
	}
	if exec.KillGrace == 0 {
		exec.KillGrace = defaultKillGrace
	}
	if exec.MaxOutputBytes <= 0 {
		exec.MaxOutputBytes = defaultMaxOutputBytes
	}

	if cfg.Status.TTL == 0 {
		cfg.Status.TTL = defaultStatusTTL
	}
	if cfg.Status.Timeout == 0 {
		cfg.Status.Timeout = defaultStatusTimeout
	}
	if cfg.Status.FinalTopic == "" {
		cfg.Status.FinalTopic = defaultFinalTopic
	}

	if cfg.ProblemCache.TTL == 0 {
		cfg.ProblemCache.TTL = defaultProblemTTL
	}
	if cfg.ProblemCache.EmptyTTL == 0 {
		cfg.ProblemCache.EmptyTTL = defaultProblemEmptyTTL
	}

	if cfg.Source.Bucket == "" {
		cfg.Source.Bucket = cfg.MinIO.Bucket
	}
	if cfg.Source.Prefix == "" {
		cfg.Source.Prefix = defaultSourcePrefix
	}
	return nil
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	if cfg == nil {
		return
	}
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = defaults.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.PoolTimeout == 0 {
		cfg.PoolTimeout = defaults.PoolTimeout
	}
	if cfg.ConnMaxIdleTime == 0 {
		cfg.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
}

func (k KafkaConfig) toMQConfig() mq.KafkaConfig {
	return mq.KafkaConfig{
		Brokers:      k.Brokers,
		ClientID:     k.ClientID,
		BatchSize:    k.BatchSize,
		BatchTimeout: k.BatchTimeout,
		DialTimeout:  k.DialTimeout,
		WriteTimeout: k.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(k.RequiredAcks),
		Compression:  parseCompression(k.Compression),
	}
}

func parseCompression(raw string) kafka.Compression {
	switch strings.ToLower(raw) {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Compression(0)
	}
}

func (e ExecutionConfig) toEngineConfig() engine.Config {
	return engine.Config{
		StdoutStderrMaxBytes: e.StdoutStderrMaxBytes,
		KillGrace:            e.KillGrace,
	}
}
