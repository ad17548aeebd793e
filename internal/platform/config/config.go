// Package config loads application configuration from an optional YAML file
// with environment variable overrides, so deployments can ship a checked-in
// base file and override per environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "750ms" or "5m" parse.
type Duration time.Duration

// UnmarshalYAML parses Go duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Scan     ScanConfig     `yaml:"scan"`
	Audit    AuditConfig    `yaml:"audit"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	CORSOrigins    []string `yaml:"cors_origins"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// PostgresConfig points at the primary store. An empty DSN selects the
// in-memory stores (useful for local development and tests).
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig configures the preference snapshot cache connection. An empty
// URL disables the cache; resolution then always reads the store.
type RedisConfig struct {
	URL          string   `yaml:"url"`
	PoolSize     int      `yaml:"pool_size"`
	MinIdleConns int      `yaml:"min_idle_conns"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	SnapshotTTL  Duration `yaml:"snapshot_ttl"`
}

// KafkaConfig configures the audit event stream. Empty brokers disable
// Kafka publishing; audit events then go to the in-process sink only.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSigningKey        string `yaml:"jwt_signing_key"`
	DeviceFingerprinting bool   `yaml:"device_fingerprinting"`
}

// ScanConfig bounds the name detection pass.
type ScanConfig struct {
	// MaxNames caps how many detected names get database lookups per
	// submission. An availability safeguard, not a correctness rule.
	MaxNames int `yaml:"max_names"`
}

// AuditConfig sizes the audit event pipeline.
type AuditConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Defaults returns the configuration used when no file or environment
// overrides are present. Values suit local development.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: Duration(30 * time.Second),
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  Duration(5 * time.Second),
			ReadTimeout:  Duration(3 * time.Second),
			WriteTimeout: Duration(3 * time.Second),
			SnapshotTTL:  Duration(30 * time.Second),
		},
		Kafka: KafkaConfig{
			Topic: "memoria.audit",
		},
		Auth: AuthConfig{
			// Development default; override in any real deployment.
			JWTSigningKey:        "dev-secret-key-change-in-production",
			DeviceFingerprinting: true,
		},
		Scan: ScanConfig{
			MaxNames: 20,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then environment overrides, then validation.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from MEMORIA_* environment variables so
// containerized deployments can configure without a file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("MEMORIA_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MEMORIA_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("MEMORIA_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("MEMORIA_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("MEMORIA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitAndTrim(v)
	}
	if v := os.Getenv("MEMORIA_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("MEMORIA_JWT_SIGNING_KEY"); v != "" {
		cfg.Auth.JWTSigningKey = v
	}
	if v := os.Getenv("MEMORIA_SCAN_MAX_NAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.MaxNames = n
		}
	}
	if v := os.Getenv("MEMORIA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MEMORIA_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server addr is required")
	}
	if cfg.Scan.MaxNames <= 0 {
		return fmt.Errorf("scan max_names must be positive")
	}
	if cfg.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit buffer_size must be positive")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Log.Format)
	}
	if len(cfg.Kafka.Brokers) > 0 && strings.TrimSpace(cfg.Kafka.Topic) == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
