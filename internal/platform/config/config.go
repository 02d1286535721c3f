package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"ccdepot"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// PostgresDSN selects the Postgres adapters. Empty runs everything in memory.
	PostgresDSN     string        `env:"POSTGRES_DSN"`
	PostgresRetries uint          `env:"POSTGRES_CONNECT_ATTEMPTS" envDefault:"5"`
	PostgresDelay   time.Duration `env:"POSTGRES_CONNECT_DELAY" envDefault:"1s"`
	PostgresMaxConn int           `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"true"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	FieldCacheTTL time.Duration `env:"CC_FIELD_CACHE_TTL" envDefault:"1h"`

	// AssetStorePath is the SQLite file holding bitstream bytes.
	AssetStorePath string `env:"ASSET_STORE_PATH"`

	CC CCConfig `envPrefix:"CC_"`

	ScriptsConfigPath string `env:"SCRIPTS_CONFIG"`
	// SeedItemsPath is a YAML item list upserted into the catalog at startup.
	SeedItemsPath string `env:"SEED_ITEMS"`

	PermissionCacheTTL time.Duration `env:"AUTHZ_PERMISSION_CACHE_TTL" envDefault:"5m"`
	IdempotencyTTL     time.Duration `env:"AUTHZ_IDEMPOTENCY_TTL" envDefault:"168h"`
	// SeedRoles assigns built-in roles at startup of in-memory wiring, as user:role pairs.
	SeedRoles map[string]string `env:"AUTHZ_SEED_ROLES" envSeparator:"," envKeyValSeparator:":"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	EventBusBuffer     int           `env:"EVENT_BUS_BUFFER" envDefault:"128"`
}

// CCConfig carries the cc.* switches and license field names.
type CCConfig struct {
	Enabled         bool   `env:"ENABLED" envDefault:"true"`
	SubmitSetName   bool   `env:"SUBMIT_SETNAME" envDefault:"true"`
	AddBitstream    bool   `env:"SUBMIT_ADDBITSTREAM" envDefault:"true"`
	LicenseURIField string `env:"LICENSE_URI" envDefault:"dc.rights.uri"`
	LicenseName     string `env:"LICENSE_NAME" envDefault:"dc.rights"`
	PermissionField string `env:"LICENSE_PERMISSION" envDefault:"dc.rights.accessRights"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.HTTPPort = strings.TrimSpace(cfg.HTTPPort)
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LicenseFields maps license field ids to configured metadata field names.
func (c CCConfig) LicenseFields() map[string]string {
	return map[string]string{
		"uri":        strings.TrimSpace(c.LicenseURIField),
		"name":       strings.TrimSpace(c.LicenseName),
		"permission": strings.TrimSpace(c.PermissionField),
	}
}

func ParseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}
