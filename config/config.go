package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Oracle modes.
const (
	OracleModeHTTP   = "http"
	OracleModeStatic = "static"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Funding  FundingConfig  `mapstructure:"funding"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Payout   PayoutConfig   `mapstructure:"payout"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"` // apply embedded migrations on startup
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// FundingConfig describes the fund itself. MinimumReference is a decimal
// in reference units ("50" means 50 USD).
type FundingConfig struct {
	Owner            string        `mapstructure:"owner"`
	OwnerPassword    string        `mapstructure:"owner_password"`
	MinimumReference string        `mapstructure:"minimum_reference"`
	NativeDecimals   int32         `mapstructure:"native_decimals"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout"`
}

type OracleConfig struct {
	Mode       string        `mapstructure:"mode"` // http, static
	URL        string        `mapstructure:"url"`
	Decimals   int32         `mapstructure:"decimals"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxAge     time.Duration `mapstructure:"max_age"`
	StaticRate int64         `mapstructure:"static_rate"` // raw answer at Decimals
}

type PayoutConfig struct {
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CFL_ (crowdfund ledger).
// Nested keys use underscore: CFL_FUNDING_OWNER, CFL_ORACLE_URL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "crowdfund_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrate", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "crowdfund-ledger")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("funding.owner", "")
	v.SetDefault("funding.owner_password", "")
	v.SetDefault("funding.minimum_reference", "50")
	v.SetDefault("funding.native_decimals", 18)
	v.SetDefault("funding.lock_timeout", "5s")
	v.SetDefault("oracle.mode", OracleModeHTTP)
	v.SetDefault("oracle.url", "")
	v.SetDefault("oracle.decimals", 8)
	v.SetDefault("oracle.timeout", "5s")
	v.SetDefault("oracle.max_age", "1h")
	v.SetDefault("oracle.static_rate", 200000000000)
	v.SetDefault("payout.url", "")
	v.SetDefault("payout.secret", "")
	v.SetDefault("payout.timeout", "10s")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// CFL_FUNDING_OWNER -> funding.owner
	v.SetEnvPrefix("CFL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Funding.Owner == "" {
		errs = append(errs, errors.New("funding.owner is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Payout.URL == "" {
		errs = append(errs, errors.New("payout.url is required"))
	}
	if c.Payout.Secret == "" {
		errs = append(errs, errors.New("payout.secret is required"))
	}
	switch c.Oracle.Mode {
	case OracleModeHTTP:
		if c.Oracle.URL == "" {
			errs = append(errs, errors.New("oracle.url is required in http mode"))
		}
	case OracleModeStatic:
		if c.Oracle.StaticRate <= 0 {
			errs = append(errs, errors.New("oracle.static_rate must be positive in static mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("oracle.mode %q is not one of http, static", c.Oracle.Mode))
	}
	return errors.Join(errs...)
}
