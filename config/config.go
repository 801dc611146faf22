package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Fees     FeesConfig     `mapstructure:"fees"`
	Rates    RatesConfig    `mapstructure:"rates"`
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

// FeesConfig holds the fee policy values. Amounts are decimal strings so the
// policy can be parsed into exact fixed-point values, never floats.
type FeesConfig struct {
	BillPaymentPercent string            `mapstructure:"bill_payment_percent"`
	BillPaymentMinimum map[string]string `mapstructure:"bill_payment_minimum"` // per-currency floor
	BillPaymentFloor   string            `mapstructure:"bill_payment_floor"`   // fallback floor
	CryptoTradePercent string            `mapstructure:"crypto_trade_percent"`
	CryptoSendFlatUSD  string            `mapstructure:"crypto_send_flat_usd"`
	CardFlatNGN        string            `mapstructure:"card_flat_ngn"`
	CardCreationUSD    string            `mapstructure:"card_creation_usd"`
	WithdrawalFlatNGN  string            `mapstructure:"withdrawal_flat_ngn"`
	DepositFlatNGN     string            `mapstructure:"deposit_flat_ngn"`
}

// RatesConfig holds exchange-rate policy values.
type RatesConfig struct {
	NGNPerUSD string        `mapstructure:"ngn_per_usd"` // flat fiat<->USD rate
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`   // crypto rate cache TTL
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PV_ (PayVault).
// Nested keys use underscore: PV_DATABASE_HOST, PV_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payvault")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "payvault")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("fees.bill_payment_percent", "0.01")
	v.SetDefault("fees.bill_payment_minimum", map[string]string{
		"NGN": "20",
		"USD": "0.1",
		"KES": "2",
		"GHS": "0.5",
	})
	v.SetDefault("fees.bill_payment_floor", "0.1")
	v.SetDefault("fees.crypto_trade_percent", "0.01")
	v.SetDefault("fees.crypto_send_flat_usd", "3")
	v.SetDefault("fees.card_flat_ngn", "500")
	v.SetDefault("fees.card_creation_usd", "3")
	v.SetDefault("fees.withdrawal_flat_ngn", "200")
	v.SetDefault("fees.deposit_flat_ngn", "200")
	v.SetDefault("rates.ngn_per_usd", "1500")
	v.SetDefault("rates.cache_ttl", "2m")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PV_DATABASE_HOST -> database.host
	v.SetEnvPrefix("PV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required; env vars can suffice)
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
