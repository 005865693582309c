package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Period   PeriodConfig
	Match    MatchConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type ServerConfig struct {
	Port        string
	GinMode     string
	RateLimit   string
	RedisURL    string
	CORSOrigins []string
}

type AppConfig struct {
	LogLevel          string
	LogFormat         string
	BatchSize         int
	ExportConcurrency int
}

type PeriodConfig struct {
	Locale   string
	Timezone string
}

type MatchConfig struct {
	DateToleranceDays int
	AmountTolerance   decimal.Decimal
	LockTimeout       time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "travel_ledger")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("BATCH_SIZE", 500)
	v.SetDefault("EXPORT_CONCURRENCY", 4)
	v.SetDefault("PERIOD_LOCALE", "el")
	v.SetDefault("PERIOD_TIMEZONE", "Europe/Athens")
	v.SetDefault("MATCH_DATE_TOLERANCE_DAYS", 3)
	v.SetDefault("MATCH_AMOUNT_TOLERANCE", "0.01")
	v.SetDefault("MATCH_LOCK_TIMEOUT", "5s")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	driver := strings.ToLower(v.GetString("STORAGE_DRIVER"))
	if driver != StorageMemory && driver != StoragePostgres {
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", driver)
	}

	tolerance, err := decimal.NewFromString(v.GetString("MATCH_AMOUNT_TOLERANCE"))
	if err != nil || tolerance.IsNegative() {
		return nil, fmt.Errorf("invalid MATCH_AMOUNT_TOLERANCE %q", v.GetString("MATCH_AMOUNT_TOLERANCE"))
	}

	lockTimeout, err := time.ParseDuration(v.GetString("MATCH_LOCK_TIMEOUT"))
	if err != nil || lockTimeout <= 0 {
		return nil, fmt.Errorf("invalid MATCH_LOCK_TIMEOUT %q", v.GetString("MATCH_LOCK_TIMEOUT"))
	}

	batchSize := v.GetInt("BATCH_SIZE")
	if batchSize <= 0 {
		batchSize = 500
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:       driver,
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			DBName:       v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		},
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			GinMode:     v.GetString("GIN_MODE"),
			RateLimit:   v.GetString("RATE_LIMIT"),
			RedisURL:    v.GetString("REDIS_URL"),
			CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		App: AppConfig{
			LogLevel:          v.GetString("LOG_LEVEL"),
			LogFormat:         v.GetString("LOG_FORMAT"),
			BatchSize:         batchSize,
			ExportConcurrency: v.GetInt("EXPORT_CONCURRENCY"),
		},
		Period: PeriodConfig{
			Locale:   v.GetString("PERIOD_LOCALE"),
			Timezone: v.GetString("PERIOD_TIMEZONE"),
		},
		Match: MatchConfig{
			DateToleranceDays: v.GetInt("MATCH_DATE_TOLERANCE_DAYS"),
			AmountTolerance:   tolerance,
			LockTimeout:       lockTimeout,
		},
	}, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Location loads the configured accounting time zone.
func (c *PeriodConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid PERIOD_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
