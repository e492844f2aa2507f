package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Booking  BookingConfig
	Sweep    SweepConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BookingConfig carries the scheduling knobs that used to live as module
// state in the legacy handlers. Everything here is injected explicitly so
// tests can pin exact values.
type BookingConfig struct {
	// BufferMinutes is added around existing lessons when checking for
	// overlaps. It is never stored on a booking.
	BufferMinutes int
	// PendingTTL is how long an unpaid pending booking survives before the
	// expiry sweep cancels it.
	PendingTTL time.Duration
	// Locations is the closed set of pickup locations lessons may use.
	Locations []string
	// FallbackPackagePrices maps "classType-durationMinutes" to the price
	// charged on a package-completing lesson when no price rule exists.
	FallbackPackagePrices map[string]float64
	// WindowCacheTTL bounds how long a resolved availability window may be
	// served from Redis.
	WindowCacheTTL time.Duration
}

// SweepConfig drives the internal expiry sweep ticker.
type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
}

// ExportConfig gates the roster export endpoints.
type ExportConfig struct {
	Enabled bool
}

// FallbackPackagePrice returns the configured fallback for a class type and
// duration, or zero when none is configured.
func (c BookingConfig) FallbackPackagePrice(classType string, durationMinutes int) float64 {
	key := classType + "-" + strconv.Itoa(durationMinutes)
	return c.FallbackPackagePrices[key]
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Booking = BookingConfig{
		BufferMinutes:  v.GetInt("BOOKING_BUFFER_MINUTES"),
		PendingTTL:     parseDuration(v.GetString("BOOKING_PENDING_TTL"), 24*time.Hour),
		Locations:      splitAndTrim(v.GetString("BOOKING_LOCATIONS")),
		WindowCacheTTL: parseDuration(v.GetString("BOOKING_WINDOW_CACHE_TTL"), 2*time.Minute),
		FallbackPackagePrices: map[string]float64{
			"class5-90": v.GetFloat64("BOOKING_PACKAGE_PRICE_CLASS5_90"),
			"class7-60": v.GetFloat64("BOOKING_PACKAGE_PRICE_CLASS7_60"),
		},
	}

	cfg.Sweep = SweepConfig{
		Enabled:  v.GetBool("ENABLE_EXPIRY_SWEEP"),
		Interval: parseDuration(v.GetString("EXPIRY_SWEEP_INTERVAL"), time.Minute),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_ROSTER_EXPORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "drive_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOOKING_BUFFER_MINUTES", 15)
	v.SetDefault("BOOKING_PENDING_TTL", "24h")
	v.SetDefault("BOOKING_LOCATIONS", "North Vancouver,Burnaby,Surrey,Richmond")
	v.SetDefault("BOOKING_WINDOW_CACHE_TTL", "2m")
	v.SetDefault("BOOKING_PACKAGE_PRICE_CLASS5_90", 280)
	v.SetDefault("BOOKING_PACKAGE_PRICE_CLASS7_60", 850)

	v.SetDefault("ENABLE_EXPIRY_SWEEP", true)
	v.SetDefault("EXPIRY_SWEEP_INTERVAL", "1m")

	v.SetDefault("ENABLE_ROSTER_EXPORT", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
