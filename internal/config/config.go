package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrAPIKeyMissing is returned by Load when no OpenWeatherMap credential is configured.
var ErrAPIKeyMissing = errors.New("OPENWEATHERMAP_API_KEY environment variable not set")

type OpenWeatherMapConfig struct {
	APIURL  string
	APIKey  string
	Units   string
	Lang    string
	Timeout time.Duration
}

type ServerConfig struct {
	Port              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// WeatherConfig controls how a missing city query parameter is handled.
// When RequireCity is false the request falls back to DefaultCity.
type WeatherConfig struct {
	DefaultCity string
	RequireCity bool
}

type StoreConfig struct {
	Driver        string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

type CacheConfig struct {
	TTL time.Duration
}

type TracingConfig struct {
	ZipkinURL   string
	ServiceName string
}

type MetricsConfig struct {
	Addr string
}

// Config is the fully resolved application configuration.
type Config struct {
	Debug          bool
	OpenWeatherMap OpenWeatherMapConfig
	Server         ServerConfig
	Weather        WeatherConfig
	Store          StoreConfig
	Breaker        BreakerConfig
	Cache          CacheConfig
	Tracing        TracingConfig
	Metrics        MetricsConfig
}

// String renders the configuration without the API key.
func (c *Config) String() string {
	return fmt.Sprintf("port=%s store=%s default_city=%q require_city=%t upstream_timeout=%s cache_ttl=%s tracing=%t metrics=%t",
		c.Server.Port, c.Store.Driver, c.Weather.DefaultCity, c.Weather.RequireCity,
		c.OpenWeatherMap.Timeout, c.Cache.TTL, c.Tracing.ZipkinURL != "", c.Metrics.Addr != "")
}

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("openweathermap.api_url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("openweathermap.api_key", "")
	v.SetDefault("openweathermap.units", "metric")
	v.SetDefault("openweathermap.lang", "pt_br")
	v.SetDefault("openweathermap.timeout", "10s")

	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_header_timeout", "15s")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("weather.default_city", "Florianopolis")
	v.SetDefault("weather.require_city", false)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "weather.db")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)

	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", "1m")
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.consecutive_failures", 5)

	v.SetDefault("cache.ttl", "0s")

	v.SetDefault("tracing.zipkin_url", "")
	v.SetDefault("tracing.service_name", "weather-history-api")

	v.SetDefault("metrics.addr", "")
}

// New returns a viper instance with defaults, config files and environment
// overrides applied. Environment variables use the key path with dots replaced
// by underscores, e.g. SERVER_PORT or OPENWEATHERMAP_API_KEY.
func New() (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	root, err := getProjectRoot()
	if err != nil {
		// Running outside the source tree: defaults and environment only.
		return v, nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(root)
	if err := v.MergeInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("reading config.yaml: %w", err)
	}

	if isTestRun() {
		v.SetConfigName("config_test")
		if err := v.MergeInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("reading config_test.yaml: %w", err)
		}
	}
	return v, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// Load builds the application Config. It fails when the API key is absent.
func Load() (*Config, error) {
	v, err := New()
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper resolves a Config from an already prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Debug: v.GetBool("debug"),
		OpenWeatherMap: OpenWeatherMapConfig{
			APIURL:  v.GetString("openweathermap.api_url"),
			APIKey:  strings.TrimSpace(v.GetString("openweathermap.api_key")),
			Units:   v.GetString("openweathermap.units"),
			Lang:    v.GetString("openweathermap.lang"),
			Timeout: v.GetDuration("openweathermap.timeout"),
		},
		Server: ServerConfig{
			Port:              strings.TrimPrefix(v.GetString("server.port"), ":"),
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			ReadTimeout:       v.GetDuration("server.read_timeout"),
			WriteTimeout:      v.GetDuration("server.write_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		},
		Weather: WeatherConfig{
			DefaultCity: strings.TrimSpace(v.GetString("weather.default_city")),
			RequireCity: v.GetBool("weather.require_city"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("store.driver")),
			DSN:           v.GetString("store.dsn"),
			RedisAddr:     v.GetString("store.redis_addr"),
			RedisPassword: v.GetString("store.redis_password"),
			RedisDB:       v.GetInt("store.redis_db"),
		},
		Breaker: BreakerConfig{
			MaxRequests:         v.GetUint32("breaker.max_requests"),
			Interval:            v.GetDuration("breaker.interval"),
			Timeout:             v.GetDuration("breaker.timeout"),
			ConsecutiveFailures: v.GetUint32("breaker.consecutive_failures"),
		},
		Cache: CacheConfig{
			TTL: v.GetDuration("cache.ttl"),
		},
		Tracing: TracingConfig{
			ZipkinURL:   v.GetString("tracing.zipkin_url"),
			ServiceName: v.GetString("tracing.service_name"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
	}

	if cfg.OpenWeatherMap.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if cfg.OpenWeatherMap.Timeout <= 0 {
		return nil, fmt.Errorf("openweathermap.timeout must be positive, got %s", cfg.OpenWeatherMap.Timeout)
	}
	if !cfg.Weather.RequireCity && cfg.Weather.DefaultCity == "" {
		return nil, errors.New("weather.default_city must be set when weather.require_city is false")
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "3000"
	}
	return cfg, nil
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}
