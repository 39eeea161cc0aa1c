package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	CertFile  string `mapstructure:"certFile"`
	KeyFile   string `mapstructure:"keyFile"`
	EnableTLS bool   `mapstructure:"enableTLS"`
}

type PostgresConfig struct {
	URL               string `mapstructure:"url"`
	Host              string `mapstructure:"host"`
	Password          string `mapstructure:"password"`
	Port              string `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	DB                string `mapstructure:"db"`
	SSLMODE           string `mapstructure:"SSLMODE"`
	MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type GenAIConfig struct {
	APIKeys            []string `mapstructure:"api_keys"`
	Models             []string `mapstructure:"models"`
	StrictClientErrors bool     `mapstructure:"strict_client_errors"`
	Temperature        float32  `mapstructure:"temperature"`
}

type GenerationConfig struct {
	MaxDays     int           `mapstructure:"max_days"`
	AuthTimeout time.Duration `mapstructure:"auth_timeout"`
	JobTTL      time.Duration `mapstructure:"job_ttl"`
	RateLimit   int           `mapstructure:"rate_limit"`
}

type EnrichmentConfig struct {
	CacheSize         int           `mapstructure:"cache_size"`
	ImageTTL          time.Duration `mapstructure:"image_ttl"`
	WeatherTTL        time.Duration `mapstructure:"weather_ttl"`
	DefaultImage      string        `mapstructure:"default_image"`
	PixabayKey        string        `mapstructure:"pixabay_key"`
	GeoapifyKey       string        `mapstructure:"geoapify_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Concurrency       int           `mapstructure:"concurrency"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type OAuthConfig struct {
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	CallbackURL        string `mapstructure:"callback_url"`
	SessionSecret      string `mapstructure:"session_secret"`
	BaseURL            string `mapstructure:"base_url"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		ExternalAPI ServerConfig `mapstructure:"externalAPI"`
		Pprof       ServerConfig `mapstructure:"pprof"`
		Prometheus  ServerConfig `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres PostgresConfig `mapstructure:"postgres"`
		Mongo    MongoConfig    `mapstructure:"mongo"`
		Redis    RedisConfig    `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	Store struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"store"`
	GenAI      GenAIConfig      `mapstructure:"genai"`
	Generation GenerationConfig `mapstructure:"generation"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	OAuth      OAuthConfig      `mapstructure:"oauth"`
}

// InitConfig loads config.yml from the search paths, falling back to the
// embedded copy, then applies secrets from the environment.
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Dotenv != "" {
		// a missing .env is fine outside development
		_ = godotenv.Load(config.Dotenv)
	}
	config.applyEnv(os.Getenv)
	return config, nil
}

// applyEnv overrides secrets and endpoints with environment values.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	var keys []string
	for _, name := range []string{"GOOGLE_GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY_2", "GOOGLE_GEMINI_API_KEY_3"} {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			keys = append(keys, v)
		}
	}
	if len(keys) > 0 {
		c.GenAI.APIKeys = keys
	}

	set(&c.Enrichment.PixabayKey, "PIXABAY_KEY")
	set(&c.Enrichment.GeoapifyKey, "GEOAPIFY_KEY")
	set(&c.JWT.SecretKey, "JWT_SECRET")
	set(&c.OAuth.GoogleClientID, "GOOGLE_CLIENT_ID")
	set(&c.OAuth.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.OAuth.SessionSecret, "SESSION_SECRET")
	set(&c.Repositories.Postgres.URL, "DATABASE_URL")
	set(&c.Repositories.Mongo.URI, "MONGO_URI")
	set(&c.Repositories.Redis.Addr, "REDIS_ADDR")
	set(&c.Store.Driver, "STORE_DRIVER")
}

// Credentials returns the configured model keys in failover order, blanks removed.
func (c GenAIConfig) Credentials() []string {
	out := make([]string, 0, len(c.APIKeys))
	for _, k := range c.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
