package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config aggregates every ambient setting this service needs: the HTTP
// bootstrap, the Postgres connection, structured logging, and the
// generation engine's own tuning knobs. Sections the teacher's original
// config carried for features this repo does not implement (JWT/auth,
// CORS, analytics/dashboard/cutover/reports/mutations/archives/...) are
// dropped — see DESIGN.md for the per-section rationale.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Log      LogConfig
	Engine   EngineConfig
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

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig holds the generation service's run defaults: DefaultSeed is
// used when a request sends seed 0, RunOptimizer enables the optimizer for
// every request (a request can enable it but not disable it), and
// ProposalTTL bounds how long a proposal stays committable.
// OptimizerGenerations is loaded but not passed to the engine, whose
// optimizer always runs with DefaultOptimizerConfig.
type EngineConfig struct {
	DefaultSeed      int64
	RunOptimizer     bool
	ProposalTTL      time.Duration
	OptimizerGenerations int
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

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Engine = EngineConfig{
		DefaultSeed:          v.GetInt64("ENGINE_DEFAULT_SEED"),
		RunOptimizer:         v.GetBool("ENGINE_RUN_OPTIMIZER"),
		ProposalTTL:          parseDuration(v.GetString("ENGINE_PROPOSAL_TTL"), 30*time.Minute),
		OptimizerGenerations: v.GetInt("ENGINE_OPTIMIZER_GENERATIONS"),
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
	v.SetDefault("DB_NAME", "timetable_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_DEFAULT_SEED", 1)
	v.SetDefault("ENGINE_RUN_OPTIMIZER", true)
	v.SetDefault("ENGINE_PROPOSAL_TTL", "30m")
	v.SetDefault("ENGINE_OPTIMIZER_GENERATIONS", 40)
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
