package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Model     ModelConfig     `mapstructure:"model"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tutor     TutorConfig     `mapstructure:"tutor"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode   string `mapstructure:"sslmode"`
	Path      string `mapstructure:"path"` // sqlite only
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// AuthConfig 只校验外部认证服务签发的令牌
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
}

type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
}

type AssetsConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type ModelConfig struct {
	Source string `mapstructure:"source"` // file, minio
	Path   string `mapstructure:"path"`
	Object string `mapstructure:"object"`
	Watch  bool   `mapstructure:"watch"`
}

type StorageConfig struct {
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TutorConfig struct {
	RecentWindow         int           `mapstructure:"recent_window"`
	BlockAfterFailures   int           `mapstructure:"block_after_failures"`
	MaxReinforcements    int           `mapstructure:"max_reinforcements"`
	FastSeconds          float64       `mapstructure:"fast_seconds"`
	SlowSeconds          float64       `mapstructure:"slow_seconds"`
	PassingScore         float64       `mapstructure:"passing_score"`
	EasierMaxTier        int           `mapstructure:"easier_max_tier"`
	HarderMinTier        int           `mapstructure:"harder_min_tier"`
	WeightNew            float64       `mapstructure:"weight_new"`
	WeightRepeat         float64       `mapstructure:"weight_repeat"`
	SuggestionLimit      int           `mapstructure:"suggestion_limit"`
	SuggestionMaxLimit   int           `mapstructure:"suggestion_max_limit"`
	HistoryLimit         int           `mapstructure:"history_limit"`
	HistoryMaxLimit      int           `mapstructure:"history_max_limit"`
	RandomSeed           uint64        `mapstructure:"random_seed"`
	StudentLockTTL       time.Duration `mapstructure:"student_lock_ttl"`
	StudentLockWait      time.Duration `mapstructure:"student_lock_wait"`
	SuggestionLowMaxTier int           `mapstructure:"suggestion_low_max_tier"`
	SuggestionMidMinTier int           `mapstructure:"suggestion_mid_min_tier"`
	SuggestionMidMaxTier int           `mapstructure:"suggestion_mid_max_tier"`
	SuggestionHighMin    int           `mapstructure:"suggestion_high_min_tier"`
}

// DefaultTutorConfig 引擎默认参数
func DefaultTutorConfig() TutorConfig {
	return TutorConfig{
		RecentWindow:         5,
		BlockAfterFailures:   3,
		MaxReinforcements:    2,
		FastSeconds:          45,
		SlowSeconds:          90,
		PassingScore:         60,
		EasierMaxTier:        1,
		HarderMinTier:        2,
		WeightNew:            1.0,
		WeightRepeat:         0.30,
		SuggestionLimit:      5,
		SuggestionMaxLimit:   50,
		HistoryLimit:         3,
		HistoryMaxLimit:      50,
		StudentLockTTL:       10 * time.Second,
		StudentLockWait:      5 * time.Second,
		SuggestionLowMaxTier: 3,
		SuggestionMidMinTier: 3,
		SuggestionMidMaxTier: 5,
		SuggestionHighMin:    5,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("rate_limit.max_requests", 100000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("i18n.default_language", "es")
	v.SetDefault("model.source", "file")
	v.SetDefault("model.path", "configs/model/tutor_model.json")

	d := DefaultTutorConfig()
	v.SetDefault("tutor.recent_window", d.RecentWindow)
	v.SetDefault("tutor.block_after_failures", d.BlockAfterFailures)
	v.SetDefault("tutor.max_reinforcements", d.MaxReinforcements)
	v.SetDefault("tutor.fast_seconds", d.FastSeconds)
	v.SetDefault("tutor.slow_seconds", d.SlowSeconds)
	v.SetDefault("tutor.passing_score", d.PassingScore)
	v.SetDefault("tutor.easier_max_tier", d.EasierMaxTier)
	v.SetDefault("tutor.harder_min_tier", d.HarderMinTier)
	v.SetDefault("tutor.weight_new", d.WeightNew)
	v.SetDefault("tutor.weight_repeat", d.WeightRepeat)
	v.SetDefault("tutor.suggestion_limit", d.SuggestionLimit)
	v.SetDefault("tutor.suggestion_max_limit", d.SuggestionMaxLimit)
	v.SetDefault("tutor.history_limit", d.HistoryLimit)
	v.SetDefault("tutor.history_max_limit", d.HistoryMaxLimit)
	v.SetDefault("tutor.student_lock_ttl", d.StudentLockTTL)
	v.SetDefault("tutor.student_lock_wait", d.StudentLockWait)
	v.SetDefault("tutor.suggestion_low_max_tier", d.SuggestionLowMaxTier)
	v.SetDefault("tutor.suggestion_mid_min_tier", d.SuggestionMidMinTier)
	v.SetDefault("tutor.suggestion_mid_max_tier", d.SuggestionMidMaxTier)
	v.SetDefault("tutor.suggestion_high_min_tier", d.SuggestionHighMin)
}

func LoadConfig(path string) (*Config, error) {
	// .env 文件可选，不存在时忽略
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TUTOR")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Auth
	v.BindEnv("auth.enabled", "AUTH_ENABLED")
	v.BindEnv("auth.secret", "JWT_SECRET")

	// Model / MinIO
	v.BindEnv("model.source", "MODEL_SOURCE")
	v.BindEnv("model.path", "MODEL_PATH")
	v.BindEnv("model.object", "MODEL_OBJECT")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	v.BindEnv("assets.base_url", "ASSETS_BASE_URL")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.Enabled && c.Server.Mode == "release" && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.Auth.Secret))
	}
	switch c.Model.Source {
	case "file", "minio":
	default:
		return fmt.Errorf("unknown model source %q", c.Model.Source)
	}
	if c.Tutor.FastSeconds > c.Tutor.SlowSeconds {
		return fmt.Errorf("tutor.fast_seconds (%v) must not exceed tutor.slow_seconds (%v)", c.Tutor.FastSeconds, c.Tutor.SlowSeconds)
	}
	if c.Tutor.RecentWindow < 0 || c.Tutor.BlockAfterFailures < 1 {
		return fmt.Errorf("invalid tutor window/block settings")
	}
	return nil
}
