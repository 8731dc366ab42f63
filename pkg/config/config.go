package config

import (
	"errors"
	"io/fs"
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

	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	Results ResultsConfig
	Uploads UploadsConfig
	Exports ExportsConfig
	Scoring ScoringConfig
	Columns ColumnsConfig
}

type RedisConfig struct {
	Enabled  bool
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

// ResultsConfig controls how long merge and score results stay retrievable.
type ResultsConfig struct {
	TTL          time.Duration
	StoreTimeout time.Duration
}

// UploadsConfig bounds multipart uploads.
type UploadsConfig struct {
	MaxFileSizeBytes int64
	MaxFiles         int
}

// ExportsConfig controls rendered export storage & download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

// ScoringConfig holds the default penalty and the two data-quality policies.
type ScoringConfig struct {
	DefaultPenalty           float64
	StrictSelections         bool
	RejectDuplicateQuestions bool
}

// ColumnsConfig names the conventional identifier columns.
type ColumnsConfig struct {
	StudentID      string
	QuestionNumber string
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
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

	cfg.Results = ResultsConfig{
		TTL:          parseDuration(v.GetString("RESULTS_TTL"), 2*time.Hour),
		StoreTimeout: parseDuration(v.GetString("RESULTS_STORE_TIMEOUT"), 3*time.Second),
	}

	maxFileSize := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	maxFiles := v.GetInt("UPLOAD_MAX_FILES")
	if maxFiles <= 0 {
		maxFiles = 20
	}
	cfg.Uploads = UploadsConfig{
		MaxFileSizeBytes: maxFileSize,
		MaxFiles:         maxFiles,
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), 30*time.Minute),
	}

	cfg.Scoring = ScoringConfig{
		DefaultPenalty:           v.GetFloat64("SCORING_DEFAULT_PENALTY"),
		StrictSelections:         v.GetBool("SCORING_STRICT_SELECTIONS"),
		RejectDuplicateQuestions: v.GetBool("SCORING_REJECT_DUPLICATE_QUESTIONS"),
	}

	cfg.Columns = ColumnsConfig{
		StudentID:      v.GetString("STUDENT_ID_COLUMN"),
		QuestionNumber: v.GetString("ANSWER_KEY_QUESTION_COLUMN"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RESULTS_TTL", "2h")
	v.SetDefault("RESULTS_STORE_TIMEOUT", "3s")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOAD_MAX_FILES", 20)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "30m")

	v.SetDefault("SCORING_DEFAULT_PENALTY", -3)
	v.SetDefault("SCORING_STRICT_SELECTIONS", false)
	v.SetDefault("SCORING_REJECT_DUPLICATE_QUESTIONS", false)

	v.SetDefault("STUDENT_ID_COLUMN", "เลขประจำตัว")
	v.SetDefault("ANSWER_KEY_QUESTION_COLUMN", "ข้อ")
}

// isMissingFile covers viper returning a plain fs error for an explicit SetConfigFile path.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
