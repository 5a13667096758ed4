package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string

	JudgeURL             string
	JudgeAuthToken       string
	JudgeInitialDelay    time.Duration
	JudgePollInterval    time.Duration
	JudgeMaxPollDuration time.Duration

	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
	PresignTTL        time.Duration

	NATSURL string

	TaskResultTTL     time.Duration
	MaxSubmissionSize int64
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CODEGRADE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CodeGrade API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("judge.initial_delay_ms", 2000)
	v.SetDefault("judge.poll_interval_ms", 2000)
	v.SetDefault("judge.max_poll_duration", "2m")
	v.SetDefault("s3.region", "ca-central-1")
	v.SetDefault("presign.ttl", "1h")
	v.SetDefault("task.result_ttl", "24h")
	v.SetDefault("max.submission_bytes", 1<<20)

	maxPoll, err := time.ParseDuration(v.GetString("judge.max_poll_duration"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid judge max poll duration: %w", err)
	}

	presignTTL, err := time.ParseDuration(v.GetString("presign.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid presign ttl: %w", err)
	}

	resultTTL, err := time.ParseDuration(v.GetString("task.result_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid task result ttl: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		JudgeURL:             v.GetString("judge.url"),
		JudgeAuthToken:       v.GetString("judge.auth_token"),
		JudgeInitialDelay:    time.Duration(v.GetInt("judge.initial_delay_ms")) * time.Millisecond,
		JudgePollInterval:    time.Duration(v.GetInt("judge.poll_interval_ms")) * time.Millisecond,
		JudgeMaxPollDuration: maxPoll,
		S3Bucket:             v.GetString("s3.bucket"),
		S3Region:             v.GetString("s3.region"),
		S3AccessKeyID:        v.GetString("s3.access_key_id"),
		S3SecretAccessKey:    v.GetString("s3.secret_access_key"),
		S3Endpoint:           v.GetString("s3.endpoint"),
		PresignTTL:           presignTTL,
		NATSURL:              v.GetString("nats.url"),
		TaskResultTTL:        resultTTL,
		MaxSubmissionSize:    v.GetInt64("max.submission_bytes"),
	}

	if cfg.JudgeURL == "" {
		return Config{}, fmt.Errorf("judge url must be provided")
	}

	if cfg.MaxSubmissionSize <= 0 {
		cfg.MaxSubmissionSize = 1 << 20
	}

	return cfg, nil
}
