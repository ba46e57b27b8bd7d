package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries every setting the server needs. It is built once in main and
// handed to each component at construction time.
type Config struct {
	Port string

	Appwrite AppwriteConfig
	Redis    RedisConfig

	RazorpayWebhookSecret string
}

// AppwriteConfig identifies the hosted document store, auth and file storage
// project the service operates against.
type AppwriteConfig struct {
	Endpoint  string
	ProjectID string
	APIKey    string

	DatabaseID              string
	QRCodeCollectionID      string
	WebhookDataCollectionID string
	WithdrawalCollectionID  string
	BucketID                string

	Timeout time.Duration
}

// RedisConfig holds cache connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.BindEnv("port", "PORT")

	viper.BindEnv("appwrite.endpoint", "APPWRITE_ENDPOINT")
	viper.BindEnv("appwrite.project_id", "APPWRITE_PROJECT_ID")
	viper.BindEnv("appwrite.api_key", "APPWRITE_API_KEY")
	viper.BindEnv("appwrite.database_id", "APPWRITE_DATABASE_ID")
	viper.BindEnv("appwrite.qrcode_collection_id", "APPWRITE_QRCODE_COLLECTION_ID")
	viper.BindEnv("appwrite.webhook_collection_id", "APPWRITE_WEBHOOK_DATA_COLLECTION_ID")
	viper.BindEnv("appwrite.withdrawal_collection_id", "APPWRITE_WITHDRAWAL_REQUEST_COLLECTION_ID")
	viper.BindEnv("appwrite.bucket_id", "APPWRITE_BUCKET_ID")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("razorpay.webhook_secret", "RAZORPAY_WEBHOOK_SECRET")

	viper.SetDefault("port", "3000")
	viper.SetDefault("appwrite.endpoint", "https://fra.cloud.appwrite.io/v1")
	viper.SetDefault("appwrite.timeout", 15*time.Second)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A missing .env is fine; a malformed one is not.
			if !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := &Config{
		Port: viper.GetString("port"),
		Appwrite: AppwriteConfig{
			Endpoint:                strings.TrimRight(viper.GetString("appwrite.endpoint"), "/"),
			ProjectID:               viper.GetString("appwrite.project_id"),
			APIKey:                  viper.GetString("appwrite.api_key"),
			DatabaseID:              viper.GetString("appwrite.database_id"),
			QRCodeCollectionID:      viper.GetString("appwrite.qrcode_collection_id"),
			WebhookDataCollectionID: viper.GetString("appwrite.webhook_collection_id"),
			WithdrawalCollectionID:  viper.GetString("appwrite.withdrawal_collection_id"),
			BucketID:                viper.GetString("appwrite.bucket_id"),
			Timeout:                 viper.GetDuration("appwrite.timeout"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetString("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RazorpayWebhookSecret: viper.GetString("razorpay.webhook_secret"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Appwrite.ProjectID == "" {
		missing = append(missing, "APPWRITE_PROJECT_ID")
	}
	if c.Appwrite.APIKey == "" {
		missing = append(missing, "APPWRITE_API_KEY")
	}
	if c.Appwrite.DatabaseID == "" {
		missing = append(missing, "APPWRITE_DATABASE_ID")
	}
	if c.Appwrite.QRCodeCollectionID == "" {
		missing = append(missing, "APPWRITE_QRCODE_COLLECTION_ID")
	}
	if c.Appwrite.WebhookDataCollectionID == "" {
		missing = append(missing, "APPWRITE_WEBHOOK_DATA_COLLECTION_ID")
	}
	if c.Appwrite.WithdrawalCollectionID == "" {
		missing = append(missing, "APPWRITE_WITHDRAWAL_REQUEST_COLLECTION_ID")
	}
	if c.RazorpayWebhookSecret == "" {
		missing = append(missing, "RAZORPAY_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
