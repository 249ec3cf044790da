package app_config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config holds every setting the services need. It is loaded once in main
// (after dotenv) and passed down explicitly, nothing reads os.Getenv after
// startup.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	WebhookPort int    `envconfig:"WEBHOOK_PORT" default:"7070"`
	JWTSecret   string `envconfig:"JWT_SECRET"`

	Database   DatabaseConfig   `envconfig:"DB"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Storage    StorageConfig    `envconfig:"STORAGE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Google     GoogleConfig     `envconfig:"GOOGLE"`
	Completion CompletionConfig `envconfig:"OPENAI"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASS"`
	Name     string `envconfig:"NAME" default:"mediamux"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type TelegramConfig struct {
	BotToken      string `envconfig:"BOT_TOKEN"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	APIBase       string `envconfig:"API_BASE" default:"https://api.telegram.org"`
	// Chat used to read back message captions, Bot API has no getMessage.
	ScratchChatId int64 `envconfig:"SCRATCH_CHAT_ID"`
}

type StorageConfig struct {
	// Public base url, object urls are {BaseUrl}/storage/v1/object/public/{Bucket}/{name}
	BaseUrl         string `envconfig:"BASE_URL"`
	Bucket          string `envconfig:"BUCKET" default:"telegram_media"`
	Region          string `envconfig:"REGION" default:"us-west-1"`
	Endpoint        string `envconfig:"ENDPOINT"`
	AccessKeyId     string `envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
}

type RedisConfig struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWD"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type GoogleConfig struct {
	ClientId      string `envconfig:"CLIENT_ID"`
	ClientSecret  string `envconfig:"CLIENT_SECRET"`
	RefreshToken  string `envconfig:"REFRESH_TOKEN"`
	DriveFolderId string `envconfig:"DRIVE_FOLDER_ID"`
}

type CompletionConfig struct {
	ApiKey  string `envconfig:"API_KEY"`
	BaseUrl string `envconfig:"BASE_URL" default:"https://api.openai.com/v1"`
	Model   string `envconfig:"MODEL" default:"gpt-4o-mini"`
}

// Load reads the config from the process environment.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, errors.Wrap(err, "unable to load configuration")
	}
	return &c, nil
}

// ValidateForIngestion fails fast when the webhook services lack the secrets
// they can't run without.
func (c *Config) ValidateForIngestion() error {
	if c.Telegram.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.WebhookSecret == "" {
		return errors.New("TELEGRAM_WEBHOOK_SECRET is required")
	}
	if c.Storage.BaseUrl == "" {
		return errors.New("STORAGE_BASE_URL is required")
	}
	return nil
}
