package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "FEEDDIGEST_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	openAIKeyEnv      = "OPENAI_API_KEY"
	openAIBaseEnv     = "OPENAI_API_BASE"
	defaultModelEnv   = "DEFAULT_MODEL"
	smtpHostEnv       = "SMTP_HOST"
	smtpPortEnv       = "SMTP_PORT"
	smtpSSLEnv        = "SMTP_SSL"
	senderEmailEnv    = "SENDER_EMAIL"
	senderPasswordEnv = "SENDER_PASSWORD"
	receiverEmailEnv  = "RECEIVER_EMAIL"
	logLevelEnv       = "LOG_LEVEL"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Feeds     []FeedConfig    `yaml:"feeds"`
	Collector CollectorConfig `yaml:"collector"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Email     EmailConfig     `yaml:"email"`
	Digest    DigestConfig    `yaml:"digest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// FeedConfig is a single syndication source.
type FeedConfig struct {
	URL string `yaml:"url"`
}

// CollectorConfig bounds how much work one collection run does.
type CollectorConfig struct {
	MaxArticlesPerFeed int           `yaml:"maxArticlesPerFeed" validate:"gt=0"`
	MinContentLength   int           `yaml:"minContentLength" validate:"gte=0"`
	UserAgent          string        `yaml:"userAgent"`
	RequestTimeout     time.Duration `yaml:"requestTimeout" validate:"gte=0s"`
	HostInterval       time.Duration `yaml:"hostInterval" validate:"gte=0s"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	DSN    string `yaml:"dsn" validate:"required"`
}

// LLMConfig defines how to contact an OpenAI-compatible chat completion API.
type LLMConfig struct {
	BaseURL     string  `yaml:"baseUrl"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"maxTokens" validate:"gte=0"`
	PromptFile  string  `yaml:"promptFile"`
}

// EmailConfig wires the SMTP transport and the digest recipient.
type EmailConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port" validate:"gte=0,lte=65535"`
	SSL             bool   `yaml:"ssl"`
	Sender          string `yaml:"sender" validate:"omitempty,email"`
	Password        string `yaml:"password"`
	Recipient       string `yaml:"recipient" validate:"omitempty,email"`
	SubjectTemplate string `yaml:"subjectTemplate"`
	DateLayout      string `yaml:"dateLayout"`
}

// DigestConfig decides which day a digest covers.
type DigestConfig struct {
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the digest timezone string to a time.Location.
func (d DigestConfig) Location() *time.Location {
	if d.location != nil {
		return d.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	File   string `yaml:"file"`
}

// Load reads YAML configuration (if any), the .env file and applies environment overrides.
// An empty path falls back to FEEDDIGEST_CONFIG. A named file that cannot be read
// or parsed is an error: running on defaults could point the commands at another database.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}

	return cfg, nil
}

// FeedURLs flattens the configured feeds.
func (c Config) FeedURLs() []string {
	urls := make([]string, 0, len(c.Feeds))
	for _, feed := range c.Feeds {
		if u := strings.TrimSpace(feed.URL); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// ValidateStorage checks the settings every command needs, including value ranges of the whole file.
func (c Config) ValidateStorage() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: database dsn is empty")
	}
	return nil
}

// ValidateCollect checks the settings the collection run cannot start without.
func (c Config) ValidateCollect() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config: %s is not set", openAIKeyEnv)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: %s is not set", defaultModelEnv)
	}
	feeds := c.FeedURLs()
	if len(feeds) == 0 {
		return fmt.Errorf("config: no feeds configured")
	}
	for _, u := range feeds {
		if err := validate.Var(u, "url"); err != nil {
			return fmt.Errorf("config: feed %q is not a valid url", u)
		}
	}
	return nil
}

// ValidateSend checks the settings the delivery run cannot start without.
func (c Config) ValidateSend() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.Email.Recipient == "" {
		return fmt.Errorf("config: %s is not set", receiverEmailEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(openAIBaseEnv); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(defaultModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(smtpHostEnv); v != "" {
		c.Email.Host = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("config: %s (%q) is not a valid number", smtpPortEnv, v)
			port = 0
		}
		c.Email.Port = port
	}
	if v := os.Getenv(smtpSSLEnv); v != "" {
		c.Email.SSL = strings.EqualFold(v, "true")
	}
	if v := os.Getenv(senderEmailEnv); v != "" {
		c.Email.Sender = v
	}
	if v := os.Getenv(senderPasswordEnv); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv(receiverEmailEnv); v != "" {
		c.Email.Recipient = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Digest.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Digest.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Feeds: []FeedConfig{
			{URL: "http://www.ruanyifeng.com/blog/atom.xml"},
		},
		Collector: CollectorConfig{
			MaxArticlesPerFeed: 5,
			MinContentLength:   200,
			UserAgent:          "FeedDigest/1.0",
			RequestTimeout:     30 * time.Second,
			HostInterval:       500 * time.Millisecond,
		},
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: "briefings.db"},
		LLM: LLMConfig{
			Temperature: 0.2,
			MaxTokens:   500,
		},
		Email: EmailConfig{
			SubjectTemplate: "Your daily briefing - {date}",
			DateLayout:      "2006-01-02",
		},
		Digest:  DigestConfig{Timezone: defaultTimezone, location: tz},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
