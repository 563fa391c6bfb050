package config

import (
	"errors"
	"fmt"
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

// Config holds the full runtime configuration, loaded once at startup and
// passed explicitly to every component.
type Config struct {
	Env  string
	Port int

	SharedSecret        string
	DataDir             string
	ClientDirectoryPath string
	QuestionnairePath   string
	MaxBodyBytes        int64
	ShutdownTimeout     time.Duration

	Mail MailConfig
	CORS CORSConfig
	Log  LogConfig
}

// MailConfig configures outbound delivery through the Mailgun messages API.
type MailConfig struct {
	Domain      string
	From        string
	Recipient   string
	APIKey      string
	Subject     string
	SendTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
		// A .env file is optional; only real read failures abort startup.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.SharedSecret = v.GetString("SHARED_SECRET")
	cfg.DataDir = v.GetString("DATA_DIR")
	cfg.ClientDirectoryPath = v.GetString("CLIENT_DIRECTORY_PATH")
	cfg.QuestionnairePath = v.GetString("QUESTIONNAIRE_PATH")
	cfg.MaxBodyBytes = v.GetInt64("MAX_BODY_BYTES")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	cfg.Mail = MailConfig{
		Domain:      v.GetString("MAIL_DOMAIN"),
		From:        v.GetString("MAIL_FROM"),
		Recipient:   v.GetString("RECIPIENT"),
		APIKey:      v.GetString("MAILGUN_API_KEY"),
		Subject:     v.GetString("MAIL_SUBJECT"),
		SendTimeout: parseDuration(v.GetString("MAIL_SEND_TIMEOUT"), 30*time.Second),
	}
	if cfg.Mail.From == "" && cfg.Mail.Domain != "" {
		cfg.Mail.From = "form@" + cfg.Mail.Domain
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// Validate checks the required values. The process must refuse to start
// when any of them is missing.
func (c *Config) Validate() error {
	missing := []string{}
	if c.SharedSecret == "" {
		missing = append(missing, "SHARED_SECRET")
	}
	if c.Mail.Domain == "" {
		missing = append(missing, "MAIL_DOMAIN")
	}
	if c.Mail.Recipient == "" {
		missing = append(missing, "RECIPIENT")
	}
	if c.Mail.APIKey == "" {
		missing = append(missing, "MAILGUN_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("CLIENT_DIRECTORY_PATH", "./clients.json")
	v.SetDefault("QUESTIONNAIRE_PATH", "")
	v.SetDefault("MAX_BODY_BYTES", 32*1024*1024)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("MAIL_SUBJECT", "Sales Intake")
	v.SetDefault("MAIL_SEND_TIMEOUT", "30s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
