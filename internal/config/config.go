package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the optional config file looked up next to the binary's
// working directory.
const FileName = "routinetracker"

// Config keeps runtime settings for the tracker.
type Config struct {
	TelegramToken  string        `yaml:"telegram_token"`
	DatabaseURL    string        `yaml:"database_url"`
	ReportTime     string        `yaml:"report_time"`
	ReportInterval time.Duration `yaml:"report_interval"`
	Timezone       string        `yaml:"timezone"`
	AllowedChatIDs []int64       `yaml:"allowed_chat_ids,omitempty"`
	LogSQL         bool          `yaml:"log_sql"`

	Location *time.Location `yaml:"-"`
}

var envKeys = map[string]string{
	"telegram_token":        "TELEGRAM_TOKEN",
	"database_url":          "DATABASE_URL",
	"report_time":           "REPORT_TIME",
	"report_interval_hours": "REPORT_INTERVAL_HOURS",
	"timezone":              "TIMEZONE",
	"allowed_chat_ids":      "ALLOWED_CHAT_IDS",
	"log_sql":               "LOG_SQL",
}

// Load reads configuration from .env, an optional routinetracker.yaml and
// environment variables, in increasing priority.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("database_url", "routine_tracker.db")
	v.SetDefault("report_time", "08:00")
	v.SetDefault("report_interval_hours", 0)
	v.SetDefault("timezone", "Local")
	v.SetDefault("log_sql", false)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		TelegramToken: strings.TrimSpace(v.GetString("telegram_token")),
		DatabaseURL:   strings.TrimSpace(v.GetString("database_url")),
		ReportTime:    strings.TrimSpace(v.GetString("report_time")),
		Timezone:      strings.TrimSpace(v.GetString("timezone")),
		LogSQL:        v.GetBool("log_sql"),
	}

	cfg.ReportInterval = parseInterval(strings.TrimSpace(v.GetString("report_interval_hours")))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	ids, err := parseChatIDs(v.GetString("allowed_chat_ids"))
	if err != nil {
		return cfg, err
	}
	cfg.AllowedChatIDs = ids
	return cfg, nil
}

// RequireToken fails when no bot token is configured.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// ChatAllowed reports whether chatID may use the bot. An empty allow list
// admits everyone.
func (c Config) ChatAllowed(chatID int64) bool {
	if len(c.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// Print writes the effective configuration as YAML with the token masked.
func (c Config) Print(w io.Writer) error {
	out := c
	if out.TelegramToken != "" {
		out.TelegramToken = "***"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOWED_CHAT_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
