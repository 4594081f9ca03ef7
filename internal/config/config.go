package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:7433"
	DefaultDBFileName = ".opsboard.db"
	DefaultLogLevel   = "info"

	DefaultSMTPPort          = 587
	DefaultPushTimeoutSecs   = 10
	DefaultDeliveryQueueSize = 256

	configDirEnvKey    = "OPSBOARD_CONFIG_DIR"
	apiURLEnvKey       = "OPSBOARD_API_URL"
	dbPathEnvKey       = "OPSBOARD_DB"
	tokenSecretEnvKey  = "OPSBOARD_TOKEN_SECRET"
	smtpPasswordEnvKey = "OPSBOARD_SMTP_PASSWORD"
	pushURLEnvKey      = "OPSBOARD_PUSH_URL"
)

// SMTPConfig defines the outbound email channel.
type SMTPConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Username  string `toml:"username"`
	Password  string `toml:"-"`
	FromEmail string `toml:"from_email"`
	FromName  string `toml:"from_name"`
}

// PushConfig defines the push-gateway channel.
type PushConfig struct {
	GatewayURL  string `toml:"gateway_url"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// Config defines runtime configuration for opsboard.
type Config struct {
	APIURL            string     `toml:"api_url"`
	DBPath            string     `toml:"db_path"`
	LogLevel          string     `toml:"log_level"`
	TokenSecret       string     `toml:"-"`
	DeliveryQueueSize int        `toml:"delivery_queue_size"`
	SMTP              SMTPConfig `toml:"smtp"`
	Push              PushConfig `toml:"push"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:            DefaultAPIURL,
		DBPath:            "",
		LogLevel:          DefaultLogLevel,
		DeliveryQueueSize: DefaultDeliveryQueueSize,
		SMTP: SMTPConfig{
			Port:     DefaultSMTPPort,
			FromName: "Opsboard",
		},
		Push: PushConfig{
			TimeoutSecs: DefaultPushTimeoutSecs,
		},
	}
}

// Load reads config from the config file and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return nil, err
	}
	if err := loadFileIfExists(path, &cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	cfg.TokenSecret = strings.TrimSpace(os.Getenv(tokenSecretEnvKey))
	if password := os.Getenv(smtpPasswordEnvKey); password != "" {
		cfg.SMTP.Password = password
	}
	if pushURL := os.Getenv(pushURLEnvKey); pushURL != "" {
		cfg.Push.GatewayURL = pushURL
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, ".opsboard.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".opsboard.toml"), nil
}

func loadFileIfExists(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"log_level",
	"delivery_queue_size",
	"smtp.host",
	"smtp.port",
	"smtp.username",
	"smtp.from_email",
	"smtp.from_name",
	"push.gateway_url",
	"push.timeout_secs",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the current value of a config key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "delivery_queue_size":
		return strconv.Itoa(c.DeliveryQueueSize), nil
	case "smtp.host":
		return c.SMTP.Host, nil
	case "smtp.port":
		return strconv.Itoa(c.SMTP.Port), nil
	case "smtp.username":
		return c.SMTP.Username, nil
	case "smtp.from_email":
		return c.SMTP.FromEmail, nil
	case "smtp.from_name":
		return c.SMTP.FromName, nil
	case "push.gateway_url":
		return c.Push.GatewayURL, nil
	case "push.timeout_secs":
		return strconv.Itoa(c.Push.TimeoutSecs), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "smtp.port", "push.timeout_secs", "delivery_queue_size":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	if c.SMTP.Port <= 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.Push.TimeoutSecs <= 0 {
		c.Push.TimeoutSecs = DefaultPushTimeoutSecs
	}
	if c.DeliveryQueueSize <= 0 {
		c.DeliveryQueueSize = DefaultDeliveryQueueSize
	}
}
