package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for flowbridge. It is built once at
// process start and passed into components; nothing reads ambient env state
// after load.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Server   ServerConfig   `json:"server"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Flow     FlowConfig     `json:"flow"`
	Orders   OrdersConfig   `json:"orders"`
}

type GeneralConfig struct {
	LogLevel        string `json:"logLevel"`
	DispatchWorkers int    `json:"dispatchWorkers"`
	BusBuffer       int    `json:"busBuffer"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// WhatsAppConfig holds the Cloud API credentials and webhook settings.
type WhatsAppConfig struct {
	APIBase       string `json:"apiBase,omitempty"` // default: graph.facebook.com
	AccessToken   string `json:"accessToken"`
	VerifyToken   string `json:"verifyToken"`
	AppSecret     string `json:"appSecret,omitempty"` // enables signature checks
	PhoneNumberID string `json:"phoneNumberId"`
	WebhookPath   string `json:"webhookPath,omitempty"`
}

// FlowConfig points at the flow engine's channel receive endpoint.
type FlowConfig struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

type OrdersConfig struct {
	DBPath string `json:"dbPath"`
}

// DefaultConfigDir returns the default config directory (~/.flowbridge).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowbridge"
	}
	return filepath.Join(home, ".flowbridge")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Orders.DBPath = ExpandPath(cfg.Orders.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if cfg.General.DispatchWorkers < 1 || cfg.General.DispatchWorkers > 100 {
		errs = append(errs, "general.dispatchWorkers must be between 1 and 100")
	}
	if cfg.General.BusBuffer < 1 {
		errs = append(errs, "general.busBuffer must be >= 1")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if !strings.HasPrefix(cfg.WhatsApp.WebhookPath, "/") {
		errs = append(errs, "whatsapp.webhookPath must start with /")
	}
	if cfg.Flow.BaseURL == "" {
		errs = append(errs, "flow.baseUrl is required")
	}
	if cfg.Orders.DBPath == "" {
		errs = append(errs, "orders.dbPath is required")
	}
	if cfg.Flow.TimeoutSeconds < 0 {
		errs = append(errs, "flow.timeoutSeconds must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
