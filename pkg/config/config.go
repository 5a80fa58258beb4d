// Package config loads the service configuration from defaults, an optional
// YAML file, an optional .env file and the process environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/common/errors"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/optimizer"
)

const (
	DefaultMaxChars       = optimizer.DefaultMaxChars
	DefaultConnectTimeout = 30 * time.Second
	DefaultRequestTimeout = 5 * time.Minute
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultBaseURL        = "https://llm.api.cloud.yandex.net"
	DefaultModelURI       = "gpt://b1gp9fidpabmov8j1rid/yandexgpt-lite"
	DefaultTemperature    = 0.6
	DefaultMaxTokens      = 2000

	// MaxTemperature and MaxTokensLimit bound the generation options.
	MaxTemperature = 1.0
	MaxTokensLimit = 8000
)

// Config holds every knob of the service. Durations are written as Go
// duration strings ("30s", "5m") in YAML and in the environment.
type Config struct {
	// File access
	RootDir    string `json:"root_dir" env:"CODEFIXER_ROOT_DIR"`
	MaxChars   int    `json:"max_chars" env:"CODEFIXER_MAX_CHARS"`
	IgnoreFile string `json:"ignore_file,omitempty" env:"CODEFIXER_IGNORE_FILE"`

	// Completion provider
	BaseURL     string  `json:"base_url" env:"CODEFIXER_LLM_BASE_URL"`
	APIKey      string  `json:"-" env:"YANDEX_GPT_API_KEY"`
	FolderID    string  `json:"folder_id,omitempty" env:"CODEFIXER_FOLDER_ID"`
	ModelURI    string  `json:"model_uri" env:"CODEFIXER_MODEL_URI"`
	Temperature float64 `json:"temperature" env:"CODEFIXER_TEMPERATURE"`
	MaxTokens   int     `json:"max_tokens" env:"CODEFIXER_MAX_TOKENS"`

	ConnectTimeout Duration `json:"connect_timeout" env:"CODEFIXER_CONNECT_TIMEOUT"`
	RequestTimeout Duration `json:"request_timeout" env:"CODEFIXER_REQUEST_TIMEOUT"`
	IdleTimeout    Duration `json:"idle_timeout" env:"CODEFIXER_IDLE_TIMEOUT"`

	// HTTP boundary
	HTTPHost       string   `json:"http_host" env:"CODEFIXER_HTTP_HOST"`
	HTTPPort       int      `json:"http_port" env:"CODEFIXER_HTTP_PORT"`
	CORSOrigins    []string `json:"cors_origins,omitempty" env:"CODEFIXER_CORS_ORIGINS"`
	MetricsEnabled bool     `json:"metrics_enabled" env:"CODEFIXER_METRICS_ENABLED"`

	// Logging
	LogLevel  string `json:"log_level" env:"CODEFIXER_LOG_LEVEL"`
	LogFormat string `json:"log_format" env:"CODEFIXER_LOG_FORMAT"`
}

// Duration lets YAML and JSON carry "5m" style values.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("duration must be a string such as \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return &Config{
		RootDir:        root,
		MaxChars:       DefaultMaxChars,
		BaseURL:        DefaultBaseURL,
		ModelURI:       DefaultModelURI,
		Temperature:    DefaultTemperature,
		MaxTokens:      DefaultMaxTokens,
		ConnectTimeout: Duration{DefaultConnectTimeout},
		RequestTimeout: Duration{DefaultRequestTimeout},
		IdleTimeout:    Duration{DefaultIdleTimeout},
		HTTPHost:       "0.0.0.0",
		HTTPPort:       8080,
		MetricsEnabled: true,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Load builds the configuration. Precedence, lowest first: defaults, the YAML
// file, the .env file, the process environment, then overrides in order.
// Validation runs once on the final result. A missing .env file is only an
// error when its path was given explicitly.
func Load(configFile, envFile string, overrides ...func(*Config)) (*Config, error) {
	cfg := DefaultConfig()

	if configFile != "" {
		if err := loadYAML(cfg, configFile); err != nil {
			return nil, err
		}
	}

	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return nil
}

func loadEnvFile(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return errors.ConfigError(fmt.Sprintf("failed to load env file %s", envFile), err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	return nil
}

// EnvConfigMapping defines how an environment variable maps onto a field
type EnvConfigMapping struct {
	EnvKey string
	Setter func(cfg *Config, value string) error
}

func buildEnvMappings() []EnvConfigMapping {
	return []EnvConfigMapping{
		{"CODEFIXER_ROOT_DIR", func(cfg *Config, v string) error { cfg.RootDir = v; return nil }},
		{"CODEFIXER_MAX_CHARS", intSetter(func(cfg *Config, n int) { cfg.MaxChars = n })},
		{"CODEFIXER_IGNORE_FILE", func(cfg *Config, v string) error { cfg.IgnoreFile = v; return nil }},
		{"CODEFIXER_LLM_BASE_URL", func(cfg *Config, v string) error { cfg.BaseURL = v; return nil }},
		{"YANDEX_GPT_API_KEY", func(cfg *Config, v string) error { cfg.APIKey = v; return nil }},
		{"CODEFIXER_FOLDER_ID", func(cfg *Config, v string) error { cfg.FolderID = v; return nil }},
		{"CODEFIXER_MODEL_URI", func(cfg *Config, v string) error { cfg.ModelURI = v; return nil }},
		{"CODEFIXER_TEMPERATURE", func(cfg *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			cfg.Temperature = f
			return nil
		}},
		{"CODEFIXER_MAX_TOKENS", intSetter(func(cfg *Config, n int) { cfg.MaxTokens = n })},
		{"CODEFIXER_CONNECT_TIMEOUT", durationSetter(func(cfg *Config, d time.Duration) { cfg.ConnectTimeout.Duration = d })},
		{"CODEFIXER_REQUEST_TIMEOUT", durationSetter(func(cfg *Config, d time.Duration) { cfg.RequestTimeout.Duration = d })},
		{"CODEFIXER_IDLE_TIMEOUT", durationSetter(func(cfg *Config, d time.Duration) { cfg.IdleTimeout.Duration = d })},
		{"CODEFIXER_HTTP_HOST", func(cfg *Config, v string) error { cfg.HTTPHost = v; return nil }},
		{"CODEFIXER_HTTP_PORT", intSetter(func(cfg *Config, n int) { cfg.HTTPPort = n })},
		{"CODEFIXER_CORS_ORIGINS", func(cfg *Config, v string) error {
			cfg.CORSOrigins = splitList(v)
			return nil
		}},
		{"CODEFIXER_METRICS_ENABLED", func(cfg *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			cfg.MetricsEnabled = b
			return nil
		}},
		{"CODEFIXER_LOG_LEVEL", func(cfg *Config, v string) error { cfg.LogLevel = strings.ToLower(v); return nil }},
		{"CODEFIXER_LOG_FORMAT", func(cfg *Config, v string) error { cfg.LogFormat = strings.ToLower(v); return nil }},
	}
}

func intSetter(set func(*Config, int)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		set(cfg, n)
		return nil
	}
}

func durationSetter(set func(*Config, time.Duration)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		set(cfg, d)
		return nil
	}
}

func applyEnv(cfg *Config) error {
	for _, mapping := range buildEnvMappings() {
		if val := os.Getenv(mapping.EnvKey); val != "" {
			if err := mapping.Setter(cfg, val); err != nil {
				return errors.ConfigError(fmt.Sprintf("failed to set %s", mapping.EnvKey), err)
			}
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs field.ErrorList
	root := field.NewPath("config")

	if strings.TrimSpace(c.RootDir) == "" {
		errs = append(errs, field.Required(root.Child("root_dir"), "root directory is required"))
	} else if info, err := os.Stat(c.RootDir); err != nil {
		errs = append(errs, field.Invalid(root.Child("root_dir"), c.RootDir, err.Error()))
	} else if !info.IsDir() {
		errs = append(errs, field.Invalid(root.Child("root_dir"), c.RootDir, "not a directory"))
	}
	if c.MaxChars <= 0 {
		errs = append(errs, field.Invalid(root.Child("max_chars"), c.MaxChars, "must be positive"))
	}

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, field.Invalid(root.Child("base_url"), c.BaseURL, "must be an absolute URL"))
	}
	if strings.TrimSpace(c.ModelURI) == "" {
		errs = append(errs, field.Required(root.Child("model_uri"), ""))
	}
	if c.Temperature < 0 || c.Temperature > MaxTemperature {
		errs = append(errs, field.Invalid(root.Child("temperature"), c.Temperature,
			fmt.Sprintf("must be between 0 and %.1f", MaxTemperature)))
	}
	if c.MaxTokens <= 0 || c.MaxTokens > MaxTokensLimit {
		errs = append(errs, field.Invalid(root.Child("max_tokens"), c.MaxTokens,
			fmt.Sprintf("must be between 1 and %d", MaxTokensLimit)))
	}
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"connect_timeout", c.ConnectTimeout.Duration},
		{"request_timeout", c.RequestTimeout.Duration},
		{"idle_timeout", c.IdleTimeout.Duration},
	} {
		if t.d <= 0 {
			errs = append(errs, field.Invalid(root.Child(t.name), t.d.String(), "must be positive"))
		}
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, field.Invalid(root.Child("http_port"), c.HTTPPort, "must be between 1 and 65535"))
	}
	errs = append(errs, validateChoice(root.Child("log_level"), c.LogLevel, "debug", "info", "warn", "error")...)
	errs = append(errs, validateChoice(root.Child("log_format"), c.LogFormat, "console", "json")...)

	return errs.ToAggregate()
}

func validateChoice(path *field.Path, value string, choices ...string) field.ErrorList {
	for _, c := range choices {
		if value == c {
			return nil
		}
	}
	return field.ErrorList{field.NotSupported(path, value, choices)}
}

// IgnoreFilePath resolves IgnoreFile against RootDir when it is relative.
func (c *Config) IgnoreFilePath() string {
	if c.IgnoreFile == "" || filepath.IsAbs(c.IgnoreFile) {
		return c.IgnoreFile
	}
	return filepath.Join(c.RootDir, c.IgnoreFile)
}

// HTTPAddr is the listen address of the HTTP server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
