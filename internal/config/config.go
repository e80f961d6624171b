// Package config loads the formcollect runtime configuration from an optional
// file with FORMCOLLECT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sink kinds accepted in SinkConfig.Kinds.
const (
	SinkLog  = "log"
	SinkHTTP = "http"
	SinkSQL  = "sql"
)

type ServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`                               // Listen address, e.g. :8383
	BasePath          string        `mapstructure:"base_path" yaml:"base_path"`                     // Mount path of the signup component
	ShutdownGrace     time.Duration `mapstructure:"shutdown_grace" yaml:"shutdown_grace"`           // Time allowed for in-flight requests on shutdown
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"` // http.Server ReadHeaderTimeout
}

type FormConfig struct {
	DefinitionFile     string `mapstructure:"definition_file" yaml:"definition_file"`         // YAML/JSON definition document; empty uses the embedded signup form
	FormID             string `mapstructure:"form_id" yaml:"form_id"`                         // Form to select from the definition document
	OpenAPIFile        string `mapstructure:"openapi_file" yaml:"openapi_file"`               // OpenAPI document to derive the form from instead
	OperationID        string `mapstructure:"operation_id" yaml:"operation_id"`               // Operation whose request body describes the form
	OverlayFile        string `mapstructure:"overlay_file" yaml:"overlay_file"`               // Label/help/order overrides applied on top of the form
	EnforceConstraints bool   `mapstructure:"enforce_constraints" yaml:"enforce_constraints"` // Check required/email/length/options server side
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

type HTTPSinkConfig struct {
	URL      string        `mapstructure:"url" yaml:"url"`
	Attempts uint          `mapstructure:"attempts" yaml:"attempts"`
	Delay    time.Duration `mapstructure:"delay" yaml:"delay"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type SQLSinkConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"` // Secret: database connection string
	Table  string `mapstructure:"table" yaml:"table"`
}

type SinkConfig struct {
	Kinds []string       `mapstructure:"kinds" yaml:"kinds"` // Any of log, http, sql; delivered in order
	HTTP  HTTPSinkConfig `mapstructure:"http" yaml:"http"`
	SQL   SQLSinkConfig  `mapstructure:"sql" yaml:"sql"`
}

type ThemeConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Variant string `mapstructure:"variant" yaml:"variant"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Form   FormConfig   `mapstructure:"form" yaml:"form"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Sink   SinkConfig   `mapstructure:"sink" yaml:"sink"`
	Theme  ThemeConfig  `mapstructure:"theme" yaml:"theme"`
}

// Default returns a configuration that serves the embedded signup form and
// logs submissions.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8383",
			BasePath:          "/signup",
			ShutdownGrace:     5 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		},
		Form: FormConfig{
			FormID: "signup",
		},
		Log: LogConfig{
			Level: "info",
		},
		Sink: SinkConfig{
			Kinds: []string{SinkLog},
			HTTP: HTTPSinkConfig{
				Attempts: 3,
				Delay:    200 * time.Millisecond,
				Timeout:  10 * time.Second,
			},
			SQL: SQLSinkConfig{
				Driver: "postgres",
				Table:  "submissions",
			},
		},
		Theme: ThemeConfig{
			Name:    "default",
			Variant: "light",
		},
	}
}

// Load reads filePath when it exists, applies environment overrides and
// validates the result. An empty filePath loads defaults and environment only.
func Load(filePath string) (*Config, error) {
	v := newViper()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", filePath, err)
			}
		}
	}

	return decode(v)
}

// LoadFile is Load for a path the user named explicitly: the file must
// exist.
func LoadFile(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.New("config: file path is required")
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Load(filePath)
}

// LoadEnv loads defaults and environment overrides only.
func LoadEnv() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, Default())
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	if err := bindEnvs(v); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Sink.Kinds = normalizeKinds(cfg.Sink.Kinds)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first inconsistency in cfg.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil config")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Server.ShutdownGrace < 0 {
		return errors.New("config: server.shutdown_grace must not be negative")
	}
	if c.Form.OpenAPIFile != "" && strings.TrimSpace(c.Form.OperationID) == "" {
		return errors.New("config: form.operation_id is required with form.openapi_file")
	}
	for _, kind := range c.Sink.Kinds {
		switch kind {
		case SinkLog:
		case SinkHTTP:
			if strings.TrimSpace(c.Sink.HTTP.URL) == "" {
				return errors.New("config: sink.http.url is required for the http sink")
			}
		case SinkSQL:
			if strings.TrimSpace(c.Sink.SQL.DSN) == "" {
				return errors.New("config: sink.sql.dsn is required for the sql sink")
			}
		default:
			return fmt.Errorf("config: unknown sink kind %q", kind)
		}
	}
	return nil
}

// HasSink reports whether kind is enabled.
func (c *Config) HasSink(kind string) bool {
	return slices.Contains(c.Sink.Kinds, kind)
}

func normalizeKinds(kinds []string) []string {
	out := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		for _, part := range strings.Split(kind, ",") {
			trimmed := strings.ToLower(strings.TrimSpace(part))
			if trimmed == "" || slices.Contains(out, trimmed) {
				continue
			}
			out = append(out, trimmed)
		}
	}
	return out
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.base_path", cfg.Server.BasePath)
	v.SetDefault("server.shutdown_grace", cfg.Server.ShutdownGrace)
	v.SetDefault("server.read_header_timeout", cfg.Server.ReadHeaderTimeout)
	v.SetDefault("form.form_id", cfg.Form.FormID)
	v.SetDefault("form.enforce_constraints", cfg.Form.EnforceConstraints)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("sink.kinds", cfg.Sink.Kinds)
	v.SetDefault("sink.http.attempts", cfg.Sink.HTTP.Attempts)
	v.SetDefault("sink.http.delay", cfg.Sink.HTTP.Delay)
	v.SetDefault("sink.http.timeout", cfg.Sink.HTTP.Timeout)
	v.SetDefault("sink.sql.driver", cfg.Sink.SQL.Driver)
	v.SetDefault("sink.sql.table", cfg.Sink.SQL.Table)
	v.SetDefault("theme.name", cfg.Theme.Name)
	v.SetDefault("theme.variant", cfg.Theme.Variant)
}

var (
	envBindings = map[string][]string{
		"server.addr":                {"FORMCOLLECT_SERVER_ADDR", "FORMCOLLECT_ADDR"},
		"server.base_path":           {"FORMCOLLECT_SERVER_BASE_PATH"},
		"server.shutdown_grace":      {"FORMCOLLECT_SERVER_SHUTDOWN_GRACE"},
		"server.read_header_timeout": {"FORMCOLLECT_SERVER_READ_HEADER_TIMEOUT"},
		"form.definition_file":       {"FORMCOLLECT_FORM_DEFINITION_FILE"},
		"form.form_id":               {"FORMCOLLECT_FORM_ID"},
		"form.openapi_file":          {"FORMCOLLECT_FORM_OPENAPI_FILE"},
		"form.operation_id":          {"FORMCOLLECT_FORM_OPERATION_ID"},
		"form.overlay_file":          {"FORMCOLLECT_FORM_OVERLAY_FILE"},
		"form.enforce_constraints":   {"FORMCOLLECT_FORM_ENFORCE_CONSTRAINTS"},
		"log.level":                  {"FORMCOLLECT_LOG_LEVEL", "LOG_LEVEL"},
		"log.development":            {"FORMCOLLECT_LOG_DEVELOPMENT"},
		"sink.kinds":                 {"FORMCOLLECT_SINK_KINDS"},
		"sink.http.url":              {"FORMCOLLECT_SINK_HTTP_URL"},
		"sink.http.attempts":         {"FORMCOLLECT_SINK_HTTP_ATTEMPTS"},
		"sink.http.delay":            {"FORMCOLLECT_SINK_HTTP_DELAY"},
		"sink.http.timeout":          {"FORMCOLLECT_SINK_HTTP_TIMEOUT"},
		"sink.sql.driver":            {"FORMCOLLECT_SINK_SQL_DRIVER"},
		"sink.sql.dsn":               {"FORMCOLLECT_SINK_SQL_DSN", "DATABASE_URL"},
		"sink.sql.table":             {"FORMCOLLECT_SINK_SQL_TABLE"},
		"theme.name":                 {"FORMCOLLECT_THEME_NAME"},
		"theme.variant":              {"FORMCOLLECT_THEME_VARIANT"},
	}
)

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
