// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RAGDESK_MODEL.
const EnvPrefix = "RAGDESK"

// CredentialEnv is the conventional Gemini credential variable. It is bound
// to api_key alongside RAGDESK_API_KEY.
const CredentialEnv = "GEMINI_API_KEY"

// DefaultMaxUploadBytes matches the largest file File Search accepts.
const DefaultMaxUploadBytes int64 = 100 << 20

// Config is the top-level ragdesk configuration.
type Config struct {
	// APIKey may be a literal key or a keyring:// reference.
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Poll           PollConfig    `mapstructure:"poll"`
	Server         ServerConfig  `mapstructure:"server"`
}

// PollConfig controls how upload operations are awaited.
type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// MaxUploadBytes caps the decoded file size accepted by the upload
	// endpoint. Zero uses the server default.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("model", "gemini-2.5-flash")
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("poll.interval", 2*time.Second)
	v.SetDefault("poll.max_attempts", 0)
	v.SetDefault("server.listen", "127.0.0.1:18790")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.max_upload_bytes", DefaultMaxUploadBytes)
}

// SetupEnv enables RAGDESK_* overrides and binds GEMINI_API_KEY.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// RAGDESK_API_KEY wins over GEMINI_API_KEY when both are set.
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", CredentialEnv)
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ragerr.Errorf(ragerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors, collecting all
// issues rather than stopping at the first one. A missing API key is not a
// configuration error; it surfaces when the session initializes.
func (c *Config) Validate() []error {
	var errs []error

	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "config: model must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: request_timeout must be greater than 0, got %s", c.RequestTimeout))
	}

	errs = append(errs, c.validatePoll()...)
	errs = append(errs, c.validateServer()...)

	return errs
}

func (c *Config) validatePoll() []error {
	var errs []error

	if c.Poll.Interval <= 0 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: poll.interval must be greater than 0, got %s", c.Poll.Interval))
	}
	if c.Poll.MaxAttempts < 0 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: poll.max_attempts must not be negative, got %d", c.Poll.MaxAttempts))
	}

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
	} else if _, portStr, err := net.SplitHostPort(c.Server.Listen); err != nil {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w", c.Server.Listen, err))
	} else if port, err := strconv.Atoi(portStr); err != nil {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d", port))
	}

	if c.Server.MaxUploadBytes < 0 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: server.max_upload_bytes must not be negative, got %d", c.Server.MaxUploadBytes))
	}

	for i, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
				"config: server.cors_origins[%d] must be \"*\" or an http(s) origin, got %q", i, origin))
		}
	}

	return errs
}
