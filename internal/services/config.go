package services

import (
	"fmt"
	"time"

	"service-orchestrator/internal/common/errors"
)

// AuthConfig describes how requests to a backend service authenticate.
// Exactly one style applies, selected by Type.
type AuthConfig struct {
	Type     string `yaml:"type" json:"type"` // bearer, basic, api_key, header
	Token    string `yaml:"token,omitempty" json:"token,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
	// Header is the header name for api_key auth (default X-API-Key)
	// and the full header name for header auth.
	Header string `yaml:"header,omitempty" json:"header,omitempty"`
	// Value is the raw header value for header auth, e.g. "KakaoAK abc123".
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Validate checks the auth descriptor shape.
func (a *AuthConfig) Validate() error {
	switch a.Type {
	case "bearer":
		if a.Token == "" {
			return errors.ConfigError("bearer auth requires token")
		}
	case "basic":
		if a.Username == "" {
			return errors.ConfigError("basic auth requires username")
		}
	case "api_key":
		if a.Key == "" {
			return errors.ConfigError("api_key auth requires key")
		}
	case "header":
		if a.Header == "" || a.Value == "" {
			return errors.ConfigError("header auth requires header and value")
		}
	default:
		return errors.ConfigError(fmt.Sprintf("unsupported auth type: %s", a.Type))
	}
	return nil
}

// RetryPolicy holds per-service retry defaults.
type RetryPolicy struct {
	MaxAttempts  int    `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay string `yaml:"initial_delay,omitempty" json:"initial_delay,omitempty"`
	MaxDelay     string `yaml:"max_delay,omitempty" json:"max_delay,omitempty"`
}

// ServiceConfig describes one named backend service.
type ServiceConfig struct {
	Name           string       `yaml:"name" json:"name"`
	BaseURL        string       `yaml:"base_url" json:"base_url"`
	Auth           *AuthConfig  `yaml:"auth,omitempty" json:"auth,omitempty"`
	Timeout        string       `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	ResponseFormat string       `yaml:"response_format,omitempty" json:"response_format,omitempty"` // json (default), xml, text
	Retry          *RetryPolicy `yaml:"retry,omitempty" json:"retry,omitempty"`
}

// GetTimeout returns the parsed service timeout, or the given default
// when unset or unparseable.
func (s *ServiceConfig) GetTimeout(defaultTimeout time.Duration) time.Duration {
	if s.Timeout == "" {
		return defaultTimeout
	}

	duration, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return defaultTimeout
	}

	return duration
}

// Validate checks the service definition.
func (s *ServiceConfig) Validate() error {
	if s.Name == "" {
		return errors.ConfigError("service name is required")
	}
	if s.BaseURL == "" {
		return errors.ConfigError(fmt.Sprintf("service %s: base_url is required", s.Name))
	}
	if s.Timeout != "" {
		if _, err := time.ParseDuration(s.Timeout); err != nil {
			return errors.ConfigError(fmt.Sprintf("service %s: invalid timeout %q", s.Name, s.Timeout))
		}
	}
	switch s.ResponseFormat {
	case "", "json", "xml", "text":
	default:
		return errors.ConfigError(fmt.Sprintf("service %s: unsupported response_format %q", s.Name, s.ResponseFormat))
	}
	if s.Auth != nil {
		if err := s.Auth.Validate(); err != nil {
			return err
		}
	}
	return nil
}
