package types

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrConfiguration is wrapped by every configuration validation failure
var ErrConfiguration = errors.New("configuration error")

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfiguration
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

func (e ValidationErrors) Unwrap() error {
	return ErrConfiguration
}

// HasErrors returns true if there are any validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ConfigValidator validates configuration settings
type ConfigValidator struct {
	errors ValidationErrors
}

// NewConfigValidator creates a new config validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateRun validates the settings needed by a declarative run
func (v *ConfigValidator) ValidateRun(config *Config) ValidationErrors {
	v.errors = nil

	v.validateTarget(config.Target)
	v.validateHTTPSettings(config.HTTP)
	v.validateRunSettings(config.Run)
	v.validateAuthSettings(config.Auth)

	return v.errors
}

// ValidateProbe validates the settings needed by a probe run. selected is
// the resolved list of probe names that will execute.
func (v *ConfigValidator) ValidateProbe(config *Config, selected []string) ValidationErrors {
	v.errors = nil

	v.validateTarget(config.Target)
	v.validateHTTPSettings(config.HTTP)
	v.validateAuthSettings(config.Auth)
	v.validateProbeSettings(config.Probes)

	var needAuth []string
	for _, name := range selected {
		if ProbeNeedsAuth(name) {
			needAuth = append(needAuth, name)
		}
	}
	if len(needAuth) > 0 && !config.Auth.HasCredentials() {
		v.addError("auth.email", "credentials required by probes "+strings.Join(needAuth, ", "), config.Auth.Email)
	}

	return v.errors
}

func (v *ConfigValidator) addError(field, message string, value interface{}) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

func (v *ConfigValidator) validateTarget(t TargetSettings) {
	if err := ValidateURL(t.BaseURL); err != nil {
		v.addError("target.base_url", err.Error(), t.BaseURL)
	}
}

func (v *ConfigValidator) validateHTTPSettings(h HTTPSettings) {
	if h.Timeout <= 0 {
		v.addError("http.timeout", "must be positive", h.Timeout)
	}

	if h.MaxRedirects < 0 {
		v.addError("http.max_redirects", "cannot be negative", h.MaxRedirects)
	}

	if h.ProxyURL != "" {
		if _, err := url.Parse(h.ProxyURL); err != nil {
			v.addError("http.proxy_url", "invalid URL format", h.ProxyURL)
		}
	}
}

func (v *ConfigValidator) validateRunSettings(r RunSettings) {
	if r.TestsFile == "" {
		v.addError("run.tests_file", "is required", r.TestsFile)
	}
	if r.OutputFile == "" {
		v.addError("run.output_file", "is required", r.OutputFile)
	}
	if r.Delay < 0 {
		v.addError("run.delay", "cannot be negative", r.Delay)
	}
}

func (v *ConfigValidator) validateAuthSettings(a AuthSettings) {
	if a.LoginEndpoint == "" {
		v.addError("auth.login_endpoint", "is required", a.LoginEndpoint)
	}
	if a.TokenField == "" {
		v.addError("auth.token_field", "is required", a.TokenField)
	}
	if (a.Email == "") != (a.Password == "") {
		v.addError("auth", "email and password must be set together", "")
	}
}

func (v *ConfigValidator) validateProbeSettings(p ProbeSettings) {
	for _, name := range p.Enabled {
		if !IsKnownProbe(name) {
			v.addError("probes.enabled", "unknown probe", name)
		}
	}

	for _, name := range p.Disabled {
		if !IsKnownProbe(name) {
			v.addError("probes.disabled", "unknown probe", name)
		}
	}

	for i, b := range p.RateLimit.Bursts {
		if b.Count < 1 {
			v.addError(fmt.Sprintf("probes.rate_limit.bursts[%d].count", i), "must be at least 1", b.Count)
		}
		if b.Delay < 0 {
			v.addError(fmt.Sprintf("probes.rate_limit.bursts[%d].delay", i), "cannot be negative", b.Delay)
		}
		if b.Endpoint == "" {
			v.addError(fmt.Sprintf("probes.rate_limit.bursts[%d].endpoint", i), "is required", "")
		}
	}

	if p.IDOR.Method != "" && !IsValidMethod(p.IDOR.Method) {
		v.addError("probes.idor.method", "unknown HTTP method", p.IDOR.Method)
	}
	if p.Injection.Method != "" && !IsValidMethod(p.Injection.Method) {
		v.addError("probes.injection.method", "unknown HTTP method", p.Injection.Method)
	}
}

// ValidateURL validates a URL string
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL must have a scheme (http or https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
