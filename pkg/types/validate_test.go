package types

import (
	"errors"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Target.BaseURL = "http://localhost:8080"
	return cfg
}

func hasField(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string // empty means valid
	}{
		{"defaults with base url", func(c *Config) {}, ""},
		{"missing base url", func(c *Config) { c.Target.BaseURL = "" }, "target.base_url"},
		{"relative base url", func(c *Config) { c.Target.BaseURL = "localhost:8080" }, "target.base_url"},
		{"ftp base url", func(c *Config) { c.Target.BaseURL = "ftp://example.com" }, "target.base_url"},
		{"missing tests file", func(c *Config) { c.Run.TestsFile = "" }, "run.tests_file"},
		{"missing output file", func(c *Config) { c.Run.OutputFile = "" }, "run.output_file"},
		{"negative delay", func(c *Config) { c.Run.Delay = -1 }, "run.delay"},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, "http.timeout"},
		{"email without password", func(c *Config) { c.Auth.Email = "a@b.com" }, "auth"},
		{"missing token field", func(c *Config) { c.Auth.TokenField = "" }, "auth.token_field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := NewConfigValidator().ValidateRun(cfg)

			if tt.field == "" {
				if errs.HasErrors() {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if !hasField(errs, tt.field) {
				t.Errorf("expected an error for %s, got %v", tt.field, errs)
			}
			if !errors.Is(errs, ErrConfiguration) {
				t.Error("expected ValidationErrors to wrap ErrConfiguration")
			}
		})
	}
}

func TestValidateProbe(t *testing.T) {
	cfg := validConfig()
	if errs := NewConfigValidator().ValidateProbe(cfg, []string{ProbeUnauth, ProbeCORS}); errs.HasErrors() {
		t.Errorf("expected independent probes to need no credentials, got %v", errs)
	}

	errs := NewConfigValidator().ValidateProbe(cfg, []string{ProbeUnauth, ProbeIDOR})
	if !hasField(errs, "auth.email") {
		t.Errorf("expected credentials to be required for idor, got %v", errs)
	}

	cfg.Auth.Email = "a@b.com"
	cfg.Auth.Password = "secret"
	if errs := NewConfigValidator().ValidateProbe(cfg, AllProbes); errs.HasErrors() {
		t.Errorf("expected a complete config to validate, got %v", errs)
	}

	cfg.Probes.Enabled = []string{"sqlmap"}
	cfg.Probes.RateLimit.Bursts[0].Count = 0
	errs = NewConfigValidator().ValidateProbe(cfg, nil)
	if !hasField(errs, "probes.enabled") || !hasField(errs, "probes.rate_limit.bursts[0].count") {
		t.Errorf("expected unknown probe and burst count errors, got %v", errs)
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := error(&ValidationError{Field: "x", Message: "bad"})
	if !errors.Is(err, ErrConfiguration) {
		t.Error("expected ValidationError to wrap ErrConfiguration")
	}
}
