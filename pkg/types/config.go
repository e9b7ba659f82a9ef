package types

import (
	"time"
)

// Config represents the application configuration
type Config struct {
	// Target API settings
	Target TargetSettings `yaml:"target" mapstructure:"target"`

	// HTTP client settings
	HTTP HTTPSettings `yaml:"http" mapstructure:"http"`

	// Declarative run settings
	Run RunSettings `yaml:"run" mapstructure:"run"`

	// Authentication step settings
	Auth AuthSettings `yaml:"auth" mapstructure:"auth"`

	// Probe library settings
	Probes ProbeSettings `yaml:"probes" mapstructure:"probes"`

	// Output settings
	Output OutputSettings `yaml:"output" mapstructure:"output"`
}

// TargetSettings identifies the API under test
type TargetSettings struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HTTPSettings holds HTTP client configuration
type HTTPSettings struct {
	Timeout         time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	VerifySSL       bool              `yaml:"verify_ssl" mapstructure:"verify_ssl"`
	FollowRedirects bool              `yaml:"follow_redirects" mapstructure:"follow_redirects"`
	MaxRedirects    int               `yaml:"max_redirects" mapstructure:"max_redirects"`
	ProxyURL        string            `yaml:"proxy_url" mapstructure:"proxy_url"`
	UserAgent       string            `yaml:"user_agent" mapstructure:"user_agent"`
	Headers         map[string]string `yaml:"headers" mapstructure:"headers"`
}

// RunSettings holds configuration for the declarative test run
type RunSettings struct {
	TestsFile  string        `yaml:"tests_file" mapstructure:"tests_file"`
	OutputFile string        `yaml:"output_file" mapstructure:"output_file"`
	Delay      time.Duration `yaml:"delay" mapstructure:"delay"`             // Pause between test cases
	RequestLog string        `yaml:"request_log" mapstructure:"request_log"` // JSON log of every exchange
}

// AuthSettings describes the login endpoint and the credentials used by probes
type AuthSettings struct {
	LoginEndpoint string `yaml:"login_endpoint" mapstructure:"login_endpoint"`
	Email         string `yaml:"email" mapstructure:"email"`
	Password      string `yaml:"password" mapstructure:"password" json:"-"`
	EmailField    string `yaml:"email_field" mapstructure:"email_field"`
	PasswordField string `yaml:"password_field" mapstructure:"password_field"`
	TokenField    string `yaml:"token_field" mapstructure:"token_field"` // Dotted path into the login response
}

// HasCredentials reports whether both login credentials are set
func (a AuthSettings) HasCredentials() bool {
	return a.Email != "" && a.Password != ""
}

// ProbeSettings holds probe library configuration
type ProbeSettings struct {
	Enabled           []string `yaml:"enabled" mapstructure:"enabled"` // Empty = all
	Disabled          []string `yaml:"disabled" mapstructure:"disabled"`
	Parallel          bool     `yaml:"parallel" mapstructure:"parallel"` // Run probes that need no session concurrently
	OutputFile        string   `yaml:"output_file" mapstructure:"output_file"`
	ProtectedEndpoint string   `yaml:"protected_endpoint" mapstructure:"protected_endpoint"`

	IDOR        IDORSettings        `yaml:"idor" mapstructure:"idor"`
	Injection   InjectionSettings   `yaml:"injection" mapstructure:"injection"`
	RateLimit   RateLimitSettings   `yaml:"rate_limit" mapstructure:"rate_limit"`
	ContentType ContentTypeSettings `yaml:"content_type" mapstructure:"content_type"`
	CORS        CORSSettings        `yaml:"cors" mapstructure:"cors"`
	Headers     HeaderSettings      `yaml:"headers" mapstructure:"headers"`
}

// IDORSettings describes the foreign resource mutated by the IDOR probe
type IDORSettings struct {
	Method   string `yaml:"method" mapstructure:"method"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Body     string `yaml:"body" mapstructure:"body"` // Raw JSON
}

// InjectionSettings describes where SQL-like payloads are sent
type InjectionSettings struct {
	Method     string   `yaml:"method" mapstructure:"method"`
	Endpoint   string   `yaml:"endpoint" mapstructure:"endpoint"`       // Receives payloads as a body field
	Field      string   `yaml:"field" mapstructure:"field"`             // Body field carrying the payload
	PathPrefix string   `yaml:"path_prefix" mapstructure:"path_prefix"` // Payload appended as a path segment
	Payloads   []string `yaml:"payloads" mapstructure:"payloads"`
}

// RateLimitSettings holds the burst patterns of the rate-limit probe
type RateLimitSettings struct {
	Bursts []BurstSettings `yaml:"bursts" mapstructure:"bursts"`
}

// BurstSettings is one paced burst against a single endpoint
type BurstSettings struct {
	Name     string        `yaml:"name" mapstructure:"name"`
	Method   string        `yaml:"method" mapstructure:"method"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Body     string        `yaml:"body" mapstructure:"body"`
	Count    int           `yaml:"count" mapstructure:"count"`
	Delay    time.Duration `yaml:"delay" mapstructure:"delay"`
}

// ContentTypeSettings describes the content-type enforcement probe
type ContentTypeSettings struct {
	Method    string `yaml:"method" mapstructure:"method"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	Body      string `yaml:"body" mapstructure:"body"`
	WrongType string `yaml:"wrong_type" mapstructure:"wrong_type"`
}

// CORSSettings describes the preflight request
type CORSSettings struct {
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	Origin         string `yaml:"origin" mapstructure:"origin"`
	RequestMethod  string `yaml:"request_method" mapstructure:"request_method"`
	RequestHeaders string `yaml:"request_headers" mapstructure:"request_headers"`
}

// HeaderSettings describes the security header probe
type HeaderSettings struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// OutputSettings holds output configuration
type OutputSettings struct {
	Color   bool `yaml:"color" mapstructure:"color"`
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPSettings{
			Timeout:         10 * time.Second,
			VerifySSL:       true,
			FollowRedirects: false,
			MaxRedirects:    5,
			UserAgent:       "vigil/1.0",
			Headers:         make(map[string]string),
		},
		Run: RunSettings{
			TestsFile:  "tests.json",
			OutputFile: "results.json",
		},
		Auth: AuthSettings{
			LoginEndpoint: "/login",
			EmailField:    "email",
			PasswordField: "password",
			TokenField:    "token",
		},
		Probes: ProbeSettings{
			Enabled:           []string{},
			Disabled:          []string{},
			OutputFile:        "probe-findings.json",
			ProtectedEndpoint: "/properties",
			IDOR: IDORSettings{
				Method:   "PUT",
				Endpoint: "/properties/1",
				Body:     `{"landlord_id": 999999}`,
			},
			Injection: InjectionSettings{
				Method:     "POST",
				Endpoint:   "/login",
				Field:      "email",
				PathPrefix: "/properties/",
				Payloads: []string{
					"' OR '1'='1",
					"1; DROP TABLE users--",
				},
			},
			RateLimit: RateLimitSettings{
				Bursts: []BurstSettings{
					{
						Name:     "login",
						Method:   "POST",
						Endpoint: "/login",
						Body:     `{"email": "ratelimit@example.com", "password": "wrong"}`,
						Count:    15,
						Delay:    100 * time.Millisecond,
					},
					{
						Name:     "protected",
						Method:   "GET",
						Endpoint: "/properties",
						Count:    15,
						Delay:    50 * time.Millisecond,
					},
				},
			},
			ContentType: ContentTypeSettings{
				Method:    "POST",
				Endpoint:  "/login",
				Body:      `{"email": "test@example.com", "password": "test"}`,
				WrongType: "text/plain",
			},
			CORS: CORSSettings{
				Endpoint:       "/properties",
				Origin:         "https://evil.example.com",
				RequestMethod:  "POST",
				RequestHeaders: "Authorization, Content-Type",
			},
			Headers: HeaderSettings{
				Endpoint: "/",
			},
		},
		Output: OutputSettings{
			Color:   true,
			Verbose: false,
		},
	}
}
