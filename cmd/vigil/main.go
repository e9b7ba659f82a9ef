// Package main is the entry point for the vigil CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/su1ph3r/vigil/internal/loader"
	"github.com/su1ph3r/vigil/internal/runner"
	"github.com/su1ph3r/vigil/pkg/types"
)

var (
	version = "1.0.0"
	cfgFile string
	config  *types.Config
)

// Process exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitConfig      = 2
	exitUnreachable = 3
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "vigil - declarative API checks and security probes",
	Long: `vigil runs a declarative list of HTTP checks against an API, comparing
each response status with the expected one, and ships a small library of
security and robustness probes (missing auth, IDOR, injection, tampered
tokens, rate limiting, content-type enforcement, CORS, security headers).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.vigil.yaml or $HOME/.vigil.yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print response previews and curl commands")
	rootCmd.PersistentFlags().String("base-url", "", "Base URL of the API under test")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(scaffoldCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	// A missing .env is fine; credentials may come from the real environment
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".vigil")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("VIGIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	registerDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			printWarning("Could not read config file: %v", err)
		}
	}

	cfg, err := decodeConfig(viper.GetViper())
	if err != nil {
		printWarning("Could not decode configuration: %v", err)
	}
	config = cfg
}

// decodeConfig builds the effective configuration. Lists from a config file
// replace the default lists instead of being merged into them element by
// element.
func decodeConfig(v *viper.Viper) (*types.Config, error) {
	cfg := types.DefaultConfig()
	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
	})
	return cfg, err
}

// registerDefaults registers every configuration key so environment
// variables can override keys that no config file mentions
func registerDefaults(v *viper.Viper, cfg *types.Config) {
	v.SetDefault("target.base_url", cfg.Target.BaseURL)

	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.verify_ssl", cfg.HTTP.VerifySSL)
	v.SetDefault("http.follow_redirects", cfg.HTTP.FollowRedirects)
	v.SetDefault("http.max_redirects", cfg.HTTP.MaxRedirects)
	v.SetDefault("http.proxy_url", cfg.HTTP.ProxyURL)
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	v.SetDefault("http.headers", cfg.HTTP.Headers)

	v.SetDefault("run.tests_file", cfg.Run.TestsFile)
	v.SetDefault("run.output_file", cfg.Run.OutputFile)
	v.SetDefault("run.delay", cfg.Run.Delay)
	v.SetDefault("run.request_log", cfg.Run.RequestLog)

	v.SetDefault("auth.login_endpoint", cfg.Auth.LoginEndpoint)
	v.SetDefault("auth.email", cfg.Auth.Email)
	v.SetDefault("auth.password", cfg.Auth.Password)
	v.SetDefault("auth.email_field", cfg.Auth.EmailField)
	v.SetDefault("auth.password_field", cfg.Auth.PasswordField)
	v.SetDefault("auth.token_field", cfg.Auth.TokenField)

	p := cfg.Probes
	v.SetDefault("probes.enabled", p.Enabled)
	v.SetDefault("probes.disabled", p.Disabled)
	v.SetDefault("probes.parallel", p.Parallel)
	v.SetDefault("probes.output_file", p.OutputFile)
	v.SetDefault("probes.protected_endpoint", p.ProtectedEndpoint)
	v.SetDefault("probes.idor.method", p.IDOR.Method)
	v.SetDefault("probes.idor.endpoint", p.IDOR.Endpoint)
	v.SetDefault("probes.idor.body", p.IDOR.Body)
	v.SetDefault("probes.injection.method", p.Injection.Method)
	v.SetDefault("probes.injection.endpoint", p.Injection.Endpoint)
	v.SetDefault("probes.injection.field", p.Injection.Field)
	v.SetDefault("probes.injection.path_prefix", p.Injection.PathPrefix)
	v.SetDefault("probes.injection.payloads", p.Injection.Payloads)
	v.SetDefault("probes.rate_limit.bursts", p.RateLimit.Bursts)
	v.SetDefault("probes.content_type.method", p.ContentType.Method)
	v.SetDefault("probes.content_type.endpoint", p.ContentType.Endpoint)
	v.SetDefault("probes.content_type.body", p.ContentType.Body)
	v.SetDefault("probes.content_type.wrong_type", p.ContentType.WrongType)
	v.SetDefault("probes.cors.endpoint", p.CORS.Endpoint)
	v.SetDefault("probes.cors.origin", p.CORS.Origin)
	v.SetDefault("probes.cors.request_method", p.CORS.RequestMethod)
	v.SetDefault("probes.cors.request_headers", p.CORS.RequestHeaders)
	v.SetDefault("probes.headers.endpoint", p.Headers.Endpoint)

	v.SetDefault("output.color", cfg.Output.Color)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
}

// applyGlobalFlags copies persistent flags that were set explicitly over the
// loaded configuration
func applyGlobalFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("base-url") {
		config.Target.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("verbose") {
		config.Output.Verbose, _ = flags.GetBool("verbose")
	}
	if noColor, _ := flags.GetBool("no-color"); noColor {
		config.Output.Color = false
	}
	if !config.Output.Color {
		color.NoColor = true
	}
}

// exitCode maps an error returned by a command to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, types.ErrConfiguration),
		errors.Is(err, loader.ErrMalformedInput),
		errors.Is(err, loader.ErrFileNotFound):
		return exitConfig
	case errors.Is(err, runner.ErrUnreachable):
		return exitUnreachable
	default:
		return exitError
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			printWarning("\nInterrupted, finishing up...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func printBanner() {
	banner := `
         _       _ __
  _   __(_)___ _(_) /
 | | / / / __ '/ / /
 | |/ / / /_/ / / /
 |___/_/\__, /_/_/
       /____/
`
	color.Cyan(banner)
	fmt.Printf("  Declarative API checks v%s\n\n", version)
}

func printInfo(format string, args ...interface{}) {
	color.Cyan("[*] "+format, args...)
}

func printSuccess(format string, args ...interface{}) {
	color.Green("[+] "+format, args...)
}

func printWarning(format string, args ...interface{}) {
	color.Yellow("[!] "+format, args...)
}

func printError(format string, args ...interface{}) {
	fmt.Fprint(os.Stderr, color.RedString("[-] "+format, args...)+"\n")
}
