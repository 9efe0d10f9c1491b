// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional TOML file and
// environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/PodStudio/internal/token"
)

const defaultBcryptCost = 12

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `toml:"address"`

	// DatabaseDSN holds the PostgreSQL connection string. When empty the
	// server keeps its data in memory.
	DatabaseDSN string `toml:"database_dsn"`

	// JWTSecret signs and verifies bearer tokens.
	JWTSecret string `toml:"jwt_secret"`

	// JWTExpiresIn is the token lifetime, a Go duration or a day count such as "7d".
	JWTExpiresIn string `toml:"jwt_expires_in"`

	LogLevel string `toml:"log_level"`

	// AllowedOrigins is a comma separated list of CORS origins.
	AllowedOrigins string `toml:"allowed_origins"`

	// AuthRateLimit is the sustained number of register/login requests per
	// second allowed from one client address; AuthRateBurst is its bucket size.
	AuthRateLimit float64 `toml:"auth_rate_limit"`
	AuthRateBurst int     `toml:"auth_rate_burst"`

	// BcryptCost is the work factor for new password hashes.
	BcryptCost int `toml:"bcrypt_cost"`

	// ReconcileInterval enables the episode count reconciler when positive.
	ReconcileInterval string `toml:"reconcile_interval"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `toml:"tls_cert"`
	TLSKey  string `toml:"tls_key"`

	// Config is the path to the config file.
	Config string `toml:"-"`
}

func newFlagSet(o *Options) *flag.FlagSet {
	fs := flag.NewFlagSet("podstudio-server", flag.ContinueOnError)
	fs.StringVar(&o.Address, "a", "localhost:5000", "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&o.JWTSecret, "jwt-secret", "", "secret used to sign tokens")
	fs.StringVar(&o.JWTExpiresIn, "jwt-expires-in", "7d", "token lifetime")
	fs.StringVar(&o.LogLevel, "l", "info", "log level")
	fs.StringVar(&o.AllowedOrigins, "origins", "http://localhost:3000", "comma separated CORS origins")
	fs.Float64Var(&o.AuthRateLimit, "auth-rps", 1, "register/login requests per second per client")
	fs.IntVar(&o.AuthRateBurst, "auth-burst", 10, "register/login burst per client")
	fs.IntVar(&o.BcryptCost, "bcrypt-cost", defaultBcryptCost, "bcrypt work factor for password hashes")
	fs.StringVar(&o.ReconcileInterval, "reconcile-interval", "0", "episode count reconcile interval, 0 disables")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&o.TLSKey, "tls-key", "", "path to TLS private key")
	fs.StringVar(&o.Config, "config", "config.toml", "path to config file")
	fs.StringVar(&o.Config, "c", "config.toml", "path to config file (shorthand)")
	return fs
}

// Parse parses the command-line flags, the config file and environment
// variables. It exits the process on invalid configuration.
func Parse() *Options {
	options, err := ParseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return options
}

// ParseArgs builds Options from args, then the config file, then the
// environment as read through getenv. Later sources override earlier ones.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	if err := newFlagSet(options).Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := toml.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if err := applyEnv(options, getenv); err != nil {
		return nil, err
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func applyEnv(o *Options, getenv func(string) string) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":     &o.Address,
		"DATABASE_DSN":       &o.DatabaseDSN,
		"JWT_SECRET":         &o.JWTSecret,
		"JWT_EXPIRES_IN":     &o.JWTExpiresIn,
		"LOG_LEVEL":          &o.LogLevel,
		"CORS_ORIGINS":       &o.AllowedOrigins,
		"RECONCILE_INTERVAL": &o.ReconcileInterval,
		"TLS_CERT":           &o.TLSCert,
		"TLS_KEY":            &o.TLSKey,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("AUTH_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
		}
		o.AuthRateLimit = rps
	}
	if v := getenv("AUTH_RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_BURST: %w", err)
		}
		o.AuthRateBurst = burst
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		o.BcryptCost = cost
	}
	return nil
}

// Validate reports configuration that the server cannot start with.
func (o *Options) Validate() error {
	var errs []error
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required (-jwt-secret or JWT_SECRET)"))
	}
	if _, err := o.TokenTTL(); err != nil {
		errs = append(errs, fmt.Errorf("jwt expires in: %w", err))
	}
	if _, err := o.ReconcileEvery(); err != nil {
		errs = append(errs, fmt.Errorf("reconcile interval: %w", err))
	}
	if o.AuthRateLimit <= 0 || o.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("auth rate limit and burst must be positive"))
	}
	if o.BcryptCost < bcrypt.MinCost || o.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, o.BcryptCost))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("tls cert and key must be set together"))
	}
	return errors.Join(errs...)
}

// TokenTTL returns the parsed token lifetime.
func (o *Options) TokenTTL() (time.Duration, error) {
	return token.ParseTTL(o.JWTExpiresIn)
}

// ReconcileEvery returns the reconciler interval; zero disables it.
func (o *Options) ReconcileEvery() (time.Duration, error) {
	if o.ReconcileInterval == "" || o.ReconcileInterval == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(o.ReconcileInterval)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", d)
	}
	return d, nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (o *Options) Origins() []string {
	var out []string
	for _, origin := range strings.Split(o.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// TLSEnabled reports whether the server should serve HTTPS.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
