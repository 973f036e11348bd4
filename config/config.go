package config

import (
	"fmt"
	"net/netip"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings read from the environment.
type Config struct {
	Host           string   `env:"RPS_HOST" envDefault:"127.0.0.1"`
	Port           int      `env:"RPS_PORT" envDefault:"6767"`
	LogLevel       string   `env:"RPS_LOG_LEVEL" envDefault:"info"`
	Debug          bool     `env:"RPS_DEBUG" envDefault:"false"`
	AllowedOrigins []string `env:"RPS_ALLOWED_ORIGINS" envSeparator:","`
	Ngrok          Ngrok
}

// Ngrok configures the optional public tunnel served next to the local
// listener.
type Ngrok struct {
	Enabled   bool   `env:"NGROK_ENABLED"`
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	Domain    string `env:"NGROK_DOMAIN"`

	// Also accepted, as older ngrok tooling spells it.
	AuthTokenAlt string `env:"NGROK_AUTH_TOKEN"`
}

// Token returns the auth token, preferring NGROK_AUTHTOKEN.
func (n Ngrok) Token() string {
	if n.AuthToken != "" {
		return n.AuthToken
	}
	return n.AuthTokenAlt
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Address validates Host and Port and returns the listen address.
func (c Config) Address() (netip.AddrPort, error) {
	return NewBuilder().BindAddress(c.Host).Port(c.Port).Build()
}
