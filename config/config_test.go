package config

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/google/go-cmp/cmp"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{}})
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	want := Config{Host: "127.0.0.1", Port: 6767, LogLevel: "info"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnvironment(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"RPS_HOST":            "0.0.0.0",
		"RPS_PORT":            "9000",
		"RPS_LOG_LEVEL":       "debug",
		"RPS_DEBUG":           "true",
		"RPS_ALLOWED_ORIGINS": "http://localhost:3000,https://rps.example",
	}})
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	want := Config{
		Host:           "0.0.0.0",
		Port:           9000,
		LogLevel:       "debug",
		Debug:          true,
		AllowedOrigins: []string{"http://localhost:3000", "https://rps.example"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNgrok(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		want      Ngrok
		wantToken string
	}{
		{"disabled by default", map[string]string{}, Ngrok{}, ""},
		{
			name:      "authtoken",
			env:       map[string]string{"NGROK_ENABLED": "1", "NGROK_AUTHTOKEN": "tok", "NGROK_DOMAIN": "rps.ngrok.app"},
			want:      Ngrok{Enabled: true, AuthToken: "tok", Domain: "rps.ngrok.app"},
			wantToken: "tok",
		},
		{
			name:      "underscore spelling",
			env:       map[string]string{"NGROK_ENABLED": "true", "NGROK_AUTH_TOKEN": "alt"},
			want:      Ngrok{Enabled: true, AuthTokenAlt: "alt"},
			wantToken: "alt",
		},
		{
			name:      "authtoken wins",
			env:       map[string]string{"NGROK_AUTHTOKEN": "tok", "NGROK_AUTH_TOKEN": "alt"},
			want:      Ngrok{AuthToken: "tok", AuthTokenAlt: "alt"},
			wantToken: "tok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parse(env.Options{Environment: tt.env})
			if err != nil {
				t.Fatalf("parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, cfg.Ngrok); diff != "" {
				t.Errorf("Ngrok mismatch (-want +got):\n%s", diff)
			}
			if got := cfg.Ngrok.Token(); got != tt.wantToken {
				t.Errorf("Token() = %q, want %q", got, tt.wantToken)
			}
		})
	}
}

func TestParseRejectsNonNumericPort(t *testing.T) {
	_, err := parse(env.Options{Environment: map[string]string{"RPS_PORT": "http"}})
	if err == nil {
		t.Fatal("parse() succeeded with RPS_PORT=http")
	}
}

func TestLoadReadsProcessEnvironment(t *testing.T) {
	t.Setenv("RPS_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 6767}

	got, err := cfg.Address()
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	if want := netip.MustParseAddrPort("127.0.0.1:6767"); got != want {
		t.Errorf("Address() = %v, want %v", got, want)
	}

	cfg.Port = 0
	if _, err := cfg.Address(); !errors.Is(err, ErrMissingOrInvalidPort) {
		t.Errorf("Address() with port 0 error = %v, want ErrMissingOrInvalidPort", err)
	}
}
