package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{bind: "0.0.0.0", port: 8080, db: "quizroom.db", logLevel: "info"}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.port = 0 }, "invalid port"},
		{"port too high", func(c *Config) { c.port = 70000 }, "invalid port"},
		{"bad log level", func(c *Config) { c.logLevel = "loud" }, "invalid log level"},
		{"warning alias", func(c *Config) { c.logLevel = "WARNING" }, ""},
		{"empty db", func(c *Config) { c.db = "" }, "--db"},
		{"negative redis db", func(c *Config) { c.redisAddr = "localhost:6379"; c.redisDB = -1 }, "invalid redis database"},
		{"redis password without addr", func(c *Config) { c.redisPassword = "secret" }, "--redis-addr"},
		{"redis configured", func(c *Config) { c.redisAddr = "localhost:6379"; c.redisDB = 2 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Addresses(t *testing.T) {
	cfg := validConfig()
	if got := cfg.addr(); got != "0.0.0.0:8080" {
		t.Errorf("addr() = %q", got)
	}
	if got := cfg.localURL(); got != "http://localhost:8080" {
		t.Errorf("localURL() = %q", got)
	}

	cfg.bind = "::1"
	if got := cfg.addr(); got != "[::1]:8080" {
		t.Errorf("addr() = %q", got)
	}
	if got := cfg.localURL(); got != "http://[::1]:8080" {
		t.Errorf("localURL() = %q", got)
	}
}

func TestConfig_RedisOptions(t *testing.T) {
	cfg := validConfig()
	if cfg.redisOptions() != nil {
		t.Error("expected no Redis options without an address")
	}

	cfg.redisAddr, cfg.redisPassword, cfg.redisDB = "cache:6379", "secret", 3
	opts := cfg.redisOptions()
	if opts == nil || opts.Addr != "cache:6379" || opts.Password != "secret" || opts.DB != 3 {
		t.Errorf("unexpected Redis options %+v", opts)
	}
}

// execute runs the command with args and returns the config it ran with
func execute(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := &Config{}
	var ran *Config
	cmd := newCmd(cfg, func(_ context.Context, c *Config) error {
		ran = c
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return ran, err
}

func TestNewCmd_Defaults(t *testing.T) {
	cfg, err := execute(t)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if cfg.port != 8080 || cfg.bind != "0.0.0.0" || cfg.db != "quizroom.db" || cfg.logLevel != "info" || cfg.noKeyboard {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestNewCmd_Flags(t *testing.T) {
	cfg, err := execute(t, "--port", "9090", "--db", "/tmp/q.db", "--log_level", "debug", "--no-keyboard", "--redis-addr", "cache:6379")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if cfg.port != 9090 || cfg.db != "/tmp/q.db" || cfg.logLevel != "debug" || !cfg.noKeyboard || cfg.redisAddr != "cache:6379" {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestNewCmd_Environment(t *testing.T) {
	t.Setenv("QUIZROOM_PORT", "7070")
	t.Setenv("QUIZROOM_ADMIN_PASSWORD", "owl-lark-wren")
	t.Setenv("QUIZROOM_BASE_URL", "https://quiz.example.com")

	cfg, err := execute(t)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if cfg.port != 7070 || cfg.adminPassword != "owl-lark-wren" || cfg.baseURL != "https://quiz.example.com" {
		t.Errorf("environment not applied: %+v", cfg)
	}

	cfg, err = execute(t, "--port", "6060")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if cfg.port != 6060 {
		t.Errorf("expected the flag to win over the environment, got %d", cfg.port)
	}
}

func TestNewCmd_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid config", []string{"--port", "0"}},
		{"unknown flag", []string{"--colour"}},
		{"positional args", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := execute(t, tt.args...)
			if err == nil {
				t.Error("expected an error")
			}
			if cfg != nil {
				t.Error("expected the server not to start")
			}
		})
	}
}

func TestNewCmd_Version(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg, func(context.Context, *Config) error {
		t.Error("expected --version not to start the server")
		return nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !strings.Contains(out.String(), "quizroom "+version) {
		t.Errorf("expected version output, got %q", out.String())
	}
}
