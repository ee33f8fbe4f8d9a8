package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abrezinsky/quizroom/internal/logger"
)

// Config holds the command line and environment settings
type Config struct {
	bind          string
	port          int
	db            string
	adminPassword string
	logLevel      string
	baseURL       string
	redisAddr     string
	redisPassword string
	redisDB       int
	noKeyboard    bool
	version       bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if !logger.ValidLevel(c.logLevel) {
		return fmt.Errorf("invalid log level %q (debug, info, warn, error)", c.logLevel)
	}
	if c.db == "" {
		return errors.New("--db must not be empty")
	}
	if c.redisDB < 0 {
		return fmt.Errorf("invalid redis database: %d", c.redisDB)
	}
	if c.redisAddr == "" && (c.redisPassword != "" || c.redisDB != 0) {
		return errors.New("--redis-password and --redis-db need --redis-addr")
	}
	return nil
}

func (c *Config) addr() string {
	return net.JoinHostPort(c.bind, strconv.Itoa(c.port))
}

// localURL is where the operator's own browser reaches the server
func (c *Config) localURL() string {
	host := c.bind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.port))
}

// redisOptions returns nil when rooms stay in-process
func (c *Config) redisOptions() *redis.Options {
	if c.redisAddr == "" {
		return nil
	}
	return &redis.Options{
		Addr:     c.redisAddr,
		Password: c.redisPassword,
		DB:       c.redisDB,
	}
}

type runFunc func(ctx context.Context, cfg *Config) error

func newCmd(cfg *Config, run runFunc) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "quizroom",
		Short:   "Live quiz server: operators push questions, teams answer from their phones.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZROOM_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: QUIZROOM_PORT)")
	fs.StringVar(&cfg.db, "db", "quizroom.db", "sqlite database path (env: QUIZROOM_DB)")
	fs.StringVar(&cfg.adminPassword, "admin-password", "", "operator password, generated when empty (env: QUIZROOM_ADMIN_PASSWORD)")
	fs.StringVarP(&cfg.logLevel, "log-level", "l", "info", "log level: debug, info, warn, error (env: QUIZROOM_LOG_LEVEL)")
	fs.StringVar(&cfg.baseURL, "base-url", "", "public URL used in registration links, detected when empty (env: QUIZROOM_BASE_URL)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "Redis address for sharing rooms between instances (env: QUIZROOM_REDIS_ADDR)")
	fs.StringVar(&cfg.redisPassword, "redis-password", "", "Redis password (env: QUIZROOM_REDIS_PASSWORD)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "Redis database number (env: QUIZROOM_REDIS_DB)")
	fs.BoolVar(&cfg.noKeyboard, "no-keyboard", false, "disable keyboard shortcuts (env: QUIZROOM_NO_KEYBOARD)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: QUIZROOM_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizroom {{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
