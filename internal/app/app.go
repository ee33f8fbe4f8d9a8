package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/abrezinsky/quizroom/internal/auth"
	"github.com/abrezinsky/quizroom/internal/broadcast"
	"github.com/abrezinsky/quizroom/internal/handlers"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/repository"
	"github.com/abrezinsky/quizroom/internal/services"
	"github.com/abrezinsky/quizroom/internal/websocket"
)

// shutdownTimeout bounds how long Run waits for open requests on shutdown
const shutdownTimeout = 5 * time.Second

// Options configures a new App
type Options struct {
	// DBPath is the sqlite database file, or ":memory:"
	DBPath string
	// BaseURL overrides the public base URL used in registration links
	BaseURL string
	// Redis shares game rooms between instances when set
	Redis *redis.Options
}

// roomBus is a broadcast bus the app owns and must close
type roomBus interface {
	broadcast.Bus
	Close() error
}

// App holds all application dependencies
type App struct {
	log      logger.Logger
	opts     Options
	handlers *handlers.Handlers
	repo     *repository.Repository
	settings *services.SettingsService
	bus      roomBus
	redis    *redis.Client
}

// New opens storage, connects the room bus and wires services, the
// websocket hub and the HTTP handlers together
func New(ctx context.Context, log logger.Logger, opts Options, adminAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{log: log, opts: opts, repo: repo}
	if err := a.connectBus(ctx); err != nil {
		repo.Close()
		return nil, err
	}

	judging := services.NewJudgingService(log, repo)
	judging.SetPublisher(a.bus)
	answers := services.NewAnswerService(log, repo, judging)
	games := services.NewGameService(log, repo, judging)
	games.SetPublisher(a.bus)
	a.settings = services.NewSettingsService(log, repo)
	participants := services.NewParticipantService(log, repo, a.settings)

	hub := websocket.New(log, a.bus, games, answers)
	a.handlers = handlers.New(log, games, answers, judging, participants, a.settings, adminAuth, hub)
	return a, nil
}

func (a *App) connectBus(ctx context.Context) error {
	if a.opts.Redis == nil {
		a.bus = broadcast.NewMemoryBus(a.log, broadcast.DefaultBufferSize)
		a.log.Info("Using in-process room bus")
		return nil
	}

	client := redis.NewClient(a.opts.Redis)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("connect to redis at %s: %w", a.opts.Redis.Addr, err)
	}
	bus := broadcast.NewRedisBus(client, a.log)
	if err := bus.Start(ctx); err != nil {
		client.Close()
		return err
	}
	a.redis = client
	a.bus = bus
	a.log.Info("Using Redis room bus", "addr", a.opts.Redis.Addr)
	return nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close releases the room bus, the Redis connection and the database.
// It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
		a.bus = nil
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
		a.redis = nil
	}
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
		a.repo = nil
	}
	return errors.Join(errs...)
}

// Run serves HTTP on addr until ctx is cancelled
func (a *App) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	baseURL := a.baseURL(ln.Addr())
	a.log.Info("Server starting", "addr", ln.Addr().String(), "url", baseURL)

	srv := &http.Server{Handler: a.Router()}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// baseURL stores the public base URL for registration links and returns
// it. A configured override always wins; otherwise the detected LAN
// address is stored unless an operator already set one.
func (a *App) baseURL(listen net.Addr) string {
	ctx := context.Background()

	if a.opts.BaseURL != "" {
		if err := a.settings.SetBaseURL(ctx, a.opts.BaseURL); err != nil {
			a.log.Warn("Ignoring invalid base URL", "base_url", a.opts.BaseURL, "error", err)
		}
	} else {
		port := "80"
		if tcp, ok := listen.(*net.TCPAddr); ok {
			port = fmt.Sprint(tcp.Port)
		}
		detected := "http://" + net.JoinHostPort(getPreferredIP(realNetworkProvider{}), port)
		if err := a.settings.EnsureBaseURL(ctx, detected); err != nil {
			a.log.Warn("Failed to set default base URL", "error", err)
		}
	}

	current, err := a.settings.GetBaseURL(ctx)
	if err != nil {
		a.log.Warn("Failed to read base URL", "error", err)
	}
	return current
}
