package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/quizroom/internal/app"
	"github.com/abrezinsky/quizroom/internal/auth"
	"github.com/abrezinsky/quizroom/internal/browser"
	"github.com/abrezinsky/quizroom/internal/logger"
)

var version = "dev"

func printBanner(cfg *Config, password string) {
	fmt.Printf("\n  %s%sQuizroom %s%s\n", bold, cyan, version, reset)
	fmt.Printf("  %sServer:%s          %s\n", green, reset, cfg.localURL())
	fmt.Printf("  %sAdmin password:%s  %s%s%s\n", green, reset, yellow, password, reset)
	if cfg.redisAddr != "" {
		fmt.Printf("  %sRoom bus:%s        redis %s\n", green, reset, cfg.redisAddr)
	}
}

func serve(ctx context.Context, cfg *Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appLog := logger.NewWithLevel(logger.ParseLevel(cfg.logLevel))

	password := cfg.adminPassword
	if password == "" {
		password = auth.GeneratePassword()
	}
	adminAuth := auth.New(password)

	a, err := app.New(ctx, appLog, app.Options{
		DBPath:  cfg.db,
		BaseURL: cfg.baseURL,
		Redis:   cfg.redisOptions(),
	}, adminAuth)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	printBanner(cfg, password)

	keysDone := make(chan struct{})
	if cfg.noKeyboard {
		close(keysDone)
		fmt.Printf("\n%sKeyboard shortcuts disabled%s\n\n", yellow, reset)
	} else {
		kb := &keyboard{
			log:     appLog,
			out:     os.Stdout,
			open:    browser.New().Open,
			homeURL: cfg.localURL() + "/",
			quit:    cancel,
		}
		kb.printHelp()
		go func() {
			defer close(keysDone)
			kb.listen(ctx, os.Stdin)
		}()
	}

	err = a.Run(ctx, cfg.addr())
	cancel()
	<-keysDone
	return err
}

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg, serve).ExecuteContext(ctx))
}
