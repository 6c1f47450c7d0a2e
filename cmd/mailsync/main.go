// Command mailsync runs one sync pass for a user from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vedhub/mailsync/internal/app"
	"github.com/vedhub/mailsync/internal/config"
	"github.com/vedhub/mailsync/internal/logger"
	"github.com/vedhub/mailsync/internal/models"
)

func main() {
	userID := flag.String("user", "", "user whose mailbox to sync (required)")
	scope := flag.String("scope", models.ScopeMail, "sync scope: mail or alerts")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "mailsync: -user is required")
		flag.Usage()
		os.Exit(2)
	}
	if *scope != models.ScopeMail && *scope != models.ScopeAlerts {
		fmt.Fprintf(os.Stderr, "mailsync: unknown scope %q\n", *scope)
		os.Exit(2)
	}

	cfg, err := config.LoadWithValidation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mailsync: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the summary
	log := logger.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log, *userID, *scope); err != nil {
		log.Error("sync failed", slog.String("user_id", *userID), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, userID, scope string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	if cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SyncTimeout)
		defer cancel()
	}

	summary, err := deps.Engine.RunOnce(ctx, userID, scope)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
