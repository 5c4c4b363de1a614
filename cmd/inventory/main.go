package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/inventory-app/inventory-system/internal/client/api"
	"github.com/inventory-app/inventory-system/internal/client/cli"
	"github.com/inventory-app/inventory-system/internal/client/session"
	"github.com/inventory-app/inventory-system/internal/pkg/config"
	"github.com/inventory-app/inventory-system/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadClient(ctx)
	if err != nil {
		boot := logger.New(logger.Options{Output: os.Stderr})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Output:  os.Stderr,
		Service: "inventory-cli",
	})

	store, err := session.NewFileStore(cfg.TokenFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to locate token file")
	}
	sess, err := session.Open(store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore session")
	}

	client, err := api.NewClient(cfg.APIURL, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid api url")
	}

	log.Debug().Str("api", cfg.APIURL).Str("token_file", store.Path()).Msg("client ready")
	cli.NewApp(client, sess, os.Stdin, os.Stdout, log).Run(ctx)
}
