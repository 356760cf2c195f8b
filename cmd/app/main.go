// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hcepay/hcepay/cmd/app/commands"
	"github.com/hcepay/hcepay/internal/app"
	"github.com/hcepay/hcepay/internal/config"
	cryptoService "github.com/hcepay/hcepay/internal/crypto/service"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "hcepay",
		Usage:   "Device-bound payment token service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP API and metrics servers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					container := app.NewContainer(cfg)
					return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
				},
			},
			{
				Name:  "create-encryption-key",
				Usage: "Generate a new 256-bit key for encrypting token material at rest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kms-key-uri",
						Aliases: []string{"k"},
						Value:   "",
						Usage:   "KMS key URI to wrap the generated key (e.g., awskms://..., base64key://...)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateEncryptionKey(
						ctx,
						os.Stdout,
						cryptoService.NewKMSService(),
						cmd.String("kms-key-uri"),
					)
				},
			},
			{
				Name:  "deactivate-card-tokens",
				Usage: "Retire every active device token provisioned against a card",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "card-id",
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "Card ID (UUID)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					container := app.NewContainer(cfg)
					logger := container.Logger()
					defer func() {
						if err := container.Shutdown(context.Background()); err != nil {
							logger.Error("failed to shutdown container", slog.Any("error", err))
						}
					}()

					provisioningUseCase, err := container.ProvisioningUseCase()
					if err != nil {
						return err
					}

					return commands.RunDeactivateCardTokens(ctx, provisioningUseCase, logger, cmd.String("card-id"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
