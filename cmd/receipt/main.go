package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-receipts/internal/config"
	"github.com/noah-isme/toko-receipts/internal/obs"
	"github.com/noah-isme/toko-receipts/internal/order"
	"github.com/noah-isme/toko-receipts/internal/pricing"
)

func sampleLines() []pricing.Line {
	return []pricing.Line{
		{Name: "Widget A", UnitPrice: 25, Quantity: 2},
		{Name: "Widget B", UnitPrice: 60, Quantity: 2},
		{Name: "Widget C", UnitPrice: 100, Quantity: 3},
	}
}

func main() {
	logger := obs.NewLogger(os.Stderr, "console", "info")

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("load config")
		os.Exit(1)
	}
	logger = obs.NewLogger(os.Stderr, "console", cfg.LogLevel)

	if err := run(context.Background(), cfg, logger, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("display receipt")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, out io.Writer) error {
	svc, err := order.NewService(order.ServiceConfig{
		Rules:   cfg.DiscountTiers,
		Options: cfg.Receipt,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	return svc.Display(ctx, out, sampleLines())
}
