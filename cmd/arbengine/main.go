// Command arbengine runs the cross-venue flash-loan arbitrage Engine as a
// long-lived process: load configuration, start the Engine, and shut it
// down cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/solarb/arbengine/pkg/config"
	"github.com/solarb/arbengine/pkg/engine"
)

func main() {
	verbose := flag.Bool("v", false, "verbose logging (development logger)")
	flag.Usage = func() {
		flag.PrintDefaults()
		_ = envconfig.Usage("arb", &config.Config{})
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var logger *zap.Logger
	if *verbose || cfg.DryRun {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("construct engine", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		eng.Stop()
	}()

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("engine exited with error", zap.Error(err))
	}
	logger.Info("engine stopped")
}
