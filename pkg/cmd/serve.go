package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshmeranda/resourcefilter/pkg/http"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = time.Second * 5

// Serve runs the filter service until the process is interrupted or the app's context is done.
func Serve(ctx *cli.Context) error {
	logger := newLogger(ctx)

	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := http.NewServer(http.ServerOptions{
		Logger:  logger.Named("server"),
		Address: ctx.String("address"),
		Context: context.Background(),
		Config:  config,
	})
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	if err := server.Start(); err != nil {
		return err
	}

	<-signalCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	server.Context = shutdownCtx

	return server.Shutdown()
}
