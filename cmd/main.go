package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/climatehub/collab-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Run(":" + a.Cfg.Port)
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Log.Info("Shutting down...")
		a.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Log.Error("Server exited", "error", err)
	}
}
