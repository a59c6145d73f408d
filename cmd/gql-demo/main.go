package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

func main() {
	root, err := NewCompositionRoot()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := root.Cleanup(); err != nil {
			root.Logger.Error("Failed to cleanup resources", zap.Error(err))
		}
	}()

	if root.StatsServer != nil {
		addr := root.Config.StatsServer.Addr
		root.Logger.Info("Starting stats server", zap.String("addr", addr))
		go func() {
			if err := root.StatsServer.Start(addr); err != nil {
				root.Logger.Error("Stats server failed", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := root.StatsServer.Stop(ctx); err != nil {
				root.Logger.Error("Stats server forced to shutdown", zap.Error(err))
			}
		}()
	}

	ctx := context.Background()
	if err := runDemo(ctx, root); err != nil {
		root.Logger.Error("Demo failed", zap.Error(err))
		_ = root.Cleanup()
		os.Exit(1)
	}
}
