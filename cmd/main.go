package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/neurobridge-personalization/internal/app"
	apphttp "github.com/yungbote/neurobridge-personalization/internal/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start(ctx)

	addr := ":" + application.Cfg.Port
	application.Log.Info("Server listening", "addr", addr)
	srv := &apphttp.Server{Engine: application.Router}
	if err := srv.Run(ctx, addr); err != nil {
		application.Log.Error("Server failed", "error", err)
		application.Close()
		os.Exit(1)
	}
	application.Log.Info("Server stopped")
}
