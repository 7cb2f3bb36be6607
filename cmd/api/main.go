package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"infodyn/internal/api"
	"infodyn/internal/config"
	"infodyn/internal/container"
	"infodyn/internal/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load(os.Getenv("AIS_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if diff := cfg.DiffFromDefault(); diff != "" {
		appContainer.Logger.Debug("Configuration differs from defaults (-default +effective):\n%s", diff)
	}

	gin.SetMode(cfg.Server.GinMode)
	router := api.NewRouter(appContainer.AIS, appContainer.Logger,
		ui.NewApp(appContainer.AIS, appContainer.Logger, api.UIPrefix))
	if err := api.Serve(ctx, ":"+cfg.Server.Port, router, appContainer.Logger.WithComponent("Server")); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
