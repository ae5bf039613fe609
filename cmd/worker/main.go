package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orris-inc/keyhub/internal/infrastructure/config"
	"github.com/orris-inc/keyhub/internal/infrastructure/database"
	httpRouter "github.com/orris-inc/keyhub/internal/interfaces/http"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

func main() {
	// Parse environment from command line or env variable
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env, os.Getenv("KEYHUB_CONFIG"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger().Named("worker")
	log.Infow("starting sweep worker", "environment", env)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		log.Fatalw("failed to initialize business timezone", "error", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	container, err := httpRouter.NewContainer(database.Get(), cfg, log)
	if err != nil {
		log.Fatalw("failed to build container", "error", err)
	}

	if err := container.StartScheduler(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}
	log.Infow("sweep worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Infow("received signal, shutting down", "signal", sig.String())
	if err := container.Shutdown(); err != nil {
		log.Errorw("failed to stop worker cleanly", "error", err)
	}
	log.Infow("sweep worker stopped")
}
