package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/morphlyhq/morphly/app/controllers"
	"github.com/morphlyhq/morphly/app/repository"
	"github.com/morphlyhq/morphly/internal/pkg/blobstore"
	"github.com/morphlyhq/morphly/internal/pkg/cache"
	"github.com/morphlyhq/morphly/internal/pkg/database"
	"github.com/morphlyhq/morphly/internal/pkg/env"
	"github.com/morphlyhq/morphly/internal/pkg/router"
	"github.com/morphlyhq/morphly/internal/pkg/sweeper"
)

func main() {
	app, manager := NewApplication()

	if manager != nil {
		manager.Start()
		defer manager.Stop()
	}

	// Shut down cleanly on SIGINT/SIGTERM so the sweep worker can finish.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, *sweeper.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	blobstore.SetupBlobStore()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName: "morphly",
	})

	app.Use(recover.New(), logger.New())

	var manager *sweeper.Manager
	if provider := blobstore.GetProvider(); provider != nil {
		sw := sweeper.NewSweeper(
			repository.GetGlobalRepositories().Image,
			provider,
			sweeper.DefaultGraceWindow,
		)
		manager = sweeper.NewManager(sw)
		controllers.SetSweepManager(manager)
	}

	router.InstallRouter(app)

	return app, manager
}
