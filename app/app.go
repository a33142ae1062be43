package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/labstack/echo"

	"construction-marketplace-api/internal/cache"
	"construction-marketplace-api/internal/config"
	"construction-marketplace-api/internal/controller"
	"construction-marketplace-api/internal/repo"
	"construction-marketplace-api/internal/service"
	"construction-marketplace-api/pkg/http_server"
	"construction-marketplace-api/pkg/postgres"
)

func runMigrations(postgresDB *postgres.Postgres) {
	driver, err := pgmigrate.WithInstance(postgresDB.Database, &pgmigrate.Config{})
	if err != nil {
		log.Fatal(err)
	}

	migrations, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		log.Fatal(err)
	}

	if err := migrations.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Println("no change made by migration scripts")
		} else {
			log.Fatal(err)
		}
	}
}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config error: ", err)
	}

	log.Println("Connecting database...")
	postgresDB, err := postgres.NewDB(cfg.PostgresConn)
	if err != nil {
		log.Fatal("Error occurred while connecting to db: ", err)
	}
	defer postgresDB.Close()

	log.Println("Running migrations...")
	runMigrations(postgresDB)

	bidCache, err := cache.New(cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheSweepInterval)
	if err != nil {
		log.Fatal("Cache error: ", err)
	}
	defer bidCache.Stop()

	repositories := repo.NewRepositories(postgresDB)
	services := service.NewServices(repositories, bidCache)
	handler := echo.New()
	handler.Debug = cfg.DevMode

	log.Println("Setup routes...")
	controller.SetupRoutesHandlers(handler, services)

	log.Println("Starting server...")
	httpServer := http_server.New(handler, cfg.ServerAddress)

	log.Println("Ready to process requests...")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Println("Got signal: " + s.String())
	case err = <-httpServer.Notify():
		log.Println("Notify error: ", err)
	}

	log.Println("Shutting down...")
	if err := httpServer.Shutdown(); err != nil {
		log.Fatal("Shutdown error: ", err)
	}
	log.Println("Successful shutdown")
}
