package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"

	"synergyfit/adapters/excel"
	"synergyfit/adapters/postgres"
	"synergyfit/app"
	"synergyfit/internal/api"
	"synergyfit/internal/config"
	"synergyfit/internal/errors"
	"synergyfit/internal/migration"
	"synergyfit/ports"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(appConfig.Server.GinMode)

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	analyses := postgres.NewAnalysisRepository(db)
	artifacts := postgres.NewArtifactRepository(db)
	service := app.NewAnalysisService(analyses, artifacts)

	newReader := func(cellLine, population string) ports.ScreeningReader {
		return excel.NewScreeningLoader(excel.DefaultLoaderConfig(appConfig.Data.Root, cellLine, population))
	}

	server := api.NewServer(service, analyses, artifacts, newReader, app.AnalysisOptions{
		Seed:       appConfig.Analysis.Seed,
		Classes:    appConfig.Analysis.Classes,
		SampleSize: appConfig.Analysis.SampleSize,
	})

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("Performance profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	log.Printf("Starting synergyfit server on port %s (data root %s)",
		appConfig.Server.Port, appConfig.Data.Root)
	log.Fatal(server.Run(":" + appConfig.Server.Port))
}
