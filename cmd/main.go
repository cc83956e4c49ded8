package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"dataset-service/internal/config"
	"dataset-service/internal/database/minio"
	"dataset-service/internal/database/postgres"
	"dataset-service/internal/database/redis"
	"dataset-service/internal/event"
	"dataset-service/internal/handlers"
	"dataset-service/internal/repository"
	"dataset-service/internal/services"

	"github.com/gofiber/fiber/v3"
	goredis "github.com/redis/go-redis/v9"
)

func setupLogging() (*os.File, error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic: %v\n", r)
		}
	}()

	logDir := filepath.Join("/dataset", "log", "dataset_service")
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()
	log.Printf("Connecting to PostgreSQL with: host=%s, port=%s, user=%s, dbname=%s",
		cfg.PostgresCfg.Host, cfg.PostgresCfg.Port, cfg.PostgresCfg.Username, cfg.PostgresCfg.DBname)

	// Wiring below needs a live handle, so a failed first connect blocks
	// startup on the retry loop instead of handing out a nil database.
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s, retrying until available", err)
		db = postgres.ConnectWithRetry(30*time.Second, cfg.PostgresCfg)
	}

	// The redis cache and minio archive are best-effort collaborators:
	// the service stays up without them.
	var redisClient *goredis.Client
	redisConn, err := redis.NewRedisClient(cfg.RedisCfg)
	if err != nil {
		log.Printf("redis unavailable, serving without cache: %s", err)
	} else {
		redisClient = redisConn.GetClient()
		defer redisConn.Close()
	}

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		log.Printf("minio unavailable, uploads will not be archived: %s", err)
		minioClient = nil
	}

	var publisher *event.DatasetPublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Printf("rabbitmq unavailable, dataset events will not be published: %s", err)
	} else {
		publisher = event.NewDatasetPublisher(rabbitConn)
		defer rabbitConn.Close()
	}

	// repositories
	datasetRepository := repository.NewDatasetRepository(db, redisClient)

	// services
	datasetService := services.NewDatasetService(datasetRepository, minioClient, publisher, cfg.ServingBaseURL)

	// handlers
	datasetHandler := handlers.NewDatasetHandler(datasetService)

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		health := fiber.Map{"status": "Dataset service is healthy"}
		if publisher != nil {
			health["events"] = publisher.Stats()
		}
		return c.Status(fiber.StatusOK).JSON(health)
	})
	datasetHandler.Register(app)

	log.Printf("Starting dataset-service on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
