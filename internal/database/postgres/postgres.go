package postgres

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"dataset-service/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ConnectAndCreateDB connects to the server, creates the service database
// if it does not exist yet and applies schema.sql on first creation.
func ConnectAndCreateDB(cfg config.PostgresConfig) (*sqlx.DB, error) {
	defaultConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	defaultDB, err := sql.Open("postgres", defaultConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	err = defaultDB.QueryRow(checkQuery, cfg.DBname).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		createQuery := fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)
		_, err = defaultDB.Exec(createQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		log.Printf("Database '%s' created", cfg.DBname)
	}

	targetConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBname)

	db, err := sqlx.Connect("postgres", targetConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}

	if !exists {
		if err := executeSchema(db); err != nil {
			log.Printf("Warning: failed to execute schema.sql: %v", err)
			// Allow manual schema setup instead of failing startup.
		}
	}

	return db, nil
}

// executeSchema reads and executes the schema.sql file
func executeSchema(db *sqlx.DB) error {
	schemaLocations := []string{
		"schema.sql",
		"./schema.sql",
		"/app/schema.sql",
	}

	var schemaPath string
	for _, location := range schemaLocations {
		if _, err := os.Stat(location); err == nil {
			schemaPath = location
			break
		}
	}

	if schemaPath == "" {
		return fmt.Errorf("schema.sql not found in any expected locations: %v", schemaLocations)
	}

	schemaContent, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema.sql from %s: %w", schemaPath, err)
	}

	log.Printf("Executing schema from: %s", schemaPath)

	statements := strings.Split(string(schemaContent), ";")
	successCount := 0
	for i, statement := range statements {
		statement = strings.TrimSpace(statement)
		if statement == "" || strings.HasPrefix(statement, "--") {
			continue
		}

		if _, err := db.Exec(statement); err != nil {
			log.Printf("Warning: failed to execute statement %d: %v", i+1, err)
			// Continue executing other statements even if one fails.
		} else {
			successCount++
		}
	}

	log.Printf("Schema execution completed, %d statements executed", successCount)
	return nil
}

// ConnectWithRetry blocks until a connection is established. Startup
// wiring waits on it so repositories are only ever built against a live
// handle.
func ConnectWithRetry(wait time.Duration, cfg config.PostgresConfig) *sqlx.DB {
	return connectWithRetry(wait, func() (*sqlx.DB, error) {
		return ConnectAndCreateDB(cfg)
	})
}

func connectWithRetry(wait time.Duration, connect func() (*sqlx.DB, error)) *sqlx.DB {
	for {
		db, err := connect()
		if err == nil {
			log.Printf("database retry connection succeeded")
			return db
		}
		log.Printf("failed to retry connect database: %s, next retry in %v", err, wait)
		time.Sleep(wait)
	}
}
