package database

import (
	"database/sql"
	"log"
	"os"

	"dexscanner-monitor/agent/internal/models"

	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

// MigrateDatabase handles database migrations using GORM's AutoMigrate and raw SQL as a fallback
func MigrateDatabase(db *gorm.DB, dsn string) error {
	env := os.Getenv("APP_ENV")
	log.Printf("Running migrations for environment: %s", env)

	log.Println("Running GORM migrations...")
	err := db.AutoMigrate(
		&models.Token{},
		&models.TokenPerformance{},
		&models.SecurityCheck{},
		&models.CheckpointAlert{},
	)
	if err != nil {
		log.Printf("ERROR: Failed to perform GORM migrations: %v", err)
		return err
	}
	log.Println("GORM migrations executed successfully.")

	// Raw SQL migrations as a safety fallback
	dbSQL, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Printf("ERROR: Failed to connect to the database with SQL: %v", err)
		return err
	}
	defer dbSQL.Close()

	return executeSQLMigrations(dbSQL)
}

func executeSQLMigrations(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
            id TEXT PRIMARY KEY,
            pair_name TEXT NOT NULL,
            deployer TEXT,
            owner_renounced BOOLEAN NOT NULL DEFAULT FALSE,
            launch_time TIMESTAMPTZ,
            mint_enabled BOOLEAN NOT NULL DEFAULT FALSE,
            liq_burned FLOAT,
            chain TEXT NOT NULL,
            initial_mc FLOAT,
            initial_liq FLOAT,
            website TEXT,
            source TEXT NOT NULL,
            detected_at TIMESTAMPTZ NOT NULL,
            is_safe BOOLEAN NOT NULL DEFAULT FALSE
        );`,
		`CREATE TABLE IF NOT EXISTS token_performances (
            token_id TEXT NOT NULL REFERENCES tokens(id),
            timestamp TIMESTAMPTZ NOT NULL,
            price FLOAT,
            market_cap FLOAT,
            volume_24h FLOAT,
            holders INT,
            PRIMARY KEY (token_id, timestamp)
        );`,
		`CREATE TABLE IF NOT EXISTS security_checks (
            token_id TEXT PRIMARY KEY REFERENCES tokens(id),
            has_honeypot BOOLEAN NOT NULL DEFAULT FALSE,
            has_mint_function BOOLEAN NOT NULL DEFAULT FALSE,
            has_proxy BOOLEAN NOT NULL DEFAULT FALSE,
            has_suspicious_holders BOOLEAN NOT NULL DEFAULT FALSE,
            check_time TIMESTAMPTZ
        );`,
		`CREATE TABLE IF NOT EXISTS checkpoint_alerts (
            token_id TEXT NOT NULL REFERENCES tokens(id),
            checkpoint_hours INT NOT NULL,
            sent_at TIMESTAMPTZ,
            PRIMARY KEY (token_id, checkpoint_hours)
        );`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			log.Printf("ERROR: Failed to execute query: %s, error: %v", query, err)
			return err
		}
	}
	log.Println("Raw SQL migrations executed successfully.")
	return nil
}
