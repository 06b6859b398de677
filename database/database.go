package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"careercompass/config"
)

var DB *gorm.DB

// Init initializes the local database connection used for advisor chat
// history. The DSN "memory" (or empty) selects an in-memory SQLite database;
// anything else is treated as a SQLite file path.
func Init() (*gorm.DB, error) {
	var err error
	dsn := config.AppConfig.Database.DSN

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	gormConfig := &gorm.Config{Logger: gormLogger}

	if dsn == "memory" || dsn == "" {
		log.Println("INFO: [Database] Initializing in-memory SQLite database (DSN: 'memory' or empty).")
		DB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), gormConfig)
	} else {
		log.Printf("INFO: [Database] Initializing file-based SQLite database at DSN: '%s'.", dsn)
		dbDir := filepath.Dir(dsn)
		if dbDir != "." && dbDir != "/" {
			if _, statErr := os.Stat(dbDir); os.IsNotExist(statErr) {
				if mkdirErr := os.MkdirAll(dbDir, 0755); mkdirErr != nil {
					log.Printf("ERROR: [Database] Failed to create database directory '%s': %v", dbDir, mkdirErr)
					return nil, fmt.Errorf("failed to create database directory '%s': %w", dbDir, mkdirErr)
				}
			}
		}
		DB, err = gorm.Open(sqlite.Open(dsn), gormConfig)
	}

	if err != nil {
		log.Printf("ERROR: [Database] Failed to connect to database (DSN: '%s'): %v", dsn, err)
		return nil, fmt.Errorf("failed to connect to database (DSN: '%s'): %w", dsn, err)
	}

	log.Println("INFO: [Database] Database connection established successfully.")
	return DB, nil
}
