package config

import (
	"errors"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var PostgresDB *gorm.DB

// PostgresURI returns POSTGRES_URI; migrations open their own connection with it.
func PostgresURI() (string, error) {
	uri := os.Getenv("POSTGRES_URI")
	if uri == "" {
		return "", errors.New("POSTGRES_URI environment variable is not set")
	}
	return uri, nil
}

func InitPostgres() error {
	uri, err := PostgresURI()
	if err != nil {
		return err
	}
	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	PostgresDB = db
	return nil
}
