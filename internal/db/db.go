package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the Postgres connection with a small retry loop so the server
// can come up before the database finishes starting.
func Connect(dsn string) (*gorm.DB, error) {
	var conn *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			return conn, nil
		}
		slog.Warn("database connection failed, retrying", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("connect database: %w", err)
}

// Migrate applies the GORM auto migrations for all models.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Team{},
		&models.Company{},
		&models.Product{},
		&models.SubProduct{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.InvoiceSchema{},
		&models.UserSettings{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
