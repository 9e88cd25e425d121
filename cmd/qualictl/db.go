package main

import (
	"fmt"

	"github.com/dangerclosesec/qualitrack/internal/app"
	"github.com/dangerclosesec/qualitrack/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openDB is replaced in tests.
var openDB = func(cfg *config.Config) (*gorm.DB, error) {
	return app.OpenDatabase(cfg, logger.Warn)
}

// loadApp connects to the configured database and wires the services.
func loadApp() (*app.App, error) {
	cfg := config.Load()
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	a, err := app.New(db, cfg, app.Options{})
	if err != nil {
		return nil, fmt.Errorf("wiring services: %w", err)
	}
	return a, nil
}
