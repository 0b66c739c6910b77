package di

import (
	"fmt"

	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the valuation database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{Config: cfg}

	db, err := database.New(database.Config{
		Path:    cfg.DBPath,
		Profile: database.ProfileStandard,
		Name:    "valuation",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize valuation database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate valuation database: %w", err)
	}
	container.DB = db

	log.Info().Str("path", cfg.DBPath).Msg("Database initialized")

	return container, nil
}
