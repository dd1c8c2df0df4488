package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/logger"
)

// Initialize creates a database connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := ApplySchema(ctx, db.Querier()); err != nil {
		db.Close()
		return nil, err
	}

	logger.OrDefault(log).WithFields(logrus.Fields{
		"component": "database",
		"host":      cfg.Database.Host,
		"name":      cfg.Database.Name,
	}).Info("Database initialized")
	return db, nil
}

// ApplySchema executes every schema statement in order.
func ApplySchema(ctx context.Context, q Querier) error {
	for i, stmt := range Schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
