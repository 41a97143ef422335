package datafeed

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/fazecat/tokensentry/Internal/utils/config"
	_ "github.com/lib/pq"
)

var DB *sql.DB

func InitDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.PingContext(ctx); err != nil {
		DB.Close()
		DB = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err = initializeSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("Database connected successfully!")
	return nil
}

// initializeSchema creates the settings table if it doesn't exist
func initializeSchema(ctx context.Context) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS settings (
		setting_key TEXT PRIMARY KEY,
		setting_value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := DB.ExecContext(ctx, schemaSQL)
	return err
}

func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

func HealthCheck(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}
	return DB.PingContext(ctx)
}
