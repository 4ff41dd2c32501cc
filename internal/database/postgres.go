package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"crm-access/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// PostgresDB wraps the relational store holding role assignments, where the
// one-active-assignment invariant lives as a partial unique index.
type PostgresDB struct {
	DB *sql.DB
}

// NewPostgres opens the relational connection with lifecycle management
func NewPostgres(lc fx.Lifecycle, cfg *config.Config) (*PostgresDB, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	log.Println("Connected to PostgreSQL!")

	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing PostgreSQL connection...")
			return db.Close()
		},
	})

	return &PostgresDB{DB: db}, nil
}
