// api/database/database.go
package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // Pure-Go SQLite driver for local development
)

// Dialect selects the placeholder style squirrel uses when building
// queries for the underlying driver.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

func (d Dialect) PlaceholderFormat() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

type DBClient struct {
	DB      *sql.DB
	Dialect Dialect
}

// NewDB opens the database named by DATABASE_URL. URLs with a postgres://
// scheme use lib/pq; anything else is treated as a SQLite file path
// (":memory:" works for throwaway instances).
func NewDB() (*DBClient, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println("DATABASE_URL environment variable not set. Using local SQLite file for development.")
		dbURL = "linkboard.db"
	}
	return Open(dbURL)
}

func Open(dbURL string) (*DBClient, error) {
	driverName := "sqlite"
	dialect := DialectSQLite
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		driverName = "postgres"
		dialect = DialectPostgres
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	if dialect == DialectPostgres {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// modernc's sqlite driver serializes writers; a single connection
		// avoids SQLITE_BUSY under concurrent redirects.
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database (ping failed): %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	log.Printf("Successfully connected to %s database!", driverName)
	return &DBClient{DB: db, Dialect: dialect}, nil
}

// Migrate creates the tables the service owns. All timestamps are stored
// as integer epoch seconds so the schema is identical across drivers.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS visits (
			id TEXT PRIMARY KEY,
			referrer TEXT,
			user_agent TEXT,
			timestamp BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp)`,
		`CREATE TABLE IF NOT EXISTS clicks (
			id TEXT PRIMARY KEY,
			platform TEXT NOT NULL,
			url TEXT NOT NULL,
			referrer TEXT,
			timestamp BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clicks_timestamp ON clicks(timestamp)`,
		`CREATE TABLE IF NOT EXISTS short_links (
			id TEXT PRIMARY KEY,
			short_code TEXT NOT NULL UNIQUE,
			original_url TEXT NOT NULL,
			platform TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			click_count BIGINT NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (c *DBClient) Close() {
	if c.DB != nil {
		err := c.DB.Close()
		if err != nil {
			log.Printf("Error closing database connection: %v", err)
		} else {
			log.Println("Database connection closed.")
		}
	}
}
