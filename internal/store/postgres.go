// Package store provides ticket repository backends for the after-hours agent.
//
// This file implements the PostgreSQL-backed repository.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/lib/pq"
	"github.com/wireheat/afterhours/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pqUniqueViolation = "23505"

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres repository based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore: creating Postgres repository", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Create(req models.ServiceRequest) error {
	if !ValidTicketID(req.ID) {
		return models.ErrInvalidTicketID
	}
	_, err := s.db.Exec(`
		INSERT INTO service_requests (
			id, customer_name, service_address, unit_info, ownership,
			callback_primary, callback_alternate, issue_type, is_emergency,
			issue_description, created_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		req.ID, req.CustomerName, req.ServiceAddress, req.UnitInfo, req.Ownership,
		req.CallbackPrimary, req.CallbackAlternate, req.IssueType, req.IsEmergency,
		req.IssueDescription, req.CreatedAt, req.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			slog.Warn("PostgresStore.Create: duplicate ticket id", "id", req.ID)
			return models.ErrDuplicateTicketID
		}
		slog.Error("PostgresStore.Create failed", "error", err, "id", req.ID)
		return fmt.Errorf("failed to insert service request %s: %w", req.ID, err)
	}
	slog.Debug("PostgresStore.Create succeeded", "id", req.ID, "emergency", req.IsEmergency)
	return nil
}

func (s *PostgresStore) Get(id string) (*models.ServiceRequest, error) {
	row := s.db.QueryRow(`
		SELECT id, customer_name, service_address, unit_info, ownership,
		       callback_primary, callback_alternate, issue_type, is_emergency,
		       issue_description, created_at, status
		FROM service_requests WHERE id = $1`, id)
	req, err := scanServiceRequestRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore.Get: not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.Get failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get service request %s: %w", id, err)
	}
	return &req, nil
}

func (s *PostgresStore) List() ([]models.ServiceRequest, error) {
	rows, err := s.db.Query(`
		SELECT id, customer_name, service_address, unit_info, ownership,
		       callback_primary, callback_alternate, issue_type, is_emergency,
		       issue_description, created_at, status
		FROM service_requests ORDER BY created_at DESC, id DESC`)
	if err != nil {
		slog.Error("PostgresStore.List query failed", "error", err)
		return nil, fmt.Errorf("failed to query service requests: %w", err)
	}
	defer rows.Close()

	var requests []models.ServiceRequest
	for rows.Next() {
		req, err := scanServiceRequest(rows)
		if err != nil {
			slog.Error("PostgresStore.List scan failed", "error", err)
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore.List rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate service request rows: %w", err)
	}
	slog.Debug("PostgresStore.List succeeded", "count", len(requests))
	return requests, nil
}

func (s *PostgresStore) Exists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM service_requests WHERE id = $1`, id).Scan(&n)
	if err != nil {
		slog.Error("PostgresStore.Exists failed", "error", err, "id", id)
		return false, fmt.Errorf("failed to check ticket id %s: %w", id, err)
	}
	return n > 0, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
