// Package store provides ticket repository backends for the after-hours agent.
//
// This file implements the SQLite-backed repository.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/mattn/go-sqlite3"
	"github.com/wireheat/afterhours/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite repository with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(req models.ServiceRequest) error {
	if !ValidTicketID(req.ID) {
		return models.ErrInvalidTicketID
	}
	_, err := s.db.Exec(`
		INSERT INTO service_requests (
			id, customer_name, service_address, unit_info, ownership,
			callback_primary, callback_alternate, issue_type, is_emergency,
			issue_description, created_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.CustomerName, req.ServiceAddress, req.UnitInfo, req.Ownership,
		req.CallbackPrimary, req.CallbackAlternate, req.IssueType, req.IsEmergency,
		req.IssueDescription, req.CreatedAt, req.Status)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			slog.Warn("SQLiteStore.Create: duplicate ticket id", "id", req.ID)
			return models.ErrDuplicateTicketID
		}
		slog.Error("SQLiteStore.Create failed", "error", err, "id", req.ID)
		return fmt.Errorf("failed to insert service request %s: %w", req.ID, err)
	}
	slog.Debug("SQLiteStore.Create succeeded", "id", req.ID, "emergency", req.IsEmergency)
	return nil
}

func (s *SQLiteStore) Get(id string) (*models.ServiceRequest, error) {
	row := s.db.QueryRow(`
		SELECT id, customer_name, service_address, unit_info, ownership,
		       callback_primary, callback_alternate, issue_type, is_emergency,
		       issue_description, created_at, status
		FROM service_requests WHERE id = ?`, id)
	req, err := scanServiceRequestRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore.Get: not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.Get failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get service request %s: %w", id, err)
	}
	return &req, nil
}

func (s *SQLiteStore) List() ([]models.ServiceRequest, error) {
	rows, err := s.db.Query(`
		SELECT id, customer_name, service_address, unit_info, ownership,
		       callback_primary, callback_alternate, issue_type, is_emergency,
		       issue_description, created_at, status
		FROM service_requests ORDER BY created_at DESC, id DESC`)
	if err != nil {
		slog.Error("SQLiteStore.List query failed", "error", err)
		return nil, fmt.Errorf("failed to query service requests: %w", err)
	}
	defer rows.Close()

	var requests []models.ServiceRequest
	for rows.Next() {
		req, err := scanServiceRequest(rows)
		if err != nil {
			slog.Error("SQLiteStore.List scan failed", "error", err)
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore.List rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate service request rows: %w", err)
	}
	slog.Debug("SQLiteStore.List succeeded", "count", len(requests))
	return requests, nil
}

func (s *SQLiteStore) Exists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM service_requests WHERE id = ?`, id).Scan(&n)
	if err != nil {
		slog.Error("SQLiteStore.Exists failed", "error", err, "id", id)
		return false, fmt.Errorf("failed to check ticket id %s: %w", id, err)
	}
	return n > 0, nil
}

// Clear deletes all service requests (for tests).
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM service_requests")
	if err != nil {
		slog.Error("SQLiteStore.Clear failed", "error", err)
		return err
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
