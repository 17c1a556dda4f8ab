// Package store provides ticket repository backends for the after-hours agent.
//
// It includes an in-memory repository for development and tests, plus
// SQLite and PostgreSQL backends for durable storage.
package store

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/wireheat/afterhours/internal/models"
)

// Repository is the append-only collection of finalized service requests.
// Tickets are never updated or deleted once created. Create must be safe for
// concurrent writers and must reject a duplicate id with
// models.ErrDuplicateTicketID so finalization can retry with a fresh number.
type Repository interface {
	// Create inserts a new service request. The caller supplies the id.
	Create(req models.ServiceRequest) error

	// Get retrieves a service request by ticket id. Returns (nil, nil) when
	// the id is unknown.
	Get(id string) (*models.ServiceRequest, error)

	// List returns all service requests ordered by created_at descending.
	List() ([]models.ServiceRequest, error)

	// Exists reports whether a ticket id is already taken.
	Exists(id string) (bool, error)

	// Close releases any underlying resources.
	Close() error
}

var ticketIDPattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidTicketID reports whether id is a 6-digit numeric string.
func ValidTicketID(id string) bool {
	return ticketIDPattern.MatchString(id)
}

// InMemoryStore is a mutex-guarded in-process repository. Tickets live only
// as long as the process.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]models.ServiceRequest
}

// NewInMemoryStore creates an empty in-memory repository.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]models.ServiceRequest)}
}

func (s *InMemoryStore) Create(req models.ServiceRequest) error {
	if !ValidTicketID(req.ID) {
		return models.ErrInvalidTicketID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.requests[req.ID]; taken {
		slog.Warn("InMemoryStore.Create: duplicate ticket id", "id", req.ID)
		return models.ErrDuplicateTicketID
	}
	s.requests[req.ID] = req
	slog.Debug("InMemoryStore.Create: ticket stored", "id", req.ID, "emergency", req.IsEmergency)
	return nil
}

func (s *InMemoryStore) Get(id string) (*models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (s *InMemoryStore) List() ([]models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ServiceRequest, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) Exists(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.requests[id]
	return ok, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

// sortNewestFirst orders requests by created_at descending, breaking ties by
// id so listings are deterministic.
func sortNewestFirst(reqs []models.ServiceRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].ID > reqs[j].ID
	})
}

// Opts holds configuration options for repository backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for repository backends.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use URL or key=value forms; anything else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
