// Package sqlite provides a single-file ClientStore backed by modernc.org/sqlite,
// for installations that want durable storage without running a server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
)

// Store is a SQLite implementation of ports.ClientStore and ports.Directory.
// Records are stored as JSON documents next to the columns used for scoping,
// ordering and compare-and-swap.
type Store struct {
	db *sql.DB
}

var (
	_ ports.ClientStore = (*Store)(nil)
	_ ports.Directory   = (*Store)(nil)
)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			document TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_org ON clients(organization_id, created_at, id)`,
		`CREATE TABLE IF NOT EXISTS organizations (
			id TEXT PRIMARY KEY,
			join_code TEXT NOT NULL DEFAULT '',
			document TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_organizations_join_code ON organizations(join_code)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL DEFAULT '',
			document TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_org ON users(organization_id, id)`,
		`CREATE TABLE IF NOT EXISTS invites (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) Get(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM clients WHERE id = ? AND organization_id = ?`,
		clientID, orgID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return decode(doc)
}

func (s *Store) Put(ctx context.Context, client *domain.Client) error {
	if client.ID == "" {
		return fmt.Errorf("client id is required")
	}

	next := client.Clone()
	next.Version = client.Version + 1
	doc, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal client: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		orgID   string
		current int64
		exists  = true
	)
	err = tx.QueryRowContext(ctx,
		`SELECT organization_id, version FROM clients WHERE id = ?`, client.ID,
	).Scan(&orgID, &current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return fmt.Errorf("failed to read client version: %w", err)
	case orgID != client.OrganizationID:
		return fmt.Errorf("%w: %s", domain.ErrClientNotFound, client.ID)
	}

	if current != client.Version {
		return fmt.Errorf("%w: client %s at version %d, write based on %d",
			domain.ErrConcurrentModification, client.ID, current, client.Version)
	}

	if exists {
		res, err := tx.ExecContext(ctx,
			`UPDATE clients SET document = ?, version = ?, updated_at = ? WHERE id = ? AND version = ?`,
			string(doc), next.Version, unix(client.UpdatedAt), client.ID, client.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return fmt.Errorf("%w: client %s", domain.ErrConcurrentModification, client.ID)
		}
	} else {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clients (id, organization_id, version, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			client.ID, client.OrganizationID, next.Version, string(doc), unix(client.CreatedAt), unix(client.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert client: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit client: %w", err)
	}

	client.Version = next.Version
	return nil
}

func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM clients WHERE organization_id = ? ORDER BY created_at, id`, orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Client, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		c, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func decode(doc string) (*domain.Client, error) {
	var c domain.Client
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client: %w", err)
	}
	return &c, nil
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
