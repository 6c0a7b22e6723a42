// Package file implements a ClientStore and an organization Directory over JSON
// files on local disk, and a YAML loader for custom pipeline definitions.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// Store implements ports.ClientStore using the local filesystem.
// It stores one JSON file per client in a configured directory.
// Compare-and-swap is enforced within one process only.
type Store struct {
	BasePath string
	mu       sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".brokerdesk/clients".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".brokerdesk", "clients")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(clientID string) (string, error) {
	if clientID == "" {
		return "", fmt.Errorf("client id cannot be empty")
	}
	if strings.ContainsAny(clientID, `/\`) || clientID == "." || clientID == ".." {
		return "", fmt.Errorf("invalid client id %q", clientID)
	}
	return filepath.Join(s.BasePath, clientID+".json"), nil
}

// Get reads the client file and checks its organization.
func (s *Store) Get(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	c, err := s.read(clientID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, clientID)
	}
	return c, nil
}

// read returns nil, nil when the file does not exist.
func (s *Store) read(clientID string) (*domain.Client, error) {
	p, err := s.path(clientID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read client file: %w", err)
	}

	var c domain.Client
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client: %w", err)
	}
	return &c, nil
}

// Put persists the client to a JSON file atomically.
func (s *Store) Put(ctx context.Context, client *domain.Client) error {
	destPath, err := s.path(client.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(client.ID)
	if err != nil {
		return err
	}
	var current int64
	if existing != nil {
		if existing.OrganizationID != client.OrganizationID {
			return fmt.Errorf("%w: %s", domain.ErrClientNotFound, client.ID)
		}
		current = existing.Version
	}
	if current != client.Version {
		return fmt.Errorf("%w: client %s at version %d, write based on %d",
			domain.ErrConcurrentModification, client.ID, current, client.Version)
	}

	next := client.Clone()
	next.Version++
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal client: %w", err)
	}

	if err := writeAtomic(s.BasePath, filepath.Base(destPath), data); err != nil {
		return err
	}

	client.Version = next.Version
	return nil
}

// ListByOrganization scans the directory for clients of orgID.
func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Client, error) {
	out := make([]*domain.Client, 0)

	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		c, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		if c != nil && c.OrganizationID == orgID {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// writeAtomic writes to a temporary file first, syncs via fsync, and then
// renames it to dir/name.
func writeAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+strings.TrimSuffix(name, ".json")+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
