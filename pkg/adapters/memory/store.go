package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// Store implements ports.ClientStore in memory.
// Safe for concurrent use. Stored and returned clients are deep copies.
type Store struct {
	data map[string]*domain.Client
	mu   sync.RWMutex
}

// NewStore creates a new in-memory client store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Client),
	}
}

// Get returns a copy of the client, scoped to orgID.
func (s *Store) Get(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[clientID]
	if !ok || c.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, clientID)
	}
	return c.Clone(), nil
}

// Put stores a copy of client if its version matches the stored one.
func (s *Store) Put(ctx context.Context, client *domain.Client) error {
	if client.ID == "" {
		return fmt.Errorf("client id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if existing, ok := s.data[client.ID]; ok {
		if existing.OrganizationID != client.OrganizationID {
			return fmt.Errorf("%w: %s", domain.ErrClientNotFound, client.ID)
		}
		current = existing.Version
	}
	if current != client.Version {
		return fmt.Errorf("%w: client %s at version %d, write based on %d",
			domain.ErrConcurrentModification, client.ID, current, client.Version)
	}

	client.Version++
	s.data[client.ID] = client.Clone()
	return nil
}

// ListByOrganization returns copies of every client of orgID, oldest first.
func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Client, 0)
	for _, c := range s.data {
		if c.OrganizationID == orgID {
			out = append(out, c.Clone())
		}
	}
	sortClients(out)
	return out, nil
}

func sortClients(cs []*domain.Client) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}
