// Package redis provides Redis backed implementations of the client store, the
// organization directory and the distributed locker, for deployments running
// more than one replica.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/brokerdesk/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "brokerdesk:"

// Store implements ports.ClientStore using Redis.
// Each client is one JSON document; each organization keeps a sorted set of
// its client ids scored by creation time.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the connection so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(clientID string) string {
	return s.prefix + "client:" + clientID
}

func (s *Store) indexKey(orgID string) string {
	return s.prefix + "org:" + orgID + ":clients"
}

// Get retrieves the client from Redis, scoped to orgID.
func (s *Store) Get(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	val, err := s.client.Get(ctx, s.key(clientID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, clientID)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	c, err := decode(val)
	if err != nil {
		return nil, err
	}
	if c.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, clientID)
	}
	return c, nil
}

// Put writes the client inside a WATCH/MULTI transaction.
// A concurrent writer touching the same key aborts the transaction.
func (s *Store) Put(ctx context.Context, client *domain.Client) error {
	if client.ID == "" {
		return fmt.Errorf("client id is required")
	}

	key := s.key(client.ID)
	next := client.Clone()
	next.Version = client.Version + 1

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal client: %w", err)
	}

	txf := func(tx *backend.Tx) error {
		var current int64
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, backend.Nil):
		case err != nil:
			return fmt.Errorf("failed to get from redis: %w", err)
		default:
			existing, err := decode(raw)
			if err != nil {
				return err
			}
			if existing.OrganizationID != client.OrganizationID {
				return fmt.Errorf("%w: %s", domain.ErrClientNotFound, client.ID)
			}
			current = existing.Version
		}

		if current != client.Version {
			return fmt.Errorf("%w: client %s at version %d, write based on %d",
				domain.ErrConcurrentModification, client.ID, current, client.Version)
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, s.indexKey(client.OrganizationID), backend.Z{
				Score:  float64(client.CreatedAt.UnixMilli()),
				Member: client.ID,
			})
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, backend.TxFailedErr) {
			return fmt.Errorf("%w: client %s changed during write", domain.ErrConcurrentModification, client.ID)
		}
		return err
	}

	client.Version = next.Version
	return nil
}

// ListByOrganization loads every client indexed under orgID.
func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Client, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(orgID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	out := make([]*domain.Client, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}

	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Indexed but deleted out of band.
			continue
		}
		c, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		if c.OrganizationID == orgID {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(data []byte) (*domain.Client, error) {
	var c domain.Client
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client: %w", err)
	}
	return &c, nil
}
