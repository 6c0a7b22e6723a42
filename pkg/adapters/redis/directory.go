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

// Organizations, users and invites are JSON documents. A hash maps join codes
// to organization ids and a set per organization holds its user ids.

func (s *Store) orgKey(id string) string        { return s.prefix + "organization:" + id }
func (s *Store) userKey(id string) string       { return s.prefix + "user:" + id }
func (s *Store) inviteKey(id string) string     { return s.prefix + "invite:" + id }
func (s *Store) joinCodesKey() string           { return s.prefix + "joincodes" }
func (s *Store) membersKey(orgID string) string { return s.prefix + "org:" + orgID + ":users" }

func (s *Store) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.getJSON(ctx, s.orgKey(id), &org); err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrganizationNotFound, id)
		}
		return nil, err
	}
	return &org, nil
}

// PutOrganization writes the document and moves its join code entry.
func (s *Store) PutOrganization(ctx context.Context, org *domain.Organization) error {
	data, err := json.Marshal(org)
	if err != nil {
		return fmt.Errorf("failed to marshal organization: %w", err)
	}

	var previous string
	if old, err := s.GetOrganization(ctx, org.ID); err == nil {
		previous = old.JoinCode
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.orgKey(org.ID), data, 0)
		if previous != "" && previous != org.JoinCode {
			pipe.HDel(ctx, s.joinCodesKey(), previous)
		}
		if org.JoinCode != "" {
			pipe.HSet(ctx, s.joinCodesKey(), org.JoinCode, org.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put organization: %w", err)
	}
	return nil
}

func (s *Store) FindByJoinCode(ctx context.Context, code string) (*domain.Organization, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty join code", domain.ErrOrganizationNotFound)
	}
	id, err := s.client.HGet(ctx, s.joinCodesKey(), code).Result()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("%w: join code %s", domain.ErrOrganizationNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find join code: %w", err)
	}
	return s.GetOrganization(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := s.getJSON(ctx, s.userKey(id), &u); err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
		}
		return nil, err
	}
	return &u, nil
}

// PutUser writes the profile and keeps the organization member sets in step.
func (s *Store) PutUser(ctx context.Context, user *domain.UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	var previous string
	if old, err := s.GetUser(ctx, user.ID); err == nil {
		previous = old.OrganizationID
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.userKey(user.ID), data, 0)
		if previous != "" && previous != user.OrganizationID {
			pipe.SRem(ctx, s.membersKey(previous), user.ID)
		}
		if user.OrganizationID != "" {
			pipe.SAdd(ctx, s.membersKey(user.OrganizationID), user.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

func (s *Store) ListUsersByOrganization(ctx context.Context, orgID string) ([]*domain.UserProfile, error) {
	ids, err := s.client.SMembers(ctx, s.membersKey(orgID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	sort.Strings(ids)

	var out []*domain.UserProfile
	for _, id := range ids {
		u, err := s.GetUser(ctx, id)
		if errors.Is(err, domain.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if u.OrganizationID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetInvite(ctx context.Context, id string) (*domain.InviteLink, error) {
	var inv domain.InviteLink
	if err := s.getJSON(ctx, s.inviteKey(id), &inv); err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInviteInvalid, id)
		}
		return nil, err
	}
	return &inv, nil
}

func (s *Store) PutInvite(ctx context.Context, invite *domain.InviteLink) error {
	data, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("failed to marshal invite: %w", err)
	}
	if err := s.client.Set(ctx, s.inviteKey(invite.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to put invite: %w", err)
	}
	return nil
}

// getJSON returns backend.Nil unwrapped when key is absent.
func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return err
		}
		return fmt.Errorf("failed to get from redis: %w", err)
	}
	if err := json.Unmarshal(val, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}
