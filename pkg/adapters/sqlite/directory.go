package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

func (s *Store) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.getDocument(ctx, `SELECT document FROM organizations WHERE id = ?`, id, &org); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrganizationNotFound, id)
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

func (s *Store) PutOrganization(ctx context.Context, org *domain.Organization) error {
	doc, err := json.Marshal(org)
	if err != nil {
		return fmt.Errorf("failed to marshal organization: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, join_code, document) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET join_code = excluded.join_code, document = excluded.document`,
		org.ID, org.JoinCode, string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to put organization: %w", err)
	}
	return nil
}

func (s *Store) FindByJoinCode(ctx context.Context, code string) (*domain.Organization, error) {
	var org domain.Organization
	err := s.getDocument(ctx, `SELECT document FROM organizations WHERE join_code = ? AND join_code != '' LIMIT 1`, code, &org)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: join code %s", domain.ErrOrganizationNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return &org, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := s.getDocument(ctx, `SELECT document FROM users WHERE id = ?`, id, &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) PutUser(ctx context.Context, user *domain.UserProfile) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, organization_id, document) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET organization_id = excluded.organization_id, document = excluded.document`,
		user.ID, user.OrganizationID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

func (s *Store) ListUsersByOrganization(ctx context.Context, orgID string) ([]*domain.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM users WHERE organization_id = ? ORDER BY id`, orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.UserProfile
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		var u domain.UserProfile
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (s *Store) GetInvite(ctx context.Context, id string) (*domain.InviteLink, error) {
	var inv domain.InviteLink
	if err := s.getDocument(ctx, `SELECT document FROM invites WHERE id = ?`, id, &inv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInviteInvalid, id)
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return &inv, nil
}

func (s *Store) PutInvite(ctx context.Context, invite *domain.InviteLink) error {
	doc, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("failed to marshal invite: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO invites (id, document) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document`,
		invite.ID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to put invite: %w", err)
	}
	return nil
}

// getDocument scans a single JSON document column into v.
// sql.ErrNoRows is returned unwrapped so callers can map it.
func (s *Store) getDocument(ctx context.Context, query, arg string, v any) error {
	var doc string
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&doc); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}
