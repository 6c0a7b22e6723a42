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
	"github.com/aretw0/brokerdesk/pkg/ports"
)

const (
	organizationsDir = "organizations"
	usersDir         = "users"
	invitesDir       = "invites"
)

// Directory implements ports.Directory with one JSON file per record under
// organizations/, users/ and invites/ of BasePath.
type Directory struct {
	BasePath string
	mu       sync.Mutex
}

var _ ports.Directory = (*Directory)(nil)

// NewDirectory creates a Directory rooted at basePath.
// If basePath is empty, it defaults to ".brokerdesk/directory".
func NewDirectory(basePath string) *Directory {
	if basePath == "" {
		basePath = filepath.Join(".brokerdesk", "directory")
	}
	return &Directory{BasePath: basePath}
}

func (d *Directory) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	found, err := d.read(organizationsDir, id, &org)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrganizationNotFound, id)
	}
	return &org, nil
}

func (d *Directory) PutOrganization(ctx context.Context, org *domain.Organization) error {
	return d.write(organizationsDir, org.ID, org)
}

// FindByJoinCode scans every organization file.
func (d *Directory) FindByJoinCode(ctx context.Context, code string) (*domain.Organization, error) {
	if code != "" {
		var match *domain.Organization
		err := d.scan(organizationsDir, func(raw []byte) error {
			var org domain.Organization
			if err := json.Unmarshal(raw, &org); err != nil {
				return err
			}
			if match == nil && org.JoinCode == code {
				match = &org
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if match != nil {
			return match, nil
		}
	}
	return nil, fmt.Errorf("%w: join code %s", domain.ErrOrganizationNotFound, code)
}

func (d *Directory) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	found, err := d.read(usersDir, id, &u)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	return &u, nil
}

func (d *Directory) PutUser(ctx context.Context, user *domain.UserProfile) error {
	return d.write(usersDir, user.ID, user)
}

func (d *Directory) ListUsersByOrganization(ctx context.Context, orgID string) ([]*domain.UserProfile, error) {
	var out []*domain.UserProfile
	err := d.scan(usersDir, func(raw []byte) error {
		var u domain.UserProfile
		if err := json.Unmarshal(raw, &u); err != nil {
			return err
		}
		if u.OrganizationID == orgID {
			out = append(out, &u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) GetInvite(ctx context.Context, id string) (*domain.InviteLink, error) {
	var inv domain.InviteLink
	found, err := d.read(invitesDir, id, &inv)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", domain.ErrInviteInvalid, id)
	}
	return &inv, nil
}

func (d *Directory) PutInvite(ctx context.Context, invite *domain.InviteLink) error {
	return d.write(invitesDir, invite.ID, invite)
}

func recordName(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid record id %q", id)
	}
	return id + ".json", nil
}

// read reports false when the record does not exist.
func (d *Directory) read(kind, id string, v any) (bool, error) {
	name, err := recordName(id)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(filepath.Join(d.BasePath, kind, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s record: %w", kind, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s record: %w", kind, err)
	}
	return true, nil
}

func (d *Directory) write(kind, id string, v any) error {
	name, err := recordName(id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", kind, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return writeAtomic(filepath.Join(d.BasePath, kind), name, data)
}

func (d *Directory) scan(kind string, fn func([]byte) error) error {
	dir := filepath.Join(d.BasePath, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list %s: %w", kind, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s record: %w", kind, err)
		}
		if err := fn(data); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", kind, name, err)
		}
	}
	return nil
}
