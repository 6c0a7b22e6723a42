package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
)

// ErrReadOnly is returned by Put on a masked view.
var ErrReadOnly = errors.New("store view is read-only")

// Mask replaces masked string values.
const Mask = "***"

// DefaultPIIPatterns match the personal fields of a client document.
var DefaultPIIPatterns = []string{
	`(?i)^(firstName|lastName|fullName)$`,
	`(?i)email`,
	`(?i)phone`,
	`(?i)^street$`,
	`(?i)dateOfBirth`,
}

type piiMiddleware struct {
	next     ports.ClientStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a read-only view that masks values of document
// keys matching the patterns. Writes are refused so masked values never
// overwrite real data.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ClientStore) ports.ClientStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Get(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	c, err := m.next.Get(ctx, orgID, clientID)
	if err != nil {
		return nil, err
	}
	return m.mask(c)
}

func (m *piiMiddleware) Put(ctx context.Context, client *domain.Client) error {
	return ErrReadOnly
}

func (m *piiMiddleware) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Client, error) {
	list, err := m.next.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Client, len(list))
	for i, c := range list {
		if out[i], err = m.mask(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// mask round-trips the personal sections through a generic map so patterns
// apply to document keys.
func (m *piiMiddleware) mask(c *domain.Client) (*domain.Client, error) {
	out := c.Clone()

	info, err := m.maskSection(out.PersonalInfo)
	if err != nil {
		return nil, err
	}
	var pi domain.PersonalInfo
	if err := json.Unmarshal(info, &pi); err != nil {
		return nil, fmt.Errorf("failed to unmarshal masked personal info: %w", err)
	}
	out.PersonalInfo = pi

	cm, err := m.maskSection(out.CareManager)
	if err != nil {
		return nil, err
	}
	var manager domain.CareManager
	if err := json.Unmarshal(cm, &manager); err != nil {
		return nil, fmt.Errorf("failed to unmarshal masked care manager: %w", err)
	}
	out.CareManager = manager

	return out, nil
}

func (m *piiMiddleware) maskSection(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal section: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode section: %w", err)
	}
	maskMap(doc, m.patterns)
	return json.Marshal(doc)
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		matched := false
		for _, p := range patterns {
			if p.MatchString(k) {
				matched = true
				break
			}
		}

		if matched {
			if str, ok := v.(string); ok && !isTimestamp(str) {
				m[k] = Mask
			} else {
				// Timestamps and non-string values cannot hold the mask; drop them to zero.
				delete(m, k)
			}
			continue
		}

		switch sub := v.(type) {
		case map[string]any:
			maskMap(sub, patterns)
		case []any:
			for _, item := range sub {
				if subMap, ok := item.(map[string]any); ok {
					maskMap(subMap, patterns)
				}
			}
		}
	}
}

func isTimestamp(s string) bool {
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}
