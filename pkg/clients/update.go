package clients

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/timeline"
	"github.com/mitchellh/mapstructure"
)

// immutable keys are owned by the pipeline service, the archive flow or the store.
var immutable = map[string]bool{
	"id":             true,
	"organizationId": true,
	"pipelineStage":  true,
	"pipelineId":     true,
	"timeline":       true,
	"isArchived":     true,
	"archivedAt":     true,
	"createdAt":      true,
	"updatedAt":      true,
	"version":        true,
}

// Update applies a shallow patch of top-level client fields, keyed like the JSON
// document (personalInfo, careManager, services, status, case, documents, budgets).
// Each present key replaces the whole field. Stage, timeline and archive fields are
// refused with domain.ErrImmutableField. A status edit records a status-changed event.
func (s *Service) Update(ctx context.Context, orgID, clientID string, patch map[string]any) (*domain.Client, error) {
	var refused []string
	for k := range patch {
		if immutable[k] {
			refused = append(refused, k)
		}
	}
	if len(refused) > 0 {
		sort.Strings(refused)
		return nil, fmt.Errorf("%w: %v", domain.ErrImmutableField, refused)
	}

	var in domain.Client
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &in,
		TagName:     "mapstructure",
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(patch); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if _, ok := patch["status"]; ok && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
	}

	return s.mutate(ctx, orgID, clientID, func(c *domain.Client, actor string) (bool, error) {
		from := c.Status
		for k := range patch {
			switch k {
			case "personalInfo":
				c.PersonalInfo = in.PersonalInfo
			case "careManager":
				c.CareManager = in.CareManager
			case "services":
				c.Services = in.Services
			case "status":
				c.Status = in.Status
			case "case":
				c.Case = in.Case
			case "documents":
				c.Documents = in.Documents
			case "budgets":
				c.Budgets = in.Budgets
			}
		}
		if c.Status != from {
			c.Timeline = timeline.Prepend(c.Timeline, s.events.StatusChanged(
				c.ID, from, c.Status,
				"Status Changed",
				"Status changed from "+string(from)+" to "+string(c.Status),
				actor))
		}
		return len(patch) > 0, nil
	})
}
