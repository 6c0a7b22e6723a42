// Package dashboard computes the aggregate cards shown on an organization's dashboard.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/aretw0/brokerdesk/pkg/stage"
)

// Window is the period compared by the growth figures.
const Window = 30 * 24 * time.Hour

// Metrics summarizes one organization's clients.
type Metrics struct {
	TotalClients   int                  `json:"totalClients"`
	ActiveLeads    int                  `json:"activeLeads"`
	Completed      int                  `json:"completed"`
	Archived       int                  `json:"archived"`
	CompletionRate float64              `json:"completionRate"`
	PerStage       map[domain.Stage]int `json:"perStage"`
	ApprovedBudget float64              `json:"approvedBudget"`

	// NewClients counts clients created within the last Window; ClientsGrowth
	// compares it with the Window before.
	NewClients    int     `json:"newClients"`
	ClientsGrowth float64 `json:"clientsGrowth"`
}

type Service struct {
	store    ports.ClientStore
	registry *stage.Registry
	now      func() time.Time
}

// NewService reads clients from store. Entry and terminal stages come from
// registry; a nil registry uses the built-in pipelines.
func NewService(store ports.ClientStore, registry *stage.Registry) *Service {
	if registry == nil {
		registry = stage.NewDefaultRegistry()
	}
	return &Service{store: store, registry: registry, now: time.Now}
}

// WithClock returns a copy of s reading time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Metrics aggregates the clients of orgID. Archived clients only feed Archived.
// A client is a lead while it sits at its pipeline's entry stage and completed
// once it reaches a stage with no outgoing transitions.
func (s *Service) Metrics(ctx context.Context, orgID string) (*Metrics, error) {
	list, err := s.store.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	now := s.now()
	m := &Metrics{PerStage: map[domain.Stage]int{}}
	previous := 0
	graphs := make(map[string]*stage.Graph)
	for _, c := range list {
		if c.IsArchived {
			m.Archived++
			continue
		}
		m.TotalClients++
		m.PerStage[c.PipelineStage]++
		switch s.classify(graphs, c) {
		case stageEntry:
			m.ActiveLeads++
		case stageTerminal:
			m.Completed++
		}
		for _, b := range c.Budgets {
			if b.Status == domain.BudgetApproved {
				m.ApprovedBudget += b.Amount
			}
		}

		age := now.Sub(c.CreatedAt)
		switch {
		case age <= Window:
			m.NewClients++
		case age <= 2*Window:
			previous++
		}
	}
	if m.TotalClients > 0 {
		m.CompletionRate = float64(m.Completed) / float64(m.TotalClients) * 100
	}
	m.ClientsGrowth = GrowthRate(float64(m.NewClients), float64(previous))
	return m, nil
}

type stageKind int

const (
	stageMiddle stageKind = iota
	stageEntry
	stageTerminal
)

// classify places c within its pipeline. Clients of unknown pipelines are
// judged against the built-in stage names.
func (s *Service) classify(graphs map[string]*stage.Graph, c *domain.Client) stageKind {
	g, ok := graphs[c.PipelineID]
	if !ok {
		if p, err := s.registry.Resolve(c.PipelineID); err == nil {
			g = p.Graph
		}
		graphs[c.PipelineID] = g
	}

	if g == nil {
		switch c.PipelineStage {
		case domain.StageLeadIntake:
			return stageEntry
		case domain.StageCompleted:
			return stageTerminal
		}
		return stageMiddle
	}
	if c.PipelineStage == g.EntryStage() {
		return stageEntry
	}
	if cfg, err := g.Lookup(c.PipelineStage); err == nil && len(cfg.AllowedTransitions) == 0 {
		return stageTerminal
	}
	return stageMiddle
}

// GrowthRate is the percentage change from previous to current. Zero when previous is zero.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// FormatPercentage renders one decimal with an explicit plus sign for gains, e.g. "+8.7%".
func FormatPercentage(v float64) string {
	sign := ""
	if v > 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// FormatCurrency renders whole US dollars with thousands separators, e.g. "$3,345".
func FormatCurrency(amount float64) string {
	n := int64(math.Round(amount))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
