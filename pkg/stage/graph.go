package stage

import (
	"fmt"
	"sort"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// Graph is an immutable table of Stage -> StageConfig with a designated entry stage.
type Graph struct {
	entry   domain.Stage
	byID    map[domain.Stage]domain.StageConfig
	ordered []domain.StageConfig
}

// New validates configs and builds a Graph.
// An empty entry selects the stage with the lowest order.
func New(entry domain.Stage, configs []domain.StageConfig) (*Graph, error) {
	ordered := make([]domain.StageConfig, len(configs))
	for i, c := range configs {
		ordered[i] = cloneConfig(c)
	}
	sortConfigs(ordered)

	if entry == "" && len(ordered) > 0 {
		entry = ordered[0].ID
	}

	if err := Validate(entry, ordered); err != nil {
		return nil, err
	}

	g := &Graph{
		entry:   entry,
		byID:    make(map[domain.Stage]domain.StageConfig, len(ordered)),
		ordered: ordered,
	}
	for _, c := range ordered {
		g.byID[c.ID] = c
	}
	return g, nil
}

// MustNew is like New but panics on an invalid graph. Meant for built-in tables.
func MustNew(entry domain.Stage, configs []domain.StageConfig) *Graph {
	g, err := New(entry, configs)
	if err != nil {
		panic(fmt.Sprintf("stage: invalid built-in graph: %v", err))
	}
	return g
}

// Lookup returns the configuration of id, or domain.ErrInvalidStage.
func (g *Graph) Lookup(id domain.Stage) (domain.StageConfig, error) {
	c, ok := g.byID[id]
	if !ok {
		return domain.StageConfig{}, fmt.Errorf("%w: %q", domain.ErrInvalidStage, id)
	}
	return cloneConfig(c), nil
}

// Has reports whether id is part of the graph.
func (g *Graph) Has(id domain.Stage) bool {
	_, ok := g.byID[id]
	return ok
}

// EntryStage is where new clients start.
func (g *Graph) EntryStage() domain.Stage {
	return g.entry
}

// AllStages returns every stage ordered by Order, ties broken by id.
func (g *Graph) AllStages() []domain.StageConfig {
	out := make([]domain.StageConfig, len(g.ordered))
	for i, c := range g.ordered {
		out[i] = cloneConfig(c)
	}
	return out
}

// Title returns the display title of id, falling back to the raw id.
func (g *Graph) Title(id domain.Stage) string {
	if c, ok := g.byID[id]; ok && c.Title != "" {
		return c.Title
	}
	return string(id)
}

// CanTransition reports whether a client in current may move to target.
// Unknown ids fail with domain.ErrInvalidStage. A self transition is never allowed.
func (g *Graph) CanTransition(current, target domain.Stage) (bool, error) {
	from, ok := g.byID[current]
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidStage, current)
	}
	if _, ok := g.byID[target]; !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidStage, target)
	}
	if current == target {
		return false, nil
	}
	return from.Allows(target), nil
}

func sortConfigs(cs []domain.StageConfig) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Order != cs[j].Order {
			return cs[i].Order < cs[j].Order
		}
		return cs[i].ID < cs[j].ID
	})
}

func cloneConfig(c domain.StageConfig) domain.StageConfig {
	c.AllowedTransitions = append([]domain.Stage(nil), c.AllowedTransitions...)
	c.RequiredDocuments = append([]domain.DocumentType(nil), c.RequiredDocuments...)
	c.AutomatedActions = append([]string(nil), c.AutomatedActions...)
	return c
}
