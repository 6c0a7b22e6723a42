package stage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
)

// Pipeline pairs a pipeline definition with its compiled graph.
type Pipeline struct {
	Definition domain.CustomPipeline
	Graph      *Graph
}

// Registry manages the available pipelines.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]*Pipeline
	defaultID string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pipelines: make(map[string]*Pipeline),
	}
}

// NewDefaultRegistry creates a registry preloaded with DefaultPipelines.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range DefaultPipelines() {
		if err := r.Register(p); err != nil {
			panic(fmt.Sprintf("stage: built-in pipeline %s: %v", p.ID, err))
		}
	}
	return r
}

// Register compiles and adds a pipeline. An existing pipeline with the same id is replaced.
// The first registered pipeline, or any flagged IsDefault, becomes the default.
func (r *Registry) Register(def domain.CustomPipeline) error {
	if def.ID == "" {
		return fmt.Errorf("pipeline id is required")
	}
	g, err := New(def.EntryStage, def.Stages)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", def.ID, err)
	}
	def.EntryStage = g.EntryStage()
	def.Stages = g.AllStages()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[def.ID] = &Pipeline{Definition: def, Graph: g}
	if r.defaultID == "" || def.IsDefault {
		r.defaultID = def.ID
	}
	return nil
}

// LoadFrom registers every pipeline supplied by loader and returns how many
// were accepted. Invalid pipelines are skipped and reported together.
func (r *Registry) LoadFrom(ctx context.Context, loader ports.PipelineLoader) (int, error) {
	defs, err := loader.LoadPipelines(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pipelines: %w", err)
	}
	var errs []error
	n := 0
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// Resolve returns the pipeline with id. An empty id selects the default pipeline.
func (r *Registry) Resolve(id string) (*Pipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == "" {
		id = r.defaultID
	}
	p, ok := r.pipelines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrPipelineNotFound, id)
	}
	return p, nil
}

// DefaultID returns the id of the default pipeline, empty when none is registered.
func (r *Registry) DefaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultID
}

// List returns every pipeline, default first and the rest by id.
func (r *Registry) List() []*Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Pipeline, 0, len(r.pipelines))
	for _, p := range r.pipelines {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Definition.ID == r.defaultID) != (out[j].Definition.ID == r.defaultID) {
			return out[i].Definition.ID == r.defaultID
		}
		return out[i].Definition.ID < out[j].Definition.ID
	})
	return out
}
