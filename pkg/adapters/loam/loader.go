// Package loam loads custom pipeline definitions from a Loam document
// repository: one Markdown (frontmatter) or JSON document per pipeline.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts the Loam library to the ports.PipelineLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[PipelineMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[PipelineMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string, opts ...loam.Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	opts = append([]loam.Option{
		loam.WithStrict(true),
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
	}, opts...)

	repo, err := loam.Init(absPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[PipelineMetadata](repo)), nil
}

// LoadPipelines lists every document in the repository as a pipeline.
// List does not carry document bodies, so each document is fetched again;
// the body, when present, is used as the description fallback.
func (l *Loader) LoadPipelines(ctx context.Context) ([]domain.CustomPipeline, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	out := make([]domain.CustomPipeline, 0, len(docs))

	for _, listed := range docs {
		doc, err := l.Repo.Get(ctx, listed.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", listed.ID, err)
		}
		meta := doc.Data

		rawID := meta.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: pipeline '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		if len(meta.Stages) == 0 {
			return nil, fmt.Errorf("pipeline '%s' defines no stages", id)
		}

		desc := meta.Description
		if desc == "" {
			desc = strings.TrimSpace(doc.Content)
		}
		name := meta.Name
		if name == "" {
			name = id
		}

		stages := make([]domain.StageConfig, len(meta.Stages))
		for i, st := range meta.Stages {
			stages[i] = st.toDomain()
		}

		out = append(out, domain.CustomPipeline{
			ID:          id,
			Name:        name,
			Description: desc,
			IsDefault:   meta.IsDefault,
			EntryStage:  domain.Stage(meta.EntryStage),
			Stages:      stages,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
