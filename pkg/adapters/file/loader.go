package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"gopkg.in/yaml.v3"
)

// PipelinesFile is the layout of pipelines.yaml.
type PipelinesFile struct {
	Pipelines []domain.CustomPipeline `yaml:"pipelines"`
}

// Loader implements ports.PipelineLoader over a YAML file.
type Loader struct {
	Path string
}

// NewLoader creates a Loader reading path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// LoadPipelines parses the file.
// A missing file yields no pipelines so the built-in defaults apply.
func (l *Loader) LoadPipelines(ctx context.Context) ([]domain.CustomPipeline, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pipelines file: %w", err)
	}

	var f PipelinesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(l.Path), err)
	}

	for i, p := range f.Pipelines {
		if p.ID == "" {
			return nil, fmt.Errorf("pipeline #%d in %s has no id", i+1, filepath.Base(l.Path))
		}
	}
	return f.Pipelines, nil
}
