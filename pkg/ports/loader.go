package ports

import (
	"context"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// PipelineLoader supplies custom pipeline definitions.
// This allows the storage layer (YAML file, Loam, Memory) to be decoupled.
type PipelineLoader interface {
	LoadPipelines(ctx context.Context) ([]domain.CustomPipeline, error)
}
