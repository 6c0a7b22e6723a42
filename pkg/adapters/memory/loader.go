package memory

import (
	"context"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// Loader implements ports.PipelineLoader over a fixed slice.
type Loader struct {
	pipelines []domain.CustomPipeline
}

// NewLoader creates a Loader returning pipelines.
func NewLoader(pipelines ...domain.CustomPipeline) *Loader {
	return &Loader{pipelines: pipelines}
}

func (l *Loader) LoadPipelines(ctx context.Context) ([]domain.CustomPipeline, error) {
	return append([]domain.CustomPipeline(nil), l.pipelines...), nil
}
