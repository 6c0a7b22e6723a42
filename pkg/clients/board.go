package clients

import (
	"context"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/stage"
)

// Column is one stage of the board with its clients, oldest first.
type Column struct {
	Stage   domain.StageConfig `json:"stage"`
	Clients []*domain.Client   `json:"clients"`
}

// Board is the kanban view of one pipeline.
type Board struct {
	PipelineID string   `json:"pipelineId"`
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
}

// Count returns the number of clients on the board.
func (b *Board) Count() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col.Clients)
	}
	return n
}

// Board groups the non-archived clients of pipelineID by stage, in graph order.
// An empty pipelineID selects the default pipeline.
func (s *Service) Board(ctx context.Context, orgID, pipelineID string) (*Board, error) {
	p, err := s.registry.Resolve(pipelineID)
	if err != nil {
		return nil, err
	}
	list, err := s.List(ctx, orgID, false)
	if err != nil {
		return nil, err
	}

	b := &Board{PipelineID: p.Definition.ID, Name: p.Definition.Name}
	index := map[domain.Stage]int{}
	for i, cfg := range p.Graph.AllStages() {
		index[cfg.ID] = i
		b.Columns = append(b.Columns, Column{Stage: cfg, Clients: []*domain.Client{}})
	}

	for _, c := range list {
		if !s.inPipeline(c, p) {
			continue
		}
		i, ok := index[c.PipelineStage]
		if !ok {
			s.logger.Warn("client stage not in pipeline", "client_id", c.ID, "stage", c.PipelineStage, "pipeline_id", p.Definition.ID)
			continue
		}
		b.Columns[i].Clients = append(b.Columns[i].Clients, c)
	}
	return b, nil
}

// Statistics counts non-archived clients per stage of pipelineID. Every stage is present.
func (s *Service) Statistics(ctx context.Context, orgID, pipelineID string) (map[domain.Stage]int, error) {
	b, err := s.Board(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}
	stats := make(map[domain.Stage]int, len(b.Columns))
	for _, col := range b.Columns {
		stats[col.Stage.ID] = len(col.Clients)
	}
	return stats, nil
}

func (s *Service) inPipeline(c *domain.Client, p *stage.Pipeline) bool {
	id := c.PipelineID
	if id == "" {
		id = s.registry.DefaultID()
	}
	return id == p.Definition.ID
}
