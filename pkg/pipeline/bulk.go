package pipeline

import (
	"context"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// BulkFailure is one client a BulkMove could not move.
type BulkFailure struct {
	ClientID string `json:"clientId"`
	Err      error  `json:"-"`
	Reason   string `json:"reason"`
}

// BulkResult aggregates a BulkMove. Partial success is a normal outcome.
type BulkResult struct {
	Succeeded    int           `json:"succeeded"`
	SucceededIDs []string      `json:"succeededIds"`
	Failed       []BulkFailure `json:"failed"`
}

// BulkMove applies MoveClientToStage to every id with the shared target.
// Each client is processed independently and concurrently; duplicate ids are moved once.
// Results keep the order of first appearance in clientIDs.
func (s *Service) BulkMove(ctx context.Context, orgID string, clientIDs []string, target domain.Stage) BulkResult {
	ctx, span := s.tracer.Start(ctx, "pipeline.BulkMove", trace.WithAttributes(
		attribute.String("brokerdesk.org_id", orgID),
		attribute.String("brokerdesk.target_stage", string(target)),
		attribute.Int("brokerdesk.client_count", len(clientIDs)),
	))
	defer span.End()

	ids := dedupe(clientIDs)
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			_, errs[i] = s.MoveClientToStage(ctx, orgID, id, target)
			return nil
		})
	}
	_ = g.Wait()

	res := BulkResult{SucceededIDs: []string{}, Failed: []BulkFailure{}}
	for i, id := range ids {
		if errs[i] != nil {
			res.Failed = append(res.Failed, BulkFailure{ClientID: id, Err: errs[i], Reason: errs[i].Error()})
			continue
		}
		res.Succeeded++
		res.SucceededIDs = append(res.SucceededIDs, id)
	}

	span.SetAttributes(
		attribute.Int("brokerdesk.succeeded", res.Succeeded),
		attribute.Int("brokerdesk.failed", len(res.Failed)),
	)
	s.logger.Info("bulk move finished",
		"org_id", orgID,
		"target", target,
		"succeeded", res.Succeeded,
		"failed", len(res.Failed),
	)
	return res
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
