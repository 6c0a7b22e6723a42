package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
)

// Multi fans an action out to every dispatcher in order.
// All dispatchers run even if one fails; failures are joined.
type Multi []ports.ActionDispatcher

func (m Multi) Dispatch(ctx context.Context, action string, c *domain.Client) error {
	var errs []error
	for i, d := range m {
		if d == nil {
			continue
		}
		if err := d.Dispatch(ctx, action, c); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
