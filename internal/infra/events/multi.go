package events

import (
	"context"
	"errors"

	"github.com/yanqian/surgecast/internal/domain/alert"
)

// Multi delivers each event to every notifier and joins their errors.
type Multi []alert.Notifier

// Notify implements alert.Notifier.
func (m Multi) Notify(ctx context.Context, event alert.Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ alert.Notifier = Multi(nil)
