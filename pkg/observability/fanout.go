package observability

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// Combine fans build events out to several hook sets, invoked in order.
// Nil callbacks are skipped, so sparse sets combine cleanly.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeCommit: func(ctx context.Context, e *domain.CommitEvent) {
			for _, s := range sets {
				if s.OnNodeCommit != nil {
					s.OnNodeCommit(ctx, e)
				}
			}
		},
		OnWaitingAssign: func(ctx context.Context, e *domain.WaitingEvent) {
			for _, s := range sets {
				if s.OnWaitingAssign != nil {
					s.OnWaitingAssign(ctx, e)
				}
			}
		},
		OnWaitingRelease: func(ctx context.Context, e *domain.WaitingEvent) {
			for _, s := range sets {
				if s.OnWaitingRelease != nil {
					s.OnWaitingRelease(ctx, e)
				}
			}
		},
	}
}
