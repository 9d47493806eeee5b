package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/pkg/domain"
)

// WatchReload reloads kit every time its loader reports a change, until ctx is done.
// onReload, when set, runs after every reload that changed something.
// It returns false when the loader cannot be watched.
func WatchReload(ctx context.Context, kit *flowkit.Kit, logger *slog.Logger, onReload func(*domain.FlowDiff)) bool {
	events, err := kit.Watch(ctx)
	if err != nil {
		logger.Debug("Hot reload disabled", "err", err)
		return false
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				diff, err := kit.Reload(ctx)
				if err != nil {
					logger.Warn("Reload failed, keeping previous flow", "event", event, "err", err)
					continue
				}
				if diff == nil {
					continue
				}
				logger.Info("Flow reloaded", "event", event,
					"added", diff.Added, "removed", diff.Removed, "changed", diff.Changed)
				if onReload != nil {
					onReload(diff)
				}
			}
		}
	}()
	return true
}
