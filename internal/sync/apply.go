package sync

import (
	"context"
	"fmt"

	"fogtime/internal/calendar"
	appLog "fogtime/internal/log"
	"fogtime/internal/metrics"
	"fogtime/internal/model"
)

// payloadFunc builds the write payload for one desired event. The two phases
// decorate differently: the forward phase replaces summary/description with
// the blocker label and tag, the reverse phase passes the already-stamped
// event through.
type payloadFunc func(model.Event) calendar.Payload

// applyActions executes one action set against calendarID. Every operation
// is a single network call with no local retry; the first failure aborts the
// remainder and propagates, leaving already-applied actions in place for the
// next cycle's fresh diff to pick up.
func applyActions(ctx context.Context, w calendar.Writer, calendarID, phase string, acts Actions, build payloadFunc) error {
	for _, ev := range acts.Creates {
		appLog.Info("creating event", "phase", phase, "calendar", calendarID, "id", ev.CanonicalID, "start", ev.Start.String())
		if err := w.Insert(ctx, calendarID, build(ev)); err != nil {
			return fmt.Errorf("insert %s: %w", ev.CanonicalID, err)
		}
		metrics.ActionApplied(phase, "create")
	}

	for _, up := range acts.Updates {
		appLog.Info("updating event", "phase", phase, "calendar", calendarID, "id", up.Event.CanonicalID, "provider_id", up.ProviderID)
		if err := w.Patch(ctx, calendarID, up.ProviderID, build(up.Event)); err != nil {
			return fmt.Errorf("patch %s: %w", up.ProviderID, err)
		}
		metrics.ActionApplied(phase, "update")
	}

	for _, providerID := range acts.Deletes {
		appLog.Info("deleting event", "phase", phase, "calendar", calendarID, "provider_id", providerID)
		if err := w.Delete(ctx, calendarID, providerID); err != nil {
			return fmt.Errorf("delete %s: %w", providerID, err)
		}
		metrics.ActionApplied(phase, "delete")
	}

	return nil
}
