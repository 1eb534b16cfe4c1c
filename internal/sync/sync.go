// Package sync contains the reconciliation engine: the pure diff over
// canonical-id-keyed snapshots, the applier that executes the resulting
// actions, and the orchestrator sequencing one forward and one reverse pass
// per cycle.
package sync

import (
	"context"
	"fmt"

	"fogtime/internal/calendar"
	"fogtime/internal/collect"
	appLog "fogtime/internal/log"
	"fogtime/internal/model"
	"fogtime/internal/tag"
)

// blockerText is the explanatory first line of every blocker description.
// The tag line follows it. This exact text is already present on records
// written by earlier runs.
const blockerText = "This is a blocker event created by fogTime."

// Options is the orchestrator's configuration surface, passed at
// construction.
type Options struct {
	// Sources are the forward-phase source calendars, merged in order
	// (later source wins on canonical-id collision).
	Sources []collect.Source
	// Target receives blocker placeholders.
	Target string
	// ReverseTarget receives mirrors of genuine appointments found on
	// Target.
	ReverseTarget string
	// BlockerSummary is the placeholder label.
	BlockerSummary string
}

// Orchestrator drives one forward and one reverse pass per cycle, strictly
// sequential. It is stateless between cycles: every pass rebuilds its
// snapshots from live reads, and all convergence state lives in the calendar
// store itself.
type Orchestrator struct {
	store calendar.Client
	opts  Options
}

// NewOrchestrator constructs an Orchestrator writing through store.
func NewOrchestrator(store calendar.Client, opts Options) *Orchestrator {
	return &Orchestrator{store: store, opts: opts}
}

// RunCycle executes one full cycle. Any error aborts the remainder of the
// cycle and propagates to the supervisor; whatever actions already applied
// stay in place and are reconciled by the next cycle's fresh diff.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	if err := o.forward(ctx); err != nil {
		return fmt.Errorf("forward phase: %w", err)
	}
	if err := o.reverse(ctx); err != nil {
		return fmt.Errorf("reverse phase: %w", err)
	}
	return nil
}

// forward mirrors source appointments as blockers onto the target calendar.
// Both snapshots are collected without payload text, so the diff compares
// start/end only; the blocker label and tag are injected into the payload at
// write time.
func (o *Orchestrator) forward(ctx context.Context) error {
	desired, err := collect.Merge(ctx, o.opts.Sources)
	if err != nil {
		return err
	}
	existing, err := collect.Blockers(ctx, o.store, o.opts.Target, o.opts.BlockerSummary)
	if err != nil {
		return err
	}

	acts := Reconcile(desired, existing)
	appLog.Info("forward reconcile",
		"desired", len(desired), "existing", len(existing),
		"creates", len(acts.Creates), "updates", len(acts.Updates), "deletes", len(acts.Deletes),
	)

	return applyActions(ctx, o.store, o.opts.Target, "forward", acts, o.blockerPayload)
}

// reverse mirrors genuine target-calendar appointments onto the
// reverse-target calendar. Desired events are stamped with their own tag
// before the diff so the comparison covers the tagged text on both sides.
func (o *Orchestrator) reverse(ctx context.Context) error {
	desired, err := collect.NotBlockers(ctx, o.store, o.opts.Target, o.opts.BlockerSummary)
	if err != nil {
		return err
	}
	for id, ev := range desired {
		ev.Description = tag.Append(ev.Description, ev.CanonicalID)
		desired[id] = ev
	}

	existing, err := collect.Mirrors(ctx, o.store, o.opts.ReverseTarget)
	if err != nil {
		return err
	}

	acts := Reconcile(desired, existing)
	appLog.Info("reverse reconcile",
		"desired", len(desired), "existing", len(existing),
		"creates", len(acts.Creates), "updates", len(acts.Updates), "deletes", len(acts.Deletes),
	)

	return applyActions(ctx, o.store, o.opts.ReverseTarget, "reverse", acts, mirrorPayload)
}

// blockerPayload fixes summary to the placeholder label and sets the
// description to the explanatory line followed by the tag, for creates and
// updates alike.
func (o *Orchestrator) blockerPayload(ev model.Event) calendar.Payload {
	return calendar.Payload{
		Summary:     o.opts.BlockerSummary,
		Description: tag.Append(blockerText, ev.CanonicalID),
		Start:       ev.Start,
		End:         ev.End,
	}
}

// mirrorPayload passes the already-stamped event through unchanged.
func mirrorPayload(ev model.Event) calendar.Payload {
	return calendar.Payload{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       ev.Start,
		End:         ev.End,
	}
}
