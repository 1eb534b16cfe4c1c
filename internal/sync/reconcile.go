package sync

import (
	"sort"

	"fogtime/internal/model"
)

// Update targets the concrete stored record identified by ProviderID and
// replaces its payload with Event's.
type Update struct {
	ProviderID string
	Event      model.Event
}

// Actions is the output of one reconciliation pass. The three kinds are
// keyed by disjoint canonical ids, so no action depends on another's outcome
// and application order is unconstrained.
type Actions struct {
	Creates []model.Event
	Updates []Update
	Deletes []string // provider ids
}

// Empty reports whether the pass found nothing to do.
func (a Actions) Empty() bool {
	return len(a.Creates) == 0 && len(a.Updates) == 0 && len(a.Deletes) == 0
}

// Reconcile computes the actions needed to make existing match desired, by
// canonical id:
//
//   - in desired only            -> create
//   - in both, structurally !=   -> update the existing record's provider id
//   - in both, structurally ==   -> no-op
//   - in existing only           -> delete the existing record's provider id
//
// The function is pure; output slices are sorted by canonical id so results
// are deterministic regardless of map iteration order.
func Reconcile(desired, existing map[string]model.Event) Actions {
	var acts Actions

	for _, id := range sortedKeys(desired) {
		want := desired[id]
		have, ok := existing[id]
		if !ok {
			acts.Creates = append(acts.Creates, want)
			continue
		}
		if !want.StructurallyEqual(have) {
			acts.Updates = append(acts.Updates, Update{ProviderID: have.ProviderID, Event: want})
		}
	}

	for _, id := range sortedKeys(existing) {
		if _, ok := desired[id]; !ok {
			acts.Deletes = append(acts.Deletes, existing[id].ProviderID)
		}
	}

	return acts
}

func sortedKeys(m map[string]model.Event) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
