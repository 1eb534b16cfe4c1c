package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fogtime/internal/calendar"
	"fogtime/internal/collect"
	"fogtime/internal/model"
	"fogtime/internal/tag"
)

// fakeStore is an in-memory calendar store. It hands out provider ids on
// insert the way a real store would, so canonical and provider identities
// diverge for mirrored copies exactly as in production.
type fakeStore struct {
	calendars map[string][]calendar.RawEvent
	nextID    int

	inserts int
	patches int
	deletes int

	failInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{calendars: make(map[string][]calendar.RawEvent)}
}

func (f *fakeStore) add(calendarID string, ev calendar.RawEvent) {
	f.calendars[calendarID] = append(f.calendars[calendarID], ev)
}

func (f *fakeStore) Events(_ context.Context, calendarID string) ([]calendar.RawEvent, error) {
	out := make([]calendar.RawEvent, len(f.calendars[calendarID]))
	copy(out, f.calendars[calendarID])
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, calendarID string, p calendar.Payload) error {
	if f.failInsert {
		return errors.New("insert refused")
	}
	f.inserts++
	f.nextID++
	f.add(calendarID, calendar.RawEvent{
		ID:          fmt.Sprintf("stored-%d", f.nextID),
		Start:       p.Start,
		End:         p.End,
		Summary:     p.Summary,
		Description: p.Description,
	})
	return nil
}

func (f *fakeStore) Patch(_ context.Context, calendarID, eventID string, p calendar.Payload) error {
	for i, ev := range f.calendars[calendarID] {
		if ev.ID == eventID {
			f.patches++
			f.calendars[calendarID][i] = calendar.RawEvent{
				ID:          eventID,
				Start:       p.Start,
				End:         p.End,
				Summary:     p.Summary,
				Description: p.Description,
			}
			return nil
		}
	}
	return fmt.Errorf("patch: no event %s on %s", eventID, calendarID)
}

func (f *fakeStore) Delete(_ context.Context, calendarID, eventID string) error {
	for i, ev := range f.calendars[calendarID] {
		if ev.ID == eventID {
			f.deletes++
			f.calendars[calendarID] = append(f.calendars[calendarID][:i], f.calendars[calendarID][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete: no event %s on %s", eventID, calendarID)
}

func (f *fakeStore) writes() int { return f.inserts + f.patches + f.deletes }

const (
	sourceCal  = "source@example.com"
	targetCal  = "target@example.com"
	reverseCal = "primary"
	label      = "FogTime Blocker"
)

func newOrchestrator(store *fakeStore) *Orchestrator {
	return NewOrchestrator(store, Options{
		Sources:        []collect.Source{{CalendarID: sourceCal, Reader: store}},
		Target:         targetCal,
		ReverseTarget:  reverseCal,
		BlockerSummary: label,
	})
}

func sourceEvent(id, startDate, endDate string) calendar.RawEvent {
	return calendar.RawEvent{
		ID:    id,
		Start: model.Timestamp{Date: startDate},
		End:   model.Timestamp{Date: endDate},
	}
}

func blockerFor(id, providerID, startDate, endDate string) calendar.RawEvent {
	return calendar.RawEvent{
		ID:          providerID,
		Start:       model.Timestamp{Date: startDate},
		End:         model.Timestamp{Date: endDate},
		Summary:     label,
		Description: tag.Append(blockerText, id),
	}
}

func TestForwardCreatesBlocker(t *testing.T) {
	store := newFakeStore()
	store.add(sourceCal, sourceEvent("a1", "2025-01-01", "2025-01-02"))

	require.NoError(t, newOrchestrator(store).RunCycle(context.Background()))

	blockers := store.calendars[targetCal]
	require.Len(t, blockers, 1)
	assert.Equal(t, label, blockers[0].Summary)
	assert.Equal(t, "2025-01-01", blockers[0].Start.Date)
	assert.Equal(t, "2025-01-02", blockers[0].End.Date)

	id, ok := tag.Decode(blockers[0].Description)
	require.True(t, ok)
	assert.Equal(t, "a1", id)
	assert.True(t, strings.HasPrefix(blockers[0].Description, blockerText))
}

func TestForwardUpdatesStaleBlocker(t *testing.T) {
	store := newFakeStore()
	store.add(sourceCal, sourceEvent("a1", "2025-01-01", "2025-01-03"))
	store.add(targetCal, blockerFor("a1", "blk-1", "2025-01-01", "2025-01-02"))

	require.NoError(t, newOrchestrator(store).RunCycle(context.Background()))

	assert.Equal(t, 1, store.patches)
	assert.Equal(t, 0, store.inserts)
	blockers := store.calendars[targetCal]
	require.Len(t, blockers, 1)
	assert.Equal(t, "blk-1", blockers[0].ID)
	assert.Equal(t, "2025-01-03", blockers[0].End.Date)
	assert.Equal(t, label, blockers[0].Summary)
}

func TestForwardDeletesOrphanBlocker(t *testing.T) {
	store := newFakeStore()
	store.add(targetCal, blockerFor("b2", "blk-2", "2025-01-05", "2025-01-06"))

	require.NoError(t, newOrchestrator(store).RunCycle(context.Background()))

	assert.Equal(t, 1, store.deletes)
	assert.Empty(t, store.calendars[targetCal])
}

func TestForwardIgnoresTaggedSourceRecords(t *testing.T) {
	// A blocker mirrored onto an overlapping source calendar must not be
	// re-ingested as a new appointment.
	store := newFakeStore()
	store.add(sourceCal, blockerFor("a1", "blk-1", "2025-01-01", "2025-01-02"))

	require.NoError(t, newOrchestrator(store).RunCycle(context.Background()))

	assert.Empty(t, store.calendars[targetCal])
	assert.Equal(t, 0, store.writes())
}

func TestReverseCreatesMirror(t *testing.T) {
	store := newFakeStore()
	store.add(targetCal, calendar.RawEvent{
		ID:          "c3",
		Start:       model.Timestamp{DateTime: "2025-01-10T09:00:00Z"},
		End:         model.Timestamp{DateTime: "2025-01-10T10:00:00Z"},
		Summary:     "Dentist",
		Description: "bring card",
	})

	require.NoError(t, newOrchestrator(store).RunCycle(context.Background()))

	mirrors := store.calendars[reverseCal]
	require.Len(t, mirrors, 1)
	assert.Equal(t, "Dentist", mirrors[0].Summary)
	assert.Equal(t, "bring card\n"+tag.Encode("c3"), mirrors[0].Description)
	assert.NotEqual(t, "c3", mirrors[0].ID, "mirror carries its own provider id")
}

func TestReverseDeletesOnlyTaggedRecords(t *testing.T) {
	store := newFakeStore()
	// A stale mirror and a genuine appointment both sit on the reverse
	// target; only the mirror may be touched.
	store.add(reverseCal, calendar.RawEvent{
		ID:          "m1",
		Start:       model.Timestamp{Date: "2025-01-10"},
		End:         model.Timestamp{Date: "2025-01-11"},
		Summary:     "Stale mirror",
		Description: tag.Append("notes", "gone"),
	})
	store.add(reverseCal, calendar.RawEvent{
		ID:          "g1",
		Start:       model.Timestamp{Date: "2025-01-12"},
		End:         model.Timestamp{Date: "2025-01-13"},
		Summary:     "Genuine appointment",
		Description: "untagged",
	})

	require.NoError(t, newOrchestrator(store).RunCycle(context.Background()))

	remaining := store.calendars[reverseCal]
	require.Len(t, remaining, 1)
	assert.Equal(t, "g1", remaining[0].ID)
}

func TestCycleIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.add(sourceCal, sourceEvent("a1", "2025-01-01", "2025-01-02"))
	store.add(targetCal, calendar.RawEvent{
		ID:          "c3",
		Start:       model.Timestamp{DateTime: "2025-01-10T09:00:00Z"},
		End:         model.Timestamp{DateTime: "2025-01-10T10:00:00Z"},
		Summary:     "Dentist",
		Description: "bring card",
	})

	orch := newOrchestrator(store)
	require.NoError(t, orch.RunCycle(context.Background()))
	firstWrites := store.writes()
	require.Equal(t, 2, firstWrites, "one blocker and one mirror")

	// No external changes: the second cycle must apply nothing.
	require.NoError(t, orch.RunCycle(context.Background()))
	assert.Equal(t, firstWrites, store.writes())
}

func TestCycleAbortsOnWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.add(sourceCal, sourceEvent("a1", "2025-01-01", "2025-01-02"))
	store.failInsert = true

	err := newOrchestrator(store).RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forward phase")

	// Next cycle picks up from the store's actual state.
	store.failInsert = false
	require.NoError(t, newOrchestrator(store).RunCycle(context.Background()))
	require.Len(t, store.calendars[targetCal], 1)
}
