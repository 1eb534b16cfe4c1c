package model

// Timestamp is the start/end value of a calendar event. Exactly one of the
// two fields is set in a valid record: Date for whole-day events
// ("2006-01-02"), DateTime for timed events (RFC 3339 with offset). Values
// are kept in their wire form and compared as strings; the store is the
// authority on formatting and parsing them would only invite drift.
type Timestamp struct {
	Date     string
	DateTime string
}

// Equal reports whether two timestamps hold the same variant and value.
func (t Timestamp) Equal(o Timestamp) bool {
	return t.Date == o.Date && t.DateTime == o.DateTime
}

// IsZero reports whether neither variant is set.
func (t Timestamp) IsZero() bool {
	return t.Date == "" && t.DateTime == ""
}

func (t Timestamp) String() string {
	if t.Date != "" {
		return t.Date
	}
	return t.DateTime
}

// Event is the canonical record one reconciliation pass operates on.
//
// CanonicalID is the identity used for matching across collections: the
// decoded tag if the stored record carries one, else the store-assigned id.
// ProviderID is always the store-assigned id of the concrete record; for a
// mirrored copy the two differ. Neither participates in structural equality.
type Event struct {
	CanonicalID string
	ProviderID  string

	Start Timestamp
	End   Timestamp

	Summary     string
	Description string
}

// StructurallyEqual compares two events over (start, end, summary,
// description) only. Identity fields are deliberately excluded so that the
// same logical appointment renumbered across stores does not register as a
// change.
func (e Event) StructurallyEqual(o Event) bool {
	return e.Start.Equal(o.Start) &&
		e.End.Equal(o.End) &&
		e.Summary == o.Summary &&
		e.Description == o.Description
}

func (e Event) String() string {
	return "Event ID: " + e.CanonicalID + ", Start: " + e.Start.String() + ", End: " + e.End.String()
}
