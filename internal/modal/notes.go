// internal/modal/notes.go
package modal

import (
	"slices"
	"time"

	"libracheckout/internal/catalog"
)

// NoteRow is one checkout note as listed in the checkout note dialog.
type NoteRow struct {
	Note   string    `json:"note"`
	Date   string    `json:"date"`
	At     time.Time `json:"-"`
	Source string    `json:"source"`
}

var noteDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02",
}

// parseNoteDate returns the zero time for dates it cannot read, which puts
// them after every dated note.
func parseNoteDate(raw string) time.Time {
	for _, layout := range noteDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CheckoutNotes lists the item's "Check out" notes, most recent first.
func CheckoutNotes(item *catalog.Item) []NoteRow {
	if item == nil {
		return nil
	}

	rows := make([]NoteRow, 0, len(item.CirculationNotes))
	for _, n := range item.CirculationNotes {
		if n.NoteType != catalog.NoteTypeCheckOut {
			continue
		}
		rows = append(rows, NoteRow{
			Note:   n.Note,
			Date:   n.Date,
			At:     parseNoteDate(n.Date),
			Source: n.Source.Personal.LastName + ", " + n.Source.Personal.FirstName,
		})
	}

	slices.SortStableFunc(rows, func(a, b NoteRow) int {
		return b.At.Compare(a.At)
	})
	return rows
}
