// internal/catalog/domain.go
package catalog

import (
	"github.com/google/uuid"
)

// Item status names as reported by the inventory service.
const (
	StatusAvailable       = "Available"
	StatusCheckedOut      = "Checked out"
	StatusWithdrawn       = "Withdrawn"
	StatusMissing         = "Missing"
	StatusDeclaredLost    = "Declared lost"
	StatusAgedToLost      = "Aged to lost"
	StatusClaimedReturned = "Claimed returned"
)

// Circulation note types.
const (
	NoteTypeCheckOut = "Check out"
	NoteTypeCheckIn  = "Check in"
)

// Item represents a library item as handed to the checkout desk.
type Item struct {
	ID                    uuid.UUID    `json:"id"`
	Barcode               string       `json:"barcode"`
	Title                 string       `json:"title"`
	Status                Status       `json:"status"`
	MaterialType          MaterialType `json:"materialType"`
	DiscoverySuppress     bool         `json:"discoverySuppress"`
	NumberOfPieces        int          `json:"numberOfPieces"`
	NumberOfMissingPieces int          `json:"numberOfMissingPieces"`
	DescriptionOfPieces   string       `json:"descriptionOfPieces,omitempty"`
	MissingPieces         string       `json:"missingPieces,omitempty"`
	CirculationNotes      []Note       `json:"circulationNotes,omitempty"`
}

type Status struct {
	Name string `json:"name"`
}

type MaterialType struct {
	Name string `json:"name"`
}

// Note is a circulation note attached to an item.
type Note struct {
	ID        string     `json:"id,omitempty"`
	NoteType  string     `json:"noteType"`
	Note      string     `json:"note"`
	Date      string     `json:"date"`
	StaffOnly bool       `json:"staffOnly"`
	Source    NoteSource `json:"source"`
}

type NoteSource struct {
	ID       string   `json:"id,omitempty"`
	Personal Personal `json:"personal"`
}

type Personal struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Loanable reports whether an item in this status may be checked out at all.
// Withdrawn items are loanable but need staff confirmation at the desk.
func (s Status) Loanable() bool {
	switch s.Name {
	case StatusCheckedOut, StatusDeclaredLost, StatusAgedToLost, StatusClaimedReturned:
		return false
	default:
		return true
	}
}
