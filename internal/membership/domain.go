// internal/membership/domain.go
package membership

import (
	"time"

	"github.com/google/uuid"
)

// Patron represents a library patron looked up by barcode at the desk.
type Patron struct {
	ID       uuid.UUID `json:"id"`
	Barcode  string    `json:"barcode"`
	Active   bool      `json:"active"`
	Personal Personal  `json:"personal"`
	Blocks   []Block   `json:"manualblocks,omitempty"`
}

type Personal struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Block is a manual block placed on a patron account.
type Block struct {
	Type           string    `json:"type"`
	Desc           string    `json:"desc"`
	PatronMessage  string    `json:"patronMessage"`
	Borrowing      bool      `json:"borrowing"`
	Renewals       bool      `json:"renewals"`
	Requests       bool      `json:"requests"`
	ExpirationDate time.Time `json:"expirationDate,omitempty"`
}

// FullName returns "Lastname, Firstname".
func (p Personal) FullName() string {
	return p.LastName + ", " + p.FirstName
}

// BorrowingBlocks returns the blocks that forbid borrowing at the given time.
// A block without an expiration date never expires.
func (p *Patron) BorrowingBlocks(now time.Time) []Block {
	var blocks []Block
	for _, b := range p.Blocks {
		if !b.Borrowing {
			continue
		}
		if !b.ExpirationDate.IsZero() && b.ExpirationDate.Before(now) {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}
