// internal/circulation/domain.go
package circulation

import (
	"time"

	"github.com/google/uuid"

	"libracheckout/internal/catalog"
)

const (
	LoanStatusOpen = "open"

	AggregateLoan = "loan"
	AggregateItem = "item"
)

// Loan represents an item checked out to a patron.
type Loan struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	PatronID     uuid.UUID     `json:"patron_id" db:"patron_id"`
	ItemID       uuid.UUID     `json:"item_id" db:"item_id"`
	ItemBarcode  string        `json:"item_barcode" db:"item_barcode"`
	CheckoutDate time.Time     `json:"checkout_date" db:"checkout_date"`
	DueDate      time.Time     `json:"due_date" db:"due_date"`
	Status       string        `json:"status" db:"status"`
	Overridden   bool          `json:"overridden" db:"overridden"`
	Item         *catalog.Item `json:"item" db:"-"`
}

// CheckoutRequest is what the desk submits after scanning both barcodes.
type CheckoutRequest struct {
	PatronBarcode    string `json:"patron_barcode"`
	ItemBarcode      string `json:"item_barcode"`
	OverridePasscode string `json:"override_passcode,omitempty"`
}

// ItemCheckedOutEvent is published when an item is checked out.
type ItemCheckedOutEvent struct {
	LoanID      uuid.UUID `json:"loan_id"`
	PatronID    uuid.UUID `json:"patron_id"`
	ItemID      uuid.UUID `json:"item_id"`
	ItemBarcode string    `json:"item_barcode"`
	ItemStatus  string    `json:"item_status"`
	DueDate     time.Time `json:"due_date"`
	Overridden  bool      `json:"overridden"`
}
