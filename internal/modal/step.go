// internal/modal/step.go
package modal

import (
	"libracheckout/internal/catalog"
)

// Modal identifies a confirmation dialog shown after checkout.
type Modal string

const (
	None         Modal = ""
	Withdrawn    Modal = "withdrawn"
	CheckoutNote Modal = "checkout_note"
	Multipiece   Modal = "multipiece"
)

// Step gates one modal behind a predicate over the checked-out item.
type Step struct {
	Modal   Modal
	State   State
	Applies func(item *catalog.Item) bool
}

// DefaultSteps is the fixed priority order of post-checkout dialogs.
var DefaultSteps = []Step{
	{Modal: Withdrawn, State: ShowWithdrawn, Applies: IsWithdrawn},
	{Modal: CheckoutNote, State: ShowCheckoutNote, Applies: HasCheckoutNotes},
	{Modal: Multipiece, State: ShowMultipiece, Applies: IsMultipiece},
}

// IsWithdrawn reports whether the item carries the Withdrawn status.
func IsWithdrawn(item *catalog.Item) bool {
	return item != nil && item.Status.Name == catalog.StatusWithdrawn
}

// HasCheckoutNotes reports whether at least one "Check out" circulation note exists.
func HasCheckoutNotes(item *catalog.Item) bool {
	if item == nil {
		return false
	}
	for _, n := range item.CirculationNotes {
		if n.NoteType == catalog.NoteTypeCheckOut {
			return true
		}
	}
	return false
}

// IsMultipiece reports whether the item is made of several pieces or has
// pieces recorded as missing. Any non-empty description counts, including
// whitespace.
func IsMultipiece(item *catalog.Item) bool {
	if item == nil {
		return false
	}
	return item.NumberOfPieces > 1 ||
		item.DescriptionOfPieces != "" ||
		item.NumberOfMissingPieces != 0 ||
		item.MissingPieces != ""
}

// next returns the index of the first step at or after from that applies,
// or -1 when none does.
func next(steps []Step, item *catalog.Item, from int) int {
	for i := from; i < len(steps); i++ {
		if steps[i].Applies(item) {
			return i
		}
	}
	return -1
}
