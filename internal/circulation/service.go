// internal/circulation/service.go
package circulation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"libracheckout/internal/catalog"
	"libracheckout/internal/eventstore"
	"libracheckout/internal/membership"
)

var (
	ErrMissingBarcode  = errors.New("patron and item barcodes are required")
	ErrRateLimited     = errors.New("checkout rate limit exceeded")
	ErrPatronNotFound  = errors.New("patron not found")
	ErrPatronInactive  = errors.New("patron is inactive")
	ErrPatronBlocked   = errors.New("patron is blocked from borrowing")
	ErrInvalidOverride = errors.New("override passcode rejected")
	ErrItemNotFound    = errors.New("item not found")
	ErrItemUnavailable = errors.New("item is not available for checkout")
)

// Service defines the interface for the circulation service.
type Service interface {
	CheckoutByBarcode(ctx context.Context, req CheckoutRequest) (*Loan, error)
	GetItem(ctx context.Context, barcode string) (*catalog.Item, error)
}

// ItemDirectory is the inventory collaborator.
type ItemDirectory interface {
	GetItemByBarcode(ctx context.Context, barcode string) (*catalog.Item, error)
	UpdateItemStatus(ctx context.Context, id uuid.UUID, status string) error
}

// PatronDirectory is the patron records collaborator.
type PatronDirectory interface {
	GetPatronByBarcode(ctx context.Context, barcode string) (*membership.Patron, error)
}

// EventAppender records domain events.
type EventAppender interface {
	AppendEvents(ctx context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events []eventstore.Event) error
}

// LoanRepository stores the loan read model.
type LoanRepository interface {
	InsertLoan(ctx context.Context, loan *Loan) error
}
