// internal/circulation/implementation.go
package circulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"libracheckout/internal/catalog"
	"libracheckout/internal/clients"
	"libracheckout/internal/eventstore"
)

// Options tune the checkout saga.
type Options struct {
	LoanPeriod    time.Duration
	RatePerMinute int
	Burst         int
	Override      Passcode
	Now           func() time.Time
}

// service implements the Service interface.
type service struct {
	items    ItemDirectory
	patrons  PatronDirectory
	events   EventAppender
	loans    LoanRepository
	limiter  *rate.Limiter
	override Passcode
	period   time.Duration
	now      func() time.Time
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewService creates a new circulation service instance.
func NewService(items ItemDirectory, patrons PatronDirectory, events EventAppender, loans LoanRepository, opts Options, logger zerolog.Logger) Service {
	if opts.LoanPeriod <= 0 {
		opts.LoanPeriod = 14 * 24 * time.Hour
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 120
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &service{
		items:    items,
		patrons:  patrons,
		events:   events,
		loans:    loans,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.Burst),
		override: opts.Override,
		period:   opts.LoanPeriod,
		now:      opts.Now,
		logger:   logger.With().Str("component", "circulation").Logger(),
		tracer:   otel.Tracer("libracheckout/circulation"),
	}
}

// CheckoutByBarcode orchestrates the checkout saga.
func (s *service) CheckoutByBarcode(ctx context.Context, req CheckoutRequest) (loan *Loan, err error) {
	ctx, span := s.tracer.Start(ctx, "circulation.checkout",
		trace.WithAttributes(attribute.String("item.barcode", req.ItemBarcode)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// Step 1: Validate the request
	req.PatronBarcode = strings.TrimSpace(req.PatronBarcode)
	req.ItemBarcode = strings.TrimSpace(req.ItemBarcode)
	if req.PatronBarcode == "" || req.ItemBarcode == "" {
		return nil, ErrMissingBarcode
	}
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	// Step 2: Validate the patron
	patron, err := s.patrons.GetPatronByBarcode(ctx, req.PatronBarcode)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, ErrPatronNotFound
		}
		return nil, fmt.Errorf("failed to get patron: %w", err)
	}
	if !patron.Active {
		return nil, ErrPatronInactive
	}
	overridden := false
	if blocks := patron.BorrowingBlocks(s.now()); len(blocks) > 0 {
		if err := s.checkOverride(req.OverridePasscode); err != nil {
			s.logger.Warn().
				Str("patron_id", patron.ID.String()).
				Int("blocks", len(blocks)).
				Err(err).
				Msg("blocked patron checkout refused")
			return nil, err
		}
		overridden = true
		s.logger.Info().
			Str("patron_id", patron.ID.String()).
			Int("blocks", len(blocks)).
			Msg("patron block overridden")
	}

	// Step 3: Check item availability
	item, err := s.GetItem(ctx, req.ItemBarcode)
	if err != nil {
		return nil, err
	}
	if !item.Status.Loanable() {
		return nil, fmt.Errorf("%w: status %q", ErrItemUnavailable, item.Status.Name)
	}
	span.SetAttributes(attribute.String("item.status", item.Status.Name))

	// Step 4: Mark the item checked out (with compensation)
	if err := s.items.UpdateItemStatus(ctx, item.ID, catalog.StatusCheckedOut); err != nil {
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}

	compensation := func() {
		s.logger.Warn().Str("item_id", item.ID.String()).Msg("compensating failed checkout: restoring item status")
		if err := s.items.UpdateItemStatus(context.WithoutCancel(ctx), item.ID, item.Status.Name); err != nil {
			s.logger.Error().Err(err).Str("item_id", item.ID.String()).Msg("failed to compensate item status")
		}
	}

	// Step 5: Record the checkout
	now := s.now()
	loan = &Loan{
		ID:           uuid.New(),
		PatronID:     patron.ID,
		ItemID:       item.ID,
		ItemBarcode:  item.Barcode,
		CheckoutDate: now,
		DueDate:      now.Add(s.period),
		Status:       LoanStatusOpen,
		Overridden:   overridden,
		Item:         item,
	}

	event, err := eventstore.NewEvent("ItemCheckedOut", ItemCheckedOutEvent{
		LoanID:      loan.ID,
		PatronID:    loan.PatronID,
		ItemID:      loan.ItemID,
		ItemBarcode: loan.ItemBarcode,
		ItemStatus:  item.Status.Name,
		DueDate:     loan.DueDate,
		Overridden:  overridden,
	})
	if err != nil {
		compensation()
		return nil, err
	}
	if err := s.events.AppendEvents(ctx, loan.ID, AggregateLoan, 0, []eventstore.Event{event}); err != nil {
		compensation()
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	// Step 6: Update the read model
	if err := s.loans.InsertLoan(ctx, loan); err != nil {
		compensation()
		return nil, fmt.Errorf("failed to update read model: %w", err)
	}

	s.logger.Info().
		Str("loan_id", loan.ID.String()).
		Str("item_barcode", loan.ItemBarcode).
		Str("item_status", item.Status.Name).
		Time("due_date", loan.DueDate).
		Msg("item checked out")

	return loan, nil
}

func (s *service) checkOverride(passcode string) error {
	if passcode == "" || !s.override.Configured() {
		return ErrPatronBlocked
	}
	ok, err := s.override.Verify(passcode)
	if err != nil {
		return fmt.Errorf("failed to verify override: %w", err)
	}
	if !ok {
		return ErrInvalidOverride
	}
	return nil
}

// GetItem looks up an item by barcode.
func (s *service) GetItem(ctx context.Context, barcode string) (*catalog.Item, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrMissingBarcode
	}
	item, err := s.items.GetItemByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}
