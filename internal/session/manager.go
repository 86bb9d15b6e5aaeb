// internal/session/manager.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"libracheckout/internal/catalog"
	"libracheckout/internal/circulation"
	"libracheckout/internal/eventstore"
	"libracheckout/internal/modal"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// Outcome is how a session's dialog sequence ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
)

// Recorder persists session outcomes next to the loan or item stream.
type Recorder interface {
	CurrentVersion(ctx context.Context, aggregateID uuid.UUID) (int, error)
	AppendEvents(ctx context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events []eventstore.Event) error
	LoadEvents(ctx context.Context, aggregateID uuid.UUID, fromVersion, toVersion int) ([]eventstore.Event, error)
}

// Session hosts one sequencer between checkout and finalization.
type Session struct {
	ID   uuid.UUID
	Loan *circulation.Loan
	Item *catalog.Item

	mu        sync.Mutex
	seq       *modal.Sequencer
	outcome   Outcome
	pending   []Outcome
	touchedAt time.Time
}

// Snapshot is the client-facing view of a session.
type Snapshot struct {
	ID            uuid.UUID         `json:"id"`
	Loan          *circulation.Loan `json:"loan,omitempty"`
	Item          *catalog.Item     `json:"item,omitempty"`
	State         modal.State       `json:"state"`
	ActiveModal   modal.Modal       `json:"active_modal,omitempty"`
	NotesViewMode bool              `json:"notes_view_mode"`
	Prompt        *modal.Prompt     `json:"prompt,omitempty"`
	Shown         []modal.Modal     `json:"shown"`
	Outcome       Outcome           `json:"outcome,omitempty"`
}

// SessionEndedEvent records how a dialog sequence finished.
type SessionEndedEvent struct {
	SessionID   uuid.UUID     `json:"session_id"`
	LoanID      *uuid.UUID    `json:"loan_id,omitempty"`
	ItemID      uuid.UUID     `json:"item_id"`
	ItemBarcode string        `json:"item_barcode"`
	Shown       []modal.Modal `json:"shown"`
	NotesView   bool          `json:"notes_view"`
}

// Manager owns the live checkout sessions.
type Manager struct {
	checkout circulation.Service
	recorder Recorder
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
	metrics  *metrics

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewManager(checkout circulation.Service, recorder Recorder, ttl time.Duration, logger zerolog.Logger) (*Manager, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create session metrics: %w", err)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{
		checkout: checkout,
		recorder: recorder,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("component", "session").Logger(),
		metrics:  m,
		sessions: make(map[uuid.UUID]*Session),
	}, nil
}

// StartCheckout checks the item out and opens the dialog sequence for it.
func (m *Manager) StartCheckout(ctx context.Context, req circulation.CheckoutRequest) (*Snapshot, error) {
	loan, err := m.checkout.CheckoutByBarcode(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, loan.Item, loan, false)
}

// StartNotesView opens a session that only displays an item's checkout notes.
func (m *Manager) StartNotesView(ctx context.Context, itemBarcode string) (*Snapshot, error) {
	item, err := m.checkout.GetItem(ctx, itemBarcode)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, item, nil, true)
}

func (m *Manager) open(ctx context.Context, item *catalog.Item, loan *circulation.Loan, notesView bool) (*Snapshot, error) {
	sess := &Session{
		ID:        uuid.New(),
		Loan:      loan,
		Item:      item,
		touchedAt: m.now(),
	}
	log := m.logger.With().Str("session_id", sess.ID.String()).Str("item_barcode", item.Barcode).Logger()

	seq, err := modal.New(item, notesView, modal.Callbacks{
		OnDone:   func() { sess.resolve(OutcomeCompleted) },
		OnCancel: func() { sess.resolve(OutcomeCancelled) },
	}, modal.WithObserver(func(from, to modal.State) {
		log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("modal transition")
		if mod := to.Modal(); mod != modal.None {
			m.metrics.modalShown(context.Background(), mod)
		}
	}))
	if err != nil {
		return nil, err
	}
	sess.seq = seq

	// sess is unregistered until the end of open; no locking needed
	if err := seq.Start(); err != nil {
		return nil, err
	}
	m.metrics.sessionStarted(ctx, notesView)
	m.settle(ctx, sess)

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	log.Info().
		Bool("notes_view", notesView).
		Str("state", string(seq.State())).
		Msg("checkout session opened")

	return sess.snapshot(), nil
}

// Confirm confirms the active dialog.
func (m *Manager) Confirm(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return m.Apply(ctx, id, modal.Event{Kind: modal.EventConfirm})
}

// Cancel aborts the session from its active dialog.
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return m.Apply(ctx, id, modal.Event{Kind: modal.EventCancel})
}

// RequestNotesView reopens the checkout notes of the session's item.
func (m *Manager) RequestNotesView(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return m.Apply(ctx, id, modal.Event{Kind: modal.EventRequestNotesView})
}

// Apply delivers an event to the session's sequencer.
func (m *Manager) Apply(ctx context.Context, id uuid.UUID, ev modal.Event) (*Snapshot, error) {
	sess, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.seq.Handle(ev); err != nil {
		return nil, err
	}
	sess.touchedAt = m.now()
	m.settle(ctx, sess)

	m.logger.Info().
		Str("session_id", id.String()).
		Str("event", string(ev.Kind)).
		Str("state", string(sess.seq.State())).
		Msg("checkout session event")

	return sess.snapshot(), nil
}

// Get returns the current view of a session.
func (m *Manager) Get(id uuid.UUID) (*Snapshot, error) {
	sess, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// History returns the recorded events of the session's loan, or of its item
// for notes-view sessions.
func (m *Manager) History(ctx context.Context, id uuid.UUID) ([]eventstore.Event, error) {
	sess, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	aggregateID, _ := sess.aggregate()
	return m.recorder.LoadEvents(ctx, aggregateID, 0, 0)
}

func (m *Manager) lookup(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// settle persists outcomes raised by the sequencer callbacks. Callers hold
// sess.mu or own sess exclusively.
func (m *Manager) settle(ctx context.Context, sess *Session) {
	pending := sess.pending
	sess.pending = nil

	for _, outcome := range pending {
		m.metrics.sessionEnded(ctx, outcome)
		if err := m.record(ctx, sess, outcome); err != nil {
			m.logger.Error().
				Err(err).
				Str("session_id", sess.ID.String()).
				Str("outcome", string(outcome)).
				Msg("failed to record session outcome")
		}
	}
}

func (m *Manager) record(ctx context.Context, sess *Session, outcome Outcome) error {
	data := SessionEndedEvent{
		SessionID:   sess.ID,
		ItemID:      sess.Item.ID,
		ItemBarcode: sess.Item.Barcode,
		Shown:       sess.seq.Shown(),
		NotesView:   sess.Loan == nil,
	}
	if sess.Loan != nil {
		data.LoanID = &sess.Loan.ID
	}

	eventType := "CheckoutSessionCompleted"
	if outcome == OutcomeCancelled {
		eventType = "CheckoutSessionCancelled"
	}
	event, err := eventstore.NewEvent(eventType, data)
	if err != nil {
		return err
	}

	aggregateID, aggregateType := sess.aggregate()
	version, err := m.recorder.CurrentVersion(ctx, aggregateID)
	if err != nil {
		return err
	}
	return m.recorder.AppendEvents(ctx, aggregateID, aggregateType, version, []eventstore.Event{event})
}

// Sweep drops sessions idle for longer than the TTL.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		sess.mu.Lock()
		idle := sess.touchedAt.Before(cutoff)
		state := sess.seq.State()
		sess.mu.Unlock()
		if !idle {
			continue
		}
		delete(m.sessions, id)
		removed++
		if !state.Terminal() {
			m.logger.Warn().Str("session_id", id.String()).Str("state", string(state)).Msg("abandoned checkout session expired")
		}
	}
	return removed
}

// Run sweeps expired sessions until the context is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug().Int("removed", n).Msg("expired checkout sessions swept")
			}
		}
	}
}

func (s *Session) resolve(outcome Outcome) {
	s.outcome = outcome
	s.pending = append(s.pending, outcome)
}

func (s *Session) aggregate() (uuid.UUID, string) {
	if s.Loan != nil {
		return s.Loan.ID, circulation.AggregateLoan
	}
	return s.Item.ID, circulation.AggregateItem
}

func (s *Session) snapshot() *Snapshot {
	return &Snapshot{
		ID:            s.ID,
		Loan:          s.Loan,
		Item:          s.Item,
		State:         s.seq.State(),
		ActiveModal:   s.seq.Active(),
		NotesViewMode: s.seq.NotesViewMode(),
		Prompt:        modal.PromptFor(s.seq),
		Shown:         s.seq.Shown(),
		Outcome:       s.outcome,
	}
}
