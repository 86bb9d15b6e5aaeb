// internal/modal/sequencer.go
package modal

import (
	"errors"
	"fmt"

	"libracheckout/internal/catalog"
)

var (
	ErrNotStarted         = errors.New("modal sequence not started")
	ErrAlreadyStarted     = errors.New("modal sequence already started")
	ErrFinished           = errors.New("modal sequence already finished")
	ErrCancelled          = errors.New("modal sequence cancelled")
	ErrConfirmUnavailable = errors.New("confirm is not available while viewing notes")
	ErrUnknownEvent       = errors.New("unknown modal event")
	ErrMissingCallback    = errors.New("onDone and onCancel callbacks are required")
)

// State is the position of the sequencer.
type State string

const (
	Idle             State = "idle"
	ShowWithdrawn    State = "show_withdrawn"
	ShowCheckoutNote State = "show_checkout_note"
	ShowMultipiece   State = "show_multipiece"
	Done             State = "done"
	Cancelled        State = "cancelled"
)

// Modal returns the dialog visible in this state, or None.
func (s State) Modal() Modal {
	switch s {
	case ShowWithdrawn:
		return Withdrawn
	case ShowCheckoutNote:
		return CheckoutNote
	case ShowMultipiece:
		return Multipiece
	default:
		return None
	}
}

// Terminal reports whether no sequence step can follow.
func (s State) Terminal() bool {
	return s == Done || s == Cancelled
}

// EventKind is an external input to the sequencer.
type EventKind string

const (
	EventConfirm          EventKind = "confirm"
	EventCancel           EventKind = "cancel"
	EventRequestNotesView EventKind = "notes_view"
)

type Event struct {
	Kind EventKind
}

// Callbacks are invoked by the sequencer when a sequence ends.
type Callbacks struct {
	OnDone   func()
	OnCancel func()
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSteps replaces the default step table.
func WithSteps(steps []Step) Option {
	return func(s *Sequencer) {
		s.steps = steps
	}
}

// WithObserver registers a function called on every state change.
func WithObserver(fn func(from, to State)) Option {
	return func(s *Sequencer) {
		s.observers = append(s.observers, fn)
	}
}

// Sequencer walks the post-checkout confirmation dialogs for one item.
// It is not safe for concurrent use.
type Sequencer struct {
	item      *catalog.Item
	notesView bool
	callbacks Callbacks
	steps     []Step
	observers []func(from, to State)

	state   State
	cursor  int
	started bool
	shown   []Modal
}

// New creates a sequencer for a checked-out item. The item snapshot is kept
// for the lifetime of the sequencer and never re-read.
func New(item *catalog.Item, notesViewMode bool, callbacks Callbacks, opts ...Option) (*Sequencer, error) {
	if callbacks.OnDone == nil || callbacks.OnCancel == nil {
		return nil, ErrMissingCallback
	}

	s := &Sequencer{
		item:      item,
		notesView: notesViewMode,
		callbacks: callbacks,
		steps:     DefaultSteps,
		state:     Idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start runs the entry evaluation. In notes-view mode the checkout note
// dialog opens directly, without looking at the item.
func (s *Sequencer) Start() error {
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	if s.notesView {
		s.cursor = -1
		s.transition(ShowCheckoutNote)
		return nil
	}
	s.advance(0)
	return nil
}

// Handle applies an external event.
func (s *Sequencer) Handle(ev Event) error {
	switch ev.Kind {
	case EventConfirm:
		return s.confirm()
	case EventCancel:
		return s.cancel()
	case EventRequestNotesView:
		return s.requestNotesView()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
}

func (s *Sequencer) Confirm() error { return s.Handle(Event{Kind: EventConfirm}) }
func (s *Sequencer) Cancel() error { return s.Handle(Event{Kind: EventCancel}) }
func (s *Sequencer) RequestNotesView() error { return s.Handle(Event{Kind: EventRequestNotesView}) }

func (s *Sequencer) State() State { return s.state }
func (s *Sequencer) Active() Modal { return s.state.Modal() }
func (s *Sequencer) NotesViewMode() bool { return s.notesView }
func (s *Sequencer) Item() *catalog.Item { return s.item }

// Shown returns the dialogs displayed so far, in order.
func (s *Sequencer) Shown() []Modal {
	out := make([]Modal, len(s.shown))
	copy(out, s.shown)
	return out
}

func (s *Sequencer) checkActive() error {
	switch s.state {
	case Idle:
		return ErrNotStarted
	case Done:
		return ErrFinished
	case Cancelled:
		return ErrCancelled
	}
	return nil
}

func (s *Sequencer) confirm() error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.notesView {
		return ErrConfirmUnavailable
	}
	s.advance(s.cursor + 1)
	return nil
}

func (s *Sequencer) cancel() error {
	if err := s.checkActive(); err != nil {
		return err
	}
	s.notesView = false
	s.transition(Cancelled)
	s.callbacks.OnCancel()
	return nil
}

// requestNotesView force-opens the checkout note dialog. Only a change of
// notes-view mode from off to on has an effect.
func (s *Sequencer) requestNotesView() error {
	if s.state == Cancelled {
		return ErrCancelled
	}
	if s.notesView {
		return nil
	}
	s.notesView = true
	s.started = true
	s.cursor = -1
	s.transition(ShowCheckoutNote)
	return nil
}

// advance resumes evaluation at step from. Earlier steps are never revisited.
func (s *Sequencer) advance(from int) {
	i := next(s.steps, s.item, from)
	if i < 0 {
		s.cursor = len(s.steps)
		s.transition(Done)
		s.callbacks.OnDone()
		return
	}
	s.cursor = i
	s.transition(s.steps[i].State)
}

func (s *Sequencer) transition(to State) {
	from := s.state
	s.state = to
	if m := to.Modal(); m != None {
		s.shown = append(s.shown, m)
	}
	for _, fn := range s.observers {
		fn(from, to)
	}
}
