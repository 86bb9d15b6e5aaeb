package modal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libracheckout/internal/catalog"
)

type recorder struct {
	done      int
	cancelled int
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnDone:   func() { r.done++ },
		OnCancel: func() { r.cancelled++ },
	}
}

func start(t *testing.T, item *catalog.Item, notesView bool) (*Sequencer, *recorder) {
	t.Helper()
	rec := &recorder{}
	seq, err := New(item, notesView, rec.callbacks())
	require.NoError(t, err)
	require.NoError(t, seq.Start())
	return seq, rec
}

func checkoutNote(text, date string) catalog.Note {
	return catalog.Note{
		NoteType: catalog.NoteTypeCheckOut,
		Note:     text,
		Date:     date,
		Source:   catalog.NoteSource{Personal: catalog.Personal{FirstName: "Bob", LastName: "Brown"}},
	}
}

func TestNewRequiresCallbacks(t *testing.T) {
	_, err := New(&catalog.Item{}, false, Callbacks{OnDone: func() {}})
	assert.ErrorIs(t, err, ErrMissingCallback)
}

func TestNoApplicableStepCompletesImmediately(t *testing.T) {
	seq, rec := start(t, &catalog.Item{Status: catalog.Status{Name: catalog.StatusAvailable}, NumberOfPieces: 1}, false)

	assert.Equal(t, Done, seq.State())
	assert.Equal(t, None, seq.Active())
	assert.Empty(t, seq.Shown())
	assert.Equal(t, 1, rec.done)
	assert.Equal(t, 0, rec.cancelled)
}

func TestWithdrawnOnly(t *testing.T) {
	seq, rec := start(t, &catalog.Item{Status: catalog.Status{Name: catalog.StatusWithdrawn}}, false)

	assert.Equal(t, ShowWithdrawn, seq.State())
	require.NoError(t, seq.Confirm())

	assert.Equal(t, Done, seq.State())
	assert.Equal(t, []Modal{Withdrawn}, seq.Shown())
	assert.Equal(t, 1, rec.done)
}

func TestMultipieceOnly(t *testing.T) {
	seq, rec := start(t, &catalog.Item{Status: catalog.Status{Name: catalog.StatusAvailable}, NumberOfPieces: 3}, false)

	assert.Equal(t, Multipiece, seq.Active())
	require.NoError(t, seq.Confirm())

	assert.Equal(t, Done, seq.State())
	assert.Equal(t, []Modal{Multipiece}, seq.Shown())
	assert.Equal(t, 1, rec.done)
}

func TestWithdrawnThenCheckoutNote(t *testing.T) {
	item := &catalog.Item{
		Status:           catalog.Status{Name: catalog.StatusWithdrawn},
		CirculationNotes: []catalog.Note{checkoutNote("fragile", "2023-01-01T00:00:00Z")},
	}
	seq, rec := start(t, item, false)

	assert.Equal(t, Withdrawn, seq.Active())
	require.NoError(t, seq.Confirm())
	assert.Equal(t, CheckoutNote, seq.Active())
	assert.Equal(t, 0, rec.done)

	require.NoError(t, seq.Confirm())
	assert.Equal(t, Done, seq.State())
	assert.Equal(t, []Modal{Withdrawn, CheckoutNote}, seq.Shown())
	assert.Equal(t, 1, rec.done)
}

func TestAllStepsInPriorityOrder(t *testing.T) {
	item := &catalog.Item{
		Status:              catalog.Status{Name: catalog.StatusWithdrawn},
		CirculationNotes:    []catalog.Note{checkoutNote("a", "2023-01-01")},
		DescriptionOfPieces: "book and CD",
	}
	seq, rec := start(t, item, false)

	for _, want := range []Modal{Withdrawn, CheckoutNote, Multipiece} {
		require.Equal(t, want, seq.Active())
		require.NoError(t, seq.Confirm())
	}
	assert.Equal(t, Done, seq.State())
	assert.Equal(t, 1, rec.done)
}

func TestConfirmResumesAfterCurrentStep(t *testing.T) {
	// withdrawn predicate flips to true after the first evaluation; confirming
	// the note step must not go back to it
	calls := 0
	steps := []Step{
		{Modal: Withdrawn, State: ShowWithdrawn, Applies: func(*catalog.Item) bool {
			calls++
			return calls > 1
		}},
		{Modal: CheckoutNote, State: ShowCheckoutNote, Applies: func(*catalog.Item) bool { return true }},
		{Modal: Multipiece, State: ShowMultipiece, Applies: func(*catalog.Item) bool { return false }},
	}
	rec := &recorder{}
	seq, err := New(&catalog.Item{}, false, rec.callbacks(), WithSteps(steps))
	require.NoError(t, err)
	require.NoError(t, seq.Start())

	assert.Equal(t, CheckoutNote, seq.Active())
	require.NoError(t, seq.Confirm())
	assert.Equal(t, Done, seq.State())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rec.done)
}

func TestCancelAtEachStep(t *testing.T) {
	item := &catalog.Item{
		Status:           catalog.Status{Name: catalog.StatusWithdrawn},
		CirculationNotes: []catalog.Note{checkoutNote("a", "2023-01-01")},
		MissingPieces:    "disc 2",
	}

	for confirms := 0; confirms < 3; confirms++ {
		seq, rec := start(t, item, false)
		for i := 0; i < confirms; i++ {
			require.NoError(t, seq.Confirm())
		}
		require.NoError(t, seq.Cancel())

		assert.Equal(t, Cancelled, seq.State())
		assert.Equal(t, None, seq.Active())
		assert.False(t, seq.NotesViewMode())
		assert.Equal(t, 1, rec.cancelled)
		assert.Equal(t, 0, rec.done)

		assert.ErrorIs(t, seq.Confirm(), ErrCancelled)
		assert.ErrorIs(t, seq.Cancel(), ErrCancelled)
		assert.ErrorIs(t, seq.RequestNotesView(), ErrCancelled)
		assert.Equal(t, 1, rec.cancelled)
		assert.Equal(t, 0, rec.done)
	}
}

func TestNotesViewModeAtEntry(t *testing.T) {
	seq, rec := start(t, &catalog.Item{Status: catalog.Status{Name: catalog.StatusWithdrawn}}, true)

	assert.Equal(t, ShowCheckoutNote, seq.State())
	assert.True(t, seq.NotesViewMode())
	assert.ErrorIs(t, seq.Confirm(), ErrConfirmUnavailable)

	require.NoError(t, seq.Cancel())
	assert.False(t, seq.NotesViewMode())
	assert.Equal(t, 1, rec.cancelled)
	assert.Equal(t, 0, rec.done)
}

func TestRequestNotesViewMidSequence(t *testing.T) {
	seq, rec := start(t, &catalog.Item{Status: catalog.Status{Name: catalog.StatusWithdrawn}, NumberOfPieces: 2}, false)
	require.Equal(t, ShowWithdrawn, seq.State())

	require.NoError(t, seq.RequestNotesView())
	assert.Equal(t, ShowCheckoutNote, seq.State())
	assert.True(t, seq.NotesViewMode())

	// repeated requests while already viewing notes change nothing
	require.NoError(t, seq.RequestNotesView())
	assert.Equal(t, []Modal{Withdrawn, CheckoutNote}, seq.Shown())
	assert.Equal(t, 0, rec.done)
}

func TestRequestNotesViewAfterDone(t *testing.T) {
	seq, rec := start(t, &catalog.Item{}, false)
	require.Equal(t, Done, seq.State())
	require.Equal(t, 1, rec.done)

	require.NoError(t, seq.RequestNotesView())
	assert.Equal(t, CheckoutNote, seq.Active())

	require.NoError(t, seq.Cancel())
	assert.Equal(t, 1, rec.done)
	assert.Equal(t, 1, rec.cancelled)
}

func TestEventsBeforeStartAndAfterDone(t *testing.T) {
	rec := &recorder{}
	seq, err := New(&catalog.Item{}, false, rec.callbacks())
	require.NoError(t, err)

	assert.ErrorIs(t, seq.Confirm(), ErrNotStarted)
	assert.ErrorIs(t, seq.Cancel(), ErrNotStarted)

	require.NoError(t, seq.Start())
	assert.ErrorIs(t, seq.Start(), ErrAlreadyStarted)
	assert.ErrorIs(t, seq.Confirm(), ErrFinished)
	assert.ErrorIs(t, seq.Cancel(), ErrFinished)
	assert.Equal(t, 1, rec.done)
}

func TestUnknownEvent(t *testing.T) {
	seq, _ := start(t, &catalog.Item{NumberOfPieces: 2}, false)
	assert.ErrorIs(t, seq.Handle(Event{Kind: "reset"}), ErrUnknownEvent)
	assert.Equal(t, ShowMultipiece, seq.State())
}

func TestObserverSeesTransitions(t *testing.T) {
	type change struct{ from, to State }
	var changes []change

	rec := &recorder{}
	seq, err := New(&catalog.Item{NumberOfMissingPieces: 1}, false, rec.callbacks(),
		WithObserver(func(from, to State) { changes = append(changes, change{from, to}) }))
	require.NoError(t, err)
	require.NoError(t, seq.Start())
	require.NoError(t, seq.Confirm())

	assert.Equal(t, []change{
		{Idle, ShowMultipiece},
		{ShowMultipiece, Done},
	}, changes)
}

func TestMultipiecePredicate(t *testing.T) {
	tests := []struct {
		name string
		item catalog.Item
		want bool
	}{
		{"single piece", catalog.Item{NumberOfPieces: 1}, false},
		{"zero values", catalog.Item{}, false},
		{"several pieces", catalog.Item{NumberOfPieces: 2}, true},
		{"description", catalog.Item{DescriptionOfPieces: "book + map"}, true},
		{"whitespace description", catalog.Item{DescriptionOfPieces: " "}, true},
		{"missing count", catalog.Item{NumberOfMissingPieces: 1}, true},
		{"negative missing count", catalog.Item{NumberOfMissingPieces: -1}, true},
		{"missing description", catalog.Item{MissingPieces: "map"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMultipiece(&tt.item))
		})
	}
	assert.False(t, IsMultipiece(nil))
}

func TestCheckoutNotePredicate(t *testing.T) {
	assert.False(t, HasCheckoutNotes(nil))
	assert.False(t, HasCheckoutNotes(&catalog.Item{}))
	assert.False(t, HasCheckoutNotes(&catalog.Item{CirculationNotes: []catalog.Note{{NoteType: catalog.NoteTypeCheckIn}}}))
	assert.True(t, HasCheckoutNotes(&catalog.Item{CirculationNotes: []catalog.Note{
		{NoteType: catalog.NoteTypeCheckIn},
		{NoteType: catalog.NoteTypeCheckOut},
	}}))
}
