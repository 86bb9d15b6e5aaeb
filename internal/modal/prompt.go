// internal/modal/prompt.go
package modal

import (
	"unicode"
	"unicode/utf8"
)

// Prompt describes the active dialog for the desk client. Labels are message
// keys; the client owns translation and layout.
type Prompt struct {
	Modal       Modal          `json:"modal"`
	HeadingKey  string         `json:"heading_key"`
	MessageKey  string         `json:"message_key"`
	ConfirmKey  string         `json:"confirm_key,omitempty"`
	CancelKey   string         `json:"cancel_key"`
	HideConfirm bool           `json:"hide_confirm"`
	Values      map[string]any `json:"values"`
	Notes       []NoteRow      `json:"notes,omitempty"`
}

// PromptFor returns the prompt for the sequencer's active dialog, or nil when
// no dialog is open.
func PromptFor(s *Sequencer) *Prompt {
	item := s.Item()
	values := map[string]any{}
	if item != nil {
		values["title"] = item.Title
		values["barcode"] = item.Barcode
		values["materialType"] = upperFirst(item.MaterialType.Name)
	}

	switch s.Active() {
	case Withdrawn:
		msg := "confirmWithdrawnModal.notSuppressedMessage"
		if item != nil && item.DiscoverySuppress {
			msg = "confirmWithdrawnModal.suppressedMessage"
		}
		return &Prompt{
			Modal:      Withdrawn,
			HeadingKey: "confirmWithdrawnModal.heading",
			MessageKey: msg,
			ConfirmKey: "confirm",
			CancelKey:  "cancel",
			Values:     values,
		}

	case CheckoutNote:
		notes := CheckoutNotes(item)
		values["count"] = len(notes)
		if s.NotesViewMode() {
			return &Prompt{
				Modal:       CheckoutNote,
				HeadingKey:  "checkoutNotes.heading",
				MessageKey:  "checkoutNotes.message",
				CancelKey:   "close",
				HideConfirm: true,
				Values:      values,
				Notes:       notes,
			}
		}
		return &Prompt{
			Modal:      CheckoutNote,
			HeadingKey: "checkoutNoteModal.heading",
			MessageKey: "checkoutNoteModal.message",
			ConfirmKey: "confirm",
			CancelKey:  "multipieceModal.cancel",
			Values:     values,
			Notes:      notes,
		}

	case Multipiece:
		if item != nil {
			values["numberOfPieces"] = item.NumberOfPieces
			values["descriptionOfPieces"] = item.DescriptionOfPieces
			values["numberOfMissingPieces"] = item.NumberOfMissingPieces
			values["missingPieces"] = item.MissingPieces
		}
		return &Prompt{
			Modal:      Multipiece,
			HeadingKey: "multipieceModal.label",
			MessageKey: "multipieceModal.message",
			ConfirmKey: "multipieceModal.confirm",
			CancelKey:  "multipieceModal.cancel",
			Values:     values,
		}
	}
	return nil
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
