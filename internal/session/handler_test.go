package session

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libracheckout/internal/circulation"
	"libracheckout/internal/modal"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	m, _ := newTestManager(t)
	r := chi.NewRouter()
	NewHandler(m, zerolog.Nop()).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) Snapshot {
	t.Helper()
	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestHandleCheckoutSequence(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/checkout/sessions", `{"patron_barcode":"123456","item_barcode":"all"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, modal.ShowWithdrawn, snap.State)

	path := fmt.Sprintf("/checkout/sessions/%s", snap.ID)
	for _, want := range []modal.State{modal.ShowCheckoutNote, modal.ShowMultipiece, modal.Done} {
		rec = do(t, h, http.MethodPost, path+"/confirm", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, decodeSnapshot(t, rec).State)
	}

	rec = do(t, h, http.MethodPost, path+"/confirm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"modal sequence already finished"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, path+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, OutcomeCompleted, decodeSnapshot(t, rec).Outcome)

	rec = do(t, h, http.MethodGet, path+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CheckoutSessionCompleted")
}

func TestHandleNotesView(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/checkout/notes", `{"item_barcode":"all"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decodeSnapshot(t, rec)
	assert.True(t, snap.NotesViewMode)
	require.NotNil(t, snap.Prompt)
	assert.Equal(t, "checkoutNotes.heading", snap.Prompt.HeadingKey)

	path := fmt.Sprintf("/checkout/sessions/%s", snap.ID)
	rec = do(t, h, http.MethodPost, path+"/confirm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, path+"/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, modal.Cancelled, decodeSnapshot(t, rec).State)

	rec = do(t, h, http.MethodPost, path+"/notes-view", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleRequestErrors(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad json", http.MethodPost, "/checkout/sessions", `{`, http.StatusBadRequest},
		{"unknown item", http.MethodPost, "/checkout/sessions", `{"patron_barcode":"1","item_barcode":"nope"}`, http.StatusNotFound},
		{"unknown notes item", http.MethodPost, "/checkout/notes", `{"item_barcode":"nope"}`, http.StatusNotFound},
		{"bad session id", http.MethodGet, "/checkout/sessions/xyz/", "", http.StatusBadRequest},
		{"unknown session", http.MethodPost, "/checkout/sessions/" + uuid.NewString() + "/cancel", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrSessionNotFound, http.StatusNotFound},
		{circulation.ErrPatronNotFound, http.StatusNotFound},
		{circulation.ErrMissingBarcode, http.StatusBadRequest},
		{circulation.ErrPatronBlocked, http.StatusForbidden},
		{circulation.ErrInvalidOverride, http.StatusForbidden},
		{fmt.Errorf("%w: status %q", circulation.ErrItemUnavailable, "Missing"), http.StatusConflict},
		{circulation.ErrRateLimited, http.StatusTooManyRequests},
		{modal.ErrConfirmUnavailable, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
