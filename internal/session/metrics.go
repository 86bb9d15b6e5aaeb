// internal/session/metrics.go
package session

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"libracheckout/internal/modal"
)

type metrics struct {
	started metric.Int64Counter
	ended   metric.Int64Counter
	shown   metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter("libracheckout/session")

	started, err := meter.Int64Counter("checkout.sessions.started",
		metric.WithDescription("Checkout sessions opened"))
	if err != nil {
		return nil, err
	}
	ended, err := meter.Int64Counter("checkout.sessions.ended",
		metric.WithDescription("Checkout dialog sequences finished, by outcome"))
	if err != nil {
		return nil, err
	}
	shown, err := meter.Int64Counter("checkout.modals.shown",
		metric.WithDescription("Confirmation dialogs shown, by dialog"))
	if err != nil {
		return nil, err
	}

	return &metrics{started: started, ended: ended, shown: shown}, nil
}

func (m *metrics) sessionStarted(ctx context.Context, notesView bool) {
	kind := "checkout"
	if notesView {
		kind = "notes_view"
	}
	m.started.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *metrics) sessionEnded(ctx context.Context, outcome Outcome) {
	m.ended.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

func (m *metrics) modalShown(ctx context.Context, mod modal.Modal) {
	m.shown.Add(ctx, 1, metric.WithAttributes(attribute.String("modal", string(mod))))
}
