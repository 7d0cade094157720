// Package alert fans webhook processing failures out to operator chat
// channels (Slack, Discord). Alert delivery is best-effort: a failed alert
// is logged and never disturbs webhook handling.
package alert

import (
	"context"
	"log"
	"time"
)

// sendTimeout bounds one alert delivery per adapter.
const sendTimeout = 5 * time.Second

// Severity levels for operator alerts.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Event is one operator alert.
type Event struct {
	Title    string
	Body     string
	Severity string
}

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter delivers alerts to a single chat platform.
type Adapter interface {
	// Name identifies the platform for logging (e.g. "slack").
	Name() string

	// Send delivers one alert to the platform.
	Send(ctx context.Context, evt Event) error
}

// Reporter fans one event out to every configured adapter. A Reporter with
// no adapters is valid and reports nothing.
type Reporter struct {
	adapters []Adapter
}

// NewReporter creates a Reporter over the given adapters.
func NewReporter(adapters ...Adapter) *Reporter {
	return &Reporter{adapters: adapters}
}

// Report delivers evt to every adapter. Failures are logged per adapter;
// Report never returns an error.
func (r *Reporter) Report(ctx context.Context, evt Event) {
	for _, a := range r.adapters {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		if err := a.Send(sendCtx, evt); err != nil {
			log.Printf("alert: %s delivery failed: %v", a.Name(), err)
		}
		cancel()
	}
}

// Error is a convenience for the common failure alert.
func (r *Reporter) Error(ctx context.Context, title, body string) {
	r.Report(ctx, Event{Title: title, Body: body, Severity: SeverityError})
}
