package alert

import (
	"context"
	"errors"
	"testing"
)

// recordingAdapter captures sent events.
type recordingAdapter struct {
	name string
	sent []Event
	err  error
}

func (a *recordingAdapter) Name() string { return a.name }
func (a *recordingAdapter) Send(_ context.Context, evt Event) error {
	a.sent = append(a.sent, evt)
	return a.err
}

func TestReporter_FansOutToAllAdapters(t *testing.T) {
	first := &recordingAdapter{name: "first"}
	second := &recordingAdapter{name: "second"}
	r := NewReporter(first, second)

	r.Error(context.Background(), "boom", "details")

	for _, a := range []*recordingAdapter{first, second} {
		if len(a.sent) != 1 {
			t.Fatalf("%s received %d events, want 1", a.name, len(a.sent))
		}
		if a.sent[0].Title != "boom" || a.sent[0].Severity != SeverityError {
			t.Errorf("%s event = %+v", a.name, a.sent[0])
		}
	}
}

func TestReporter_AdapterFailureDoesNotStopOthers(t *testing.T) {
	failing := &recordingAdapter{name: "failing", err: errors.New("network down")}
	healthy := &recordingAdapter{name: "healthy"}
	r := NewReporter(failing, healthy)

	r.Report(context.Background(), Event{Title: "t", Severity: SeverityWarning})

	if len(healthy.sent) != 1 {
		t.Errorf("healthy adapter received %d events, want 1", len(healthy.sent))
	}
}

func TestReporter_EmptyIsNoOp(t *testing.T) {
	r := NewReporter()
	// Must not panic.
	r.Error(context.Background(), "t", "b")
}
