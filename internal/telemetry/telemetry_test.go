package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestStartPhase_NoopProviderDoesNotPanic(t *testing.T) {
	p := NewNoop()
	_, end := p.StartPhase(context.Background(), "sample", 1)
	end(nil)
	end2 := func() { end(errors.New("boom")) }
	end2() // calling End twice on a noop span must not panic.
}

func TestShutdown_NilProviderIsNoop(t *testing.T) {
	var p *Provider
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
