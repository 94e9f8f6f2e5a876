package events

import (
	"context"
	"errors"
	"fmt"

	"minkyc/internal/identity/models"
	"minkyc/pkg/platform/circuit"
)

// ErrSinkUnavailable is returned for a sink whose breaker is open.
var ErrSinkUnavailable = errors.New("sink unavailable: circuit open")

// FailureCounter is the subset of the identity metrics the fan-out reports to.
type FailureCounter interface {
	IncrementEventPublishFailed(sink string)
}

type namedSink struct {
	name    string
	pub     Publisher
	breaker *circuit.Breaker
}

// Fanout delivers each event to every registered sink. One failing sink does
// not stop delivery to the rest; the failures are joined into the result.
type Fanout struct {
	sinks    []namedSink
	failures FailureCounter
}

func NewFanout(failures FailureCounter) *Fanout {
	return &Fanout{failures: failures}
}

// Add registers a sink under name. Not safe to call concurrently with publishing.
func (f *Fanout) Add(name string, pub Publisher) *Fanout {
	f.sinks = append(f.sinks, namedSink{name: name, pub: pub})
	return f
}

// AddGuarded registers a sink that is skipped while its breaker is open, so a
// dead broker does not add its timeout to every verification.
func (f *Fanout) AddGuarded(name string, pub Publisher, breaker *circuit.Breaker) *Fanout {
	f.sinks = append(f.sinks, namedSink{name: name, pub: pub, breaker: breaker})
	return f
}

func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) PublishVerification(ctx context.Context, event models.VerificationEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.publish(ctx, event); err != nil {
			if f.failures != nil {
				f.failures.IncrementEventPublishFailed(s.name)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (s namedSink) publish(ctx context.Context, event models.VerificationEvent) error {
	if s.breaker == nil {
		return s.pub.PublishVerification(ctx, event)
	}
	if !s.breaker.Allow() {
		return ErrSinkUnavailable
	}
	if err := s.pub.PublishVerification(ctx, event); err != nil {
		s.breaker.RecordFailure()
		return err
	}
	s.breaker.RecordSuccess()
	return nil
}
