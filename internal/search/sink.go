package search

import (
	"filegrip/internal/domain"
	"filegrip/internal/eventbus"
	"filegrip/internal/logger"
)

// Sink receives the result of each run that survives to delivery.
// Deliver is called with the scheduler's delivery lock held, in generation order,
// so it must not call back into the scheduler.
type Sink interface {
	Deliver(result domain.SearchResult)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(result domain.SearchResult)

// Deliver calls f
func (f SinkFunc) Deliver(result domain.SearchResult) {
	f(result)
}

// BusSink publishes results on an event bus. It waits for queue space so a
// surviving run's result is never dropped.
type BusSink struct {
	Bus eventbus.EventBus
}

// Deliver publishes SearchFailed for an unavailable root and SearchCompleted otherwise
func (b BusSink) Deliver(result domain.SearchResult) {
	var event eventbus.DomainEvent = eventbus.SearchCompletedEvent{Result: result}
	if result.Status == domain.RunRootUnavailable {
		event = eventbus.SearchFailedEvent{Result: result}
	}
	if !b.Bus.PublishWait(event) {
		logger.Named("scheduler").
			WithField("generation", result.Query.Generation).
			Error("event bus closed before the result was delivered")
	}
}

// ChanSink forwards results to a channel without blocking; when the channel
// is full the older pending result is replaced, since only the newest matters.
// An unbuffered ChanSink blocks until the result is received.
type ChanSink chan domain.SearchResult

// Deliver implements Sink
func (c ChanSink) Deliver(result domain.SearchResult) {
	if cap(c) == 0 {
		c <- result
		return
	}
	for {
		select {
		case c <- result:
			return
		default:
		}
		select {
		case <-c:
		default:
		}
	}
}
