package eventbus

import (
	"runtime/debug"
	"sync"

	"filegrip/internal/domain"
	"filegrip/internal/logger"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventSearchRequested = domain.EventSearchRequested
	EventSearchStarted   = domain.EventSearchStarted
	EventSearchCompleted = domain.EventSearchCompleted
	EventSearchDiscarded = domain.EventSearchDiscarded
	EventSearchFailed    = domain.EventSearchFailed
	EventFilesChanged    = domain.EventFilesChanged
	EventError           = domain.EventError
	EventConfigLoaded    = domain.EventConfigLoaded
	EventConfigSaved     = domain.EventConfigSaved
)

// Re-export domain event types
type SearchRequestedEvent = domain.SearchRequestedEvent
type SearchStartedEvent = domain.SearchStartedEvent
type SearchCompletedEvent = domain.SearchCompletedEvent
type SearchDiscardedEvent = domain.SearchDiscardedEvent
type SearchFailedEvent = domain.SearchFailedEvent
type FilesChangedEvent = domain.FilesChangedEvent
type ErrorEvent = domain.ErrorEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	PublishWait(event DomainEvent) bool
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
}

// DefaultBufferSize is the publish queue length
const DefaultBufferSize = 1000

// New creates a new event bus
func New() EventBus {
	return NewWithBuffer(DefaultBufferSize)
}

// NewWithBuffer creates an event bus with a custom queue length
func NewWithBuffer(size int) EventBus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, size),
		quit:      make(chan struct{}),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish queues an event for all subscribers. It never blocks; when the
// queue is full the event is dropped and logged.
func (b *bus) Publish(event DomainEvent) {
	log := logger.Named("eventbus")
	if event.Type() != EventFilesChanged {
		log.WithField("event", event.Type()).Debug("publishing event")
	}

	select {
	case <-b.quit:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		log.WithField("event", event.Type()).Warn("event bus channel full, dropping event")
	}
}

// PublishWait queues an event, waiting for room instead of dropping it.
// It reports false when the bus closed before the event was queued.
// Handlers must not call it: a full queue would wait on its own dispatcher.
func (b *bus) PublishWait(event DomainEvent) bool {
	logger.Named("eventbus").WithField("event", event.Type()).Debug("publishing event")

	select {
	case <-b.quit:
		return false
	default:
	}

	select {
	case b.eventChan <- event:
		return true
	case <-b.quit:
		return false
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher. Queued events that were not dispatched yet are dropped.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
	b.wg.Wait()
}

// dispatch delivers events in publish order. Handlers run on this goroutine,
// so a handler must hand off any slow work.
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := b.handlers[event.Type()]
			handlersCopy := make([]EventHandler, len(subs))
			for i, s := range subs {
				handlersCopy[i] = s.handler
			}
			b.mu.RUnlock()

			for _, handler := range handlersCopy {
				b.call(handler, event)
			}

		case <-b.quit:
			return
		}
	}
}

func (b *bus) call(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Named("eventbus").
				WithField("event", event.Type()).
				Errorf("event handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	h(event)
}
