package search

import (
	"context"
	"sync"
	"sync/atomic"

	"filegrip/internal/domain"
	"filegrip/internal/eventbus"
	"filegrip/internal/logger"
	"filegrip/internal/walker"
)

// Scheduler is the entry point for queries. Every Update supersedes the
// previous one: the old run is cancelled and only the newest run's result
// ever reaches the sink.
type Scheduler struct {
	walker     walker.Walker
	sink       Sink
	bus        eventbus.EventBus
	maxResults int

	ctx    context.Context
	cancel context.CancelFunc

	latest atomic.Uint64

	mu      sync.Mutex // guards current and closed, serializes Update
	current *Run
	closed  bool

	deliverMu sync.Mutex // makes "is it still the newest?" and Deliver one step
	wg        sync.WaitGroup
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithMaxResults caps the number of delivered items. 0 means unlimited.
func WithMaxResults(n int) Option {
	return func(s *Scheduler) {
		s.maxResults = n
	}
}

// WithBus publishes SearchStarted and SearchDiscarded events on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(s *Scheduler) {
		s.bus = bus
	}
}

// WithContext bounds every run by ctx
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) {
		s.ctx = ctx
	}
}

// NewScheduler creates a scheduler that delivers to sink
func NewScheduler(w walker.Walker, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		walker: w,
		sink:   sink,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(s.ctx)
	return s
}

// NewService wires a scheduler to the event bus: SearchRequested events
// trigger Update and results are published as SearchCompleted/SearchFailed.
func NewService(bus eventbus.EventBus, w walker.Walker, opts ...Option) *Scheduler {
	opts = append([]Option{WithBus(bus)}, opts...)
	s := NewScheduler(w, BusSink{Bus: bus}, opts...)

	bus.Subscribe(eventbus.EventSearchRequested, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.SearchRequestedEvent); ok {
			s.Update(event.Text, event.Root, event.IncludeContent)
		}
	})

	return s
}

// Update starts a search for text under root and returns its generation.
// It never blocks on the previous run: that run is only flagged as cancelled.
// After Close, Update does nothing and returns 0.
func (s *Scheduler) Update(text, root string, includeContent bool) uint64 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}

	gen := s.latest.Add(1)
	if s.current != nil {
		s.current.Cancel()
	}
	run := NewRun(domain.SearchQuery{
		Text:           text,
		Root:           root,
		IncludeContent: includeContent,
		Generation:     gen,
	}, s.walker, s.maxResults)
	s.current = run
	s.wg.Add(1)
	s.mu.Unlock()

	logger.Named("scheduler").
		WithField("generation", gen).
		WithField("query", text).
		WithField("content", includeContent).
		Debug("starting run")
	if s.bus != nil {
		s.bus.Publish(eventbus.SearchStartedEvent{Query: run.Query()})
	}

	go s.execute(run)
	return gen
}

// Latest returns the newest generation issued
func (s *Scheduler) Latest() uint64 {
	return s.latest.Load()
}

// Wait blocks until every run started so far has finished
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close cancels the live run, waits for all workers and rejects further updates
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	if s.current != nil {
		s.current.Cancel()
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) execute(run *Run) {
	defer s.wg.Done()
	result := run.Execute(s.ctx)
	s.complete(run, result)
}

// complete delivers result if run is still the newest, otherwise drops it
func (s *Scheduler) complete(run *Run, result domain.SearchResult) {
	log := logger.Named("scheduler").WithField("generation", run.Generation())

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	latest := s.latest.Load()
	if result.Status == domain.RunCancelled || run.Generation() != latest {
		log.WithField("latest", latest).
			WithField("status", result.Status).
			Debug("discarding stale run")
		if s.bus != nil {
			s.bus.Publish(eventbus.SearchDiscardedEvent{
				Generation: run.Generation(),
				Latest:     latest,
				Status:     result.Status,
			})
		}
		return
	}

	s.mu.Lock()
	if s.current == run {
		s.current = nil
	}
	s.mu.Unlock()

	log.WithField("items", len(result.Items)).
		WithField("elapsed", result.Elapsed).
		Debug("delivering run")
	if s.sink != nil {
		s.sink.Deliver(result)
	}
}
