package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchRequested EventType = "SearchRequested"
	EventSearchStarted   EventType = "SearchStarted"
	EventSearchCompleted EventType = "SearchCompleted"
	EventSearchDiscarded EventType = "SearchDiscarded"
	EventSearchFailed    EventType = "SearchFailed"
	EventFilesChanged    EventType = "FilesChanged"
	EventError           EventType = "Error"
	EventConfigLoaded    EventType = "ConfigLoaded"
	EventConfigSaved     EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchRequestedEvent asks the scheduler to run a query
type SearchRequestedEvent struct {
	Text           string
	Root           string
	IncludeContent bool
}

func (e SearchRequestedEvent) Type() EventType { return EventSearchRequested }

// SearchStartedEvent is emitted when a run is spawned for a new generation
type SearchStartedEvent struct {
	Query SearchQuery
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// SearchCompletedEvent carries the ranked items of the newest run
type SearchCompletedEvent struct {
	Result SearchResult
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchDiscardedEvent is emitted when a finished run was superseded
type SearchDiscardedEvent struct {
	Generation uint64
	Latest     uint64
	Status     RunStatus
}

func (e SearchDiscardedEvent) Type() EventType { return EventSearchDiscarded }

// SearchFailedEvent is emitted when the newest run could not access its root
type SearchFailedEvent struct {
	Result SearchResult
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// FilesChangedEvent is emitted (debounced) when files under the root change
type FilesChangedEvent struct {
	Root  string
	Paths []string
}

func (e FilesChangedEvent) Type() EventType { return EventFilesChanged }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
	Root string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
