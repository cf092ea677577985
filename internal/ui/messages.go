package ui

import (
	"filegrip/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// editorFinishedMsg is sent when the external editor exits
type editorFinishedMsg struct {
	path string
	err  error
}

// previewFinishedMsg is sent when the pager exits
type previewFinishedMsg struct {
	path string
	err  error
}

// copiedMsg reports the result of a clipboard write
type copiedMsg struct {
	text string
	err  error
}

// clearStatusMsg clears the status message
type clearStatusMsg struct {
	seq int
}
