package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"filegrip/internal/domain"
	"filegrip/internal/eventbus"
	"filegrip/internal/logger"
	"filegrip/internal/ui/views"
)

// statusTimeout is how long transient status messages stay up
const statusTimeout = 3 * time.Second

// Options configures the finder
type Options struct {
	Root           string
	Query          string
	IncludeContent bool
	Watch          bool
	// PrintMode makes enter select the item and quit instead of opening an editor
	PrintMode bool
	Editor    string
}

// Model represents the UI state. It is the result sink of the scheduler:
// results arrive as EventMsg and only ever replace older generations.
type Model struct {
	bus  eventbus.EventBus
	opts Options

	input    textinput.Model
	help     help.Model
	keys     keyMap
	renderer *views.Renderer

	width  int
	height int

	items  []domain.SearchItem
	cursor int
	offset int

	started    uint64 // newest generation the scheduler reported starting
	shown      uint64 // generation of the items on screen
	shownQuery domain.SearchQuery
	searching  bool
	scanned    int
	elapsed    time.Duration

	status      string
	statusError bool
	statusSeq   int
	showHelp    bool

	lastQuery string
	sent      bool
	selected  *domain.SearchItem

	// copy is swapped in tests
	copy func(string) error
}

// NewModel creates a new UI model
func NewModel(bus eventbus.EventBus, opts Options) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "type to search"
	ti.SetValue(opts.Query)
	ti.Focus()

	return &Model{
		bus:      bus,
		opts:     opts,
		input:    ti,
		help:     help.New(),
		keys:     defaultKeyMap(),
		renderer: views.NewRenderer(),
		copy:     clipboard.WriteAll,
	}
}

// Selected returns the item chosen in print mode, if any
func (m *Model) Selected() (domain.SearchItem, bool) {
	if m.selected == nil {
		return domain.SearchItem{}, false
	}
	return *m.selected, true
}

// Items returns the items on screen
func (m *Model) Items() []domain.SearchItem {
	return m.items
}

// IncludeContent reports the current search mode
func (m *Model) IncludeContent() bool {
	return m.opts.IncludeContent
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	m.requestSearch()
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		m.clampViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case editorFinishedMsg:
		if msg.err != nil {
			logger.Named("ui").WithField("path", msg.path).Warnf("editor failed: %v", msg.err)
			return m, m.setStatus(fmt.Sprintf("editor failed: %v", msg.err), true)
		}
		return m, nil

	case previewFinishedMsg:
		if msg.err != nil {
			logger.Named("ui").WithField("path", msg.path).Warnf("preview failed: %v", msg.err)
			return m, m.setStatus(fmt.Sprintf("preview failed: %v", msg.err), true)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("copy failed: %v", msg.err), true)
		}
		return m, m.setStatus("copied "+msg.text, false)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusError = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.listHeight())
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.listHeight())
		return m, nil

	case key.Matches(msg, m.keys.ToggleContent):
		m.opts.IncludeContent = !m.opts.IncludeContent
		m.sent = false
		m.requestSearch()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.clampViewport()
		return m, nil

	case key.Matches(msg, m.keys.Open):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		if m.opts.PrintMode {
			m.selected = &item
			return m, tea.Quit
		}
		return m, openInEditor(m.opts.Editor, item)

	case key.Matches(msg, m.keys.Copy):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		text := item.Location()
		copyFn := m.copy
		return m, func() tea.Msg {
			return copiedMsg{text: text, err: copyFn(text)}
		}

	case key.Matches(msg, m.keys.Preview):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		return m, previewItem(item)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.requestSearch()
	return m, cmd
}

// requestSearch publishes the query when it differs from the last one sent
func (m *Model) requestSearch() {
	text := m.input.Value()
	if m.sent && text == m.lastQuery {
		return
	}
	m.lastQuery = text
	m.sent = true
	if m.bus == nil {
		return
	}
	m.bus.Publish(eventbus.SearchRequestedEvent{
		Text:           text,
		Root:           m.opts.Root,
		IncludeContent: m.opts.IncludeContent,
	})
}

func (m *Model) handleEvent(event eventbus.DomainEvent) tea.Cmd {
	switch e := event.(type) {
	case eventbus.SearchStartedEvent:
		if e.Query.Generation > m.started {
			m.started = e.Query.Generation
			m.searching = true
		}

	case eventbus.SearchCompletedEvent:
		m.showResult(e.Result)

	case eventbus.SearchFailedEvent:
		if !m.accept(e.Result.Query.Generation) {
			return nil
		}
		m.showResult(e.Result)
		msg := "search root unavailable"
		if e.Result.Err != nil {
			msg = e.Result.Err.Error()
		}
		m.status = msg
		m.statusError = true

	case eventbus.SearchDiscardedEvent:
		logger.Named("ui").WithField("generation", e.Generation).Debug("run discarded")

	case eventbus.FilesChangedEvent:
		if m.opts.Watch {
			m.sent = false
			m.requestSearch()
		}

	case eventbus.ErrorEvent:
		return m.setStatus(e.Message, true)
	}
	return nil
}

// accept reports whether a result for gen may replace what is on screen
func (m *Model) accept(gen uint64) bool {
	return gen >= m.started && gen > m.shown
}

func (m *Model) showResult(res domain.SearchResult) {
	gen := res.Query.Generation
	if !m.accept(gen) {
		logger.Named("ui").
			WithField("generation", gen).
			WithField("shown", m.shown).
			Debug("dropping stale result")
		return
	}

	prev, hadPrev := m.current()
	refresh := m.shownQuery.Text == res.Query.Text && m.shownQuery.IncludeContent == res.Query.IncludeContent

	m.shown = gen
	m.shownQuery = res.Query
	m.searching = false
	m.items = res.Items
	m.scanned = res.Scanned
	m.elapsed = res.Elapsed
	if res.Status != domain.RunRootUnavailable && m.statusError {
		m.status = ""
		m.statusError = false
	}

	// a refresh of the same query keeps the cursor on the same entry
	m.cursor = 0
	if hadPrev && refresh {
		for i, it := range m.items {
			if it.FullPath == prev.FullPath && it.LineNumber == prev.LineNumber && it.Content == prev.Content {
				m.cursor = i
				break
			}
		}
	}
	m.clampViewport()
}

func (m *Model) current() (domain.SearchItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return domain.SearchItem{}, false
	}
	return m.items[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	if len(m.items) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.items)-1)
	m.clampViewport()
}

func (m *Model) listHeight() int {
	return views.ListHeight(m.height, m.showHelp)
}

// clampViewport keeps the cursor inside the visible window
func (m *Model) clampViewport() {
	if m.cursor >= len(m.items) {
		m.cursor = max(len(m.items)-1, 0)
	}
	rows := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset > max(len(m.items)-rows, 0) {
		m.offset = max(len(m.items)-rows, 0)
	}
}

func (m *Model) setStatus(msg string, isError bool) tea.Cmd {
	m.statusSeq++
	m.status = msg
	m.statusError = isError
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	return m.renderer.Render(views.ViewState{
		Width:          m.width,
		Height:         m.height,
		Root:           m.opts.Root,
		IncludeContent: m.opts.IncludeContent,
		Watching:       m.opts.Watch,
		Input:          m.input.View(),
		Items:          m.items,
		Cursor:         m.cursor,
		Offset:         m.offset,
		Searching:      m.searching,
		Scanned:        m.scanned,
		Elapsed:        m.elapsed,
		StatusMessage:  m.status,
		StatusIsError:  m.statusError,
		ShowHelp:       m.showHelp,
		HelpModel:      m.help,
		Keys:           m.keys,
	})
}
