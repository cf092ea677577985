package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"

	"filegrip/internal/domain"
)

// chromeLines is the title, the prompt, the status line and the short help
const chromeLines = 4

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width          int
	Height         int
	Root           string
	IncludeContent bool
	Watching       bool
	Input          string
	Items          []domain.SearchItem
	Cursor         int
	Offset         int
	Searching      bool
	Scanned        int
	Elapsed        time.Duration
	StatusMessage  string
	StatusIsError  bool
	ShowHelp       bool
	HelpModel      help.Model
	Keys           help.KeyMap
}

// Renderer handles all view rendering
type Renderer struct {
	styles     *Styles
	itemRender *ItemRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:     styles,
		itemRender: NewItemRenderer(styles),
	}
}

// ListHeight returns how many result rows fit on screen
func ListHeight(height int, showHelp bool) int {
	n := height - chromeLines
	if showHelp {
		n -= 3
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	mode := "files"
	if state.IncludeContent {
		mode = "content"
	}
	title := r.styles.Title.Render("filegrip") + " " + r.styles.Mode.Render("["+mode+"]")
	if state.Watching {
		title += r.styles.Dim.Render(" watching")
	}
	title += " " + r.styles.Dim.Render(Truncate(state.Root, max(state.Width-20, 10)))
	content.WriteString(title + "\n")
	content.WriteString(state.Input + "\n")

	rows := ListHeight(state.Height, state.ShowHelp)
	end := min(state.Offset+rows, len(state.Items))
	written := 0
	for i := state.Offset; i < end; i++ {
		content.WriteString(r.itemRender.RenderItem(state.Items[i], i == state.Cursor, state.Width))
		content.WriteString("\n")
		written++
	}
	for ; written < rows; written++ {
		content.WriteString("\n")
	}

	content.WriteString(r.renderStatus(state) + "\n")

	if state.Keys != nil {
		if state.ShowHelp {
			content.WriteString(r.styles.Help.Render(state.HelpModel.FullHelpView(state.Keys.FullHelp())))
		} else {
			content.WriteString(r.styles.Help.Render(state.HelpModel.ShortHelpView(state.Keys.ShortHelp())))
		}
	}

	return content.String()
}

func (r *Renderer) renderStatus(state ViewState) string {
	if state.StatusMessage != "" {
		if state.StatusIsError {
			return r.styles.StatusError.Render(state.StatusMessage)
		}
		return r.styles.StatusSuccess.Render(state.StatusMessage)
	}
	if state.Searching {
		return r.styles.StatusLoading.Render("searching…")
	}
	counts := fmt.Sprintf("%d/%d", min(state.Cursor+1, len(state.Items)), len(state.Items))
	if state.Scanned > 0 {
		counts += fmt.Sprintf(" · %d files · %s", state.Scanned, state.Elapsed.Round(time.Millisecond))
	}
	return r.styles.Status.Render(counts)
}
