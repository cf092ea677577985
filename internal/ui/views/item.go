package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"filegrip/internal/domain"
)

const ellipsis = "…"

// ItemRenderer renders result rows
type ItemRenderer struct {
	styles *Styles
}

// NewItemRenderer creates a new item renderer
func NewItemRenderer(styles *Styles) *ItemRenderer {
	return &ItemRenderer{styles: styles}
}

// RenderItem renders one row: a cursor marker and the label with matched
// characters highlighted, cut to width terminal cells.
func (r *ItemRenderer) RenderItem(item domain.SearchItem, selected bool, width int) string {
	marker := "  "
	if selected {
		marker = r.styles.Cursor.Render("> ")
	}
	avail := width - 2
	if avail <= 0 {
		return marker
	}

	base := lipgloss.NewStyle()
	hl := r.styles.Highlight
	if selected {
		base = r.styles.SelectionBg
		hl = r.styles.Highlight.Inherit(r.styles.SelectionBg)
	}

	return marker + renderRuns(Truncate(item.Label, avail), item.Highlights, base, hl)
}

// Truncate cuts s to at most width cells, ending in an ellipsis when cut
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}

// renderRuns styles contiguous runs of highlighted and plain runes
func renderRuns(label string, highlights []int, base, hl lipgloss.Style) string {
	marked := make(map[int]bool, len(highlights))
	for _, i := range highlights {
		marked[i] = true
	}

	var out, run strings.Builder
	runMarked := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runMarked {
			out.WriteString(hl.Render(run.String()))
		} else {
			out.WriteString(base.Render(run.String()))
		}
		run.Reset()
	}

	i := 0
	for _, c := range label {
		m := marked[i]
		if m != runMarked {
			flush()
			runMarked = m
		}
		run.WriteRune(c)
		i++
	}
	flush()
	return out.String()
}
