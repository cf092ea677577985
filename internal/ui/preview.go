package ui

import (
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"

	"filegrip/internal/domain"
	"filegrip/internal/textfile"
)

const (
	// previewContext is how many lines above a content match the preview starts
	previewContext = 5
	// previewMaxLines caps how much of a file is handed to the pager
	previewMaxLines = 10000
)

// previewCommand shows a file in the ov pager. It satisfies tea.ExecCommand
// so bubbletea releases and restores the terminal around it.
type previewCommand struct {
	item domain.SearchItem
}

func (c *previewCommand) Run() error {
	content, err := previewContent(c.item)
	if err != nil {
		return err
	}

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Don't write the screen back on exit, the finder redraws itself
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// ov talks to the terminal directly
func (c *previewCommand) SetStdin(io.Reader)  {}
func (c *previewCommand) SetStdout(io.Writer) {}
func (c *previewCommand) SetStderr(io.Writer) {}

func previewItem(item domain.SearchItem) tea.Cmd {
	return tea.Exec(&previewCommand{item: item}, func(err error) tea.Msg {
		return previewFinishedMsg{path: item.FullPath, err: err}
	})
}

// previewContent renders the file with line numbers, starting a few lines
// above a content match and marking the matched line.
func previewContent(item domain.SearchItem) (string, error) {
	start := 0
	if item.Content {
		start = max(0, item.LineNumber-previewContext)
	}

	var b strings.Builder
	b.WriteString(item.Location() + "\n\n")
	err := textfile.Lines(item.FullPath, func(n int, line string) bool {
		if n < start {
			return true
		}
		if n >= start+previewMaxLines {
			return false
		}
		marker := " "
		if item.Content && n == item.LineNumber {
			marker = "▶"
		}
		fmt.Fprintf(&b, "%6d %s %s\n", n+1, marker, line)
		return true
	})
	if err != nil {
		return "", fmt.Errorf("cannot preview %s: %w", item.FullPath, err)
	}
	return b.String(), nil
}

// EditorArgs builds the command line that opens item in editor
func EditorArgs(editor string, item domain.SearchItem) []string {
	args := strings.Fields(editor)
	if len(args) == 0 {
		args = []string{"vi"}
	}
	if !item.Content {
		return append(args, item.FullPath)
	}

	line := strconv.Itoa(item.LineNumber + 1)
	switch filepath.Base(args[0]) {
	case "code", "codium", "cursor":
		return append(args, "--goto", item.Location())
	case "subl", "zed":
		return append(args, item.Location())
	default:
		return append(args, "+"+line, item.FullPath)
	}
}

func openInEditor(editor string, item domain.SearchItem) tea.Cmd {
	args := EditorArgs(editor, item)
	cmd := exec.Command(args[0], args[1:]...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{path: item.FullPath, err: err}
	})
}
