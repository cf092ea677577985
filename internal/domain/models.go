package domain

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// SearchQuery is one query issued by the scheduler. It is never mutated after creation.
type SearchQuery struct {
	Text           string
	Root           string
	IncludeContent bool
	Generation     uint64
}

// Pattern is the text handed to the matcher. Surrounding whitespace is dropped;
// inner spaces are kept and must match literally.
func (q SearchQuery) Pattern() string {
	return strings.TrimSpace(q.Text)
}

// IsEmpty reports whether the query text has nothing to match against
func (q SearchQuery) IsEmpty() bool {
	return q.Pattern() == ""
}

// MatchResult is the scorer's output for one candidate (filename mode)
// or one line of a candidate (content mode)
type MatchResult struct {
	Path        string
	Score       int
	Indices     []int // rune offsets of matched characters
	Line        int   // 0-based, content mode only
	ColumnStart int
	ColumnEnd   int
	LineText    string
	Content     bool
}

// SearchItem is what the result sink gets to render and navigate to
type SearchItem struct {
	Label       string
	FullPath    string
	LineNumber  int // 0 for filename-only matches
	ColumnStart int
	ColumnEnd   int
	Score       int
	Content     bool
	Highlights  []int // rune offsets into Label of the matched characters
}

// Location formats the item as path:line:col with a 1-based line for editors
func (it SearchItem) Location() string {
	if !it.Content {
		return it.FullPath
	}
	return it.FullPath + ":" + strconv.Itoa(it.LineNumber+1) + ":" + strconv.Itoa(it.ColumnEnd+1)
}

// Less orders items by descending score, then path, then line
func (it SearchItem) Less(other SearchItem) bool {
	if it.Score != other.Score {
		return it.Score > other.Score
	}
	if it.FullPath != other.FullPath {
		return it.FullPath < other.FullPath
	}
	return it.LineNumber < other.LineNumber
}

// NewFileItem builds a filename-mode item
func NewFileItem(root string, m MatchResult) SearchItem {
	return SearchItem{
		Label:       relLabel(root, m.Path),
		FullPath:    m.Path,
		Highlights:  m.Indices,
		ColumnStart: m.ColumnStart,
		ColumnEnd:   m.ColumnEnd,
		Score:       m.Score,
	}
}

// NewLineItem builds a content-mode item
func NewLineItem(root string, m MatchResult) SearchItem {
	prefix := relLabel(root, m.Path) + ":" + strconv.Itoa(m.Line+1) + ": "
	text := strings.TrimSpace(m.LineText)
	return SearchItem{
		Label:       prefix + text,
		FullPath:    m.Path,
		Highlights:  shiftIndices(m.Indices, m.LineText, text, utf8.RuneCountInString(prefix)),
		LineNumber:  m.Line,
		ColumnStart: m.ColumnStart,
		ColumnEnd:   m.ColumnEnd,
		Score:       m.Score,
		Content:     true,
	}
}

// RunStatus is the terminal state of a search run
type RunStatus int

const (
	RunCompleted RunStatus = iota
	RunCancelled
	RunRootUnavailable
)

func (s RunStatus) String() string {
	switch s {
	case RunCompleted:
		return "completed"
	case RunCancelled:
		return "cancelled"
	case RunRootUnavailable:
		return "root unavailable"
	default:
		return "unknown"
	}
}

// SearchResult is everything a finished run hands back to the scheduler
type SearchResult struct {
	Query   SearchQuery
	Items   []SearchItem
	Status  RunStatus
	Err     error // set only for RunRootUnavailable
	Scanned int   // candidates visited
	Elapsed time.Duration
}

// shiftIndices maps rune offsets in line onto trimmed, which is placed after
// offset runes of label prefix. Offsets falling in the trimmed space are dropped.
func shiftIndices(indices []int, line, trimmed string, offset int) []int {
	lead := utf8.RuneCountInString(line) - utf8.RuneCountInString(strings.TrimLeftFunc(line, unicode.IsSpace))
	n := utf8.RuneCountInString(trimmed)
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < lead || i-lead >= n {
			continue
		}
		out = append(out, offset+i-lead)
	}
	return out
}

func relLabel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
