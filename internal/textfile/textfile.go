package textfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SniffLen is how much of a file is inspected for null bytes
const SniffLen = 1024

// MaxLineLength is the longest line that is scanned
const MaxLineLength = 64 * 1024

var (
	// ErrNotText marks files that are binary or fail to decode
	ErrNotText = errors.New("not a text file")
	// ErrLineTooLong is returned when a line exceeds MaxLineLength
	ErrLineTooLong = errors.New("line too long")
)

// IsBinary reports whether head (the first SniffLen bytes of a file) looks binary.
// Any null byte counts, byte order mark or not, so ASCII-range UTF-16 is binary too.
func IsBinary(head []byte) bool {
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// Lines calls fn for every line of the file at path with its 0-based number.
// Returning false from fn stops the scan early without an error.
// A byte order mark is stripped; without one the content must be valid UTF-8.
func Lines(path string, fn func(n int, line string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scan(f, fn)
}

func scan(r io.Reader, fn func(n int, line string) bool) error {
	br := bufio.NewReaderSize(r, SniffLen*4)
	head, err := br.Peek(SniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return err
	}
	if IsBinary(head) {
		return ErrNotText
	}

	decoded := transform.NewReader(br, unicode.BOMOverride(encoding.UTF8Validator))
	sc := bufio.NewScanner(decoded)
	sc.Buffer(make([]byte, 0, 4096), MaxLineLength)

	n := 0
	for sc.Scan() {
		line := sc.Bytes()
		if k := len(line); k > 0 && line[k-1] == '\r' {
			line = line[:k-1]
		}
		if !fn(n, string(line)) {
			return nil
		}
		n++
	}

	switch err := sc.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, bufio.ErrTooLong):
		return ErrLineTooLong
	case errors.Is(err, encoding.ErrInvalidUTF8):
		return fmt.Errorf("%w: %v", ErrNotText, err)
	default:
		return err
	}
}
