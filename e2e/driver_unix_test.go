//go:build e2e && unix

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
)

var binPath = "filegrip_e2e"

// Raw key sequences as a terminal sends them
const (
	KeyEnter     = "\r"
	KeyEsc       = "\x1b"
	KeyCtrlC     = "\x03"
	KeyCtrlT     = "\x14"
	KeyCtrlJ     = "\n"
	KeyCtrlK     = "\x0b"
	KeyDown      = "\x1b[B"
	KeyUp        = "\x1b[A"
	KeyBackspace = "\x7f"
)

// ansiRe strips CSI, OSC, charset and keypad sequences plus carriage returns
var ansiRe = regexp.MustCompile(
	`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|` +
		`(?:\x1b\][^\x07]*\x07)|` +
		`(?:\x1b[\(\)][A-Za-z])|` +
		`(?:\x1b=|\x1b>)|` +
		`\r`,
)

// TUITestFramework runs filegrip on a pseudo terminal and records everything it draws
type TUITestFramework struct {
	t         *testing.T
	pty       *os.File
	cmd       *exec.Cmd
	workspace string
	home      string

	mu  sync.Mutex
	out bytes.Buffer

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

// NewTUITest creates a driver; call CreateTestWorkspace or CreateProject before StartApp
func NewTUITest(t *testing.T) *TUITestFramework {
	return &TUITestFramework{t: t, exited: make(chan struct{})}
}

// StartApp launches filegrip in the workspace with an isolated home
func (tf *TUITestFramework) StartApp(args ...string) error {
	args = append([]string{"--log-file", filepath.Join(tf.home, "filegrip.log")}, args...)
	tf.cmd = exec.Command(binPath, args...)
	tf.cmd.Dir = tf.workspace
	tf.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+tf.home,
		"XDG_CONFIG_HOME="+tf.home,
		"XDG_CACHE_HOME="+tf.home,
		"FILEGRIP_LOG_LEVEL=debug",
		"FILEGRIP_EDITOR=true", // exits at once, standing in for an editor
	)

	f, err := pty.StartWithSize(tf.cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return fmt.Errorf("failed to start filegrip on a pty: %w", err)
	}
	tf.pty = f

	go tf.read()
	return nil
}

func (tf *TUITestFramework) read() {
	buf := make([]byte, 8192)
	for {
		n, err := tf.pty.Read(buf)
		if n > 0 {
			tf.mu.Lock()
			tf.out.Write(buf[:n])
			tf.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Press sends raw key sequences
func (tf *TUITestFramework) Press(keys ...string) error {
	tf.t.Helper()
	for _, k := range keys {
		if _, err := tf.pty.Write([]byte(k)); err != nil {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// Type sends text one rune at a time, like a person typing
func (tf *TUITestFramework) Type(text string) error {
	tf.t.Helper()
	for _, r := range text {
		if err := tf.Press(string(r)); err != nil {
			return err
		}
	}
	return nil
}

// Quit sends esc
func (tf *TUITestFramework) Quit() error {
	return tf.Press(KeyEsc)
}

// Ready waits for the first frame
func (tf *TUITestFramework) Ready() bool {
	tf.t.Helper()
	return tf.OutputContainsPlain("filegrip", 5*time.Second)
}

// SeePlain waits up to three seconds for text in the normalized output
func (tf *TUITestFramework) SeePlain(text string) bool {
	tf.t.Helper()
	return tf.OutputContainsPlain(text, 3*time.Second)
}

// OutputContainsPlain waits for text in the normalized output
func (tf *TUITestFramework) OutputContainsPlain(text string, timeout time.Duration) bool {
	tf.t.Helper()
	return tf.WaitFor(func(s string) bool { return strings.Contains(s, text) }, timeout, "") == nil
}

// Mark returns the current output position for SeePlainSince
func (tf *TUITestFramework) Mark() int {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return tf.out.Len()
}

// SeePlainSince waits for text drawn after mark
func (tf *TUITestFramework) SeePlainSince(mark int, text string) bool {
	tf.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		tf.mu.Lock()
		recent := ansiRe.ReplaceAllString(string(tf.out.Bytes()[mark:]), "")
		tf.mu.Unlock()
		if strings.Contains(recent, text) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// WaitFor polls the normalized output until pred holds. On timeout the error
// carries failMsg and the tail of the output.
func (tf *TUITestFramework) WaitFor(pred func(string) bool, timeout time.Duration, failMsg string) error {
	tf.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		plain := tf.SnapshotPlain()
		if pred(plain) {
			return nil
		}
		if time.Now().After(deadline) {
			if len(plain) > 4096 {
				plain = plain[len(plain)-4096:]
			}
			return fmt.Errorf("%s\n--- tail ---\n%s", failMsg, plain)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// SnapshotPlain returns everything drawn so far with escape sequences removed
func (tf *TUITestFramework) SnapshotPlain() string {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return ansiRe.ReplaceAllString(tf.out.String(), "")
}

// WaitExit waits for the process to exit and reports its exit error.
// It can be called more than once.
func (tf *TUITestFramework) WaitExit(timeout time.Duration) (bool, error) {
	tf.t.Helper()
	tf.waitOnce.Do(func() {
		go func() {
			tf.waitErr = tf.cmd.Wait()
			close(tf.exited)
		}()
	})
	select {
	case <-tf.exited:
		return true, tf.waitErr
	case <-time.After(timeout):
		return false, nil
	}
}

// Cleanup closes the pty, which hangs up the child, and kills it if it is still running
func (tf *TUITestFramework) Cleanup() {
	if tf.pty != nil {
		_ = tf.pty.Close()
		tf.pty = nil
	}
	if tf.cmd == nil || tf.cmd.Process == nil {
		return
	}
	if exited, _ := tf.WaitExit(time.Second); !exited {
		_ = tf.cmd.Process.Kill()
		_, _ = tf.WaitExit(2 * time.Second)
	}
}
