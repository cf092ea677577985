package walker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"filegrip/internal/logger"
)

// ErrRootUnavailable is returned when the search root cannot be used
var ErrRootUnavailable = errors.New("root unavailable")

// Policy decides which entries are skipped
type Policy interface {
	ShouldSkip(name string, isDir bool) bool
}

// Walker lists candidate files under a root
type Walker interface {
	CheckRoot(root string) error
	Walk(ctx context.Context, root string) iter.Seq[string]
}

// walker is the concrete implementation
type walker struct {
	policy Policy
}

// New creates a walker that consults policy before descending or emitting
func New(policy Policy) Walker {
	return &walker{policy: policy}
}

// CheckRoot verifies root is an existing, readable directory
func (w *walker) CheckRoot(root string) error {
	if root == "" {
		return fmt.Errorf("%w: empty path", ErrRootUnavailable)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootUnavailable, root)
	}
	f, err := os.Open(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	return nil
}

// Walk yields every non-ignored regular file under root, breadth first so
// shallow files come out before deep ones. Each call starts a fresh walk.
// Directories that cannot be read are skipped. The walk ends early when ctx
// is done or the consumer stops ranging.
func (w *walker) Walk(ctx context.Context, root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		log := logger.Named("walker")
		queue := []string{root}

		for len(queue) > 0 {
			if ctx.Err() != nil {
				return
			}
			dir := queue[0]
			queue = queue[1:]

			entries, err := os.ReadDir(dir)
			if err != nil {
				// Skip on error
				log.WithField("dir", dir).Debugf("skipping unreadable directory: %v", err)
				continue
			}

			for _, entry := range entries {
				name := entry.Name()
				path := filepath.Join(dir, name)
				typ := entry.Type()

				switch {
				case typ.IsDir():
					if w.policy != nil && w.policy.ShouldSkip(name, true) {
						continue
					}
					queue = append(queue, path)

				case typ&fs.ModeSymlink != 0:
					// Symlinked directories are not followed; symlinked files are emitted
					info, err := os.Stat(path)
					if err != nil || !info.Mode().IsRegular() {
						continue
					}
					if w.policy != nil && w.policy.ShouldSkip(name, false) {
						continue
					}
					if !yield(path) {
						return
					}

				case typ.IsRegular():
					if w.policy != nil && w.policy.ShouldSkip(name, false) {
						continue
					}
					if !yield(path) {
						return
					}
				}
			}
		}
	}
}
