//go:build e2e && unix

package main

import (
	"os"
	"path/filepath"
)

// CreateTestWorkspace creates the directory searched by the app and an isolated home
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	tf.workspace = tf.t.TempDir()
	tf.home = tf.t.TempDir()
	return tf.workspace, nil
}

// WriteFile creates a file under the workspace, making parent directories
func (tf *TUITestFramework) WriteFile(name, content string) (string, error) {
	p := filepath.Join(tf.workspace, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	return p, os.WriteFile(p, []byte(content), 0o644)
}

// CreateProject writes the small tree most tests search
func (tf *TUITestFramework) CreateProject() (string, error) {
	ws, err := tf.CreateTestWorkspace()
	if err != nil {
		return "", err
	}
	files := map[string]string{
		"foo/bar.py":            "def helper():\n    return 1\n",
		"foo/baz.txt":           "plain notes\n",
		"node_modules/dep/x.js": "module.exports = 1\n",
		"docs/readme.md":        "hello world\n",
	}
	for name, content := range files {
		if _, err := tf.WriteFile(name, content); err != nil {
			return "", err
		}
	}
	return ws, nil
}
