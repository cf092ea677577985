package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filegrip/internal/eventbus"
)

func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvEditor, "")
	t.Setenv(EnvLogLevel, "")
	return xdg
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ".", cfg.HiddenPrefix)
	assert.Equal(t, 1000, cfg.MaxResults)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := NewConfigService(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, Default().MaxResults, cfg.MaxResults)
}

func TestLoad_ProjectFileWins(t *testing.T) {
	xdg := isolate(t)
	root := t.TempDir()
	write(t, filepath.Join(xdg, "filegrip", "config.toml"), "max_results = 5\n")
	write(t, ProjectPath(root), `
include_content = true
ignore_patterns = ["*.log", "fixtures/"]
max_results = 42
`)

	cfg, err := NewConfigService(root).Load()
	require.NoError(t, err)
	assert.Equal(t, ProjectPath(root), cfg.Source)
	assert.True(t, cfg.IncludeContent)
	assert.Equal(t, []string{"*.log", "fixtures/"}, cfg.IgnorePatterns)
	assert.Equal(t, 42, cfg.MaxResults)
	assert.Equal(t, ".", cfg.HiddenPrefix, "unset keys keep their defaults")
}

func TestLoad_FallsBackToUserFile(t *testing.T) {
	xdg := isolate(t)
	userPath := filepath.Join(xdg, "filegrip", "config.toml")
	write(t, userPath, "watch = true\nwatch_debounce_ms = 100\n")

	cfg, err := NewConfigService(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, userPath, cfg.Source)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce())
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	write(t, ProjectPath(root), "editor = \"nano\"\nlog_level = \"warn\"\n")
	t.Setenv(EnvEditor, "hx")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := NewConfigService(root).Load()
	require.NoError(t, err)
	assert.Equal(t, "hx", cfg.Editor)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_PublishesLoaded(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	write(t, ProjectPath(root), "root = \"src\"\n")

	bus := eventbus.New()
	defer bus.Close()
	loaded := make(chan eventbus.ConfigLoadedEvent, 1)
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) {
		loaded <- e.(eventbus.ConfigLoadedEvent)
	})

	_, err := NewConfigServiceWithBus(root, bus).Load()
	require.NoError(t, err)

	select {
	case ev := <-loaded:
		assert.Equal(t, ProjectPath(root), ev.Path)
		assert.Equal(t, "src", ev.Root)
	case <-time.After(2 * time.Second):
		t.Fatal("no ConfigLoaded event")
	}
}

func TestLoadFromPath_Errors(t *testing.T) {
	isolate(t)
	cs := NewConfigService("")
	dir := t.TempDir()

	_, err := cs.LoadFromPath(filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "not found")

	bad := filepath.Join(dir, "bad.toml")
	write(t, bad, "max_results = [")
	_, err = cs.LoadFromPath(bad)
	assert.ErrorContains(t, err, "failed to parse")

	negative := filepath.Join(dir, "neg.toml")
	write(t, negative, "max_results = -1\n")
	_, err = cs.LoadFromPath(negative)
	assert.ErrorContains(t, err, "max_results")

	pattern := filepath.Join(dir, "pattern.toml")
	write(t, pattern, "ignore_patterns = [\"[\"]\n")
	_, err = cs.LoadFromPath(pattern)
	assert.Error(t, err)
}

func TestSaveToPath_RoundTrip(t *testing.T) {
	isolate(t)
	bus := eventbus.New()
	defer bus.Close()
	saved := make(chan eventbus.ConfigSavedEvent, 1)
	bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) {
		saved <- e.(eventbus.ConfigSavedEvent)
	})

	cs := NewConfigServiceWithBus("", bus)
	path := filepath.Join(t.TempDir(), "nested", ProjectFileName)

	cfg := Default()
	cfg.IncludeContent = true
	cfg.IgnorePatterns = []string{"*.tmp"}
	cfg.Editor = "vim"
	require.NoError(t, cs.SaveToPath(cfg, path))

	got, err := cs.LoadFromPath(path)
	require.NoError(t, err)
	assert.True(t, got.IncludeContent)
	assert.Equal(t, []string{"*.tmp"}, got.IgnorePatterns)
	assert.Equal(t, "vim", got.Editor)

	select {
	case ev := <-saved:
		assert.Equal(t, path, ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("no ConfigSaved event")
	}
}

func TestPolicy(t *testing.T) {
	cfg := Default()
	cfg.IgnorePatterns = []string{"*.log"}
	cfg.HiddenPrefix = ""

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.True(t, p.ShouldSkip("debug.log", false))
	assert.False(t, p.ShouldSkip(".env.example", false))
	assert.True(t, p.ShouldSkip(".git", true))
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	cfg := Default()
	assert.Equal(t, "vi", cfg.EditorCommand())

	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", cfg.EditorCommand())

	cfg.Editor = "code -w"
	assert.Equal(t, "code -w", cfg.EditorCommand())
}
