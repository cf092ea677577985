package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"filegrip/internal/config"
	"filegrip/internal/eventbus"
	"filegrip/internal/logger"
)

// loadSettings resolves the config file, applies command line overrides and
// returns the config with the absolute search root.
func loadSettings(cmd *cobra.Command, rootArg string, bus eventbus.EventBus) (*config.Config, string, error) {
	lookup := rootArg
	if lookup == "" {
		lookup = "."
	}
	svc := config.NewConfigServiceWithBus(lookup, bus)

	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = svc.LoadFromPath(path)
	} else {
		cfg, err = svc.Load()
	}
	if err != nil {
		return nil, "", err
	}

	root := rootArg
	if root == "" && cfg.Root != "" {
		root = cfg.Root
		if !filepath.IsAbs(root) && cfg.Source != "" {
			root = filepath.Join(filepath.Dir(cfg.Source), root)
		}
	}
	if root == "" {
		root = "."
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve root: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("content") {
		cfg.IncludeContent, _ = flags.GetBool("content")
	}
	if extra, _ := flags.GetStringArray("ignore"); len(extra) > 0 {
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, extra...)
	}
	if flags.Lookup("watch") != nil && flags.Changed("watch") {
		cfg.Watch, _ = flags.GetBool("watch")
	}
	if v, _ := flags.GetString("log-file"); v != "" {
		cfg.LogFile = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// setupLogging sends logs to the configured file, or to fallback when no
// file is configured and fallback is not nil. The returned closer is never nil;
// the path is the log file in use, empty when logging to fallback.
func setupLogging(cfg *config.Config, fallback io.Writer) (io.Closer, string, error) {
	if err := logger.Configure(cfg.LogLevel); err != nil {
		return nil, "", err
	}
	if cfg.LogFile == "" && fallback != nil {
		logger.Root().SetOutput(fallback)
		return io.NopCloser(nil), "", nil
	}
	closer, path, err := logger.SetupFile(cfg.LogFile)
	if err != nil {
		return nil, "", fmt.Errorf("could not open log file: %w", err)
	}
	return closer, path, nil
}

func rootArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
