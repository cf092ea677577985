package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"filegrip/internal/config"
)

// RunInit writes a default project config into root
func RunInit(cmd *cobra.Command, args []string) error {
	root := rootArg(args, 0)
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	path := config.ProjectPath(root)
	force, _ := cmd.Flags().GetBool("force")
	if fileExists(path) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	cfg.IgnorePatterns = []string{}
	if err := config.NewConfigService(root).SaveToPath(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
