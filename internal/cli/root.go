package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExitCodeRootUnavailable is returned when the search root cannot be read
const ExitCodeRootUnavailable = 2

// ExitError carries a specific process exit code
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filegrip [root]",
		Short: "Interactive fuzzy finder for file names and file contents",
		Long: `filegrip searches the files under a directory as you type. Every
keystroke starts a new search and cancels the previous one, so the list
always reflects the latest query.

Press ctrl+t to switch between file name and content search.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          RunFinder,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: <root>/.filegrip.toml, then the user config)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file path")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolP("content", "c", false, "Search file contents as well as names")
	rootCmd.PersistentFlags().StringArrayP("ignore", "i", nil, "Extra ignore pattern (repeatable)")

	rootCmd.Flags().StringP("query", "q", "", "Initial query")
	rootCmd.Flags().Bool("print", false, "Print the selected location instead of opening an editor")
	rootCmd.Flags().Bool("watch", false, "Refresh results when files change")

	queryCmd := &cobra.Command{
		Use:   "query <text> [root]",
		Short: "Run one search and print the results",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  RunQuery,
	}
	queryCmd.Flags().Bool("json", false, "Print one JSON object per result")
	queryCmd.Flags().Int("limit", -1, "Maximum number of results (default: max_results from config)")

	initCmd := &cobra.Command{
		Use:   "init [root]",
		Short: "Write a default .filegrip.toml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "filegrip %s\n", version)
		},
	}

	rootCmd.AddCommand(
		queryCmd,
		initCmd,
		versionCmd,
	)

	return rootCmd
}
