package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"filegrip/internal/domain"
	"filegrip/internal/search"
	"filegrip/internal/walker"
)

// queryItem is the JSON shape of one result line
type queryItem struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Score  int    `json:"score"`
}

// RunQuery runs a single search without the terminal UI
func RunQuery(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadSettings(cmd, rootArg(args, 1), nil)
	if err != nil {
		return err
	}
	logCloser, _, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logCloser.Close()

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		limit = cfg.MaxResults
	}

	sink := make(search.ChanSink, 1)
	s := search.NewScheduler(walker.New(policy), sink,
		search.WithMaxResults(limit),
		search.WithContext(cmd.Context()),
	)
	s.Update(args[0], root, cfg.IncludeContent)
	s.Wait()
	s.Close()

	var res domain.SearchResult
	select {
	case res = <-sink:
	default:
		return fmt.Errorf("search was cancelled")
	}

	if res.Status == domain.RunRootUnavailable {
		return &ExitError{Code: ExitCodeRootUnavailable, Err: res.Err}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	return printResult(cmd.OutOrStdout(), res, asJSON)
}

func printResult(out io.Writer, res domain.SearchResult, asJSON bool) error {
	if !asJSON {
		for _, it := range res.Items {
			if _, err := fmt.Fprintln(out, it.Label); err != nil {
				return err
			}
		}
		return nil
	}

	enc := json.NewEncoder(out)
	for _, it := range res.Items {
		item := queryItem{
			Path:  it.FullPath,
			Label: it.Label,
			Score: it.Score,
		}
		if it.Content {
			item.Line = it.LineNumber + 1
			item.Column = it.ColumnStart + 1
		}
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}
