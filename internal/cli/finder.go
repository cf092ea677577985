package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"filegrip/internal/eventbus"
	"filegrip/internal/logger"
	"filegrip/internal/search"
	"filegrip/internal/ui"
	"filegrip/internal/walker"
	"filegrip/internal/watch"
)

// uiEvents are forwarded from the bus to the running program
var uiEvents = []eventbus.EventType{
	eventbus.EventSearchStarted,
	eventbus.EventSearchCompleted,
	eventbus.EventSearchFailed,
	eventbus.EventSearchDiscarded,
	eventbus.EventFilesChanged,
	eventbus.EventError,
}

// RunFinder launches the interactive finder
func RunFinder(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New()
	defer bus.Close()

	cfg, root, err := loadSettings(cmd, rootArg(args, 0), bus)
	if err != nil {
		return err
	}
	logCloser, logPath, err := setupLogging(cfg, nil)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	log := logger.Named("finder").WithField("root", root)
	log.WithField("config", cfg.Source).WithField("log", logPath).Info("starting")

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	w := walker.New(policy)
	if err := w.CheckRoot(root); err != nil {
		return &ExitError{Code: ExitCodeRootUnavailable, Err: err}
	}

	g, ctx := errgroup.WithContext(ctx)

	scheduler := search.NewService(bus, w,
		search.WithMaxResults(cfg.MaxResults),
		search.WithContext(ctx),
	)
	defer scheduler.Close()

	query, _ := cmd.Flags().GetString("query")
	printMode, _ := cmd.Flags().GetBool("print")
	model := ui.NewModel(bus, ui.Options{
		Root:           root,
		Query:          query,
		IncludeContent: cfg.IncludeContent,
		Watch:          cfg.Watch,
		PrintMode:      printMode,
		Editor:         cfg.EditorCommand(),
	})

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if printMode {
		// keep stdout clean for the printed location
		opts = append(opts, tea.WithOutput(os.Stderr))
	}
	p := tea.NewProgram(model, opts...)

	events := make(chan eventbus.DomainEvent, 100)
	for _, t := range uiEvents {
		bus.Subscribe(t, func(e eventbus.DomainEvent) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})
	}

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e := <-events:
				p.Send(ui.EventMsg{Event: e})
			}
		}
	})

	if cfg.Watch {
		watcher, err := watch.New(root, policy, bus, cfg.Debounce(), watch.WithExcludedPaths(logPath))
		if err != nil {
			log.Warnf("file watching disabled: %v", err)
		} else {
			g.Go(func() error {
				return watcher.Run(ctx)
			})
		}
	}

	g.Go(func() error {
		defer stop()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("finder: %w", err)
	}

	if item, ok := model.Selected(); ok {
		fmt.Fprintln(cmd.OutOrStdout(), item.Location())
	}
	return nil
}
