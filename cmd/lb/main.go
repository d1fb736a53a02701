package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vanderheijden86/listbind/internal/datasource"
	"github.com/vanderheijden86/listbind/pkg/binding"
	"github.com/vanderheijden86/listbind/pkg/config"
	"github.com/vanderheijden86/listbind/pkg/debug"
	"github.com/vanderheijden86/listbind/pkg/metrics"
	"github.com/vanderheijden86/listbind/pkg/obslist"
	"github.com/vanderheijden86/listbind/pkg/ui"
	"github.com/vanderheijden86/listbind/pkg/version"
	"github.com/vanderheijden86/listbind/pkg/watcher"
)

type options struct {
	data       string
	configPath string
	dataset    string
	columns    string
	sortCol    string
	desc       bool
	dump       bool
	watch      bool
	lazy       bool
	save       bool
	metrics    bool
	cpuProfile string
}

func main() {
	var o options
	flag.StringVar(&o.data, "data", "", "Comma-separated data files or directories (default: config, then .)")
	flag.StringVar(&o.configPath, "config", "", "Config file (default: "+config.ConfigPath()+")")
	flag.StringVar(&o.dataset, "dataset", "", "Named dataset from the config")
	flag.StringVar(&o.columns, "columns", "", "Column list, e.g. \"_:Task, points_, done\"")
	flag.StringVar(&o.sortCol, "sort", "", "Sort the roots by this column after loading")
	flag.BoolVar(&o.desc, "desc", false, "Sort descending (with -sort)")
	flag.BoolVar(&o.dump, "dump", false, "Print the whole tree instead of starting the TUI")
	flag.BoolVar(&o.watch, "watch", false, "Reload when a data file changes")
	flag.BoolVar(&o.lazy, "lazy", false, "Load SQLite children on expand")
	flag.BoolVar(&o.save, "save", false, "Write the edited tree back to the data file on exit")
	flag.BoolVar(&o.metrics, "metrics", false, "Print timing metrics on exit")
	flag.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("lb %s\n", version.String())
		return
	}

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "lb: %v\n", err)
		os.Exit(1)
	}
}

func run(o options) error {
	if o.cpuProfile != "" {
		f, err := os.Create(o.cpuProfile)
		if err != nil {
			return fmt.Errorf("create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}
	if o.metrics {
		defer printMetrics(os.Stderr)
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, o)

	paths := dataPaths(cfg, o)
	files, err := resolveFiles(paths)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		nodes []*datasource.Node
		tree  = datasource.TreeSource()
		store *datasource.SQLiteStore
	)
	if cfg.Data.Lazy {
		if len(files) != 1 || filepath.Ext(files[0]) != ".db" {
			return errors.New("-lazy needs exactly one SQLite file")
		}
		if store, err = datasource.OpenSQLite(files[0], !o.save); err != nil {
			return err
		}
		defer store.Close()
		if nodes, err = store.Roots(ctx); err != nil {
			return err
		}
		tree = store.TreeSource(ctx)
	} else {
		var results []datasource.LoadResult
		nodes, results, err = datasource.LoadAll(ctx, files)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Error != nil {
				fmt.Fprintf(os.Stderr, "lb: skipping %s: %v\n", r.Path, r.Error)
			}
		}
	}

	columns := cfg.Columns
	if o.dataset != "" {
		columns = cfg.ColumnsFor(o.dataset)
	}
	if o.columns != "" {
		columns = o.columns
	}
	cols, err := binding.ParseColumns(columns)
	if err != nil {
		return err
	}

	rl := newReloader(files, nodes)
	view := ui.NewTreeView(ui.DefaultTheme(lipgloss.DefaultRenderer()),
		ui.WithIcons(icons(cfg.UI)),
		ui.WithReorder(cfg.UI.AllowReorder),
		ui.WithAutoEdit(cfg.UI.AutoEditAdded),
		ui.WithLoader(rl.Load),
	)
	b, err := newBinding(cols, view, tree, cfg.UI.SortingAllowed())
	if err != nil {
		return err
	}
	if err := b.SetList(datasource.Items(nodes)); err != nil {
		return err
	}
	if cfg.Sort.Column != "" {
		if err := b.SortBy(cfg.Sort.Column, !cfg.Sort.Descending); err != nil {
			return err
		}
	}

	if o.dump || !term.IsTerminal(int(os.Stdout.Fd())) {
		return dump(os.Stdout, b)
	}

	if debug.Enabled() {
		// The TUI owns the terminal; keep the trace readable in a file.
		f, err := os.Create(filepath.Join(os.TempDir(), "lb-debug.log"))
		if err != nil {
			return err
		}
		defer f.Close()
		debug.SetOutput(f)
	}

	p := tea.NewProgram(view, tea.WithAltScreen(), tea.WithoutSignalHandler())

	if cfg.Data.Watch && store == nil {
		w, err := watcher.NewWatcher(files,
			watcher.WithDebounceDuration(cfg.Data.Debounce),
			watcher.WithOnChange(func(changed []string) {
				debug.Log("lb: changed %v", changed)
				items, summary, err := rl.Load()
				if err != nil {
					p.Send(ui.ErrMsg{Err: err})
					return
				}
				p.Send(ui.ReloadMsg{Items: items, Summary: summary})
			}),
			watcher.WithOnError(func(err error) { p.Send(ui.ErrMsg{Err: err}) }),
		)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
	}

	if err := runTUIProgram(p); err != nil {
		return err
	}
	if o.save {
		return save(ctx, b, files, store)
	}
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	cfg, err := config.Load()
	if err != nil {
		// A broken user config should not keep the viewer from starting.
		debug.Log("lb: config: %v", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, o options) {
	if o.sortCol != "" {
		cfg.Sort = config.SortConfig{Column: o.sortCol, Descending: o.desc}
	}
	if o.watch {
		cfg.Data.Watch = true
	}
	if o.lazy {
		cfg.Data.Lazy = true
	}
}

// dataPaths picks the data location: -data, then -dataset, then the config,
// then the working directory.
func dataPaths(cfg config.Config, o options) []string {
	if paths := splitList(o.data); len(paths) > 0 {
		return paths
	}
	if o.dataset != "" {
		if ds := cfg.FindDataset(o.dataset); ds != nil {
			return []string{ds.ResolvedPath()}
		}
	}
	if len(cfg.Data.Paths) > 0 {
		return cfg.Data.Paths
	}
	return []string{"."}
}

func icons(u config.UIConfig) ui.Icons {
	ic := ui.DefaultIcons()
	if u.SortAscIcon != "" {
		ic.SortAsc = u.SortAscIcon
	}
	if u.SortDescIcon != "" {
		ic.SortDesc = u.SortDescIcon
	}
	if u.ExpandedIcon != "" {
		ic.Expanded = u.ExpandedIcon
	}
	if u.CollapsedIcon != "" {
		ic.Collapsed = u.CollapsedIcon
	}
	return ic
}

// newBinding binds cols to view. The label column reads the node text and
// writes the label field, so it can be edited.
func newBinding(cols []binding.Column, view *ui.TreeView, tree obslist.TreeSource, allowSorting bool) (*binding.Binding, error) {
	next := 0
	b, err := binding.New(cols,
		binding.WithView(view),
		binding.WithTreeSource(tree),
		binding.WithAllowSorting(allowSorting),
		binding.WithFactory(func() (any, error) {
			next++
			return &datasource.Node{
				ID:    "new-" + strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.Itoa(next),
				Label: "New item",
			}, nil
		}),
	)
	if err != nil {
		return nil, err
	}
	view.Bind(b)
	if err := b.Sources(nil, [2]any{"", "label"}); err != nil {
		return nil, err
	}
	return b, nil
}

func save(ctx context.Context, b *binding.Binding, files []string, store *datasource.SQLiteStore) error {
	if len(files) != 1 {
		return errors.New("-save needs exactly one data file")
	}
	if store == nil && filepath.Ext(files[0]) == ".db" {
		var err error
		if store, err = datasource.OpenSQLite(files[0], false); err != nil {
			return err
		}
		defer store.Close()
	}
	if store != nil {
		return saveLevel(ctx, store, b.List(), "")
	}
	return datasource.WriteFile(files[0], snapshot(b.List()))
}

// saveLevel writes the loaded part of l to store. Known rows get their
// fields updated and keep their place; rows added in the view are inserted
// below parentID. Failures are collected so one bad row does not stop the
// rest from being saved.
func saveLevel(ctx context.Context, store *datasource.SQLiteStore, l *obslist.List, parentID string) error {
	var errs []error
	for i := range l.Len() {
		n, ok := l.At(i).(*datasource.Node)
		if !ok {
			continue
		}
		if err := store.SaveNode(ctx, parentID, i, n); err != nil {
			errs = append(errs, err)
			continue
		}
		if c := l.ChildAt(i); c != nil {
			errs = append(errs, saveLevel(ctx, store, c, n.ID))
		}
	}
	return errors.Join(errs...)
}

func runTUIProgram(p *tea.Program) error {
	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set LB_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("LB_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-runDone:
				case <-timer.C:
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

func printMetrics(w io.Writer) {
	for _, s := range metrics.AllTimingStats() {
		fmt.Fprintf(w, "%-16s n=%-6d avg=%.3fms max=%.3fms\n", s.Name, s.Count, s.AvgMs, s.MaxMs)
	}
	for _, c := range metrics.AllCounters() {
		if c.Value() > 0 {
			fmt.Fprintf(w, "%-16s %d\n", c.Name(), c.Value())
		}
	}
}
