package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"booru-sync/core/config"
	"booru-sync/core/database"
	"booru-sync/core/logger"
	"booru-sync/core/metrics"
	"booru-sync/core/ratelimit"
	"booru-sync/core/reconcile"
	"booru-sync/core/remote"
	"booru-sync/core/storage"
	"booru-sync/feature/postversions"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
)

// runOptions are the command line overrides of a pass.
type runOptions struct {
	ConfigDir       string
	NoProgress      bool
	StalePolicy     string
	MetricsTextfile string
}

// run performs one reconciliation pass.
// out receives the check report, errOut receives prompts, the summary table and the progress bar.
func run(ctx context.Context, o runOptions, args []string, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	cfg, err := config.LoadConfig(o.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.StalePolicy != "" {
		cfg.Sync.StalePolicy = o.StalePolicy
	}
	if o.MetricsTextfile != "" {
		cfg.Metrics.Textfile = o.MetricsTextfile
	}

	// Step 1: Arguments (prompt for what is missing)
	sqliteStore := cfg.Database.Driver == database.DriverSQLite || cfg.Database.Driver == ""
	modeArg, storeArg, err := resolveArgs(args, bufio.NewReader(in), errOut, sqliteStore)
	if err != nil {
		return err
	}

	mode, err := reconcile.ParseMode(modeArg)
	if err != nil {
		return err
	}
	if sqliteStore {
		if _, err := os.Stat(storeArg); err != nil {
			return &reconcile.UsageError{Msg: fmt.Sprintf("store %q does not exist", storeArg)}
		}
		cfg.Database.Name = storeArg
	} else if storeArg != "" {
		cfg.Database.Name = storeArg
	}

	stale, err := reconcile.ParseStalePolicy(cfg.Sync.StalePolicy)
	if err != nil {
		return &reconcile.UsageError{Msg: err.Error()}
	}
	if mode.Fills() {
		if err := cfg.Sync.Limits().Validate(); err != nil {
			return &reconcile.UsageError{Msg: err.Error()}
		}
		if err := cfg.Danbooru.Validate(); err != nil {
			return err
		}
	}

	// Step 2: Logger
	base, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	runID := uuid.NewString()
	l := logger.WithRun(base, runID, mode.String())
	defer func() { _ = l.Sync() }()

	// Step 3: Remote (fill modes only, before touching the store)
	var fetcher reconcile.Fetcher
	if mode.Fills() {
		client := remote.NewClient(cfg.Danbooru, l)
		profile, err := client.CheckLogin(ctx)
		if err != nil {
			return err
		}
		l.Info("Logged in", zap.String("name", profile.Name), zap.Uint64("id", profile.ID))
		fetcher = postversions.NewFetcher(client, l)
	}

	// Step 4: Store
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return &reconcile.StoreError{Op: "open", Err: err}
	}
	defer func() { _ = database.Close(db) }()

	store := postversions.NewStore(db, l)
	if err := store.Verify(ctx); err != nil {
		return err
	}

	// Step 5: Pass
	var recorder *metrics.Pass
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewPass(mode.String(), runID)
	}

	driver := &reconcile.Driver{
		Store:    store,
		Fetcher:  fetcher,
		Limiter:  ratelimit.NewWindow(cfg.Sync.RateLimit, cfg.Sync.Window()),
		Analyzer: reconcile.NewAnalyzer(stale, l),
		Logger:   l,
		Out:      out,
		Limits:   cfg.Sync.Limits(),
	}
	if recorder != nil {
		driver.Recorder = recorder
	}
	if !o.NoProgress && mode.Fills() {
		driver.Progress = newProgressBar(errOut, progressLabel(mode))
	}

	l.Info("Starting reconciliation", zap.String("store", cfg.Database.Name))
	result, runErr := driver.Run(ctx, mode)

	if result != nil {
		printSummary(errOut, result)
		if recorder != nil {
			a := result.Analysis
			recorder.SetMissing(len(a.Gaps), a.Summary.MissingIDs, len(a.Missing))
		}
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			l.Warn("Metrics not written", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	// Step 6: Export (check mode only)
	if mode == reconcile.ModeCheck && cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return err
		}
		if _, err := postversions.NewExporter(client, cfg.Storage, l).Export(ctx, runID, result.Analysis.Missing); err != nil {
			return err
		}
	}

	l.Info("Reconciliation finished", zap.String("took", humanize.RelTime(started, time.Now(), "", "")))
	return nil
}

// resolveArgs returns the mode and store arguments, prompting for the missing ones.
func resolveArgs(args []string, in *bufio.Reader, out io.Writer, storeRequired bool) (string, string, error) {
	var mode, store string
	if len(args) > 0 {
		mode = args[0]
	}
	if len(args) > 1 {
		store = args[1]
	}

	var err error
	if mode == "" {
		if mode, err = prompt(in, out, "fetch_by (check, post, version): "); err != nil {
			return "", "", err
		}
	}
	if store == "" && storeRequired {
		if store, err = prompt(in, out, "store (sqlite file): "); err != nil {
			return "", "", err
		}
	}
	return mode, store, nil
}

// prompt asks a question and returns the trimmed answer. An empty answer is a usage error.
func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	answer, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", &reconcile.UsageError{Msg: "usage: booru-sync [check|post|version] [store]"}
	}
	return answer, nil
}

func progressLabel(mode reconcile.Mode) string {
	if mode == reconcile.ModeFillByRevision {
		return "Fetching versions"
	}
	return "Fetching ranges"
}

// printSummary prints the analysis and pass counters as a table.
func printSummary(out io.Writer, result *reconcile.Result) {
	a := result.Analysis
	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Analysis", "Count"})
	tbl.AppendRows([]table.Row{
		{"Records scanned", humanize.Comma(int64(a.Summary.Records))},
		{"Missing id ranges", humanize.Comma(int64(len(a.Gaps)))},
		{"Missing ids", humanize.Comma(int64(a.Summary.MissingIDs))},
		{"Missing versions", humanize.Comma(int64(len(a.Missing)))},
		{"Posts with missing versions", humanize.Comma(int64(a.Summary.ItemsWithMissing))},
	})
	if result.Pass.Requests > 0 {
		tbl.AppendSeparator()
		tbl.AppendRows([]table.Row{
			{"Requests", humanize.Comma(int64(result.Pass.Requests))},
			{"Fetched records", humanize.Comma(int64(result.Pass.Fetched))},
			{"Commits", humanize.Comma(int64(result.Pass.Commits))},
		})
	}
	tbl.Render()
}
