// Package main is the Cardstock companion: an interactive terminal
// browser and editor for a gacha card inventory, with bulk import,
// export, and report modes for scripted use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gashapon-labs/cardstock/internal/auth"
	"github.com/gashapon-labs/cardstock/internal/browse"
	"github.com/gashapon-labs/cardstock/internal/bulkimport"
	"github.com/gashapon-labs/cardstock/internal/config"
	"github.com/gashapon-labs/cardstock/internal/events"
	"github.com/gashapon-labs/cardstock/internal/export"
	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
	"github.com/gashapon-labs/cardstock/internal/journal"
	"github.com/gashapon-labs/cardstock/internal/report"
	"github.com/gashapon-labs/cardstock/internal/tui"
	"github.com/gashapon-labs/cardstock/internal/version"
)

var (
	// Connection and scope flags, all overriding the config file.
	configFile = flag.String("config", "", "Path to an alternate config.toml")
	apiBaseURL = flag.String("api", "", "Card service base URL (overrides config)")
	collection = flag.String("collection", "", "Collection to operate on (overrides config)")

	// Mode flags. Without one of these the interactive browser runs.
	importPath = flag.String("import", "", "Bulk-import the given YAML manifest and exit")
	exportPath = flag.String("export", "", "Export cards to the given .csv/.json[.zst] file and exit")
	reportPath = flag.String("report", "", "Write an HTML statistics report to the given file and exit")

	openReport  = flag.Bool("open", false, "Open the finished report in the default browser")
	overwrite   = flag.Bool("overwrite", false, "Replace the export target if it already exists")
	verbose     = flag.Bool("verbose", false, "Log at debug level")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("cardstock %s\n", version.GetVersion())
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *apiBaseURL != "" {
		cfg.API.BaseURL = *apiBaseURL
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	timeout, err := cfg.APITimeout()
	if err != nil {
		log.Fatalf("Invalid api.timeout: %v", err)
	}
	svc := client.New(client.Config{BaseURL: cfg.API.BaseURL, Timeout: timeout})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var runErr error
	switch {
	case *importPath != "":
		runErr = runImport(ctx, svc, logger)
	case *exportPath != "":
		runErr = runExport(ctx, svc, cfg, logger)
	case *reportPath != "":
		runErr = runReport(ctx, svc, cfg, logger)
	default:
		runErr = runBrowser(ctx, svc, cfg, logger)
	}

	stop()
	closeLog()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "cardstock: %v\n", runErr)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configFile != "" {
		return config.LoadFile(*configFile)
	}
	return config.Load()
}

// newLogger writes to the config log file. The terminal belongs to
// the browser screen or the mode summaries, never to log lines.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level := cfg.LogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}

// targetCollection applies the flag-over-config precedence.
func targetCollection(cfg *config.Config) string {
	if *collection != "" {
		return *collection
	}
	return cfg.API.DefaultCollection
}

func displayCollection(name string) string {
	if name == "" {
		return "the default collection"
	}
	return name
}

func isTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func runImport(ctx context.Context, svc *client.Client, logger *slog.Logger) error {
	importer := bulkimport.NewImporter(svc, logger)
	summary, err := importer.Run(ctx, bulkimport.Options{
		ManifestPath: *importPath,
		Collection:   *collection,
		ShowProgress: isTTY(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d/%d cards into %s\n",
		summary.Uploaded, summary.Total, displayCollection(summary.Collection))
	for _, failure := range summary.Failed {
		fmt.Printf("  failed: %v\n", failure)
	}
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d rows failed", len(summary.Failed), summary.Total)
	}
	return nil
}

func runExport(ctx context.Context, svc *client.Client, cfg *config.Config, logger *slog.Logger) error {
	exporter := export.NewExporter(svc, logger)
	summary, err := exporter.Export(ctx, export.Options{
		Path:         *exportPath,
		Collection:   targetCollection(cfg),
		Passphrase:   os.Getenv("CARDSTOCK_EXPORT_PASSPHRASE"),
		Overwrite:    *overwrite,
		ShowProgress: isTTY(),
	})
	if err != nil {
		return err
	}

	desc := string(summary.Format)
	if summary.Compressed {
		desc += ", zstd"
	}
	if summary.Encrypted {
		desc += ", encrypted"
	}
	fmt.Printf("Exported %d cards from %s to %s (%s, %d bytes)\n",
		summary.Cards, displayCollection(summary.Collection), summary.Path, desc, summary.Bytes)
	return nil
}

func runReport(ctx context.Context, svc *client.Client, cfg *config.Config, logger *slog.Logger) error {
	generator := report.NewGenerator(svc, logger)
	summary, err := generator.Generate(ctx, report.Options{
		Path:        *reportPath,
		Collection:  targetCollection(cfg),
		OpenBrowser: *openReport,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Report on %d cards written to %s\n", summary.Cards, summary.Path)
	if summary.Opened {
		fmt.Println("Opened in the default browser")
	}
	return nil
}

func runBrowser(ctx context.Context, svc *client.Client, cfg *config.Config, logger *slog.Logger) error {
	dispatcher := events.NewDispatcher(logger)
	dispatcher.Register(events.NewLoggingObserver(logger))

	if cfg.Journal.Enabled {
		path, err := cfg.JournalPath()
		if err != nil {
			return err
		}
		db, err := journal.Open(journal.DefaultConfig(path))
		if err != nil {
			// Browsing works without the journal; record the
			// failure and move on.
			logger.Warn("journal disabled", "error", err)
		} else {
			defer db.Close()
			recorder := journal.NewRecorder(journal.NewRepository(db.Conn()), journal.SourceTUI, logger)
			dispatcher.Register(recorder)
		}
	}

	store := browse.New(svc, browse.Options{
		Collection: targetCollection(cfg),
		SortBy:     gacha.SortField(cfg.Browse.SortBy),
		SortOrder:  gacha.SortOrder(cfg.Browse.SortOrder),
		PerPage:    cfg.Browse.PerPage,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	gate, sessionHint, err := newGate(cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := gate.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	model := tui.New(tui.Params{
		Store:       store,
		Service:     svc,
		Gate:        gate,
		Dispatcher:  dispatcher,
		Logger:      logger,
		SessionHint: sessionHint,
		Context:     ctx,
	})
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	dispatcher.Register(tui.Notifier(program))

	if _, err := program.Run(); err != nil {
		// A signal cancels the program context; that is a normal exit.
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	}
	return nil
}

// newGate picks the session gate for the configured auth mode. When
// sign-in is not required a static gate admits immediately.
func newGate(cfg *config.Config, logger *slog.Logger) (auth.Gate, string, error) {
	if !cfg.Auth.Required {
		return auth.NewStaticGate(auth.StateSignedIn), "", nil
	}
	path, err := cfg.SessionPath()
	if err != nil {
		return nil, "", err
	}
	gate, err := auth.NewSessionGate(path, logger)
	if err != nil {
		return nil, "", err
	}
	return gate, path, nil
}
