// Command importer runs one-shot country and pincode imports.
//
//	importer countries    [--force]
//	importer pincodes-api [--api-key K] [--url U] [--limit N] [--start-offset N] [--format json|csv] [--sleep-ms N]
//	importer pincodes-csv [--path P] [--chunk N]
//	importer migrate
//
// Logs go to stderr; the run summary goes to stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/stwalsh4118/laundry/api/internal/config"
	"github.com/stwalsh4118/laundry/api/internal/database"
	"github.com/stwalsh4118/laundry/api/internal/importer"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/metrics"
	"github.com/stwalsh4118/laundry/api/internal/migration"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// env carries what every subcommand needs once configuration is loaded.
type env struct {
	cfg     *config.Config
	db      *database.Database
	repo    repository.ImportRepository
	metrics *metrics.ImportMetrics
	log     *logger.Logger
	stdout  io.Writer
}

type command struct {
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, e *env) error
}

var commands = map[string]command{
	"countries": {
		summary: "import countries and currencies from the public country APIs",
		flags: func(fs *pflag.FlagSet) {
			fs.Bool("force", false, "accepted for compatibility; rows are always overwritten")
		},
		run: runCountries,
	},
	"pincodes-api": {
		summary: "import Indian pincodes page by page from the government API",
		flags: func(fs *pflag.FlagSet) {
			fs.String("api-key", "", "API key (default $PINCODE_GOV_API_KEY)")
			fs.String("url", "", "resource URL (default $PINCODE_GOV_API_URL)")
			fs.Int("limit", 0, "page size (default $PINCODE_GOV_API_LIMIT)")
			fs.Int("start-offset", 0, "first record offset (default $PINCODE_GOV_API_START_OFFSET)")
			fs.String("format", "", "json or csv (default $PINCODE_GOV_API_FORMAT)")
			fs.Int("sleep-ms", 0, "delay between pages in milliseconds (default $PINCODE_GOV_API_SLEEP_MS)")
		},
		run: runPincodesAPI,
	},
	"pincodes-csv": {
		summary: "import Indian pincodes from a local CSV file",
		flags: func(fs *pflag.FlagSet) {
			fs.String("path", "", "CSV path, relative to $STORAGE_DIR unless absolute (default $PINCODE_CSV_PATH)")
			fs.Int("chunk", 0, "rows per write batch (default $PINCODE_CSV_CHUNK)")
		},
		run: runPincodesCSV,
	},
	"migrate": {
		summary: "apply pending database migrations",
		flags:   func(*pflag.FlagSet) {},
		run:     runMigrate,
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	name := args[0]
	if name == "-h" || name == "--help" || name == "help" {
		usage(stdout)
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return exitUsage
	}

	fs := newFlagSet(name)
	fs.SetOutput(stderr)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "%v\n\n", err)
		commandUsage(stderr, fs)
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return exitUsage
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}

	log := logger.NewWithWriter(stderr, cfg.Server.Env).With(logger.Fields{"command": name})

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", err, logger.Fields{"host": cfg.Database.Host, "name": cfg.Database.Name})
		fmt.Fprintf(stderr, "%s failed: %v\n", name, err)
		return exitFailure
	}
	defer db.Close()

	e := &env{
		cfg:     cfg,
		db:      db,
		repo:    repository.NewImportRepository(db),
		metrics: metrics.NewImportMetrics(prometheus.NewRegistry()),
		log:     log,
		stdout:  stdout,
	}

	if err := cmd.run(ctx, e); err != nil {
		fmt.Fprintf(stderr, "%s failed: %v\n", name, err)
		return exitFailure
	}
	return exitOK
}

// newFlagSet returns the flags of a known command, named after the config
// keys they override.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	commands[name].flags(fs)
	return fs
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: importer <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-13s %s\n", name, commands[name].summary)
	}
}

func commandUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "usage: importer %s [flags]\n", fs.Name())
	if flags := fs.FlagUsages(); flags != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, flags)
	}
}

// report prints the summary line; failed runs still print what they did.
func report(e *env, summary importer.Summary, err error) error {
	fmt.Fprintln(e.stdout, summary.String())
	return err
}

func runCountries(ctx context.Context, e *env) error {
	if e.cfg.Import.Force {
		e.log.Debug("--force has no effect; countries are always overwritten", nil)
	}
	fetcher := importer.NewCountryFetcher(
		&http.Client{Timeout: e.cfg.Import.CountryTimeout},
		e.cfg.Import.UserAgent,
		importer.DefaultCountrySources(),
		e.log,
	)
	summary, err := importer.NewCountryImporter(fetcher, e.repo, e.metrics, e.log).Run(ctx)
	return report(e, summary, err)
}

func runPincodesAPI(ctx context.Context, e *env) error {
	api := e.cfg.Import.PincodeAPI
	client := importer.NewPincodeAPIClient(&http.Client{Timeout: api.Timeout}, api.URL, api.APIKey, api.Format)
	imp := importer.NewPincodeAPIImporter(client, e.repo, importer.PincodeAPIOptions{
		URL:         api.URL,
		APIKey:      api.APIKey,
		Format:      api.Format,
		Limit:       api.Limit,
		StartOffset: api.StartOffset,
		Sleep:       time.Duration(api.SleepMS) * time.Millisecond,
	}, e.metrics, e.log)

	summary, err := imp.Run(ctx)
	return report(e, summary, err)
}

func runPincodesCSV(ctx context.Context, e *env) error {
	csv := e.cfg.Import.PincodeCSV
	imp := importer.NewPincodeCSVImporter(e.repo, importer.PincodeCSVOptions{
		Path:  importer.ResolvePath(csv.StorageDir, csv.Path),
		Chunk: csv.Chunk,
	}, e.metrics, e.log)

	summary, err := imp.Run(ctx)
	return report(e, summary, err)
}

func runMigrate(_ context.Context, e *env) error {
	if err := migration.RunMigrations(e.db.StdDB()); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "migrations: schema is up to date")
	return nil
}
