package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"picklist/internal/archive"
	"picklist/internal/calendar"
	"picklist/internal/config"
	"picklist/internal/export"
	"picklist/internal/httpapi"
	"picklist/internal/logger"
	"picklist/internal/manifest"
	"picklist/internal/metrics"
	"picklist/internal/picking"
	"picklist/internal/publish"
	"picklist/internal/snapshot"
	"picklist/internal/source"
)

const manifestKey = "picklist-manifest-latest"

// Config holds CLI flags for picklist on top of the shared settings.
type Config struct {
	config.Config
	ConfigPath string
	Date       string
	Latest     bool
	Serve      bool
}

func main() {
	cfg, err := readFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "picklist: %v\n", err)
		os.Exit(2)
	}
	// stdout may carry the list itself
	log := logger.NewWithWriter(os.Stderr, "picklist", cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("picklist failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// readFlags parses args. When -config is given the file is applied over the
// defaults and flags set on the command line win over the file.
func readFlags(args []string) (Config, error) {
	cfg := Config{Config: config.Default()}
	fs := flag.NewFlagSet("picklist", flag.ContinueOnError)
	fs.StringVar(&cfg.ConfigPath, "config", "", "YAML config file")
	fs.StringVar(&cfg.Date, "date", "", "order date YYYY-MM-DD (default: most recent)")
	fs.BoolVar(&cfg.Latest, "latest", false, "print the last published snapshot and exit")
	fs.BoolVar(&cfg.Serve, "http", false, "serve the review API instead of printing")
	fs.StringVar(&cfg.Source.Kind, "source", cfg.Source.Kind, "order source: file|pebble|postgres")
	fs.StringVar(&cfg.Source.Orders, "orders", cfg.Source.Orders, "orders JSON or JSONL file")
	fs.StringVar(&cfg.Source.Mappings, "mappings", cfg.Source.Mappings, "product mappings JSON or YAML file")
	fs.StringVar(&cfg.Source.PebbleDir, "pebble-dir", cfg.Source.PebbleDir, "order archive directory")
	fs.StringVar(&cfg.Source.PostgresURL, "postgres-url", cfg.Source.PostgresURL, "postgres connection url")
	fs.StringVar(&cfg.Kafka.Bootstrap, "kafka-bootstrap", cfg.Kafka.Bootstrap, "kafka bootstrap servers, e.g. localhost:9092")
	fs.StringVar(&cfg.Kafka.PickingTopic, "topic-picking", cfg.Kafka.PickingTopic, "kafka topic for picking list rows (compacted)")
	fs.StringVar(&cfg.Kafka.ManifestTopic, "topic-manifest", cfg.Kafka.ManifestTopic, "kafka topic for manifest (compacted)")
	fs.StringVar(&cfg.Output.Format, "format", cfg.Output.Format, "output format: table|csv|json")
	fs.StringVar(&cfg.Output.Path, "out", cfg.Output.Path, "output file (default stdout)")
	fs.BoolVar(&cfg.Output.Quote, "quote", cfg.Output.Quote, "quote CSV fields")
	fs.StringVar(&cfg.Output.Sort, "sort", cfg.Output.Sort, "sort column: productId|name|boxType|quantity")
	fs.BoolVar(&cfg.Output.Desc, "desc", cfg.Output.Desc, "sort descending")
	fs.StringVar(&cfg.Output.Dir, "dir", cfg.Output.Dir, "directory for snapshots and published rows")
	fs.StringVar(&cfg.Output.PublishSink, "publish-sink", cfg.Output.PublishSink, "publish rows to: file|kafka|both")
	fs.StringVar(&cfg.Output.ManifestSink, "manifest-sink", cfg.Output.ManifestSink, "manifest sink: file|kafka|both")
	fs.BoolVar(&cfg.Output.Snapshot, "snapshot", cfg.Output.Snapshot, "write a snapshot and manifest for this run")
	fs.StringVar(&cfg.HTTP.Addr, "addr", cfg.HTTP.Addr, "listen address for -http")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug|info|warn|error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "text|json")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.ConfigPath != "" {
		explicit := map[string]string{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })
		if err := config.LoadFile(cfg.ConfigPath, &cfg.Config); err != nil {
			return cfg, err
		}
		for name, v := range explicit {
			if err := fs.Set(name, v); err != nil {
				return cfg, fmt.Errorf("flag -%s: %w", name, err)
			}
		}
	}

	if cfg.Date != "" {
		if _, err := calendar.ParseDate(cfg.Date); err != nil {
			return cfg, err
		}
	}
	if _, err := export.ParseSortKey(cfg.Output.Sort); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	if cfg.Latest {
		return printLatest(cfg, os.Stdout)
	}

	mreg := metrics.NewRegistry()
	orders, mappings, closeSources, err := openSources(ctx, cfg.Config, log)
	if err != nil {
		return err
	}
	defer closeSources()
	ds := source.LoadAll(ctx, log, mreg, orders, mappings)

	if cfg.Serve {
		return serve(ctx, cfg.HTTP.Addr, httpapi.NewServer(ds, mreg, log), log)
	}

	date := cfg.Date
	if date == "" {
		if dates := picking.AvailableDates(ds.Orders); len(dates) > 0 {
			date = dates[0]
		} else {
			log.Warn("no orders loaded, nothing to pick")
		}
	}

	gen := picking.NewGenerator(log, mreg)
	start := time.Now()
	items := gen.GeneratePickingList(ds.Orders, date, ds.Mappings)
	mreg.ObserveRun(len(picking.FilterByDate(ds.Orders, date)), len(items), time.Since(start).Seconds())

	runID := uuid.NewString()
	key, _ := export.ParseSortKey(cfg.Output.Sort)
	report := snapshot.Report{
		RunID:       runID,
		Date:        date,
		GeneratedAt: time.Now().UTC(),
		Summary:     picking.Summarize(ds.Orders, date),
		Items:       export.Sort(items, export.SortConfig{Key: key, Desc: cfg.Output.Desc}),
	}

	if err := writeOutput(cfg.Output, report); err != nil {
		return err
	}

	if cfg.Output.PublishSink != "" {
		w, closeW, err := openPublisher(cfg.Config)
		if err != nil {
			return err
		}
		n, err := publish.PublishList(w, runID, date, items)
		closeW()
		mreg.PublishedRows.Add(float64(n))
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		log.Info("picking list published", slog.String("run_id", runID), slog.Int("rows", n), slog.String("sink", cfg.Output.PublishSink))
	}

	if cfg.Output.Snapshot {
		snap := snapshot.NewFilesystemSnapshotter(cfg.Output.Dir)
		if err := snap.WriteSnapshot(report); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		if err := manifestPublisher(cfg.Config).PublishLatest(runID, date, len(items)); err != nil {
			return fmt.Errorf("publish manifest: %w", err)
		}
		log.Info("snapshot and manifest published", slog.String("run_id", runID))
	}

	log.Info("picking list generated",
		slog.String("run_id", runID),
		slog.String("date", date),
		slog.Int("orders", report.Summary.TotalOrders),
		slog.Int("rows", len(items)))
	return nil
}

// openSources returns the order and mapping sources for cfg and a func that
// releases them.
func openSources(ctx context.Context, cfg config.Config, log *slog.Logger) (source.OrderSource, source.MappingSource, func(), error) {
	mappings := source.MappingFile{Path: cfg.Source.Mappings}
	switch cfg.Source.Kind {
	case "pebble":
		a, err := archive.NewPebbleArchive(cfg.Source.PebbleDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init archive: %w", err)
		}
		return a, mappings, func() { _ = a.Close() }, nil
	case "postgres":
		pg, err := source.NewPostgres(ctx, cfg.Source.PostgresURL, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return pg, pg, pg.Close, nil
	default:
		return source.OrderFile{Path: cfg.Source.Orders}, mappings, func() {}, nil
	}
}

func openPublisher(cfg config.Config) (publish.Writer, func(), error) {
	var ws []publish.Writer
	closeFn := func() {}
	sink := cfg.Output.PublishSink
	if sink == "file" || sink == "both" {
		fw, err := publish.NewFileWriter(cfg.Output.Dir, "picking-list.jsonl")
		if err != nil {
			return nil, nil, fmt.Errorf("init publish file: %w", err)
		}
		ws = append(ws, fw)
	}
	if sink == "kafka" || sink == "both" {
		kw := publish.NewKafkaWriter(cfg.Kafka.Bootstrap, cfg.Kafka.PickingTopic)
		ws = append(ws, kw)
		closeFn = func() { _ = kw.Close() }
	}
	if len(ws) == 1 {
		return ws[0], closeFn, nil
	}
	return publish.NewMultiWriter(ws...), closeFn, nil
}

func manifestPublisher(cfg config.Config) manifest.Publisher {
	fsm := manifest.NewFilesystemManifest(cfg.Output.Dir)
	switch cfg.Output.ManifestSink {
	case "kafka":
		return manifest.NewKafkaManifest(cfg.Kafka.Bootstrap, cfg.Kafka.ManifestTopic, manifestKey)
	case "both":
		return manifest.MultiPublisher(fsm, manifest.NewKafkaManifest(cfg.Kafka.Bootstrap, cfg.Kafka.ManifestTopic, manifestKey))
	default:
		return fsm
	}
}

func manifestReader(cfg config.Config) manifest.Reader {
	if cfg.Output.ManifestSink == "kafka" {
		return manifest.NewKafkaReader(cfg.Kafka.Bootstrap, cfg.Kafka.ManifestTopic, manifestKey)
	}
	return manifest.NewFilesystemManifest(cfg.Output.Dir)
}

func printLatest(cfg Config, stdout io.Writer) error {
	snap := snapshot.NewFilesystemSnapshotter(cfg.Output.Dir)
	r, err := snap.LoadLatest(manifestReader(cfg.Config))
	if err != nil {
		return err
	}
	out := cfg.Output
	out.Path = ""
	return render(stdout, out, r)
}

func serve(ctx context.Context, addr string, s *httpapi.Server, log *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("review api listening", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down review api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
