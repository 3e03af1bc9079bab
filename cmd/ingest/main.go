package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"picklist/internal/archive"
	"picklist/internal/config"
	"picklist/internal/logger"
	"picklist/internal/metrics"
	"picklist/internal/source"
)

// Config holds CLI flags for ingest.
type Config struct {
	config.Config
	ConfigPath  string
	FromFile    string
	MaxMessages int
	Poll        time.Duration
	MetricsAddr string
}

func main() {
	cfg, err := readFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(2)
	}
	log := logger.New("ingest", cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ingest failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func readFlags(args []string) (Config, error) {
	cfg := Config{Config: config.Default()}
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.StringVar(&cfg.ConfigPath, "config", "", "YAML config file")
	fs.StringVar(&cfg.FromFile, "from-file", "", "import orders from a JSON or JSONL file instead of kafka")
	fs.IntVar(&cfg.MaxMessages, "max-messages", 0, "stop after this many kafka messages (0: until interrupted)")
	fs.DurationVar(&cfg.Poll, "poll", 5*time.Second, "kafka poll timeout")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "listen address for /metrics (empty: off)")
	fs.StringVar(&cfg.Source.PebbleDir, "pebble-dir", cfg.Source.PebbleDir, "order archive directory")
	fs.StringVar(&cfg.Kafka.Bootstrap, "kafka-bootstrap", cfg.Kafka.Bootstrap, "kafka bootstrap servers")
	fs.StringVar(&cfg.Kafka.OrdersTopic, "topic-orders", cfg.Kafka.OrdersTopic, "kafka topic carrying orders")
	fs.StringVar(&cfg.Kafka.GroupID, "group-id", cfg.Kafka.GroupID, "consumer group id")
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
	if cfg.FromFile == "" && cfg.Kafka.Bootstrap == "" {
		return cfg, errors.New("either -from-file or -kafka-bootstrap is required")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	a, err := archive.NewPebbleArchive(cfg.Source.PebbleDir)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}
	defer a.Close()

	mreg := metrics.NewRegistry()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", mreg.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn("metrics listener stopped", slog.Any("error", err))
			}
		}()
	}
	in := newIngester(a, mreg, log)

	if cfg.FromFile != "" {
		orders, err := source.OrderFile{Path: cfg.FromFile}.LoadOrders(ctx)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if _, err := in.store(o); err != nil {
				return err
			}
		}
		log.Info("import finished", slog.String("file", cfg.FromFile), slog.Any("counts", in.counts))
		return nil
	}
	return consume(ctx, cfg, in, log)
}

func consume(ctx context.Context, cfg Config, in *ingester, log *slog.Logger) error {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers":  cfg.Kafka.Bootstrap,
		"group.id":           cfg.Kafka.GroupID,
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
		"auto.offset.reset":  "earliest",
	})
	if err != nil {
		return fmt.Errorf("consumer: %w", err)
	}
	defer c.Close()
	if err := c.SubscribeTopics([]string{cfg.Kafka.OrdersTopic}, nil); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Info("ingest started", slog.String("topic", cfg.Kafka.OrdersTopic), slog.String("group_id", cfg.Kafka.GroupID))

	read := 0
	for ctx.Err() == nil {
		if cfg.MaxMessages > 0 && read >= cfg.MaxMessages {
			break
		}
		msg, err := c.ReadMessage(cfg.Poll)
		if err != nil {
			var kerr ck.Error
			if errors.As(err, &kerr) && kerr.IsTimeout() {
				continue
			}
			return fmt.Errorf("read: %w", err)
		}
		read++
		if _, err := in.handle(msg.Value); err != nil {
			// archive failures are not skipped; the offset stays uncommitted
			return err
		}
		if _, err := c.CommitMessage(msg); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	log.Info("ingest stopped", slog.Int("messages", read), slog.Any("counts", in.counts))
	return nil
}
