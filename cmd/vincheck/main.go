// Command vincheck looks up a VIN against the NHTSA vehicle APIs from the
// terminal. Each stdin line is a VIN or a ":" command; -vin runs one lookup
// and exits; -watch tails lookup events from NATS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/WessleyAI/vincheck/engine/checker"
	"github.com/WessleyAI/vincheck/engine/vpic"
	"github.com/WessleyAI/vincheck/pkg/metrics"
	"github.com/WessleyAI/vincheck/pkg/natsutil"
)

type Config struct {
	LogLevel      string
	DecodeURL     string
	RecallsURL    string
	ComplaintsURL string
	NATSURL       string
	NATSSubject   string
	MetricsPort   int
}

func loadConfig() Config {
	port, _ := strconv.Atoi(os.Getenv("METRICS_PORT"))
	return Config{
		LogLevel:      envOr("LOG_LEVEL", "warn"),
		DecodeURL:     envOr("VPIC_DECODE_URL", vpic.DefaultDecodeURL),
		RecallsURL:    envOr("NHTSA_RECALLS_URL", vpic.DefaultRecallsURL),
		ComplaintsURL: envOr("NHTSA_COMPLAINTS_URL", vpic.DefaultComplaintsURL),
		NATSURL:       os.Getenv("NATS_URL"),
		NATSSubject:   envOr("NATS_SUBJECT", "vincheck.lookups"),
		MetricsPort:   port,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return l
}

func main() {
	vin := flag.String("vin", "", "look up one VIN, print the result, and exit")
	watch := flag.Bool("watch", false, "print lookup events published to NATS_SUBJECT")
	flag.Parse()

	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
	cfg := loadConfig()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *watch:
		err = runWatch(ctx, cfg, os.Stdout, logger)
	default:
		err = run(ctx, cfg, *vin, os.Stdin, os.Stdout, logger)
	}
	if err != nil {
		logger.Error("vincheck failed", "err", err)
		os.Exit(1)
	}
}

// run looks up vin when it is set; otherwise it serves stdin until EOF or :quit.
func run(ctx context.Context, cfg Config, vin string, in io.Reader, out io.Writer, logger *slog.Logger) error {
	reg := metrics.New()
	if cfg.MetricsPort > 0 {
		reg.ServeAsync(ctx, cfg.MetricsPort, logger)
	}

	opts := checker.Options{Logger: logger, Metrics: reg}
	if cfg.NATSURL != "" {
		nc, err := natsutil.Connect(cfg.NATSURL, "vincheck", logger)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
		opts.Sink = natsutil.NewPublisher[checker.LookupEvent](nc, cfg.NATSSubject)
	}

	lookup := vpic.New(vpic.Config{
		DecodeURL:     cfg.DecodeURL,
		RecallsURL:    cfg.RecallsURL,
		ComplaintsURL: cfg.ComplaintsURL,
	}, nil)

	if vin != "" {
		s := newSession(lookup, opts, out, false)
		snap := s.submit(ctx, vin)
		if snap.Phase == checker.PhaseDecodeFailed {
			return errLookupFailed
		}
		return nil
	}
	return newSession(lookup, opts, out, true).serve(ctx, in)
}

var errLookupFailed = errors.New("lookup failed")

// runWatch prints one line per lookup event until ctx is done.
func runWatch(ctx context.Context, cfg Config, out io.Writer, logger *slog.Logger) error {
	if cfg.NATSURL == "" {
		return errors.New("-watch needs NATS_URL")
	}
	nc, err := natsutil.Connect(cfg.NATSURL, "vincheck-watch", logger)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	sub, err := natsutil.Subscribe(nc, cfg.NATSSubject, func(_ context.Context, ev checker.LookupEvent) {
		fmt.Fprintln(out, formatEvent(ev))
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.NATSSubject, err)
	}
	defer sub.Unsubscribe()

	logger.Info("watching lookup events", "subject", cfg.NATSSubject)
	<-ctx.Done()
	return nil
}

func formatEvent(ev checker.LookupEvent) string {
	vehicle := "-"
	if ev.Vehicle != nil {
		vehicle = ev.Vehicle.ModelYear + " " + ev.Vehicle.Make + " " + ev.Vehicle.Model
	}
	line := fmt.Sprintf("%s cycle=%d vin=%s outcome=%s vehicle=%q recalls=%d complaints=%d took=%dms",
		ev.At.Format("15:04:05"), ev.Cycle, ev.VIN, ev.Outcome, vehicle, ev.Recalls, ev.Complaints, ev.DurationMS)
	if ev.ErrorKind != checker.ErrorNone {
		line += " error=" + ev.ErrorKind.String()
	}
	return line
}
