// Package main implements the vincheck HTTP API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/WessleyAI/vincheck/engine/checker"
	"github.com/WessleyAI/vincheck/engine/present"
	"github.com/WessleyAI/vincheck/engine/vpic"
	"github.com/WessleyAI/vincheck/pkg/metrics"
	"github.com/WessleyAI/vincheck/pkg/mid"
	"github.com/WessleyAI/vincheck/pkg/natsutil"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	CORSOrigin    string
	LogLevel      string
	DecodeURL     string
	RecallsURL    string
	ComplaintsURL string
	NATSURL       string
	NATSSubject   string
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		DecodeURL:     envOr("VPIC_DECODE_URL", vpic.DefaultDecodeURL),
		RecallsURL:    envOr("NHTSA_RECALLS_URL", vpic.DefaultRecallsURL),
		ComplaintsURL: envOr("NHTSA_COMPLAINTS_URL", vpic.DefaultComplaintsURL),
		NATSURL:       os.Getenv("NATS_URL"),
		NATSSubject:   envOr("NATS_SUBJECT", "vincheck.lookups"),
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
		return slog.LevelInfo
	}
	return l
}

func main() {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
	cfg := loadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &server{
		lookup: vpic.New(vpic.Config{
			DecodeURL:     cfg.DecodeURL,
			RecallsURL:    cfg.RecallsURL,
			ComplaintsURL: cfg.ComplaintsURL,
		}, nil),
		reg: metrics.New(),
		log: logger,
	}

	if cfg.NATSURL != "" {
		nc, err := natsutil.Connect(cfg.NATSURL, "vincheck-api", logger)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
		srv.sink = natsutil.NewPublisher[checker.LookupEvent](nc, cfg.NATSSubject)
		logger.Info("publishing lookup events", "subject", cfg.NATSSubject, "url", nc.ConnectedUrl())
	}

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.routes(cfg.CORSOrigin),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}

type server struct {
	lookup checker.Lookup
	sink   checker.EventSink
	reg    *metrics.Registry
	log    *slog.Logger
}

func (s *server) routes(corsOrigin string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/vin/{vin}", s.handleVIN)
	mux.Handle("GET /metrics", s.reg.Handler())

	return mid.Chain(mux,
		mid.Recover(s.log),
		mid.OTel("vincheck-api"),
		mid.Logger(s.log),
		mid.Metrics(s.reg),
		mid.CORS(corsOrigin),
	)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VINResponse is the JSON body for a completed lookup.
type VINResponse struct {
	Snapshot checker.Snapshot `json:"snapshot"`
	View     present.View     `json:"view"`
}

// ErrorResponse is the JSON body for a failed lookup.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// handleVIN runs one lookup cycle. Each request gets its own Checker so
// concurrent requests never supersede each other.
func (s *server) handleVIN(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("vin")
	ck := checker.New(s.lookup, checker.Options{Logger: s.log, Sink: s.sink, Metrics: s.reg})
	snap := ck.Submit(r.Context(), raw)

	if snap.Phase == checker.PhaseDecodeFailed && snap.Failure != nil {
		writeJSON(w, failureStatus(snap.Failure.Kind), ErrorResponse{
			Error: snap.Failure.Message,
			Kind:  snap.Failure.Kind.String(),
		})
		return
	}
	writeJSON(w, http.StatusOK, VINResponse{Snapshot: snap, View: present.Build(raw, snap, nil)})
}

func failureStatus(k checker.ErrorKind) int {
	if k == checker.ErrorDecodeTransport {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
