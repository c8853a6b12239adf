package checker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/WessleyAI/vincheck/engine/decode"
	"github.com/WessleyAI/vincheck/engine/domain"
	"github.com/WessleyAI/vincheck/engine/vpic"
	"github.com/WessleyAI/vincheck/pkg/fn"
	"github.com/WessleyAI/vincheck/pkg/metrics"
)

// Lookup is the remote data provider. *vpic.Client implements it.
type Lookup interface {
	DecodeVIN(ctx context.Context, vin domain.VIN) ([]vpic.DecodeResult, error)
	Recalls(ctx context.Context, make_, model, year string) ([]domain.Recall, error)
	Complaints(ctx context.Context, make_, model, year string) ([]domain.Complaint, error)
}

// Listener receives every snapshot of the current cycle in publish order.
// Publish runs on the goroutine that produced the update and must not call
// Submit.
type Listener interface {
	Publish(Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Snapshot)

func (f ListenerFunc) Publish(s Snapshot) { f(s) }

// Options configures a Checker. All fields are optional.
type Options struct {
	Logger   *slog.Logger
	Listener Listener
	Sink     EventSink
	Metrics  *metrics.Registry
}

// Checker owns the lookup state. Only the newest cycle may change it; updates
// from older cycles are counted and dropped.
type Checker struct {
	lookup   Lookup
	log      *slog.Logger
	listener Listener
	sink     EventSink

	mCycles         func(outcome string) *metrics.Counter
	mEnrichFailures func(panel string) *metrics.Counter
	mLookupDur      func(endpoint string) *metrics.Histogram
	mStale          *metrics.Counter
	mInFlight       *metrics.Gauge

	mu    sync.Mutex
	cycle uint64
	cur   Snapshot

	// pubMu serializes apply so listeners see updates in the order they were
	// made. Lock order is pubMu then mu.
	pubMu sync.Mutex
}

// New creates a Checker backed by lookup.
func New(lookup Lookup, opts Options) *Checker {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	met := opts.Metrics
	if met == nil {
		met = metrics.New()
	}
	return &Checker{
		lookup:   lookup,
		log:      log,
		listener: opts.Listener,
		sink:     opts.Sink,
		mCycles: func(outcome string) *metrics.Counter {
			return met.Counter(metrics.WithLabels("vincheck_cycles_total", "outcome", outcome), "Lookup cycles by terminal phase")
		},
		mEnrichFailures: func(panel string) *metrics.Counter {
			return met.Counter(metrics.WithLabels("vincheck_enrichment_failures_total", "panel", panel), "Recall/complaint lookups that degraded to an empty list")
		},
		mLookupDur: func(endpoint string) *metrics.Histogram {
			return met.Histogram(metrics.WithLabels("vincheck_lookup_duration_seconds", "endpoint", endpoint), "Remote lookup duration by endpoint", nil)
		},
		mStale:    met.Counter("vincheck_stale_updates_total", "Updates dropped because a newer cycle started"),
		mInFlight: met.Gauge("vincheck_cycles_in_flight", "Cycles currently running"),
	}
}

// Current returns the latest published snapshot.
func (c *Checker) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// cycle is one Submit's own view of its snapshot. It keeps advancing even
// after a newer cycle has taken over the shared state.
type cycle struct {
	snap Snapshot
}

// Submit runs a full cycle for raw input and returns its final snapshot.
// The decode call gates the cycle; recalls and complaints then run
// concurrently and each publishes as soon as it resolves.
func (c *Checker) Submit(ctx context.Context, raw string) Snapshot {
	start := time.Now()
	c.mInFlight.Inc()
	defer c.mInFlight.Dec()

	cy := c.begin()

	summary, err := c.decodeStage(cy)(ctx, raw).Unwrap()
	if err != nil {
		f := classify(err)
		if f.Kind == ErrorValidation {
			c.log.Info("vin rejected", "cycle", cy.snap.Cycle, "reason", f.Message)
		} else {
			c.log.Warn("vin decode failed", "cycle", cy.snap.Cycle, "kind", f.Kind.String(), "err", err)
		}
		c.apply(cy, func(s *Snapshot) {
			s.Phase = PhaseDecodeFailed
			s.Failure = f
		})
		return c.finish(ctx, cy, start)
	}

	c.apply(cy, func(s *Snapshot) {
		s.Vehicle = &summary
		s.Phase = PhaseDecodingDone
	})
	c.apply(cy, func(s *Snapshot) {
		s.Phase = PhaseEnriching
		s.RecallState = PanelLoading
		s.ComplaintState = PanelLoading
	})
	c.enrich(ctx, cy, summary)
	return c.finish(ctx, cy, start)
}

// begin starts a new cycle with all previous results cleared.
func (c *Checker) begin() *cycle {
	c.mu.Lock()
	c.cycle++
	cy := &cycle{snap: Snapshot{Cycle: c.cycle}}
	c.mu.Unlock()

	c.apply(cy, func(s *Snapshot) { s.Phase = PhaseValidating })
	return cy
}

// apply mutates the cycle's snapshot and, if the cycle is still current,
// publishes it. It reports whether the update was published.
func (c *Checker) apply(cy *cycle, mutate func(*Snapshot)) bool {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	mutate(&cy.snap)
	snap, current := cy.snap, c.cycle
	if snap.Cycle == current {
		c.cur = snap
	}
	c.mu.Unlock()

	if snap.Cycle != current {
		c.mStale.Inc()
		c.log.Debug("dropping stale update", "cycle", snap.Cycle, "current", current, "phase", snap.Phase.String())
		return false
	}
	if c.listener != nil {
		c.listener.Publish(snap)
	}
	return true
}

func (c *Checker) decodeStage(cy *cycle) fn.Stage[string, domain.VehicleSummary] {
	validate := fn.Func(func(_ context.Context, raw string) (domain.VIN, error) {
		return domain.ValidateVIN(raw)
	})
	decoding := fn.TapStage(func(_ context.Context, vin domain.VIN) {
		c.apply(cy, func(s *Snapshot) {
			s.VIN = vin
			s.Phase = PhaseDecoding
		})
	})
	fetch := fn.Func(func(ctx context.Context, vin domain.VIN) ([]vpic.DecodeResult, error) {
		defer c.mLookupDur("decode").Since(time.Now())
		return c.lookup.DecodeVIN(ctx, vin)
	})
	summarize := fn.Func(func(_ context.Context, results []vpic.DecodeResult) (domain.VehicleSummary, error) {
		return decode.Summarize(results)
	})
	return fn.TracedStage("vincheck.decode", fn.Then(fn.Then(fn.Then(validate, decoding), fetch), summarize))
}

// enrich fetches recalls and complaints concurrently. Either failing leaves
// its panel ready with an empty list.
func (c *Checker) enrich(ctx context.Context, cy *cycle, v domain.VehicleSummary) {
	fn.FanOut(
		func() bool {
			recalls := enrichment(ctx, c, "recalls", v, c.lookup.Recalls)
			return c.apply(cy, func(s *Snapshot) {
				s.Recalls = recalls
				s.RecallState = PanelReady
				settle(s)
			})
		},
		func() bool {
			complaints := enrichment(ctx, c, "complaints", v, c.lookup.Complaints)
			return c.apply(cy, func(s *Snapshot) {
				s.Complaints = complaints
				s.ComplaintState = PanelReady
				settle(s)
			})
		},
	)
}

func settle(s *Snapshot) {
	if s.RecallState == PanelReady && s.ComplaintState == PanelReady {
		s.Phase = PhaseEnriched
	}
}

func enrichment[T any](ctx context.Context, c *Checker, panel string, v domain.VehicleSummary,
	get func(ctx context.Context, make_, model, year string) ([]T, error)) []T {
	stage := fn.TracedStage("vincheck."+panel, fn.Func(func(ctx context.Context, v domain.VehicleSummary) ([]T, error) {
		defer c.mLookupDur(panel).Since(time.Now())
		return get(ctx, v.Make, v.Model, v.ModelYear)
	}))
	out, err := stage(ctx, v).Unwrap()
	if err != nil {
		c.mEnrichFailures(panel).Inc()
		c.log.Warn("enrichment lookup failed", "panel", panel, "make", v.Make, "model", v.Model, "year", v.ModelYear, "err", err)
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// finish records the cycle's outcome and returns its final snapshot.
func (c *Checker) finish(ctx context.Context, cy *cycle, start time.Time) Snapshot {
	c.mu.Lock()
	snap := cy.snap
	c.mu.Unlock()

	took := time.Since(start)
	c.mCycles(snap.Phase.String()).Inc()
	c.log.Info("lookup finished",
		"cycle", snap.Cycle,
		"vin", snap.VIN.String(),
		"phase", snap.Phase.String(),
		"recalls", len(snap.Recalls),
		"complaints", len(snap.Complaints),
		"duration", took,
	)
	if c.sink != nil {
		if err := c.sink.Send(ctx, newEvent(snap, took)); err != nil {
			c.log.Warn("lookup event not sent", "cycle", snap.Cycle, "err", err)
		}
	}
	return snap
}

func classify(err error) *Failure {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return &Failure{Kind: ErrorValidation, Message: ve.Message(), Err: err}
	case errors.Is(err, decode.ErrUnresolved):
		return &Failure{Kind: ErrorDecodeUnresolved, Message: domain.MsgDecodeNoResult, Err: err}
	case errors.Is(err, vpic.ErrNoResults):
		return &Failure{Kind: ErrorDecodeEmpty, Message: domain.MsgDecodeFailed, Err: err}
	default:
		return &Failure{Kind: ErrorDecodeTransport, Message: domain.MsgNetwork, Err: err}
	}
}
