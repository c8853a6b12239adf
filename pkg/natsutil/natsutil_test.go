package natsutil

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := Connect(srv.ClientURL(), "natsutil-test", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

type lookupMsg struct {
	VIN   string `json:"vin"`
	Cycle int    `json:"cycle"`
}

func TestNatsHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*natsHeaderCarrier)(msg)

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestNatsHeaderCarrierNilHeader(t *testing.T) {
	carrier := (*natsHeaderCarrier)(&nats.Msg{})
	if got := carrier.Get("missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if keys := carrier.Keys(); keys != nil {
		t.Fatalf("expected nil keys, got %v", keys)
	}
}

func TestPublisherRoundTrip(t *testing.T) {
	nc := startTestNATS(t)

	got := make(chan lookupMsg, 1)
	sub, err := Subscribe(nc, "vincheck.test", func(_ context.Context, m lookupMsg) {
		got <- m
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	pub := NewPublisher[lookupMsg](nc, "vincheck.test")
	if pub.Subject() != "vincheck.test" {
		t.Fatalf("unexpected subject %q", pub.Subject())
	}
	if err := pub.Send(context.Background(), lookupMsg{VIN: "1HGCM82633A004352", Cycle: 4}); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-got:
		if m.VIN != "1HGCM82633A004352" || m.Cycle != 4 {
			t.Fatalf("unexpected message %+v", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestSubscribeDropsMalformed(t *testing.T) {
	nc := startTestNATS(t)

	got := make(chan lookupMsg, 2)
	sub, err := Subscribe(nc, "vincheck.bad", func(_ context.Context, m lookupMsg) {
		got <- m
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	if err := nc.Publish("vincheck.bad", []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if err := Publish(context.Background(), nc, "vincheck.bad", lookupMsg{Cycle: 1}); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-got:
		if m.Cycle != 1 {
			t.Fatalf("malformed message reached handler: %+v", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for valid message")
	}
}

func TestPublishPropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	nc := startTestNATS(t)

	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	spanID := trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	got := make(chan trace.SpanContext, 1)
	sub, err := Subscribe(nc, "vincheck.trace", func(ctx context.Context, _ lookupMsg) {
		got <- trace.SpanContextFromContext(ctx)
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	if err := Publish(ctx, nc, "vincheck.trace", lookupMsg{}); err != nil {
		t.Fatal(err)
	}

	select {
	case remote := <-got:
		if remote.TraceID() != traceID || remote.SpanID() != spanID || !remote.IsRemote() {
			t.Fatalf("trace context not propagated: %+v", remote)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}
