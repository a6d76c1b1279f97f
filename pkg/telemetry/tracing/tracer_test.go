package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/pursuit/pkg/config"
)

func newTestTracer(t *testing.T, sampler string) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(&config.TracingConfig{
		Sampler:     sampler,
		SampleRatio: 1.0,
		ServiceName: "pursuit-test",
	}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tracer.Enabled() {
		t.Error("Enabled() = true for disabled tracing")
	}

	ctx, span := tracer.Start(context.Background(), SpanCompile)
	End(span, nil)
	if TraceID(ctx) != "" {
		t.Errorf("TraceID() = %q, want empty for no-op span", TraceID(ctx))
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) error = nil")
	}
	if _, err := NewWithExporter(nil, tracetest.NewInMemoryExporter()); err == nil {
		t.Error("NewWithExporter(nil) error = nil")
	}
}

func TestNilTracer(t *testing.T) {
	var tracer *Tracer
	ctx, span := tracer.Start(context.Background(), SpanFilter)
	End(span, errors.New("ignored"))
	if ctx == nil {
		t.Fatal("Start() returned nil context")
	}
	if tracer.Enabled() {
		t.Error("nil tracer reports enabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTracer_RecordsSpans(t *testing.T) {
	tracer, exporter := newTestTracer(t, SamplerAlways)

	ctx, parent := tracer.Start(context.Background(), SpanReload, CatalogAttributes("rev-1", 3)...)
	_, child := tracer.Start(ctx, SpanFilter, FilterAttributes("sequential", 10, 4)...)
	End(child, nil)
	End(parent, errors.New("write failed"))

	if id := TraceID(ctx); len(id) != 32 {
		t.Errorf("TraceID() = %q, want 32 hex characters", id)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}

	byName := map[string]tracetest.SpanStub{}
	for _, s := range spans {
		byName[s.Name] = s
	}

	filterSpan, ok := byName[SpanFilter]
	if !ok {
		t.Fatalf("span %q not exported", SpanFilter)
	}
	reloadSpan := byName[SpanReload]
	if filterSpan.Parent.SpanID() != reloadSpan.SpanContext.SpanID() {
		t.Error("filter span is not a child of the reload span")
	}
	if filterSpan.Status.Code != codes.Ok {
		t.Errorf("filter span status = %v, want Ok", filterSpan.Status.Code)
	}
	if reloadSpan.Status.Code != codes.Error || reloadSpan.Status.Description != "write failed" {
		t.Errorf("reload span status = %+v, want Error(write failed)", reloadSpan.Status)
	}

	attrs := map[string]string{}
	for _, kv := range reloadSpan.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[AttrRevision] != "rev-1" || attrs[AttrQueries] != "3" {
		t.Errorf("reload span attributes = %v", attrs)
	}
}

func TestTracer_NeverSampler(t *testing.T) {
	tracer, exporter := newTestTracer(t, SamplerNever)

	_, span := tracer.Start(context.Background(), SpanCompile)
	End(span, nil)

	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("exported %d spans with never sampler, want 0", n)
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{"always", SamplerAlways, 0, false},
		{"never", SamplerNever, 0, false},
		{"ratio", SamplerRatio, 0.5, false},
		{"empty means ratio", "", 1.0, false},
		{"ratio too high", SamplerRatio, 1.5, true},
		{"ratio negative", SamplerRatio, -0.1, true},
		{"unknown", "sometimes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s == nil {
				t.Error("createSampler() returned nil sampler")
			}
		})
	}
}

func TestQueryAttributes(t *testing.T) {
	attrs := QueryAttributes("", "cost", 3, 1.5)
	for _, kv := range attrs {
		if string(kv.Key) == AttrQueryName {
			t.Error("empty query name should be omitted")
		}
	}
	if len(QueryAttributes("adults", "cost", 3, 1.5)) != len(attrs)+1 {
		t.Error("named query should add the name attribute")
	}
}

func TestPropagation_RoundTrip(t *testing.T) {
	tracer, _ := newTestTracer(t, SamplerAlways)

	ctx, span := tracer.Start(context.Background(), SpanFilter)
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Fatal("Inject() wrote no traceparent header")
	}

	extracted := Extract(context.Background(), headers)
	if got, want := TraceID(extracted), TraceID(ctx); got != want {
		t.Errorf("extracted trace ID = %q, want %q", got, want)
	}

	if TraceID(Extract(context.Background(), http.Header{})) != "" {
		t.Error("Extract() without headers produced a trace ID")
	}
}
