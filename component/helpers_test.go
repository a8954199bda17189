package component

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/lifecycle/logger"
	"github.com/kbukum/lifecycle/observability"
)

// eventLog records lifecycle calls across components in call order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

// withPrefix returns the component names of events starting with prefix.
func (l *eventLog) withPrefix(prefix string) []string {
	var out []string
	for _, e := range l.all() {
		if name, ok := strings.CutPrefix(e, prefix+":"); ok {
			out = append(out, name)
		}
	}
	return out
}

func (l *eventLog) count(event string) int {
	n := 0
	for _, e := range l.all() {
		if e == event {
			n++
		}
	}
	return n
}

// fakeComponent implements every optional hook.
type fakeComponent struct {
	name        string
	events      *eventLog
	loadedErr   error
	stoppingErr error
	closeErr    error
	closePanic  bool
	health      *Health

	cancelCalls atomic.Int32
}

func (f *fakeComponent) Close() error {
	f.events.add("close:%s", f.name)
	if f.closePanic {
		panic("close exploded")
	}
	return f.closeErr
}

func (f *fakeComponent) OnLoadingCancelled() {
	f.cancelCalls.Add(1)
	f.events.add("cancelled:%s", f.name)
}

func (f *fakeComponent) OnAllComponentsLoaded(ctx context.Context) error {
	f.events.add("loaded:%s", f.name)
	return f.loadedErr
}

func (f *fakeComponent) OnAllComponentsAreStopping(ctx context.Context) error {
	f.events.add("stopping:%s", f.name)
	return f.stoppingErr
}

func (f *fakeComponent) Health(ctx context.Context) Health {
	if f.health != nil {
		return *f.health
	}
	return Health{Status: observability.HealthStatusUp}
}

func (f *fakeComponent) Describe() Description {
	return Description{Type: "fake", Details: f.name}
}

// plainComponent implements only Close.
type plainComponent struct{ closed atomic.Int32 }

func (p *plainComponent) Close() error {
	p.closed.Add(1)
	return nil
}

// harness wires a registry to an event log, a span recorder and a fixed set
// of fake components.
type harness struct {
	t        *testing.T
	reg      *Registry
	events   *eventLog
	spans    *tracetest.SpanRecorder
	mu       sync.Mutex
	built    map[string]*fakeComponent
	factoryN atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return &harness{
		t:      t,
		events: &eventLog{},
		spans:  sr,
		built:  make(map[string]*fakeComponent),
		reg: NewRegistry(
			WithLogger(logger.NewNop()),
			WithTracer(observability.NewTracer("test", tp)),
		),
	}
}

// factory returns a factory building a fakeComponent named name. configure
// may adjust the component before it is returned.
func (h *harness) factory(name string, configure func(c *Context, f *fakeComponent) error) Factory {
	return func(c *Context) (Component, error) {
		h.factoryN.Add(1)
		h.events.add("construct:%s", name)
		f := &fakeComponent{name: name, events: h.events}
		if configure != nil {
			if err := configure(c, f); err != nil {
				return nil, err
			}
		}
		h.mu.Lock()
		h.built[name] = f
		h.mu.Unlock()
		return f, nil
	}
}

func (h *harness) register(name string, configure func(c *Context, f *fakeComponent) error, deps ...string) {
	h.t.Helper()
	if err := h.reg.Register(name, h.factory(name, configure), deps...); err != nil {
		h.t.Fatalf("Register(%q) failed: %v", name, err)
	}
}

func (h *harness) component(name string) *fakeComponent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.built[name]
}

func (h *harness) spanNames() []string {
	var out []string
	for _, s := range h.spans.Ended() {
		out = append(out, s.Name())
	}
	return out
}

// spanComponents returns the component_name tag of every ended span called name.
func (h *harness) spanComponents(name string) []string {
	var out []string
	for _, s := range h.spans.Ended() {
		if s.Name() != name {
			continue
		}
		for _, kv := range s.Attributes() {
			if string(kv.Key) == observability.AttrComponentName {
				out = append(out, kv.Value.AsString())
			}
		}
	}
	return out
}

func reversed(in []string) []string {
	out := slices.Clone(in)
	slices.Reverse(out)
	return out
}
