package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/lifecycle/component"
	"github.com/kbukum/lifecycle/observability"
)

// Summary renders the startup report of an application.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a summary that writes to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		out:         os.Stdout,
	}
}

// SetOutput redirects the summary, e.g. to a buffer in tests.
func (s *Summary) SetOutput(w io.Writer) {
	s.out = w
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// DisplaySummary writes the summary for registry to the configured output.
func (s *Summary) DisplaySummary(registry *component.Registry) {
	s.Render(s.out, registry)
}

// Render writes the construction order, dependency levels, infrastructure,
// routes and live health of registry to w.
func (s *Summary) Render(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())
	if registry == nil {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}
	if runID := registry.RunID(); runID != "" {
		fmt.Fprintf(w, "   run %s\n", runID)
	}
	fmt.Fprintln(w)

	statuses := make(map[string]component.Status)
	for _, st := range registry.Snapshot() {
		statuses[st.Name] = st
	}

	order := registry.ConstructionOrder()
	if len(order) == 0 {
		order = registry.Names()
	}
	if len(order) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	fmt.Fprintf(w, "📦 Components (construction order)\n")
	for i, name := range order {
		st := statuses[name]
		line := fmt.Sprintf("%s %s [%s] %s", stageIcon(st.Stage), name, st.Stage, formatDuration(st.ConstructDuration))
		if len(st.DependsOn) > 0 {
			line += " ← " + strings.Join(st.DependsOn, ", ")
		}
		fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(order)), line)
	}

	if levels := registry.Levels(); len(levels) > 1 {
		fmt.Fprintf(w, "\n🧱 Dependency levels\n")
		for i, level := range levels {
			fmt.Fprintf(w, "   %s %d: %s\n", treePrefix(i, len(levels)), i, strings.Join(level, ", "))
		}
	}

	var infra []component.Status
	for _, name := range order {
		if st := statuses[name]; st.Description != nil {
			infra = append(infra, st)
		}
	}
	if len(infra) > 0 {
		fmt.Fprintf(w, "\n📊 Infrastructure\n")
		for i, st := range infra {
			d := st.Description
			fmt.Fprintf(w, "   %s %s (%s): %s\n", treePrefix(i, len(infra)), d.Name, d.Type, d.Details)
		}
	}

	var routes []component.Route
	for _, name := range order {
		inst, ok := registry.Get(name)
		if !ok {
			continue
		}
		if rp, ok := inst.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}
	if len(routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	health := registry.HealthAll(context.Background())
	if len(health) > 0 {
		fmt.Fprintf(w, "\n🏥 Health Check\n")
		healthy := 0
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = ": " + h.Message
			}
			fmt.Fprintf(w, "   %s %s %s %s%s\n", treePrefix(i, len(health)), healthStatusIcon(h.Status), h.Name, h.Status, msg)
			if h.Healthy() {
				healthy++
			}
		}
		if healthy == len(health) {
			fmt.Fprintf(w, "\n✅ All components healthy (%d/%d)\n", healthy, len(health))
		} else {
			fmt.Fprintf(w, "\n⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(health))
		}
	}

	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Microsecond).String()
}

func stageIcon(stage component.Stage) string {
	switch stage {
	case component.StageRunning:
		return "✅"
	case component.StageCreated:
		return "⚡"
	case component.StageStopping:
		return "⏸️"
	case component.StageDestroyed:
		return "❌"
	default:
		return "❓"
	}
}

func healthStatusIcon(status observability.HealthStatus) string {
	switch status {
	case observability.HealthStatusUp:
		return "✅"
	case observability.HealthStatusDegraded:
		return "⚠️"
	case observability.HealthStatusDown:
		return "❌"
	default:
		return "❓"
	}
}
