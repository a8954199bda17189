package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lifecycle/component"
	"github.com/kbukum/lifecycle/observability"
)

type fakeInspector struct {
	stages map[string]component.Stage
	health []component.Health
}

func (f *fakeInspector) RunID() string { return "run-1" }

func (f *fakeInspector) Names() []string {
	return []string{"db", "cache"}
}

func (f *fakeInspector) Stage(name string) (component.Stage, bool) {
	s, ok := f.stages[name]
	return s, ok
}

func (f *fakeInspector) ConstructionOrder() []string { return []string{"db", "cache"} }

func (f *fakeInspector) Snapshot() []component.Status {
	return []component.Status{
		{Name: "db", Stage: f.stages["db"]},
		{Name: "cache", Stage: f.stages["cache"], DependsOn: []string{"db"}},
	}
}

func (f *fakeInspector) HealthAll(ctx context.Context) []component.Health { return f.health }

func serve(t *testing.T, h gin.HandlerFunc, path, target string) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.GET(path, h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return rec.Code, body
}

var info = ServiceInfo{Name: "orders", Version: "1.0.0"}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		health     []component.Health
		wantCode   int
		wantStatus string
	}{
		{"all up", []component.Health{
			{Name: "db", Status: observability.HealthStatusUp},
			{Name: "cache", Status: observability.HealthStatusUp},
		}, http.StatusOK, "up"},
		{"degraded", []component.Health{
			{Name: "db", Status: observability.HealthStatusUp},
			{Name: "cache", Status: observability.HealthStatusDegraded},
		}, http.StatusOK, "degraded"},
		{"down wins", []component.Health{
			{Name: "db", Status: observability.HealthStatusDown},
			{Name: "cache", Status: observability.HealthStatusDegraded},
		}, http.StatusServiceUnavailable, "down"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := serve(t, Health(info, &fakeInspector{health: tc.health}), "/health", "/health")
			if code != tc.wantCode {
				t.Errorf("expected %d, got %d", tc.wantCode, code)
			}
			if body["status"] != tc.wantStatus {
				t.Errorf("expected status %q, got %v", tc.wantStatus, body["status"])
			}
			if body["run_id"] != "run-1" {
				t.Errorf("expected run id, got %v", body["run_id"])
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	ready := &fakeInspector{stages: map[string]component.Stage{
		"db": component.StageRunning, "cache": component.StageRunning,
	}}
	code, body := serve(t, Readiness(info, ready), "/ready", "/ready")
	if code != http.StatusOK || body["status"] != "ready" {
		t.Errorf("expected ready, got %d %v", code, body)
	}

	notReady := &fakeInspector{stages: map[string]component.Stage{
		"db": component.StageRunning, "cache": component.StageCreated,
	}}
	code, body = serve(t, Readiness(info, notReady), "/ready", "/ready")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	pending, _ := body["pending"].([]any)
	if len(pending) != 1 || pending[0] != "cache" {
		t.Errorf("expected cache pending, got %v", body["pending"])
	}
}

func TestInfoAndLiveness(t *testing.T) {
	code, body := serve(t, Info(info, &fakeInspector{}), "/info", "/info")
	if code != http.StatusOK || body["service"] != "orders" || body["run_id"] != "run-1" {
		t.Errorf("unexpected info %d %v", code, body)
	}
	if body["components"] != float64(2) {
		t.Errorf("expected component count, got %v", body["components"])
	}

	code, body = serve(t, Liveness(info), "/alive", "/alive")
	if code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("unexpected liveness %d %v", code, body)
	}
}

func TestComponents(t *testing.T) {
	insp := &fakeInspector{stages: map[string]component.Stage{"db": component.StageRunning}}
	code, body := serve(t, Components(insp), "/components", "/components")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	comps, _ := body["components"].([]any)
	if len(comps) != 2 {
		t.Fatalf("expected two components, got %v", body["components"])
	}
	first, _ := comps[0].(map[string]any)
	if first["stage"] != "running" {
		t.Errorf("expected stage rendered as text, got %v", first["stage"])
	}

	code, body = serve(t, ComponentByName(insp), "/components/:name", "/components/missing")
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if errBody, _ := body["error"].(map[string]any); errBody["message"] == "" {
		t.Errorf("expected an error message, got %v", body)
	}
}
