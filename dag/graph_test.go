package dag

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	lcerrors "github.com/kbukum/lifecycle/errors"
)

func TestBuild_OrderAndLevels(t *testing.T) {
	res, err := Build([]Spec{
		{Name: "http", DependsOn: []string{"db", "cache"}},
		{Name: "db"},
		{Name: "cache", DependsOn: []string{"db"}},
		{Name: "metrics"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"db", "metrics", "cache", "http"}
	if !reflect.DeepEqual(res.Order, wantOrder) {
		t.Errorf("expected order %v, got %v", wantOrder, res.Order)
	}
	wantLevels := [][]string{{"db", "metrics"}, {"cache"}, {"http"}}
	if !reflect.DeepEqual(res.Levels, wantLevels) {
		t.Errorf("expected levels %v, got %v", wantLevels, res.Levels)
	}
	if res.Len() != 4 {
		t.Errorf("expected 4 nodes, got %d", res.Len())
	}
}

func TestBuild_OrderRespectsEveryEdge(t *testing.T) {
	specs := []Spec{
		{Name: "e", DependsOn: []string{"d", "b"}},
		{Name: "d", DependsOn: []string{"c"}},
		{Name: "c", DependsOn: []string{"a"}},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "a"},
	}
	res, err := Build(specs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int)
	for i, n := range res.Order {
		pos[n] = i
	}
	for _, s := range specs {
		for _, dep := range s.DependsOn {
			if pos[dep] >= pos[s.Name] {
				t.Errorf("%s must come before %s in %v", dep, s.Name, res.Order)
			}
		}
	}
}

func TestBuild_DeterministicTieBreak(t *testing.T) {
	specs := []Spec{{Name: "z"}, {Name: "y"}, {Name: "x"}}
	for i := 0; i < 20; i++ {
		res, err := Build(specs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(res.Order, []string{"z", "y", "x"}) {
			t.Fatalf("expected registration order, got %v", res.Order)
		}
	}
}

func TestBuild_SymmetricEdges(t *testing.T) {
	res, err := Build([]Spec{
		{Name: "a"},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c", DependsOn: []string{"a"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := res.Dependents("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("expected dependents [b c], got %v", got)
	}
	if got := res.DependsOn("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("expected dependsOn [a], got %v", got)
	}
	if !res.HasEdge("c", "a") {
		t.Error("expected edge c -> a")
	}
	if res.HasEdge("a", "c") {
		t.Error("edges are directed")
	}
	if len(res.DependsOn("missing")) != 0 {
		t.Error("unknown names have no edges")
	}
}

func TestBuild_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		specs   []Spec
		wantMsg string
	}{
		{"duplicate", []Spec{{Name: "a"}, {Name: "a"}}, `"a" is registered more than once`},
		{"empty name", []Spec{{Name: ""}}, "empty name"},
		{"unknown dependency", []Spec{{Name: "b", DependsOn: []string{"x"}}}, `"b" depends on unknown component "x"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.specs)
			if !errors.Is(err, lcerrors.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("expected %q in %q", tc.wantMsg, err.Error())
			}
		})
	}
}

func TestBuild_Cycles(t *testing.T) {
	tests := []struct {
		name  string
		specs []Spec
		path  string
	}{
		{"two nodes", []Spec{
			{Name: "a", DependsOn: []string{"b"}},
			{Name: "b", DependsOn: []string{"a"}},
		}, "a -> b -> a"},
		{"self", []Spec{{Name: "a", DependsOn: []string{"a"}}}, "a -> a"},
		{"three nodes behind a root", []Spec{
			{Name: "root"},
			{Name: "x", DependsOn: []string{"root", "z"}},
			{Name: "y", DependsOn: []string{"x"}},
			{Name: "z", DependsOn: []string{"y"}},
		}, "x -> z -> y -> x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.specs)
			if !errors.Is(err, lcerrors.ErrCyclicDependency) {
				t.Fatalf("expected cyclic dependency error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.path) {
				t.Errorf("expected cycle %q in %q", tc.path, err.Error())
			}
		})
	}
}

func TestBuild_Empty(t *testing.T) {
	res, err := Build(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Order) != 0 || len(res.Levels) != 0 {
		t.Errorf("expected empty result, got %v / %v", res.Order, res.Levels)
	}
}
