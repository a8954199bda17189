package dag

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseSpecs(t *testing.T) {
	specs, err := ParseSpecs([]byte(`
components:
  - name: http
    depends_on: [db, cache]
  - name: cache
    depends_on:
      - db
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Spec{
		{Name: "http", DependsOn: []string{"db", "cache"}},
		{Name: "cache", DependsOn: []string{"db"}},
	}
	if !reflect.DeepEqual(specs, want) {
		t.Errorf("expected %v, got %v", want, specs)
	}
}

func TestParseSpecs_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "components: [:"},
		{"missing name", "components:\n  - depends_on: [a]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseSpecs([]byte(tc.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadSpecs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(path, []byte("components:\n  - name: a\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	specs, err := LoadSpecs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "a" {
		t.Errorf("unexpected specs %v", specs)
	}

	_, err = LoadSpecs(filepath.Join(dir, "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("expected error naming the file, got %v", err)
	}
}
