package dag

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Topology is the on-disk form of extra dependency declarations:
//
//	components:
//	  - name: http
//	    depends_on: [db, cache]
type Topology struct {
	Components []Spec `yaml:"components"`
}

// ParseSpecs decodes a YAML topology document.
func ParseSpecs(data []byte) ([]Spec, error) {
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("dag: parsing topology: %w", err)
	}
	for i, s := range t.Components {
		if s.Name == "" {
			return nil, fmt.Errorf("dag: topology entry #%d has no name", i)
		}
	}
	return t.Components, nil
}

// LoadSpecs reads and decodes a YAML topology file.
func LoadSpecs(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dag: reading topology %s: %w", path, err)
	}
	specs, err := ParseSpecs(data)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return specs, nil
}
