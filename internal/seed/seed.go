// Package seed loads demo/seed records from a YAML file.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file mapping table names to lists of records:
//
//	clientes:
//	  - nombre: Ana
//	    telefono: "555-0101"
//	productos:
//	  - nombre: Café
//	    precio: "12.50"
func Load(path string) (map[string][]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var tables map[string][]map[string]any
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return tables, nil
}
