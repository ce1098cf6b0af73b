package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/resilient-edge/resilient-edge/adapt"
)

// writeDefaultConfig renders the default configuration as YAML so operators
// can start from a file that round-trips through the strict loader.
func writeDefaultConfig(path string) error {
	data, err := yaml.Marshal(adapt.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
