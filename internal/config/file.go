package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of an optional config file overriding or
// extending the built-in business-unit table.
type fileConfig struct {
	BusinessUnits []BusinessUnit `yaml:"business_units"`
}

// LoadFile returns the default configuration merged with the business
// units declared in path. Units with a name already present replace the
// built-in entry; new names are added. An empty path returns Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	for _, bu := range fc.BusinessUnits {
		if bu.Name == "" {
			return nil, fmt.Errorf("config file %s: business unit with empty name", path)
		}
		if bu.ProjectID == 0 || bu.SuiteID == 0 {
			return nil, fmt.Errorf("config file %s: business unit %q needs project_id and suite_id", path, bu.Name)
		}
		cfg.units[bu.Name] = bu
	}

	return cfg, nil
}
