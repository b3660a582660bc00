// Package config holds the static configuration for the coverage
// dashboard: business units, code-to-label mapping tables, field name
// variations, and credential resolution.
package config

import (
	"fmt"
	"sort"
)

// Application metadata.
const (
	AppName    = "QA Coverage Dashboard"
	AppVersion = "2.0.0"
)

// API page size for test-case fetches.
const APIBatchSize = 250

// BusinessUnit maps an organizational unit to one (project, suite) pair
// in the test-management API, plus an optional country-code table.
type BusinessUnit struct {
	Name      string            `yaml:"name"`
	ProjectID int               `yaml:"project_id"`
	SuiteID   int               `yaml:"suite_id"`
	Countries map[string]string `yaml:"countries,omitempty"`
}

// Config is the full static configuration, read-only after Load.
type Config struct {
	units map[string]BusinessUnit
}

// defaultUnits is the built-in business-unit table. A YAML config file
// can override or extend it (see LoadFile).
func defaultUnits() map[string]BusinessUnit {
	units := map[string]BusinessUnit{
		"Microservices":    {Name: "Microservices", ProjectID: 17, SuiteID: 9570},
		"ICI Paris XL":     {Name: "ICI Paris XL", ProjectID: 4, SuiteID: 1399},
		"Kruidvat":         {Name: "Kruidvat", ProjectID: 11, SuiteID: 115},
		"Trekpleister":     {Name: "Trekpleister", ProjectID: 3, SuiteID: 30784},
		"Superdrug":        {Name: "Superdrug", ProjectID: 5, SuiteID: 71},
		"Savers":           {Name: "Savers", ProjectID: 3, SuiteID: 30784},
		"The Perfume Shop": {Name: "The Perfume Shop", ProjectID: 22, SuiteID: 11833},
		"Marionnaud":       {Name: "Marionnaud", ProjectID: 3, SuiteID: 30784},
		"Drogas":           {Name: "Drogas", ProjectID: 22, SuiteID: 16093},
	}

	marionnaud := units["Marionnaud"]
	marionnaud.Countries = map[string]string{
		"3": "MRN", "9": "MFR", "10": "MCH", "11": "MAT", "12": "MRO",
		"13": "MIT", "14": "MCZ", "15": "MSK", "16": "MHU",
		"22": "MCH_SPR", "23": "MAT_SPR", "24": "MRO_SPR", "25": "MIT_SPR",
		"26": "MCZ_SPR", "27": "MSK_SPR", "28": "MHU_SPR",
	}
	units["Marionnaud"] = marionnaud

	drogas := units["Drogas"]
	drogas.Countries = map[string]string{
		"5": "LT", "6": "LV", "7": "RU",
	}
	units["Drogas"] = drogas

	return units
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{units: defaultUnits()}
}

// UnitNames returns the configured business-unit names, sorted.
func (c *Config) UnitNames() []string {
	names := make([]string, 0, len(c.units))
	for name := range c.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unit returns the configuration for a business unit by name.
func (c *Config) Unit(name string) (BusinessUnit, error) {
	bu, ok := c.units[name]
	if !ok {
		return BusinessUnit{}, fmt.Errorf("unknown business unit: %q", name)
	}
	return bu, nil
}

// PriorityMappings maps priority ids to labels.
var PriorityMappings = map[int]string{
	3: "High",
	4: "Highest",
	5: "Medium",
}

// DeviceMappings maps device-type ids to labels.
var DeviceMappings = map[int]string{
	1: "Desktop",
	2: "Mobile",
	3: "Both",
}

// JavaStatusMappings maps Java-framework automation-status ids to labels.
var JavaStatusMappings = map[int]string{
	1:  "Not Automated",
	2:  "To Be Automated",
	3:  "Automated",
	4:  "N/A",
	5:  "To Be Automated",
	6:  "To Be Automated",
	7:  "Not Automated",
	8:  "Automated",
	9:  "Automated",
	10: "To Be Automated",
}

// TestimStatusMappings maps Testim-framework automation-status ids to
// labels. The Testim code space stops at 9.
var TestimStatusMappings = map[int]string{
	1: "Not Automated",
	2: "To Be Automated",
	3: "Automated",
	4: "N/A",
	5: "To Be Automated",
	6: "To Be Automated",
	7: "Not Automated",
	8: "Automated",
	9: "Automated",
}

// FieldVariations lists, per logical field, the raw column-name
// spellings seen across project configurations. Probing order matters:
// the first name present in a record wins.
var FieldVariations = map[string][]string{
	"java": {"custom_automation_status", "automation_status"},
	"testim_desktop": {
		"custom_case_automation_status_testim",
		"custom_automation_status_testim_desktop_view",
		"automation_status_testim_desktop",
	},
	"testim_mobile": {
		"custom_case_automation_status_mobile_view",
		"custom_automation_status_testim_mobile_view",
		"automation_status_testim_mobile",
	},
	"epic":     {"custom_epic_reference", "custom_epicreference", "custom_epic", "refs"},
	"device":   {"custom_device", "device", "custom_devices"},
	"country":  {"multi_countries", "custom_multi_countries", "countries"},
	"priority": {"priority_id", "priority", "custom_priority"},
}

// AutomatedStatuses is the fixed set of final-status labels that count
// as automated for coverage purposes.
var AutomatedStatuses = map[string]bool{
	"Automated - Java":           true,
	"Automated - Testim Desktop": true,
	"Automated - Testim Mobile":  true,
	"Automated - Testim Both":    true,
}
