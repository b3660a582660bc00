// Package transform normalizes raw test-case records into the uniform
// tabular schema the metrics layer consumes.
package transform

import (
	"strings"

	"github.com/testops/coverage-dashboard/internal/config"
	"github.com/testops/coverage-dashboard/internal/testrail"
)

// Mapping tables, static per deployment.
var (
	priorityMappings     = config.PriorityMappings
	deviceMappings       = config.DeviceMappings
	javaStatusMappings   = config.JavaStatusMappings
	testimStatusMappings = config.TestimStatusMappings
	fieldVariations      = config.FieldVariations
)

// Record is one normalized test case: logical columns only, every
// column holding a label, never a raw code.
type Record struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Epic      string   `json:"epic"`
	Device    string   `json:"device"`
	Country   string   `json:"country"`
	Countries []string `json:"countries"`
	Priority  string   `json:"priority"`
	Framework string   `json:"framework"`
	Status    string   `json:"status"`
}

// Automated reports whether the record's final status counts as
// automated for coverage purposes.
func (r Record) Automated() bool {
	return config.AutomatedStatuses[r.Status]
}

// Table is a normalized record set. Immutable once built.
type Table []Record

// Transform normalizes raw records for a business unit. It emits
// exactly one Record per input case; records with unresolvable fields
// are kept with Unknown labels rather than dropped. sections maps
// section ids to names and backfills the epic of records whose epic
// field is absent; it may be nil.
func Transform(cases []testrail.Case, bu config.BusinessUnit, sections map[int64]string) Table {
	table := make(Table, 0, len(cases))
	for _, c := range cases {
		table = append(table, transformCase(c, bu, sections))
	}
	return table
}

func transformCase(c testrail.Case, bu config.BusinessUnit, sections map[int64]string) Record {
	javaStatus := mapStatus(probe(c, "java"), javaStatusMappings)
	testimDesktop := mapStatus(probe(c, "testim_desktop"), testimStatusMappings)
	testimMobile := mapStatus(probe(c, "testim_mobile"), testimStatusMappings)

	status := finalStatus(javaStatus, testimDesktop, testimMobile)
	countries := MapCountries(probe(c, "country"), bu.Countries)

	return Record{
		ID:        c.ID(),
		Title:     c.Title(),
		Epic:      epicLabel(c, probe(c, "epic"), sections),
		Device:    deviceLabel(c, testimDesktop, testimMobile),
		Country:   strings.Join(countries, ", "),
		Countries: countries,
		Priority:  MapPriority(probe(c, "priority")),
		Framework: frameworkLabel(status, javaStatus, testimDesktop, testimMobile),
		Status:    status,
	}
}

// probe resolves a logical field to its raw value by trying each known
// column-name spelling in order. First name present in the record wins.
func probe(c testrail.Case, field string) any {
	for _, name := range fieldVariations[field] {
		if val, ok := c[name]; ok && val != nil {
			return val
		}
	}
	return nil
}

// finalStatus derives the record's automation status from the per
// framework statuses. Testim automation takes precedence over Java.
func finalStatus(java, testimDesktop, testimMobile string) string {
	desktopAutomated := testimDesktop == "Automated"
	mobileAutomated := testimMobile == "Automated"

	switch {
	case desktopAutomated && mobileAutomated:
		return "Automated - Testim Both"
	case desktopAutomated:
		return "Automated - Testim Desktop"
	case mobileAutomated:
		return "Automated - Testim Mobile"
	case java == "Automated":
		return "Automated - Java"
	}

	if java == "N/A" || testimDesktop == "N/A" || testimMobile == "N/A" {
		return "N/A"
	}
	if java == "To Be Automated" || testimDesktop == "To Be Automated" || testimMobile == "To Be Automated" {
		return "To Be Automated"
	}
	return "Not Automated"
}

// deviceLabel maps the device field when present. Records without a
// device column are classified from the Testim statuses: automated on
// both views means Both, one view means that platform, neither means
// Unknown.
func deviceLabel(c testrail.Case, testimDesktop, testimMobile string) string {
	if val := probe(c, "device"); val != nil {
		return MapValue(val, deviceMappings, Unknown)
	}

	desktopAutomated := testimDesktop == "Automated"
	mobileAutomated := testimMobile == "Automated"
	switch {
	case desktopAutomated && mobileAutomated:
		return "Both"
	case desktopAutomated:
		return "Desktop"
	case mobileAutomated:
		return "Mobile"
	}
	return Unknown
}

// epicLabel resolves the epic from the epic field, falling back to the
// record's section name when the field is absent.
func epicLabel(c testrail.Case, val any, sections map[int64]string) string {
	if val != nil {
		if s := strings.TrimSpace(toString(val)); s != "" {
			return s
		}
	}
	if id, ok := toInt(c["section_id"]); ok {
		if name, ok := sections[int64(id)]; ok && name != "" {
			return name
		}
	}
	return Unknown
}

// frameworkLabel names the automation technology the record belongs to.
// Automated records are labelled by the framework that automated them;
// unautomated records by whichever framework reported a status at all.
func frameworkLabel(status, java, testimDesktop, testimMobile string) string {
	switch {
	case strings.HasPrefix(status, "Automated - Testim"):
		return "Testim"
	case status == "Automated - Java":
		return "Java"
	case testimDesktop != "" || testimMobile != "":
		return "Testim"
	case java != "":
		return "Java"
	}
	return Unknown
}
