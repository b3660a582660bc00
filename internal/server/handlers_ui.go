package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/testops/coverage-dashboard/internal/chart"
	"github.com/testops/coverage-dashboard/internal/dashboard"
	"github.com/testops/coverage-dashboard/internal/metrics"
	"github.com/testops/coverage-dashboard/web"
)

var templates map[string]*template.Template

func init() {
	funcMap := template.FuncMap{
		"pct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"barWidth": func(v float64) string {
			if v < 0 {
				v = 0
			}
			if v > 100 {
				v = 100
			}
			return fmt.Sprintf("%.1f%%", v)
		},
		"selected": func(vals []string, v string) bool {
			for _, s := range vals {
				if s == v {
					return true
				}
			}
			return false
		},
	}

	layout := template.Must(template.New("layout").Funcs(funcMap).ParseFS(web.TemplateFS, "templates/layout.html"))

	pages := []string{
		"templates/dashboard.html",
	}

	templates = make(map[string]*template.Template)
	for _, p := range pages {
		t := template.Must(template.Must(layout.Clone()).ParseFS(web.TemplateFS, p))
		templates[p] = t
	}
}

type pageData struct {
	Units    []string
	Selected string
	Error    string

	Report     *dashboard.Report
	Devices    []string
	Countries  []string
	Priorities []string
	Filter     metrics.Filter
	EpicSearch string

	FrameworkPie chart.Series
	TestimStatus chart.Series
	TestimDevice chart.Series
	DeviceTotals chart.Series
	TopBars      chart.Series
	BottomBars   chart.Series
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{
		Units:    s.cfg.UnitNames(),
		Selected: q.Get("bu"),
	}

	if data.Selected != "" {
		if _, err := s.cfg.Unit(data.Selected); err != nil {
			data.Error = err.Error()
			renderPage(w, "templates/dashboard.html", data)
			return
		}

		filter := metrics.Filter{
			Devices:    q["device"],
			Countries:  q["country"],
			Priorities: q["priority"],
		}
		topN, _ := strconv.Atoi(q.Get("top"))
		search := q.Get("epic_search")

		report, err := s.svc.BuildReport(r.Context(), data.Selected, filter, topN, search)
		if err != nil {
			s.logger.Error("build report", "business_unit", data.Selected, "error", err)
			data.Error = err.Error()
			renderPage(w, "templates/dashboard.html", data)
			return
		}

		table, err := s.svc.Table(r.Context(), data.Selected)
		if err == nil {
			data.Devices, data.Countries, data.Priorities = dashboard.FilterOptions(table)
		}

		data.Report = report
		data.Filter = filter
		data.EpicSearch = search
		data.FrameworkPie = chart.FrameworkPie(report.Overall)
		data.TestimStatus = chart.TestimStatusPie(report.Testim)
		data.TestimDevice = chart.TestimDeviceBar(report.Testim)
		data.DeviceTotals = chart.DeviceTotalsBar(report.Devices)
		data.TopBars = chart.EpicCoverageBars("Best Coverage", report.Top)
		data.BottomBars = chart.EpicCoverageBars("Needs Attention", report.Bottom)
	}

	renderPage(w, "templates/dashboard.html", data)
}

func renderPage(w http.ResponseWriter, name string, data pageData) {
	t, ok := templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
