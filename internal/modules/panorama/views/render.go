package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"

	"sensorpanorama/internal/modules/panorama/kpi"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl *template.Template

var funcs = template.FuncMap{
	"fmt2": kpi.Format,
}

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Link is a navigation target rendered as an anchor.
type Link struct {
	Label  string
	Href   string
	Active bool
}

// KPICard is the view model of one KPI tile.
type KPICard struct {
	Label   string
	Unit    string
	Color   string
	HasData bool
	Last    float64
	Avg     float64
	Min     float64
	Max     float64
}

// AxisInput is the view model of one metric's axis bound form.
type AxisInput struct {
	Key   string
	Label string
	Unit  string
	Min   float64
	Max   float64
}

// DashboardData is the view model for the whole page.
type DashboardData struct {
	StatusText  string
	StatusError bool
	RangeLabel  string
	ChartTitle  string
	ChartURL    string
	Modes       []Link
	Presets     []Link
	Metrics     []Link
	PrevURL     string
	NextURL     string
	StepEnabled bool
	CustomFrom  string
	CustomTo    string
	Mode        string
	Anchor      string
	MetricsCSV  string
	KPIs        []KPICard
	Axes        []AxisInput
	FocusLabel  string
	FocusPrev   string
	FocusNext   string
	PointCount  int
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderKPIsPartial executes only the KPI grid into w.
// Use for HTMX fragment refresh.
func RenderKPIsPartial(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/kpis.html", data)
}
