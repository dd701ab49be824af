package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"

	"pmwatch/internal/quality"
	shared "pmwatch/internal/views"
)

const Title = "Smart PM2.5 CRMS6 (Synthetic Trend)"

var trendTmpl *template.Template

func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := shared.Parse(sub, "*.html")
	if err != nil {
		return err
	}
	trendTmpl = tmpl
	return nil
}

func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

type Card struct {
	Label string
	Value float64
	Unit  string
	Delta float64
}

type TrendData struct {
	Title    string
	SiteName string
	// Start and End echo the date inputs as YYYY-MM-DD.
	Start   string
	End     string
	Warning string

	HasData          bool
	Cards            []Card
	Summary          quality.Summary
	PM25ChartPath    string
	ClimateChartPath string
}

func RenderTrend(w io.Writer, data *TrendData) error {
	if trendTmpl == nil {
		return errors.New("trend template not loaded: call views.LoadTemplates during startup")
	}
	return trendTmpl.ExecuteTemplate(w, shared.Layout, data)
}
