package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"

	"pmwatch/internal/quality"
	"pmwatch/internal/reading"
	shared "pmwatch/internal/views"
)

const Title = "Smart PM2.5 CRMS6 (Live MQTT)"

var liveTmpl *template.Template

// loadTemplatesFromFS loads the live page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := shared.Parse(sub, "*.html")
	if err != nil {
		return err
	}
	liveTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded live templates. Call during startup before
// serving requests.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Card is one metric tile.
type Card struct {
	Label string
	Value float64
	Unit  string
	Delta float64
}

type LiveData struct {
	Title     string
	SiteName  string
	Topic     string
	Connected bool
	Flash     string
	// RefreshSeconds drives the page's meta refresh; zero disables it.
	RefreshSeconds int

	HasData   bool
	Cards     []Card
	Badge     quality.Category
	Latest    reading.Reading
	Readings  []reading.Reading
	ChartPath string
}

func RenderLive(w io.Writer, data *LiveData) error {
	if liveTmpl == nil {
		return errors.New("live template not loaded: call views.LoadTemplates during startup")
	}
	return liveTmpl.ExecuteTemplate(w, shared.Layout, data)
}
