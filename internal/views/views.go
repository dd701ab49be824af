// Package views holds the page layout and template helpers shared by the
// dashboard modules.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strconv"
	"time"

	"pmwatch/internal/quality"
)

//go:embed layout
var layoutFS embed.FS

// Layout is the name of the template every page is executed through. Pages
// must define "title", "head" and "content".
const Layout = "layout"

var FuncMap = template.FuncMap{
	"fixed1": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"signed": quality.FormatDelta,
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.DateTime)
	},
	"date": func(t time.Time) string { return t.Format(time.DateOnly) },
}

// Parse builds a template set from the shared layout plus the files in fsys
// matching patterns.
func Parse(fsys fs.FS, patterns ...string) (*template.Template, error) {
	t, err := template.New(Layout).Funcs(FuncMap).ParseFS(layoutFS, "layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	t, err = t.ParseFS(fsys, patterns...)
	if err != nil {
		return nil, err
	}
	return t, nil
}
