// Package web renders the HTML pages of the humidity calculator.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"

	"github.com/hygrolab/humidity-service/internal/psychro"
)

//go:embed templates static
var viewsFS embed.FS

var errNotLoaded = errors.New("page templates not loaded: build the renderer with web.NewRenderer during startup")

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func NewRenderer() (*Renderer, error) {
	return newRendererFromFS(viewsFS, "templates")
}

// newRendererFromFS parses templates from the given fs and dir.
// Used by NewRenderer and by tests to simulate failure scenarios.
func newRendererFromFS(fsys fs.FS, dir string) (*Renderer, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(sub, "*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// StaticFS returns the embedded static assets rooted at their serving path.
func StaticFS() (fs.FS, error) {
	return fs.Sub(viewsFS, "static")
}

// FormValues echoes the raw form inputs back into the page so a rejected
// submission keeps what the user typed.
type FormValues struct {
	Temperature string
	Humidity    string
	Strategy    string
}

// Example is one canned value set in the quick examples block.
type Example struct {
	Label       string
	Temperature string
	Humidity    string
}

// DefaultExamples returns the presets shown on the calculator page.
func DefaultExamples() []Example {
	return []Example{
		{Label: "Room Comfort", Temperature: "22", Humidity: "45"},
		{Label: "Summer Heat", Temperature: "32", Humidity: "70"},
		{Label: "Winter Chill", Temperature: "-5", Humidity: "80"},
	}
}

// IndexData is the view model for the calculator page.
type IndexData struct {
	Form     FormValues
	Result   *psychro.Result
	Error    string
	Examples []Example
}

// AboutData is the view model for the about page.
type AboutData struct {
	Version  string
	Strategy string
}

// Index renders the calculator page.
func (r *Renderer) Index(w io.Writer, data *IndexData) error {
	if r == nil || r.tmpl == nil {
		return errNotLoaded
	}
	return r.tmpl.ExecuteTemplate(w, "index.html", data)
}

// About renders the about page.
func (r *Renderer) About(w io.Writer, data *AboutData) error {
	if r == nil || r.tmpl == nil {
		return errNotLoaded
	}
	return r.tmpl.ExecuteTemplate(w, "about.html", data)
}

// Docs renders the human-readable API documentation page.
func (r *Renderer) Docs(w io.Writer) error {
	if r == nil || r.tmpl == nil {
		return errNotLoaded
	}
	return r.tmpl.ExecuteTemplate(w, "docs.html", nil)
}
