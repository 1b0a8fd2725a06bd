// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go-tours/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is the payload handed to every template.
type PageData struct {
	Title   string
	User    *models.User
	Tours   []models.Tour
	Tour    *models.Tour
	Message string
}

// Renderer holds the parsed page templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates once at startup.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Render executes the named page template. The page is buffered so a
// template error never leaves a half-written response.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data PageData) error {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
