// Package export renders a finished recipe as a standalone printable HTML
// document. The document opens the browser print dialog on load, so "save as
// PDF" is left to the platform.
package export

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/chefdigital/chef/internal/services/photo"
	"github.com/chefdigital/chef/internal/services/recipe"
)

// ErrNoRecipe is returned when asked to render before a recipe exists.
var ErrNoRecipe = errors.New("export: no recipe to render")

//go:embed templates/recipe.html.tmpl
var templateFS embed.FS

var documentTemplate = template.Must(
	template.New("recipe.html.tmpl").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/recipe.html.tmpl"),
)

// Renderer produces printable recipe documents with a fixed set of labels.
type Renderer struct {
	labels Labels
	tmpl   *template.Template
}

// NewRenderer returns a Renderer. Zero labels fall back to Portuguese.
func NewRenderer(labels Labels) *Renderer {
	if labels == (Labels{}) {
		labels = PortugueseLabels
	}
	return &Renderer{labels: labels, tmpl: documentTemplate}
}

type documentData struct {
	Labels Labels
	Recipe *recipe.Recipe
	Image  template.URL
}

// Render writes the document for r to w. The image is embedded only when it is
// an image data URI; otherwise the document has no image element at all.
func (rd *Renderer) Render(w io.Writer, r *recipe.Recipe, image photo.Encoded) error {
	doc, err := rd.Document(r, image)
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}

// Document returns the rendered document. Nothing is written on error.
func (rd *Renderer) Document(r *recipe.Recipe, image photo.Encoded) ([]byte, error) {
	if r == nil {
		return nil, ErrNoRecipe
	}

	data := documentData{Labels: rd.labels, Recipe: r}
	if image.IsImage() {
		// data: URIs are filtered by html/template unless marked safe.
		data.Image = template.URL(image)
	}

	var buf bytes.Buffer
	if err := rd.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render recipe document: %w", err)
	}
	return buf.Bytes(), nil
}
