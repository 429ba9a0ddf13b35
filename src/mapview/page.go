package mapview

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed templates/map.html
var templates embed.FS

const PageTitle = "Flickr Commons pictures"

// Page is the data of one rendered map page. View is nil when the run failed
// before the map could be initialized.
type Page struct {
	Title  string
	Status string
	View   *View
}

type Renderer struct {
	tmpl *template.Template
}

func LoadTemplate() (*Renderer, error) {
	tmpl, err := template.New("map.html").ParseFS(templates, "templates/map.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page to w only after the template executed completely.
func (r *Renderer) Render(w io.Writer, page Page) error {
	if page.Title == "" {
		page.Title = PageTitle
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
