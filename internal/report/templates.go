package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Имена страниц
const (
	PageIndex     = "index.html"
	PageResult    = "result.html"
	PagePlaylists = "playlists.html"
)

// Templates набор HTML-страниц приложения
type Templates struct {
	pages map[string]*template.Template
}

// NewTemplates разбирает встроенные шаблоны
func NewTemplates() (*Templates, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{PageIndex, PageResult, PagePlaylists} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Templates{pages: pages}, nil
}

// Execute рендерит страницу name
func (t *Templates) Execute(w io.Writer, name string, data interface{}) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
