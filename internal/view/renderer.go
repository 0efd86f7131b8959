package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

// Region template names. Each is also the id suffix of its container element.
const (
	RegionSearch  = "search"
	RegionDetail  = "detail"
	RegionCharts  = "charts"
	RegionCompare = "compare"
)

// Regions holds the rendered HTML of each replaceable page region.
type Regions struct {
	Search  string `json:"search"`
	Detail  string `json:"detail"`
	Charts  string `json:"charts"`
	Compare string `json:"compare"`
}

// Renderer executes the page and partial templates.
type Renderer struct {
	templates *template.Template
	pagesDir  string
}

// FindPagesDir locates the pages directory.
func FindPagesDir() string {
	dirs := []string{
		"./pages",
		"../pages",
		"../../pages",
		".",
	}

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

// NewRenderer parses *.html and partials/*.html under pagesDir.
func NewRenderer(pagesDir string) (*Renderer, error) {
	templates, err := template.ParseGlob(filepath.Join(pagesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates in %s: %w", pagesDir, err)
	}
	if _, err := templates.ParseGlob(filepath.Join(pagesDir, "partials", "*.html")); err != nil {
		return nil, fmt.Errorf("failed to parse partial templates in %s: %w", pagesDir, err)
	}
	return &Renderer{templates: templates, pagesDir: pagesDir}, nil
}

// PagesDir returns the directory the templates were loaded from.
func (r *Renderer) PagesDir() string {
	return r.pagesDir
}

// Page renders the full index page.
func (r *Renderer) Page(w io.Writer, p PageView) error {
	return r.templates.ExecuteTemplate(w, "index.html", p)
}

// Regions renders each region partial on its own.
func (r *Renderer) Regions(p PageView) (Regions, error) {
	var out Regions
	parts := []struct {
		name string
		data interface{}
		dst  *string
	}{
		{RegionSearch, p.Search, &out.Search},
		{RegionDetail, p.Detail, &out.Detail},
		{RegionCharts, p.Charts, &out.Charts},
		{RegionCompare, p.Comparison, &out.Compare},
	}
	for _, part := range parts {
		var buf bytes.Buffer
		if err := r.templates.ExecuteTemplate(&buf, part.name, part.data); err != nil {
			return Regions{}, fmt.Errorf("failed to render %s region: %w", part.name, err)
		}
		*part.dst = buf.String()
	}
	return out, nil
}
