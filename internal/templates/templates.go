package templates

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed views/*.html
var viewTemplates embed.FS

const (
	// WelcomeTemplate is the name of the counter page template
	WelcomeTemplate = "welcome.html"

	// WelcomeHeading is the page heading of the candidate interface
	WelcomeHeading = "DGTT Auto-École - Interface Candidat"

	// IncrementPath is the form action of the counter button
	IncrementPath = "/counter/increment"
)

// TemplateRenderer manages loading and rendering of the HTML views
type TemplateRenderer struct {
	htmlTemplates *template.Template
}

// WelcomeData holds data for the welcome view
type WelcomeData struct {
	Title         string
	Heading       string
	IncrementPath string
	Count         int64
}

// NewWelcomeData returns the view data for a given counter value
func NewWelcomeData(count int64) WelcomeData {
	return WelcomeData{
		Title:         WelcomeHeading,
		Heading:       WelcomeHeading,
		IncrementPath: IncrementPath,
		Count:         count,
	}
}

// NewTemplateRenderer parses all embedded views
func NewTemplateRenderer() (*TemplateRenderer, error) {
	htmlTmpl, err := template.ParseFS(viewTemplates, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load HTML templates: %w", err)
	}

	return &TemplateRenderer{
		htmlTemplates: htmlTmpl,
	}, nil
}

// HTML returns the parsed template set, suitable for gin's SetHTMLTemplate
func (t *TemplateRenderer) HTML() *template.Template {
	return t.htmlTemplates
}

// RenderWelcome renders the welcome view for the given counter value
func (t *TemplateRenderer) RenderWelcome(count int64) (string, error) {
	var buf strings.Builder
	if err := t.htmlTemplates.ExecuteTemplate(&buf, WelcomeTemplate, NewWelcomeData(count)); err != nil {
		return "", fmt.Errorf("failed to render welcome template: %w", err)
	}

	return buf.String(), nil
}
