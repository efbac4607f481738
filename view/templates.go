package view

import (
	"embed"
	"html/template"
	"time"
)

// Element ids of the page
const (
	TemplateId  = "postTemplate"
	FormId      = "post_form"
	ContainerId = "posts"
	RootTag     = "main"
)

//go:embed templates/*.html
var templates embed.FS

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"isoDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	},
}

// ParseTemplates loads the page and post templates
func ParseTemplates() (*template.Template, error) {
	return template.New("").Funcs(functions).ParseFS(templates, "templates/*.html")
}
