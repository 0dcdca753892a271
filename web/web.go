// Package web holds the embedded HTML templates for the storefront.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses the embedded storefront templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}
