// Package web embeds the dashboard HTML templates.
package web

import "embed"

//go:embed templates/*.html
var TemplateFS embed.FS
