// Package render turns generated markdown reports into standalone HTML
// artifacts for download.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

const htmlHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 56em; margin: 2em auto; padding: 0 1em; color: #222; }
table { border-collapse: collapse; width: 100%%; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; }
th { background: #f4f4f4; }
h1, h2 { border-bottom: 1px solid #eee; padding-bottom: 0.2em; }
</style>
</head>
<body>
`

const htmlFooter = "\n</body>\n</html>\n"

// Renderer converts report markdown to HTML. Tables in the markdown are
// rendered via the GFM extension.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a report renderer.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
	}
}

// HTML converts markdown to a complete HTML document.
func (r *Renderer) HTML(title, contentMD string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(contentMD), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return fmt.Sprintf(htmlHeader, title) + buf.String() + htmlFooter, nil
}

// WriteReport renders markdown and writes the HTML artifact under dir.
// Returns the path of the written file.
func (r *Renderer) WriteReport(dir, name, title, contentMD string) (string, error) {
	html, err := r.HTML(title, contentMD)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, name+".html")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
