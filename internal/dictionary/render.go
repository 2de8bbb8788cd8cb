// ABOUTME: HTML rendering of words with Markdown definitions
// ABOUTME: Definitions go through goldmark; everything else is escaped by html/template

package dictionary

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))

	wordTemplate = template.Must(template.ParseFS(templateFS, "templates/word.html"))
)

type wordPage struct {
	Word     string
	Tags     []string
	Readings []readingView
}

type readingView struct {
	Full        string
	Accent      string
	Definitions []template.HTML
}

// RenderMarkdown converts a definition to HTML. Raw HTML in the source is
// omitted.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderWord writes w as an HTML page.
func RenderWord(out io.Writer, w *Word) error {
	page := wordPage{Word: w.Word}
	for _, t := range w.Tags {
		page.Tags = append(page.Tags, t.Tag)
	}
	for _, r := range w.Readings {
		view := readingView{Full: r.Full, Accent: r.Accent}
		for _, d := range r.Definitions {
			html, err := RenderMarkdown(d.Definition)
			if err != nil {
				return err
			}
			view.Definitions = append(view.Definitions, html)
		}
		page.Readings = append(page.Readings, view)
	}

	// Render to a buffer so a template error never leaves a partial page.
	var buf bytes.Buffer
	if err := wordTemplate.Execute(&buf, page); err != nil {
		return fmt.Errorf("rendering word: %w", err)
	}
	_, err := buf.WriteTo(out)
	return err
}
