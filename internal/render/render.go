// Package render turns transcripts and the conversation index into HTML and
// markdown views.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/legalhold/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown

	templates = template.Must(template.New("").Funcs(template.FuncMap{
		"markdown": MarkdownHTML,
		"isNote":   func(e models.TranscriptEntry) bool { return e.Kind == models.EntrySystemNote },
		"title":    conversationTitle,
	}).ParseFS(templateFS, "templates/*.html"))
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		// raw HTML in message text is dropped, not passed through
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// MarkdownHTML converts message text to HTML. Text that fails to convert is
// shown escaped.
func MarkdownHTML(text string) template.HTML {
	var buf bytes.Buffer
	if err := getMarkdown().Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

// TranscriptHTML writes a standalone HTML page for doc.
func TranscriptHTML(w io.Writer, doc *models.TranscriptDocument) error {
	if err := templates.ExecuteTemplate(w, "conversation.html", doc); err != nil {
		return fmt.Errorf("render transcript: %w", err)
	}
	return nil
}

// IndexHTML writes the conversation index page.
func IndexHTML(w io.Writer, convs []*models.Conversation) error {
	if err := templates.ExecuteTemplate(w, "index.html", convs); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return nil
}

// TranscriptMarkdown writes doc as markdown, one block per entry, with
// author names in bold and system notes in italics.
func TranscriptMarkdown(w io.Writer, doc *models.TranscriptDocument) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", conversationTitle(doc))
	for _, e := range doc.Entries {
		switch e.Kind {
		case models.EntrySystemNote:
			fmt.Fprintf(&sb, "_%s_ · %s\n\n", escapeMarkdown(e.Text), e.Timestamp)
		default:
			fmt.Fprintf(&sb, "**%s** · %s\n\n%s\n\n", escapeMarkdown(e.AuthorDisplayName), e.Timestamp, e.Text)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func conversationTitle(doc *models.TranscriptDocument) string {
	if doc.ConversationName != "" {
		return doc.ConversationName
	}
	return doc.ConversationID.String()
}

var markdownEscaper = strings.NewReplacer(`*`, `\*`, `_`, `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
