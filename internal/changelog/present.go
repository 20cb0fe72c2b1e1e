package changelog

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	BannerStart = "==================== AI CHANGELOG ===================="
	BannerEnd   = "======================================================"

	defaultWordWrap = 100
)

// PresentOptions controls how the generated text is printed.
type PresentOptions struct {
	// Render passes the text through a terminal markdown renderer.
	Render bool
	// Style is a glamour standard style name; empty picks one from the terminal.
	Style    string
	WordWrap int
}

// Present writes text between the fixed banners. The text is written
// unchanged unless opts.Render is set.
func Present(w io.Writer, text string, opts PresentOptions) error {
	body := text
	if opts.Render {
		rendered, err := renderMarkdown(text, opts)
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		body = rendered
	}

	var b strings.Builder
	b.WriteString(BannerStart)
	b.WriteString("\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(BannerEnd)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func renderMarkdown(text string, opts PresentOptions) (string, error) {
	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = defaultWordWrap
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		return "", err
	}
	return r.Render(text)
}
