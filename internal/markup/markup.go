// Package markup handles the small markdown dialect used in ticket comments:
// free text followed by one line per attachment, `![Image](url)` for images
// and `[Video](url)` for videos.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

const videoLabel = "Video"

// Media is an attachment reference found in a comment body.
type Media struct {
	Kind domain.AttachmentKind
	URL  string
}

// AppendAttachments adds one markup line per image or video to body.
// Invoices are stored as evidence only and are not inlined.
func AppendAttachments(body string, media []Media) string {
	body = strings.TrimSpace(body)

	var lines []string
	for _, m := range media {
		switch m.Kind {
		case domain.AttachmentImage:
			lines = append(lines, fmt.Sprintf("![Image](%s)", m.URL))
		case domain.AttachmentVideo:
			lines = append(lines, fmt.Sprintf("[%s](%s)", videoLabel, m.URL))
		}
	}
	if len(lines) == 0 {
		return body
	}
	return body + "\n\n" + strings.Join(lines, "\n") + "\n"
}

// Renderer converts comment bodies into sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer builds a renderer with GFM enabled and a UGC sanitization policy.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{md: md, policy: policy}
}

// ToHTML renders body and strips anything outside the UGC policy.
func (r *Renderer) ToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// Extract lists the media references in body in document order.
func (r *Renderer) Extract(body string) []Media {
	source := []byte(body)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var out []Media
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			out = append(out, Media{Kind: domain.AttachmentImage, URL: string(node.Destination)})
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			if plainText(node, source) == videoLabel {
				out = append(out, Media{Kind: domain.AttachmentVideo, URL: string(node.Destination)})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return b.String()
}
