// Package packages prepares registry package metadata for display: Markdown
// descriptions are rendered to HTML and summarized for list rows.
package packages

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/atopile/dashsync/internal/appstate"
	"github.com/atopile/dashsync/internal/foundation"
	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
)

// RenderDescription converts a package's Markdown description to HTML.
func RenderDescription(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", ferrors.StateError("render package description").WithCause(err).Build()
	}
	return buf.String(), nil
}

// Summary extracts the first paragraph of a Markdown description as plain
// text, for package list rows. Headings are skipped; an empty description
// yields an empty string.
func Summary(markdown string) string {
	body := []byte(markdown)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var summary string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || summary != "" {
			return gmast.WalkContinue, nil
		}
		if _, ok := n.(*gmast.Paragraph); !ok {
			return gmast.WalkContinue, nil
		}
		var sb strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			collectText(c, body, &sb)
		}
		summary = strings.TrimSpace(sb.String())
		return gmast.WalkSkipChildren, nil
	})
	return summary
}

func collectText(n gmast.Node, source []byte, sb *strings.Builder) {
	switch node := n.(type) {
	case *gmast.Text:
		sb.Write(node.Segment.Value(source))
		if node.SoftLineBreak() || node.HardLineBreak() {
			sb.WriteByte(' ')
		}
	case *gmast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			collectText(c, source, sb)
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			collectText(c, source, sb)
		}
	}
}

// DescriptionHTML renders the description of fetched package details to
// HTML. It returns None when there is no description or rendering fails;
// callers fall back to the raw Markdown.
func DescriptionHTML(details *appstate.PackageDetails) foundation.Option[string] {
	if details == nil {
		return foundation.None[string]()
	}
	desc, ok := details.Description.Get()
	if !ok || desc == "" {
		return foundation.None[string]()
	}
	html, err := RenderDescription(desc)
	if err != nil {
		return foundation.None[string]()
	}
	return foundation.Some(html)
}
