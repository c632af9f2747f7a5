package web

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/render"
)

// Raw HTML in the report (pull request titles, check descriptions) is dropped
// by goldmark and the remaining output is sanitized again.
var (
	reportMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	reportPolicy   = newReportPolicy()
)

func newReportPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("align").OnElements("th", "td")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := reportMarkdown.Convert([]byte(src), &buf); err != nil {
		return reportPolicy.Sanitize(src)
	}

	return reportPolicy.Sanitize(buf.String())
}

// RenderReport renders summary as the Markdown report and returns it as
// sanitized HTML ready for the page template.
func RenderReport(summary model.AggregateSummary, opts render.Options) (template.HTML, error) {
	var md bytes.Buffer
	if err := render.Markdown(&md, summary, opts); err != nil {
		return "", fmt.Errorf("render markdown report: %w", err)
	}

	return template.HTML(RenderMarkdown(md.String())), nil //nolint:gosec // sanitized by bluemonday
}
