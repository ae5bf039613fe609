package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Service turns operator-written markdown (reseller instructions, support notes)
// into the HTML subset accepted by Telegram's parse_mode=HTML.
type Service interface {
	ToTelegramHTML(markdown string) (string, error)
	Sanitize(htmlContent string) string
}

type service struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

var (
	headingOpen  = regexp.MustCompile(`<h[1-6][^>]*>`)
	headingClose = regexp.MustCompile(`</h[1-6]>`)
	breakTag     = regexp.MustCompile(`<br\s*/?>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
	blockReplace = strings.NewReplacer(
		"<p>", "", "</p>", "\n\n",
		"<ul>", "", "</ul>", "\n",
		"<ol>", "", "</ol>", "\n",
		"<li>", "• ", "</li>", "\n",
		"<hr />", "\n", "<hr>", "\n",
	)
)

func NewService() Service {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	// Telegram only understands a handful of inline tags; everything else is
	// stripped with its text content kept.
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowURLSchemes("https", "http", "tg")
	policy.RequireParseableURLs(true)
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w-]+$`)).OnElements("code")

	return &service{md: md, policy: policy}
}

func (s *service) ToTelegramHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	out := headingOpen.ReplaceAllString(buf.String(), "<b>")
	out = headingClose.ReplaceAllString(out, "</b>\n")
	out = breakTag.ReplaceAllString(out, "\n")
	out = blockReplace.Replace(out)

	return s.Sanitize(out), nil
}

func (s *service) Sanitize(htmlContent string) string {
	out := s.policy.Sanitize(htmlContent)
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
