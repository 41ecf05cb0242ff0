package web

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const noTitle = "(no title)"

// Elements stripped before text extraction.
const skipSelector = "script,style,nav,footer,header,aside,noscript,iframe,form"

// Extractor converts raw markup into a title and a plain-text body.
// Both methods are pure functions of their input and never fail: a
// structurally broken document degrades to lower-fidelity text.
type Extractor interface {
	Title(markup string) string
	Body(markup string) string
}

// NewExtractor returns the structured extractor backed by the regex
// fallback for markup the HTML parser cannot handle.
func NewExtractor() Extractor {
	return &StructuredExtractor{fallback: RegexExtractor{}}
}

// StructuredExtractor parses the document and walks its text nodes after
// removing non-content elements.
type StructuredExtractor struct {
	fallback RegexExtractor
}

func (e *StructuredExtractor) Title(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return e.fallback.Title(markup)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return noTitle
	}
	return title
}

func (e *StructuredExtractor) Body(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return e.fallback.Body(markup)
	}
	doc.Find(skipSelector).Remove()

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}
	return collapseNewlines(strings.Join(lines, "\n"))
}

var (
	scriptRe    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	titleRe     = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	newlinesRe  = regexp.MustCompile(`\n{3,}`)
	blankLineRe = regexp.MustCompile(`(?m)^[ \t]+$`)
)

// RegexExtractor strips tags without building a document tree. It is the
// degraded mode used when structured parsing is unavailable.
type RegexExtractor struct{}

func (RegexExtractor) Title(markup string) string {
	match := titleRe.FindStringSubmatch(markup)
	if match == nil {
		return noTitle
	}
	title := strings.TrimSpace(match[1])
	if title == "" {
		return noTitle
	}
	return title
}

func (RegexExtractor) Body(markup string) string {
	text := scriptRe.ReplaceAllString(markup, "")
	text = styleRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	text = blankLineRe.ReplaceAllString(text, "")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return collapseNewlines(strings.Join(lines, "\n"))
}

func collapseNewlines(text string) string {
	return newlinesRe.ReplaceAllString(text, "\n\n")
}
