// Package extractor turns landing page HTML into a bounded text digest that
// can be pasted into a language model prompt.
package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"surgly/internal/domain"
)

const (
	minHeadingLength  = 4
	maxHeadingLength  = 199
	summaryHeadings   = 10
	summaryTextLength = 4000
)

var (
	anyTag   = regexp.MustCompile(`<[^>]+>`)
	spaceRun = regexp.MustCompile(`[^\S\n]+`)
	allSpace = regexp.MustCompile(`\s+`)

	entities = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&mdash;", "—",
		"&ndash;", "–",
	)
)

// Extractor implements domain.ContentExtractor.
type Extractor struct {
	matcher Matcher
}

// New returns an Extractor backed by the regex matcher.
func New() *Extractor {
	return NewWithMatcher(NewRegexMatcher())
}

func NewWithMatcher(m Matcher) *Extractor {
	return &Extractor{matcher: m}
}

// Extract never fails: markup that matches nothing just yields empty fields.
func (e *Extractor) Extract(html string) domain.LandingPageExtraction {
	stripped := e.matcher.StripNoise(html)

	// Ratings, prices and CTAs come from the untouched markup since CTA
	// classes do not survive tag stripping. Testimonials need the noise gone.
	structured := extractStructuredData(html, stripped)

	fullText := cleanBody(stripped)
	if !structured.empty() {
		block := structured.block()
		if fullText == "" {
			fullText = block
		} else {
			fullText = block + "\n\n" + fullText
		}
	}

	title := cleanFragment(e.matcher.FirstTagContent(stripped, "title"))
	h1 := cleanFragment(e.matcher.FirstTagContent(stripped, "h1"))
	description := cleanFragment(e.matcher.MetaContent(stripped, "name", "description"))
	if description == "" {
		description = cleanFragment(e.matcher.MetaContent(stripped, "property", "og:description"))
	}
	headings := e.headings(stripped)

	return domain.LandingPageExtraction{
		FullText:        fullText,
		Title:           title,
		H1:              h1,
		MetaDescription: description,
		Headings:        headings,
		Summary:         composeSummary(title, h1, description, headings, fullText),
	}
}

func (e *Extractor) headings(html string) []string {
	headings := []string{}
	for _, raw := range e.matcher.TagContents(html, "h2", "h3", "h4") {
		text := cleanFragment(raw)
		n := utf8.RuneCountInString(text)
		if n >= minHeadingLength && n <= maxHeadingLength {
			headings = append(headings, text)
		}
	}
	return headings
}

func composeSummary(title, h1, description string, headings []string, fullText string) string {
	var sections []string
	if title != "" {
		sections = append(sections, "Page Title: "+title)
	}
	if h1 != "" {
		sections = append(sections, "Main Headline (H1): "+h1)
	}
	if description != "" {
		sections = append(sections, "Meta Description: "+description)
	}
	if len(headings) > 0 {
		if len(headings) > summaryHeadings {
			headings = headings[:summaryHeadings]
		}
		sections = append(sections, "Key Sections:\n- "+strings.Join(headings, "\n- "))
	}
	if fullText != "" {
		sections = append(sections, "Page Content:\n"+truncateRunes(fullText, summaryTextLength))
	}
	return strings.Join(sections, "\n\n")
}

// cleanBody strips tags and entities but keeps line structure, dropping blank lines.
func cleanBody(html string) string {
	text := entities.Replace(anyTag.ReplaceAllString(html, " "))
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// cleanFragment flattens a captured fragment to a single trimmed line.
func cleanFragment(html string) string {
	if html == "" {
		return ""
	}
	text := entities.Replace(anyTag.ReplaceAllString(html, " "))
	return strings.TrimSpace(allSpace.ReplaceAllString(text, " "))
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(allSpace.ReplaceAllString(s, " "))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
