package extractor

import (
	"regexp"
	"strings"
	"sync"
)

// Matcher is the markup capability the extractor is built on. Implementations
// must be case-insensitive on tag and attribute names and match each element
// to its nearest closing tag.
type Matcher interface {
	// StripNoise removes script, style, noscript, iframe and svg blocks
	// (tag and contents) and HTML comments.
	StripNoise(html string) string
	// FirstTagContent returns the inner markup of the first <tag> element, or "".
	FirstTagContent(html, tag string) string
	// TagContents returns the inner markup of every element named in tags, in document order.
	TagContents(html string, tags ...string) []string
	// MetaContent returns the content attribute of the first <meta> whose
	// attr (name, property) equals value, or "".
	MetaContent(html, attr, value string) string
}

var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`),
	regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`),
	regexp.MustCompile(`(?s)<!--.*?-->`),
	regexp.MustCompile(`(?is)<noscript\b[^>]*>.*?</noscript\s*>`),
	regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>`),
	regexp.MustCompile(`(?is)<svg\b[^>]*>.*?</svg\s*>`),
}

// RegexMatcher implements Matcher with non-greedy regular expressions over raw markup.
type RegexMatcher struct {
	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

func NewRegexMatcher() *RegexMatcher {
	return &RegexMatcher{compiled: make(map[string]*regexp.Regexp)}
}

func (m *RegexMatcher) pattern(expr string) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.compiled[expr]; ok {
		return re
	}
	re := regexp.MustCompile(expr)
	m.compiled[expr] = re
	return re
}

func (m *RegexMatcher) StripNoise(html string) string {
	for _, re := range noisePatterns {
		html = re.ReplaceAllString(html, "")
	}
	return html
}

func (m *RegexMatcher) FirstTagContent(html, tag string) string {
	t := regexp.QuoteMeta(tag)
	re := m.pattern(`(?is)<` + t + `\b[^>]*>(.*?)</` + t + `\s*>`)
	if match := re.FindStringSubmatch(html); match != nil {
		return match[1]
	}
	return ""
}

func (m *RegexMatcher) TagContents(html string, tags ...string) []string {
	if len(tags) == 0 {
		return nil
	}
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = regexp.QuoteMeta(t)
	}
	alt := "(?:" + strings.Join(quoted, "|") + ")"
	re := m.pattern(`(?is)<` + alt + `\b[^>]*>(.*?)</` + alt + `\s*>`)

	var contents []string
	for _, match := range re.FindAllStringSubmatch(html, -1) {
		contents = append(contents, match[1])
	}
	return contents
}

func (m *RegexMatcher) MetaContent(html, attr, value string) string {
	a := regexp.QuoteMeta(attr)
	v := regexp.QuoteMeta(value)
	patterns := []string{
		`(?is)<meta\b[^>]*?\b` + a + `\s*=\s*["']` + v + `["'][^>]*?\bcontent\s*=\s*"([^"]*)"`,
		`(?is)<meta\b[^>]*?\b` + a + `\s*=\s*["']` + v + `["'][^>]*?\bcontent\s*=\s*'([^']*)'`,
		`(?is)<meta\b[^>]*?\bcontent\s*=\s*"([^"]*)"[^>]*?\b` + a + `\s*=\s*["']` + v + `["']`,
		`(?is)<meta\b[^>]*?\bcontent\s*=\s*'([^']*)'[^>]*?\b` + a + `\s*=\s*["']` + v + `["']`,
	}

	best, bestAt := "", -1
	for _, expr := range patterns {
		loc := m.pattern(expr).FindStringSubmatchIndex(html)
		if loc == nil {
			continue
		}
		if bestAt == -1 || loc[0] < bestAt {
			best, bestAt = html[loc[2]:loc[3]], loc[0]
		}
	}
	return best
}
