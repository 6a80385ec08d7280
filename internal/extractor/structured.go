package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxRatings      = 5
	maxPrices       = 10
	maxTestimonials = 5
	maxCTAs         = 5
	maxCTALength    = 50
)

var ratingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d(?:\.\d{1,2})?\s*/\s*5\b`),
	regexp.MustCompile(`(?i)\b\d(?:\.\d{1,2})?\s+out\s+of\s+5\b`),
	regexp.MustCompile(`(?i)\brated\s+\d(?:\.\d{1,2})?\b`),
	regexp.MustCompile(`(?i)\b\d(?:\.\d{1,2})?\s*stars?\b`),
	regexp.MustCompile(`[★⭐][★⭐☆]{2,4}`),
	regexp.MustCompile(`(?i)\b\d{1,3}(?:,\d{3})*\+?\s+reviews?\b`),
}

var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[$£€]\s?\d+(?:,\d{3})*(?:\.\d{1,2})?`),
	regexp.MustCompile(`(?i)\bsave\s+\d{1,3}%`),
	regexp.MustCompile(`(?i)\b\d{1,3}%\s+off\b`),
}

var testimonialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"<>]{20,199})"`),
	regexp.MustCompile(`“([^”<>]{20,199})”`),
}

var ctaClassHints = []string{"btn", "button", "cta"}

// StructuredData holds the conversion signals found in a page's markup.
type StructuredData struct {
	Ratings      []string `json:"ratings"`
	Prices       []string `json:"prices"`
	Testimonials []string `json:"testimonials"`
	CTAs         []string `json:"ctas"`
}

func (s StructuredData) empty() bool {
	return len(s.Ratings) == 0 && len(s.Prices) == 0 && len(s.Testimonials) == 0 && len(s.CTAs) == 0
}

// block renders one labeled line per non-empty list.
func (s StructuredData) block() string {
	var lines []string
	if len(s.Ratings) > 0 {
		lines = append(lines, "Ratings & Reviews: "+strings.Join(s.Ratings, ", "))
	}
	if len(s.Prices) > 0 {
		lines = append(lines, "Pricing: "+strings.Join(s.Prices, ", "))
	}
	if len(s.CTAs) > 0 {
		lines = append(lines, "Call-to-Action Buttons: "+strings.Join(s.CTAs, ", "))
	}
	if len(s.Testimonials) > 0 {
		quoted := make([]string, len(s.Testimonials))
		for i, t := range s.Testimonials {
			quoted[i] = `"` + t + `"`
		}
		lines = append(lines, "Customer Testimonials: "+strings.Join(quoted, " | "))
	}
	return strings.Join(lines, "\n")
}

// collector keeps the first limit distinct values in insertion order.
type collector struct {
	limit  int
	dedupe bool
	seen   map[string]struct{}
	values []string
}

func newCollector(limit int, dedupe bool) *collector {
	return &collector{limit: limit, dedupe: dedupe, seen: make(map[string]struct{})}
}

func (c *collector) full() bool {
	return len(c.values) >= c.limit
}

func (c *collector) add(v string) {
	if v == "" || c.full() {
		return
	}
	if c.dedupe {
		if _, ok := c.seen[v]; ok {
			return
		}
		c.seen[v] = struct{}{}
	}
	c.values = append(c.values, v)
}

func (c *collector) result() []string {
	if c.values == nil {
		return []string{}
	}
	return c.values
}

func matchAll(html string, patterns []*regexp.Regexp, c *collector) {
	for _, re := range patterns {
		if c.full() {
			return
		}
		for _, m := range re.FindAllString(html, -1) {
			c.add(collapseSpaces(m))
			if c.full() {
				return
			}
		}
	}
}

func extractRatings(html string) []string {
	c := newCollector(maxRatings, true)
	matchAll(html, ratingPatterns, c)
	return c.result()
}

func extractPrices(html string) []string {
	c := newCollector(maxPrices, true)
	matchAll(html, pricePatterns, c)
	return c.result()
}

// extractTestimonials expects noise-stripped markup. Each remaining tag is
// replaced by a "<>" barrier so attribute values never match and a quote
// cannot span elements.
func extractTestimonials(html string) []string {
	c := newCollector(maxTestimonials, false)
	text := anyTag.ReplaceAllString(html, "<>")
	for _, re := range testimonialPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			c.add(collapseSpaces(m[1]))
			if c.full() {
				return c.result()
			}
		}
	}
	return c.result()
}

// extractCTAs walks the parsed DOM for <button> elements and <a> elements
// styled as buttons.
func extractCTAs(html string) []string {
	c := newCollector(maxCTAs, true)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return c.result()
	}

	doc.Find("button, a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == "a" && !hasCTAClass(s.AttrOr("class", "")) {
			return true
		}
		text := collapseSpaces(s.Text())
		if text != "" && utf8.RuneCountInString(text) < maxCTALength {
			c.add(text)
		}
		return !c.full()
	})

	return c.result()
}

func hasCTAClass(class string) bool {
	class = strings.ToLower(class)
	for _, hint := range ctaClassHints {
		if strings.Contains(class, hint) {
			return true
		}
	}
	return false
}

func extractStructuredData(html, stripped string) StructuredData {
	return StructuredData{
		Ratings:      extractRatings(html),
		Prices:       extractPrices(html),
		Testimonials: extractTestimonials(stripped),
		CTAs:         extractCTAs(html),
	}
}
