package domain

// ExtractionFailedMessage is shown in place of page content when the page could not be fetched.
const ExtractionFailedMessage = "Unable to extract readable content from the landing page. The site may block automated access or require JavaScript to render."

// LandingPageExtraction is a bounded, prompt-ready digest of a landing page.
type LandingPageExtraction struct {
	URL             string   `json:"url,omitempty"`
	FullText        string   `json:"full_text"`
	Title           string   `json:"title"`
	H1              string   `json:"h1"`
	MetaDescription string   `json:"meta_description"`
	Headings        []string `json:"headings"`
	Summary         string   `json:"summary"`
}

// FailedExtraction is the placeholder returned when the page fetch fails.
func FailedExtraction(url string) LandingPageExtraction {
	return LandingPageExtraction{
		URL:      url,
		FullText: ExtractionFailedMessage,
		Headings: []string{},
		Summary:  ExtractionFailedMessage,
	}
}

// Failed reports whether e is the fetch-failure placeholder.
func (e LandingPageExtraction) Failed() bool {
	return e.Summary == ExtractionFailedMessage && e.Title == "" && e.H1 == ""
}
