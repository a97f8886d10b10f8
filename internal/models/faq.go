package models

// FAQEntry is a canned answer keyed by a pipe-delimited keyword pattern.
// The JSON form matches the static faq.json resource: {"q": ..., "a": ...}.
type FAQEntry struct {
	Pattern string `json:"q"`
	Answer  string `json:"a"`
}

type FAQMatchRequest struct {
	Query string `json:"query"`
}

type FAQMatchResponse struct {
	Matched bool   `json:"matched"`
	Answer  string `json:"answer,omitempty"`
	Pass    string `json:"pass"` // "regex" | "score" | "none"
}
