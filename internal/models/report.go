// Package models holds the transient artifacts a single pipeline run
// produces. Nothing here is persisted between runs.
package models

// Language identifies one target rendering of the daily report.
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageArabic  Language = "Arabic"
	LanguageHindi   Language = "Hindi"
	LanguageHebrew  Language = "Hebrew"
)

// TranslationTargets lists the languages produced by the localize stage,
// in delivery order. English is the untranslated presenter output and is
// not translated.
var TranslationTargets = []Language{LanguageArabic, LanguageHindi, LanguageHebrew}

// SearchResult is one story returned by a search backend. Results from
// different backends are merged order-preserving; duplicates may appear.
type SearchResult struct {
	Backend string `json:"backend"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ChartRef points at an illustrative chart image picked by keyword match
// against the summary text. At most two per run.
type ChartRef struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Rendering is the per-language text artifact ready for delivery.
// Fallback marks a static substitute document produced when translation
// was unavailable.
type Rendering struct {
	Language Language `json:"language"`
	Text     string   `json:"text"`
	Fallback bool     `json:"fallback"`
}

// DeliveryResult reports the outcome of publishing one rendering.
type DeliveryResult struct {
	Language Language `json:"language"`
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
}
