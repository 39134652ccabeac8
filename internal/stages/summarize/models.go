// internal/stages/summarize/models.go
package summarize

import "marketbrief/internal/models"

type Input struct {
	Results []models.SearchResult `json:"results"`
}

type Output struct {
	Summary string `json:"summary"`
	// Degraded marks a placeholder summary produced because the LLM call
	// failed; the text still flows downstream unchanged.
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}
