// internal/stages/fetch-news/models.go
package fetchnews

import "marketbrief/internal/models"

type Input struct {
	Topics []string `json:"topics"`
}

type Output struct {
	Results []models.SearchResult `json:"results"`
	// Degraded is set when every backend call failed for every topic and
	// the stage is handing an empty result set downstream.
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}
