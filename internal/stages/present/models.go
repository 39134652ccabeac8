// internal/stages/present/models.go
package present

import "marketbrief/internal/models"

type Input struct {
	Summary string `json:"summary"`
}

type Output struct {
	Formatted string            `json:"formatted"`
	Charts    []models.ChartRef `json:"charts"`
	// Degraded is set when chart lookup failed; the formatted text is
	// still complete, just without chart links.
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}
