// internal/stages/localize/models.go
package localize

import "marketbrief/internal/models"

type Input struct {
	Content  string          `json:"content"`
	Language models.Language `json:"language"`
}

type Output struct {
	Rendering models.Rendering `json:"rendering"`
}
