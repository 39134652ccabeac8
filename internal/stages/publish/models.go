// internal/stages/publish/models.go
package publish

import "marketbrief/internal/models"

type Input struct {
	Rendering models.Rendering `json:"rendering"`
}

type Output struct {
	Result models.DeliveryResult `json:"result"`
}
