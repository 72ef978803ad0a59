package adapters

import (
	"context"

	"github.com/iamwavecut/ngmod/internal/adapters/toxicity"
)

// Toxicity scores a text against the labels of a toxicity model.
type Toxicity interface {
	Score(ctx context.Context, text string) ([]toxicity.LabelScore, error)
}
