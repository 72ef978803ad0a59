package toxicity

import (
	"errors"
	"strings"
)

// LabelToxic is the label adapters report their overall toxicity score under.
const LabelToxic = "toxic"

var ErrMalformedResponse = errors.New("malformed toxicity response")

type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ToxicScore returns the score of the first entry whose label contains "toxic".
func ToxicScore(scores []LabelScore) (float64, bool) {
	for _, s := range scores {
		if strings.Contains(strings.ToLower(s.Label), LabelToxic) {
			return s.Score, true
		}
	}
	return 0, false
}
