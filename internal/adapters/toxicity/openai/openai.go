package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/adapters"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity"
	"github.com/iamwavecut/ngmod/internal/errors"
)

const DefaultModel = "omni-moderation-latest"

type API struct {
	client *openai.Client
	model  string
	logger *log.Entry
}

func NewOpenAI(apiKey, model, baseURL string, logger *log.Entry) adapters.Toxicity {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &API{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

// Score maps the moderation categories onto labels. The "toxic" label carries
// the stronger of the hate and harassment scores.
func (o *API) Score(ctx context.Context, text string) ([]toxicity.LabelScore, error) {
	resp, err := o.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: o.model,
	})
	if err != nil {
		return nil, errors.Transport("openai moderation", err)
	}
	if len(resp.Results) == 0 {
		return nil, toxicity.ErrMalformedResponse
	}

	scores := resp.Results[0].CategoryScores
	toxic := max(scores.Hate, scores.Harassment, scores.HateThreatening, scores.HarassmentThreatening)
	return []toxicity.LabelScore{
		{Label: toxicity.LabelToxic, Score: float64(toxic)},
		{Label: "hate", Score: float64(scores.Hate)},
		{Label: "harassment", Score: float64(scores.Harassment)},
		{Label: "sexual", Score: float64(scores.Sexual)},
		{Label: "violence", Score: float64(scores.Violence)},
		{Label: "self-harm", Score: float64(scores.SelfHarm)},
	}, nil
}
