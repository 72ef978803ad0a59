package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/iamwavecut/ngmod/internal/adapters"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity"
	"github.com/iamwavecut/ngmod/internal/errors"
)

const DefaultModel = "gemini-2.0-flash-lite"

const systemPrompt = `You are a toxicity classifier for chat messages.
Rate how toxic the user message is: insults, hate, harassment, threats.
Respond only with JSON: {"toxic": <number between 0 and 1>}`

type API struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *log.Entry
}

type verdict struct {
	Toxic *float64 `json:"toxic"`
}

func NewGemini(ctx context.Context, apiKey, model string, logger *log.Entry) (adapters.Toxicity, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0)
	m.SetMaxOutputTokens(64)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	// The classifier has to see the text it rates.
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}
	return &API{client: client, model: m, logger: logger}, nil
}

func (g *API) Score(ctx context.Context, text string) ([]toxicity.LabelScore, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return nil, errors.Transport("gemini generate", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, toxicity.ErrMalformedResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return parseVerdict(b.String())
}

func (g *API) Close() error {
	return g.client.Close()
}

func parseVerdict(raw string) ([]toxicity.LabelScore, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "```"), "```")

	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil || v.Toxic == nil {
		return nil, toxicity.ErrMalformedResponse
	}
	if *v.Toxic < 0 || *v.Toxic > 1 {
		return nil, toxicity.ErrMalformedResponse
	}
	return []toxicity.LabelScore{{Label: toxicity.LabelToxic, Score: *v.Toxic}}, nil
}
