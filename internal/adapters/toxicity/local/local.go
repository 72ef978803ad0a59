// Package local runs a text-classification model in process with cybertron.
package local

import (
	"context"
	"fmt"

	"github.com/nlpodyssey/cybertron/pkg/tasks"
	"github.com/nlpodyssey/cybertron/pkg/tasks/textclassification"
	"github.com/rs/zerolog"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/adapters"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity"
)

const DefaultModel = "unitary/toxic-bert"

type Model struct {
	classifier textclassification.Interface
	logger     *log.Entry
}

// NewModel loads the model from modelsDir, downloading and converting it when missing.
func NewModel(modelsDir, modelName string, logger *log.Entry) (adapters.Toxicity, error) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if modelName == "" {
		modelName = DefaultModel
	}

	m, err := tasks.Load[textclassification.Interface](&tasks.Config{
		ModelsDir:           modelsDir,
		ModelName:           modelName,
		DownloadPolicy:      tasks.DownloadMissing,
		ConversionPolicy:    tasks.ConvertMissing,
		ConversionPrecision: tasks.F32,
	})
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelName, err)
	}
	logger.WithField("model", modelName).Info("local toxicity model loaded")
	return &Model{classifier: m, logger: logger}, nil
}

func (m *Model) Score(ctx context.Context, text string) ([]toxicity.LabelScore, error) {
	result, err := m.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(result.Labels) == 0 || len(result.Labels) != len(result.Scores) {
		return nil, toxicity.ErrMalformedResponse
	}
	scores := make([]toxicity.LabelScore, 0, len(result.Labels))
	for i := range result.Labels {
		scores = append(scores, toxicity.LabelScore{Label: result.Labels[i], Score: result.Scores[i]})
	}
	return scores, nil
}
