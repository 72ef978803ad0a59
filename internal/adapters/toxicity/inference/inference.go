// Package inference talks to a hosted text-classification endpoint that
// answers with [{"label","score"}] pairs, such as the Hugging Face inference API.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/adapters"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity"
	"github.com/iamwavecut/ngmod/internal/errors"
)

const maxResponseBytes = 1 << 20

type API struct {
	client *http.Client
	url    string
	apiKey string
	logger *log.Entry
}

type request struct {
	Inputs string `json:"inputs"`
}

// leveledLogrus demotes retry errors to warnings, retries are expected.
type leveledLogrus struct {
	entry *log.Entry
}

func (l leveledLogrus) Error(msg string, kv ...interface{}) { l.entry.WithFields(fields(kv)).Warn(msg) }
func (l leveledLogrus) Warn(msg string, kv ...interface{})  { l.entry.WithFields(fields(kv)).Warn(msg) }
func (l leveledLogrus) Info(msg string, kv ...interface{})  { l.entry.WithFields(fields(kv)).Debug(msg) }
func (l leveledLogrus) Debug(msg string, kv ...interface{}) { l.entry.WithFields(fields(kv)).Trace(msg) }

func fields(kv []interface{}) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}

func NewInference(url, apiKey string, timeout time.Duration, maxRetries int, logger *log.Entry) adapters.Toxicity {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = maxRetries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledLogrus{logger})
	client := retryClient.StandardClient()
	client.Timeout = timeout

	return &API{
		client: client,
		url:    url,
		apiKey: apiKey,
		logger: logger,
	}
}

func (a *API) Score(ctx context.Context, text string) ([]toxicity.LabelScore, error) {
	body, err := json.Marshal(request{Inputs: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Transport("toxicity request", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Transport("read toxicity response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Transport("toxicity request", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return decode(payload)
}

// decode accepts both the flat and the per-input nested response shapes.
func decode(payload []byte) ([]toxicity.LabelScore, error) {
	var flat []toxicity.LabelScore
	if err := json.Unmarshal(payload, &flat); err == nil && valid(flat) {
		return flat, nil
	}
	var nested [][]toxicity.LabelScore
	if err := json.Unmarshal(payload, &nested); err == nil && len(nested) > 0 && valid(nested[0]) {
		return nested[0], nil
	}
	return nil, toxicity.ErrMalformedResponse
}

func valid(scores []toxicity.LabelScore) bool {
	if len(scores) == 0 {
		return false
	}
	for _, s := range scores {
		if s.Label == "" {
			return false
		}
	}
	return true
}
