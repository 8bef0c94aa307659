// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"reviewlens/internal/resilience"
	"reviewlens/internal/review"
	"reviewlens/internal/version"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	maxErrorBody       = 512

	// Tasks served besides the analysis types.
	TaskEmbeddings  = "embeddings"
	TaskTranslation = "translation"
	TaskTopics      = "topics"
)

// HTTPConfig configures a model-server client.
type HTTPConfig struct {
	Endpoint string
	Timeout  time.Duration
	Retry    resilience.RetryConfig
	Breaker  resilience.CircuitBreakerConfig

	// BatchSize is forwarded to the server as the model batch size. Zero
	// leaves it to the server.
	BatchSize int
}

// HTTPClassifier posts texts to a model server as
// {"inputs": [...], "task": "..."} and decodes one result per input.
type HTTPClassifier struct {
	endpoint   string
	task       string
	batchSize  int
	httpClient *http.Client
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
	logger     *zap.Logger
}

// HTTPOption customizes the client.
type HTTPOption func(*HTTPClassifier)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClassifier) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for retry notices.
func WithLogger(logger *zap.Logger) HTTPOption {
	return func(c *HTTPClassifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBreaker shares a circuit breaker between clients of the same server.
func WithBreaker(cb *resilience.CircuitBreaker) HTTPOption {
	return func(c *HTTPClassifier) {
		if cb != nil {
			c.breaker = cb
		}
	}
}

// NewHTTPClassifier builds a client for one analysis task, or for
// TaskEmbeddings, TaskTranslation or TaskTopics.
func NewHTTPClassifier(task string, cfg HTTPConfig, opts ...HTTPOption) (*HTTPClassifier, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("model server endpoint required")
	}
	switch task {
	case TaskEmbeddings, TaskTranslation, TaskTopics:
	default:
		if _, err := review.ParseAnalysisType(task); err != nil {
			return nil, err
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retry := cfg.Retry
	if retry.InitialInterval == 0 {
		retry = resilience.ModelServerRetryConfig()
	}
	breakerCfg := cfg.Breaker
	if breakerCfg.FailureThreshold == 0 {
		breakerCfg = resilience.DefaultCircuitBreakerConfig("model-server")
	}

	c := &HTTPClassifier{
		endpoint:   endpoint,
		task:       task,
		batchSize:  cfg.BatchSize,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		breaker:    resilience.NewCircuitBreaker(breakerCfg),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		logger := c.logger
		c.retry.OnRetry = func(attempt int, err error) {
			logger.Warn("retrying model server request",
				zap.String("task", task),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
	}
	return c, nil
}

// Task returns the task name sent with every request.
func (c *HTTPClassifier) Task() string {
	return c.task
}

type inferenceRequest struct {
	Inputs     []string             `json:"inputs"`
	Task       string               `json:"task"`
	Parameters *inferenceParameters `json:"parameters,omitempty"`
}

type inferenceParameters struct {
	BatchSize int `json:"batch_size"`
}

// Classify implements Classifier.
func (c *HTTPClassifier) Classify(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	raw, err := c.call(ctx, texts)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(raw))
	for i, item := range raw {
		res, err := decodeResult(c.task, item)
		if err != nil {
			return nil, resilience.NewPermanentError(fmt.Sprintf("model server: result %d: %v", i, err), err)
		}
		results[i] = res
	}
	return results, nil
}

// Embed implements Embedder.
func (c *HTTPClassifier) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	raw, err := c.call(ctx, texts)
	if err != nil {
		return nil, err
	}
	vectors := make([][]float64, len(raw))
	for i, item := range raw {
		if err := json.Unmarshal(item, &vectors[i]); err != nil {
			return nil, resilience.NewPermanentError(fmt.Sprintf("model server: embedding %d: %v", i, err), err)
		}
	}
	return vectors, nil
}

func (c *HTTPClassifier) call(ctx context.Context, texts []string) ([]json.RawMessage, error) {
	req := inferenceRequest{Inputs: texts, Task: c.task}
	if c.batchSize > 0 {
		req.Parameters = &inferenceParameters{BatchSize: c.batchSize}
	}
	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("model server: encode body: %w", err)
	}

	var raw []json.RawMessage
	err = resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, func(ctx context.Context) error {
		var callErr error
		raw, callErr = c.sendOnce(ctx, encoded)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(raw) != len(texts) {
		return nil, &AlignmentError{Expected: len(texts), Got: len(raw)}
	}
	return raw, nil
}

func (c *HTTPClassifier) sendOnce(ctx context.Context, body []byte) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, resilience.NewPermanentError(fmt.Sprintf("model server: new request: %v", err), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model server: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(fmt.Sprintf("model server: read body: %v", err), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet := string(payload)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, resilience.ClassifyHTTPStatus(resp.StatusCode, snippet, parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, resilience.NewPermanentError(fmt.Sprintf("model server: decode response: %v", err), err)
	}
	return raw, nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if ts, err := http.ParseTime(v); err == nil {
		if d := time.Until(ts); d > 0 {
			return d
		}
	}
	return 0
}

// translationOutput is the shape translation pipelines answer with.
type translationOutput struct {
	TranslationText string `json:"translation_text"`
}

// topicOutput is one topic assignment.
type topicOutput struct {
	Topic       *int     `json:"topic"`
	Label       string   `json:"label"`
	Probability *float64 `json:"probability"`
}

func decodeResult(task string, raw json.RawMessage) (Result, error) {
	switch task {
	case TaskTranslation:
		// A bare string, {"translation_text"} or a one-element list of it.
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return Result{Text: text}, nil
		}
		var single translationOutput
		if err := json.Unmarshal(raw, &single); err == nil {
			return Result{Text: single.TranslationText}, nil
		}
		var list []translationOutput
		if err := json.Unmarshal(raw, &list); err != nil {
			return Result{}, err
		}
		if len(list) == 0 {
			return Result{}, errors.New("empty translation")
		}
		return Result{Text: list[0].TranslationText}, nil

	case TaskTopics:
		var out topicOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return Result{}, err
		}
		if out.Topic == nil {
			return Result{}, errors.New("topic missing")
		}
		res := Result{Topic: *out.Topic, Label: out.Label}
		if out.Probability != nil {
			res.Score = *out.Probability
		}
		return res, nil
	}

	switch review.AnalysisType(task) {
	case review.Sentiment:
		// Pipelines answer either {"label","score"} or a one-element list of it.
		var single LabelScore
		if err := json.Unmarshal(raw, &single); err == nil {
			return Result{Label: single.Label, Score: single.Score}, nil
		}
		var list []LabelScore
		if err := json.Unmarshal(raw, &list); err != nil {
			return Result{}, err
		}
		if len(list) == 0 {
			return Result{}, errors.New("empty sentiment prediction")
		}
		best := list[0]
		for _, ls := range list[1:] {
			if ls.Score > best.Score {
				best = ls
			}
		}
		return Result{Label: best.Label, Score: best.Score}, nil

	case review.Emotion, review.Argument:
		var list []LabelScore
		if err := json.Unmarshal(raw, &list); err != nil {
			return Result{}, err
		}
		return Result{Scores: list}, nil

	case review.Aspects:
		var a AspectResult
		if err := json.Unmarshal(raw, &a); err != nil {
			return Result{}, err
		}
		return Result{Aspects: &a}, nil

	default:
		return Result{}, fmt.Errorf("unsupported task %q", task)
	}
}
