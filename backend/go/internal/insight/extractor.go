package insight

import (
	"RCA_Insights/backend/go/internal/llm"
	"RCA_Insights/backend/go/internal/models"
	"RCA_Insights/backend/go/pkg/logger"
	"RCA_Insights/backend/go/pkg/lru"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SystemPrompt is the extraction policy sent ahead of every document. It only
// biases the model; the brief format is enforced by NormalizeBrief afterwards.
const SystemPrompt = "As an AI with expertise in technology systems, text processing, and data analysis, " +
	"your task is to generate concise insights/tags from human-written RCA documents. " +
	"Analyze the provided RCA texts to identify the primary causes (root reasons) of " +
	"incidents and recommend steps (actionables) to prevent future occurrences. " +
	"Aim for conciseness and clarity in the generated insights, allowing for effective " +
	"statistical analysis and pattern recognition to prioritize improvements. " +
	"Simplify technical terms to their generic counterparts (e.g., 'MySQL' to 'database', " +
	"'Redis' to 'cache') and avoid specific implementation details in favor of broader " +
	"categories (e.g., 'max.poll.records' to 'Kafka config'). Exclude special characters " +
	"and numbers, focusing on extracting overarching themes and commonalities. " +
	"Generate a comprehensive list of at least 10 actionable steps without redundancy or " +
	"unnecessary details. It is fine to have wrong grammar if the meaning is clear with " +
	"minimal words. The number of items in root reasons and actionables should be " +
	"maximised while the number of words in each individual item is minimised. " +
	"Respond with a JSON object containing two keys: 'root_reasons' and 'actionables', " +
	"each holding a list of objects with two keys: 'brief', a tag of one or two simplified, " +
	"common words without numbers or special characters, and 'details', a short explanation " +
	"of the item in the context of the incident. " +
	"Example: {\"root_reasons\": [{\"brief\": \"cpu high\", \"details\": \"traffic spike saturated the application servers\"}], " +
	"\"actionables\": [{\"brief\": \"capacity planning\", \"details\": \"size the fleet for peak traffic\"}]}."

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithModel sets the model id sent with every request. Without it the
// backend's own configured model is used.
func WithModel(model string) ExtractorOption {
	return func(e *Extractor) {
		e.model = model
	}
}

// WithSystemPrompt overrides the extraction policy. An empty prompt keeps the default.
func WithSystemPrompt(prompt string) ExtractorOption {
	return func(e *Extractor) {
		if prompt != "" {
			e.systemPrompt = prompt
		}
	}
}

// WithJSONResponse toggles asking the backend for a single JSON object.
func WithJSONResponse(enabled bool) ExtractorOption {
	return func(e *Extractor) {
		if enabled {
			e.responseFormat = models.ResponseFormatJSONObject
		} else {
			e.responseFormat = models.ResponseFormatText
		}
	}
}

// WithLogger sets the logger for reply diagnostics.
func WithLogger(l *logger.Logger) ExtractorOption {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCache keeps up to size parsed replies keyed by the request content, so
// identical documents reach the backend once. Zero disables caching.
func WithCache(size int) ExtractorOption {
	return func(e *Extractor) {
		if size > 0 {
			e.cache = lru.New[string, *Set](size)
		}
	}
}

// Extractor maps one document's text to a normalized Set using an LLM.
// It holds no per-document state and is safe for concurrent use if the LLM is.
type Extractor struct {
	llm            llm.LLM
	model          string
	systemPrompt   string
	responseFormat models.ResponseFormat
	cache          *lru.Cache[string, *Set]
	log            *logger.Logger
}

// NewExtractor creates an Extractor backed by client.
func NewExtractor(client llm.LLM, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		llm:            client,
		systemPrompt:   SystemPrompt,
		responseFormat: models.ResponseFormatJSONObject,
		log:            logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract sends text to the backend and returns the normalized insights.
// Backend errors are returned wrapped; unparsable replies wrap ErrMalformedReply.
func (e *Extractor) Extract(ctx context.Context, text string) (*Set, error) {
	var key string
	if e.cache != nil {
		key = e.cacheKey(text)
		if set, ok := e.cache.Get(key); ok {
			e.log.Debug("reply cache hit")
			return set.Normalize(), nil
		}
	}

	resp, err := e.llm.GenerateContent(ctx, e.buildRequest(text))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	content := resp.Text()
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyReply
	}

	set, shape, err := decodeReply([]byte(content))
	if err != nil {
		return nil, err
	}
	e.log.WithFields(map[string]interface{}{
		"model":        resp.ModelVersion,
		"reply_shape":  shape,
		"root_reasons": len(set.RootReasons),
		"actionables":  len(set.Actionables),
	}).Debug("model reply parsed")

	set = set.Normalize()
	if e.cache != nil {
		e.cache.Put(key, set)
		return set.Normalize(), nil
	}
	return set, nil
}

// cacheKey covers everything that shapes the request.
func (e *Extractor) cacheKey(text string) string {
	h := sha256.New()
	for _, part := range []string{e.model, string(e.responseFormat), e.systemPrompt, text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (e *Extractor) buildRequest(text string) *models.GenerateContentRequest {
	return &models.GenerateContentRequest{
		Content: []models.Content{
			models.NewTextContent(models.SpeakerSystem, e.systemPrompt),
			models.NewTextContent(models.SpeakerUser, text),
		},
		Model:          e.model,
		ResponseFormat: e.responseFormat,
	}
}
