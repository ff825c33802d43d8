package llm

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/errors"
)

// GeminiClient talks to the Gemini API.
type GeminiClient struct {
	client     *genai.Client
	model      string
	maxRetries int
	timeout    time.Duration
	logger     *logrus.Entry
}

// NewGeminiClient creates a client from the llm config section. The API key
// is read from the configured environment variable, falling back to
// GEMINI_API_KEY.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *logrus.Entry) (*GeminiClient, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "no API key found").
			WithDetail("env", cfg.APIKeyEnv)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGeneration, "failed to create model client")
	}

	return &GeminiClient{
		client:     client,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		timeout:    time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		logger:     logger,
	}, nil
}

// Generate implements Client. Each attempt gets its own timeout; attempts
// back off linearly.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	contents := buildContents(req)

	var genCfg *genai.GenerateContentConfig
	if req.System != "" {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: req.System}},
			},
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.Models.GenerateContent(attemptCtx, c.model, contents, genCfg)
		cancel()

		if err == nil {
			text := resp.Text()
			if text != "" {
				return text, nil
			}
			err = errors.New(errors.ErrCodeGeneration, "model returned an empty response")
		}

		lastErr = err
		c.logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"model":   c.model,
		}).Warn("Generation attempt failed")

		if ctx.Err() != nil {
			break
		}
		if attempt < c.maxRetries {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return "", errors.Generation(ctx.Err(), "request cancelled")
			}
		}
	}

	return "", errors.Generation(lastErr, "all generation attempts failed").
		WithDetail("attempts", c.maxRetries).
		WithDetail("model", c.model)
}

// buildContents converts a request into the wire format, history first.
func buildContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, msg := range req.History {
		role := genai.RoleUser
		if msg.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  string(role),
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  string(genai.RoleUser),
		Parts: []*genai.Part{{Text: req.Prompt}},
	})
	return contents
}
