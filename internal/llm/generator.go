// Package llm turns natural-language questions into SQL candidates and sorts
// model replies into candidates and refusals. It knows nothing about
// validation or execution; the session loop owns the retry policy.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/config"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/util"
)

// Generator produces one model reply for one prompt. Implementations must
// honor ctx cancellation and deadlines.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HTTPGenerator calls a completion endpoint over JSON.
type HTTPGenerator struct {
	endpoint string
	model    string
	token    string
	client   *http.Client
}

// NewHTTPGenerator builds a generator from config. Timeouts come from the
// request context, not the client, so one generator serves many sessions.
func NewHTTPGenerator(cfg config.GeneratorConfig) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		token:    cfg.AuthToken,
		client:   &http.Client{},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Generate posts the prompt and returns the raw reply text.
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: g.model, Prompt: prompt})
	if err != nil {
		return "", errors.Wrap(err, "marshal generate request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build generate request")
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "call generator")
	}
	defer util.CloseWithErr(resp.Body, "generator response body")
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read generator response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("generator returned %s: %s", resp.Status, firstBytes(raw, 200))
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.Wrap(err, "decode generator response")
	}
	if out.Error != "" {
		return "", errors.Errorf("generator error: %s", out.Error)
	}
	return out.Text, nil
}

func firstBytes(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
