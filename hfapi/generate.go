package hfapi

import (
	"context"
	"fmt"
	"time"
)

// GenerationParams is passed through to the backend untouched; the engine
// treats generation as a black box returning candidate strings.
type GenerationParams map[string]any

type generateReq struct {
	Inputs     string           `json:"inputs"`
	Parameters GenerationParams `json:"parameters,omitempty"`
}

type generateResp struct {
	GeneratedText string `json:"generated_text"`
}

// Generate returns the backend's ordered candidate continuations for prompt.
// An empty candidate list is a valid (if useless) response; callers treat it
// the same as a transient failure of the whole attempt.
func (c *Client) Generate(ctx context.Context, model, prompt string, params GenerationParams) ([]string, error) {
	start := time.Now()
	var resp []generateResp
	if err := c.query(ctx, model, generateReq{Inputs: prompt, Parameters: params}, &resp); err != nil {
		return nil, fmt.Errorf("text generation: %w", err)
	}
	c.Logger.Info("text generated", "model", model, "samples", len(resp), "duration", time.Since(start).Round(100*time.Millisecond))

	out := make([]string, 0, len(resp))
	for _, r := range resp {
		out = append(out, r.GeneratedText)
	}
	return out, nil
}
