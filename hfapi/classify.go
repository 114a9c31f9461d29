package hfapi

import (
	"context"
	"fmt"
)

type zeroShotReq struct {
	Inputs     string            `json:"inputs"`
	Parameters zeroShotReqParams `json:"parameters"`
}

type zeroShotReqParams struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type zeroShotResp struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ZeroShot classifies text against the candidate labels, returning a score
// per label.
func (c *Client) ZeroShot(ctx context.Context, model, text string, labels []string) (map[string]float64, error) {
	var resp zeroShotResp
	req := zeroShotReq{Inputs: text, Parameters: zeroShotReqParams{CandidateLabels: labels}}
	if err := c.query(ctx, model, req, &resp); err != nil {
		return nil, fmt.Errorf("zero-shot classification: %w", err)
	}
	if len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("zero-shot classification: %d labels but %d scores", len(resp.Labels), len(resp.Scores))
	}
	out := make(map[string]float64, len(resp.Labels))
	for i, l := range resp.Labels {
		out[l] = resp.Scores[i]
	}
	return out, nil
}

type pairwiseReq struct {
	Inputs pairwiseInputs `json:"inputs"`
}

type pairwiseInputs struct {
	SourceSentence string   `json:"source_sentence"`
	Sentences      []string `json:"sentences"`
}

// Pairwise scores how relevant candidate is as a continuation of parent.
func (c *Client) Pairwise(ctx context.Context, model, parent, candidate string) (float64, error) {
	var resp []float64
	req := pairwiseReq{Inputs: pairwiseInputs{SourceSentence: parent, Sentences: []string{candidate}}}
	if err := c.query(ctx, model, req, &resp); err != nil {
		return 0, fmt.Errorf("pairwise relevance: %w", err)
	}
	if len(resp) != 1 {
		return 0, fmt.Errorf("pairwise relevance: expected one score, got %d", len(resp))
	}
	return resp[0], nil
}
