package hfapi

import (
	"context"
	"encoding/json"
	"fmt"
)

const DefaultToxicityModel = "hitomi-team/discord-toxicity-classifier"

// attribute order encoded in the classifier's label sequences
var toxicityAttributes = []string{"nsfw", "hate", "threat"}

type toxicityReq struct {
	Inputs string `json:"inputs"`
}

type toxicityClass struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Toxicity scores text against the classifier's attributes. The classifier
// returns one class per label combination, each label a JSON-encoded 0/1
// vector over the attributes; the attribute score is the score-weighted sum
// over classes where that attribute's bit is set.
func (c *Client) Toxicity(ctx context.Context, model, text string) (map[string]float64, error) {
	if model == "" {
		model = DefaultToxicityModel
	}
	var resp [][]toxicityClass
	if err := c.query(ctx, model, toxicityReq{Inputs: text}, &resp); err != nil {
		return nil, fmt.Errorf("toxicity scoring: %w", err)
	}
	if len(resp) != 1 {
		return nil, fmt.Errorf("toxicity scoring: expected one result row, got %d", len(resp))
	}

	scores := make(map[string]float64, len(toxicityAttributes))
	for _, attr := range toxicityAttributes {
		scores[attr] = 0
	}
	for _, class := range resp[0] {
		var bits []float64
		if err := json.Unmarshal([]byte(class.Label), &bits); err != nil {
			return nil, fmt.Errorf("toxicity scoring: malformed class label %q: %w", class.Label, err)
		}
		for i, attr := range toxicityAttributes {
			if i < len(bits) {
				scores[attr] += class.Score * bits[i]
			}
		}
	}
	return scores, nil
}
