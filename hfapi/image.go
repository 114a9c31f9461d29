package hfapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

type captionResp struct {
	GeneratedText string `json:"generated_text"`
}

// Caption fetches an image and asks the captioning model to describe it.
// Used to substitute a textual body for link posts when building thread
// context.
func (c *Client) Caption(ctx context.Context, model, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", err
	}
	res, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching image for captioning: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching image for captioning: statusCode=%d", res.StatusCode)
	}
	imgBytes, err := io.ReadAll(io.LimitReader(res.Body, 20<<20))
	if err != nil {
		return "", fmt.Errorf("reading image for captioning: %w", err)
	}

	var resp []captionResp
	if err := c.post(ctx, c.Host+"/models/"+model, "application/octet-stream", imgBytes, &resp); err != nil {
		return "", fmt.Errorf("image captioning: %w", err)
	}
	if len(resp) == 0 || resp[0].GeneratedText == "" {
		return "", fmt.Errorf("image captioning: empty caption")
	}
	return resp[0].GeneratedText, nil
}

// ImageClient talks to a separate image generation + upscaling service that
// renders a prompt and returns a hosted image URL.
type ImageClient struct {
	Base *Client
	Host string
}

type imageGenReq struct {
	Prompt  string `json:"prompt"`
	Upscale bool   `json:"upscale"`
}

type imageGenResp struct {
	URL string `json:"url"`
}

// GenerateImage renders prompt into a hosted, upscaled image and returns its
// URL, for use as a link post target.
func (ic *ImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	body, err := jsonBody(imageGenReq{Prompt: prompt, Upscale: true})
	if err != nil {
		return "", err
	}
	var resp imageGenResp
	if err := ic.Base.post(ctx, ic.Host+"/generate", "application/json", body, &resp); err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("image generation: no image URL returned")
	}
	return resp.URL, nil
}
