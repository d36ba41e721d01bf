// Package imagegen generates and edits images through the Hugging Face
// inference router.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	routerURL = "https://router.huggingface.co/v1/images/generations"

	generateModel = "Qwen/Qwen-Image"
	editModel     = "Qwen/Qwen-Image-Edit"

	maxDescriptionLen = 1000
)

var forbiddenTerms = []string{
	"nsfw", "nude", "naked", "explicit", "sexual",
	"violence", "gore", "blood", "weapon", "gun",
}

// ValidateDescription rejects prompts that are empty, too long, or
// contain disallowed content. It must pass before any generation call.
func ValidateDescription(desc string) error {
	trimmed := strings.TrimSpace(desc)
	if trimmed == "" {
		return fmt.Errorf("image description is empty")
	}
	if len(trimmed) > maxDescriptionLen {
		return fmt.Errorf("image description exceeds %d characters", maxDescriptionLen)
	}
	lower := strings.ToLower(trimmed)
	for _, term := range forbiddenTerms {
		if strings.Contains(lower, term) {
			return fmt.Errorf("image description contains disallowed content")
		}
	}
	return nil
}

// styleSuffixes enrich a bare prompt per requested style.
var styleSuffixes = map[string]string{
	"realistic": "photorealistic, high detail, natural lighting",
	"cartoon":   "cartoon style, vibrant colors, clean lines",
	"anime":     "anime style, detailed illustration",
	"abstract":  "abstract art, bold shapes and colors",
	"painting":  "oil painting style, textured brushstrokes",
	"sketch":    "pencil sketch, detailed line art",
	"3d":        "3D render, octane quality, studio lighting",
}

// EnhancePrompt appends style and quality hints so short user prompts
// still produce good results.
func EnhancePrompt(prompt, style string) string {
	suffix, ok := styleSuffixes[strings.ToLower(style)]
	if !ok {
		suffix = styleSuffixes["realistic"]
	}
	return fmt.Sprintf("%s, %s, high quality", strings.TrimSpace(prompt), suffix)
}

type Client struct {
	apiKey     string
	httpClient *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	N      int    `json:"n,omitempty"`
	Image  string `json:"image,omitempty"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate renders the prompt in the given style and returns raw image
// bytes (PNG). The prompt must already be validated.
func (c *Client) Generate(ctx context.Context, prompt, style, size string) ([]byte, error) {
	return c.request(ctx, generationRequest{
		Model:  generateModel,
		Prompt: EnhancePrompt(prompt, style),
		Size:   size,
		N:      1,
	})
}

// Edit applies the instructions to the source image and returns the
// edited image bytes.
func (c *Client) Edit(ctx context.Context, source []byte, instructions string) ([]byte, error) {
	return c.request(ctx, generationRequest{
		Model:  editModel,
		Prompt: strings.TrimSpace(instructions),
		Image:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(source),
		N:      1,
	})
}

func (c *Client) request(ctx context.Context, in generationRequest) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, routerURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("image API %s: %s", resp.Status, string(data))
	}

	var out generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Error.Message != "" {
		return nil, fmt.Errorf("image API: %s", out.Error.Message)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("image API returned no images")
	}

	first := out.Data[0]
	if first.B64JSON != "" {
		return base64.StdEncoding.DecodeString(first.B64JSON)
	}
	if first.URL != "" {
		return c.download(ctx, first.URL)
	}
	return nil, fmt.Errorf("image API returned an empty result")
}

func (c *Client) download(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
