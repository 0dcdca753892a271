// Package genai wraps the Gemini generative backend behind the three
// operations the product pipeline needs: text completion, streaming
// image generation, and text completion reused for metadata extraction.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arcanum-labs/magicshop/internal/domain"
	"github.com/arcanum-labs/magicshop/internal/observability"
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultTextModel  = "gemini-2.0-flash-exp"
	defaultImageModel = "gemini-2.5-flash-image"
	defaultImageSize  = "1K"
)

// SystemPrompts holds the configured prompts for the two text tasks.
type SystemPrompts struct {
	DescriptionGeneration string
	ImagePromptGeneration string
}

// Config holds client construction parameters. BaseURL is overridable
// for tests and proxies.
type Config struct {
	APIKey     string
	TextModel  string
	ImageModel string
	ImageSize  string
	BaseURL    string
	Prompts    SystemPrompts
}

// Client talks to the Gemini API over plain HTTP.
type Client struct {
	apiKey     string
	textModel  string
	imageModel string
	imageSize  string
	baseURL    string
	prompts    SystemPrompts
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a backend client. No timeout is imposed on requests;
// image generation regularly runs for tens of seconds.
func NewClient(cfg Config, logger *observability.Logger) *Client {
	if cfg.TextModel == "" {
		cfg.TextModel = defaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaultImageModel
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = defaultImageSize
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     cfg.APIKey,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		imageSize:  cfg.ImageSize,
		baseURL:    cfg.BaseURL,
		prompts:    cfg.Prompts,
		httpClient: &http.Client{},
		logger:     logger.WithComponent("genai"),
	}
}

// Request/response shapes for the Gemini REST API.

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

// inlineData carries binary payloads; the wire encoding is base64,
// which encoding/json maps onto []byte directly.
type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	ImageSize string `json:"imageSize"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content *content `json:"content"`
}

// text returns the concatenated text parts of the first candidate.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// image returns the first inline binary payload of the first candidate.
func (r *generateResponse) image() []byte {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return p.InlineData.Data
		}
	}
	return nil
}

// GenerateDescription expands a one-line product idea into a full
// description using the configured description prompt.
func (c *Client) GenerateDescription(ctx context.Context, oneLine string) (string, error) {
	prompt := fmt.Sprintf("%s\n\nProduct idea: %s", c.prompts.DescriptionGeneration, oneLine)

	text, err := c.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.logger.Info().Int("chars", len(text)).Msg("Generated description")
	return text, nil
}

// GenerateImagePrompt converts a product description into a detailed
// image generation prompt using the configured prompt.
func (c *Client) GenerateImagePrompt(ctx context.Context, description string) (string, error) {
	prompt := fmt.Sprintf("%s\n\nDescription: %s", c.prompts.ImagePromptGeneration, description)

	text, err := c.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.logger.Info().Int("chars", len(text)).Msg("Generated image prompt")
	return text, nil
}

// GenerateText sends a single concatenated prompt to the text model and
// returns the trimmed response text. Transport errors, non-200 status,
// and empty output all surface as backend errors.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.textModel)
	resp, err := c.post(ctx, url, &req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", domain.BackendError(
			fmt.Sprintf("text generation returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.BackendError("decode text generation response", err)
	}

	text := strings.TrimSpace(out.text())
	if text == "" {
		return "", domain.BackendError("empty response from backend", nil)
	}
	return text, nil
}

// GenerateImage streams an image generation response and writes the
// first inline image payload to dstPath, abandoning the rest of the
// stream. Text-only chunks are ignored. A stream that finishes without
// an image payload is a backend error and leaves no file behind.
func (c *Client) GenerateImage(ctx context.Context, prompt, dstPath string) (string, error) {
	started := time.Now()

	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig:        &imageConfig{ImageSize: c.imageSize},
		},
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.imageModel)
	resp, err := c.post(ctx, url, &req)
	if err != nil {
		return "", err
	}
	// Closing the body cancels the underlying stream once we stop reading.
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", domain.BackendError(
			fmt.Sprintf("image generation returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	parser := NewStreamParser(resp.Body)
	for {
		chunk, err := parser.Next()
		if err != nil {
			return "", domain.BackendError("read image generation stream", err)
		}
		if chunk == nil {
			break // stream finished
		}

		data := chunk.image()
		if len(data) == 0 {
			if text := chunk.text(); text != "" {
				c.logger.Debug().Str("text", text).Msg("Ignoring text chunk in image stream")
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
			return "", domain.BackendError("create image directory", err)
		}
		if err := os.WriteFile(dstPath, data, 0o644); err != nil {
			return "", domain.BackendError(fmt.Sprintf("write image file: %s", dstPath), err)
		}

		c.logger.Info().
			Str("path", dstPath).
			Int("bytes", len(data)).
			Dur("elapsed", time.Since(started)).
			Msg("Image saved")
		return dstPath, nil
	}

	return "", domain.BackendError("no image data received from backend", nil)
}

func (c *Client) post(ctx context.Context, url string, payload *generateRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.BackendError("marshal backend request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.BackendError("build backend request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.BackendError("send backend request", err)
	}
	return resp, nil
}
