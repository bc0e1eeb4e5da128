// Package gemini implements the cloud OCR backend against the Google
// generative language API. The request declares a constrained output
// schema (extractedText/hasText) so the model reports text detection
// structurally instead of via free text, and sampling is deterministic
// (temperature 0) to favor extraction over creative continuation.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"vista-ocr/backend"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	generatePath   = "/v1beta/models"
	imageMIMEType  = "image/png"
)

// Client is the cloud adapter. Safe for concurrent use; the model name
// may be swapped between requests via SetModel.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	apiKey string
	model  string
}

// New creates a client with the default model. The HTTP transport's
// default timeout behavior applies; cancellation is handled through the
// request context.
func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		model:      string(backend.GeminiFlash),
	}
}

// SetModel switches the model used for subsequent requests.
func (c *Client) SetModel(model string) {
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
}

// SetAPIKey swaps the key used for subsequent requests, so a config
// reload never requires a restart.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64        `json:"temperature"`
	TopK             int            `json:"topK"`
	TopP             float64        `json:"topP"`
	MaxOutputTokens  int            `json:"maxOutputTokens"`
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   responseSchema `json:"responseSchema"`
}

type responseSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

type schemaProperty struct {
	Type string `json:"type"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// extractedContent is the inner structured payload the schema demands.
type extractedContent struct {
	ExtractedText string `json:"extractedText"`
	HasText       bool   `json:"hasText"`
}

// Process sends the image and instruction prompt to the generation API
// and returns the extracted text. Aborting ctx cancels the in-flight
// HTTP request and surfaces as ProcessingCancelled, never as a generic
// network failure.
func (c *Client) Process(ctx context.Context, image []byte, prompt string) (string, error) {
	c.mu.RLock()
	apiKey := c.apiKey
	model := c.model
	c.mu.RUnlock()

	if apiKey == "" {
		return "", backend.NewError(backend.UploadFailed, "API key is not configured")
	}

	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MIMEType: imageMIMEType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      0,
			TopK:             5,
			TopP:             0.5,
			MaxOutputTokens:  8192,
			ResponseMIMEType: "application/json",
			ResponseSchema: responseSchema{
				Type: "object",
				Properties: map[string]schemaProperty{
					"extractedText": {Type: "string"},
					"hasText":       {Type: "boolean"},
				},
				Required: []string{"extractedText", "hasText"},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", backend.NewError(backend.Unexpected, fmt.Sprintf("failed to marshal request: %v", err))
	}

	url := fmt.Sprintf("%s%s/%s:generateContent?key=%s", c.baseURL, generatePath, model, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", backend.NewError(backend.Unexpected, fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("Gemini: requesting generateContent with model %s (%d image bytes)", model, len(image))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Deliberate abort, not a transport failure.
			return "", backend.NewError(backend.ProcessingCancelled, "request aborted")
		}
		return "", backend.NewError(backend.UploadFailed, fmt.Sprintf("network error: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return "", backend.NewError(backend.ProcessingCancelled, "request aborted")
		}
		return "", backend.NewError(backend.UploadFailed, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Gemini: API returned status %d: %s", resp.StatusCode, body)
		return "", backend.NewError(backend.GenerationFailed, string(body))
	}

	return parseGeneration(body)
}

func parseGeneration(body []byte) (string, error) {
	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return "", backend.NewError(backend.InvalidResponseShape, fmt.Sprintf("failed to decode response: %v", err))
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return "", backend.NewError(backend.InvalidResponseShape, "response contains no candidates")
	}

	var extracted extractedContent
	inner := gen.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(inner), &extracted); err != nil {
		return "", backend.NewError(backend.InvalidResponseShape, fmt.Sprintf("structured payload did not match schema: %v", err))
	}

	if !extracted.HasText || strings.TrimSpace(extracted.ExtractedText) == "" {
		// A successful call that found nothing is a semantic outcome,
		// not a transport failure.
		return "", backend.NewError(backend.NoTextDetected, "no text detected in image")
	}

	log.Printf("Gemini: extracted %d characters", len(extracted.ExtractedText))
	return extracted.ExtractedText, nil
}
