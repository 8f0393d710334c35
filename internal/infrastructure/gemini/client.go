// Package gemini wraps the hosted Gemini REST API for text analysis and
// speech synthesis.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsagent/internal/ports"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// Sized for slow long-form generation; applied uniformly to analysis
	// and synthesis calls.
	requestTimeout = 300 * time.Second
)

// Client implements ports.Analyzer over the generateContent endpoint.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

var _ ports.Analyzer = (*Client)(nil)

// NewClient builds a client; endpoint falls back to the public API base.
func NewClient(apiKey, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     &http.Client{Timeout: requestTimeout},
	}
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature        float64         `json:"temperature,omitempty"`
	TopP               float64         `json:"topP,omitempty"`
	TopK               int             `json:"topK,omitempty"`
	MaxOutputTokens    int             `json:"maxOutputTokens,omitempty"`
	ThinkingConfig     *thinkingConfig `json:"thinkingConfig,omitempty"`
	ResponseModalities []string        `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig   `json:"speechConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Analyze sends the instruction pair and composed payload and returns the
// generated text.
func (c *Client) Analyze(ctx context.Context, req ports.AnalysisRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("analysis client misconfigured: missing API key")
	}
	if req.Model == "" {
		return "", fmt.Errorf("analysis client misconfigured: missing model")
	}

	prompt := fmt.Sprintf("%s\n\nAnalyze this data:\n%s", req.UserPrompt, req.Payload)

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			TopK:            req.TopK,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}
	if req.ThinkingBudget > 0 {
		body.GenerationConfig.ThinkingConfig = &thinkingConfig{ThinkingBudget: req.ThinkingBudget}
	}

	resp, err := c.generate(ctx, req.Model, body)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	return b.String(), nil
}

func (c *Client) generate(ctx context.Context, model string, body generateRequest) (*generateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("gemini returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	return &decoded, nil
}
