package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when an analyzer is called without the
// credential its upstream service requires.
var ErrNotConfigured = errors.New("AI service not configured")

// Gateway implements the Analyzer interface against an OpenAI-compatible
// chat-completions endpoint with vision support.
type Gateway struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewGateway creates a new Gateway Analyzer instance. An empty API key is
// tolerated at construction so the server can still boot; requests made
// without one fail with ErrNotConfigured.
func NewGateway(baseURL, apiKey, modelName string) (*Gateway, error) {
	if baseURL == "" {
		baseURL = "https://ai.gateway.lovable.dev"
	}
	if modelName == "" {
		modelName = "google/gemini-2.5-flash"
	}

	return &Gateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		client: &http.Client{
			Timeout: 60 * time.Second, // vision completions can be slow
		},
	}, nil
}

// chatRequest represents the request body for the chat completions API
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string for system, []contentPart for user
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse represents the response from the chat completions API
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Identify analyzes a pill image and returns the structured identification
func (g *Gateway) Identify(imageData []byte, contentType string, hint string) (*Detection, error) {
	if g.apiKey == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Prepare image data (convert to PNG if needed)
	finalImageData, finalMimeType, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", finalMimeType, base64.StdEncoding.EncodeToString(finalImageData))

	reqBody := chatRequest{
		Model:       g.model,
		MaxTokens:   1024,
		Temperature: 0.3,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: pillScanPrompt,
			},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: userText(hint)},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling AI gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AI gateway error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no analysis content received from AI gateway")
	}

	// Malformed reply text degrades to the fallback record rather than an error
	return parseDetection(chatResp.Choices[0].Message.Content), nil
}

// Close closes the Gateway client (no-op for HTTP client)
func (g *Gateway) Close() error {
	return nil
}
