package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-assistant-be/pkg/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1"

type GeminiProvider struct {
	APIKey    string
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, modelName string) *GeminiProvider {
	return &GeminiProvider{
		APIKey:    apiKey,
		BaseURL:   defaultBaseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type geminiChatPart struct {
	Text string `json:"text"`
}

type geminiChatContent struct {
	Parts []geminiChatPart `json:"parts"`
	Role  string           `json:"role"`
}

type geminiChatRequest struct {
	Contents []geminiChatContent `json:"contents"`
}

type geminiChatCandidate struct {
	Content *geminiChatContent `json:"content"`
}

type geminiChatResponse struct {
	Candidates []*geminiChatCandidate `json:"candidates"`
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	contents := make([]geminiChatContent, 0, len(history))
	for _, msg := range history {
		// Gemini uses "model" where everyone else uses "assistant".
		role := msg.Role
		if role == "assistant" || role == "system" {
			role = "model"
		}
		contents = append(contents, geminiChatContent{
			Parts: []geminiChatPart{{Text: msg.Content}},
			Role:  role,
		})
	}

	payload := geminiChatRequest{
		Contents: contents,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	model := g.ModelName
	if options.Model != "" {
		model = options.Model
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("x-goog-api-key", g.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini error: status %d, body: %s", res.StatusCode, string(resBody))
	}

	var geminiRes geminiChatResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil || len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates from gemini api")
	}

	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return g.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
