package factory

import (
	"fmt"

	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/llm/gemini"
	"ai-assistant-be/pkg/llm/huggingface"
	"ai-assistant-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, apiKey, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini":
		if modelName == "" {
			modelName = "gemini-1.5-flash"
		}
		return gemini.NewGeminiProvider(apiKey, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
