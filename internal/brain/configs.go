package brain

import (
	"encoding/json"
	"strings"
	"time"
)

// Provider configurations. Both builders take explicit settings rather
// than reading the environment so callers control wiring.

// OpenAICompatibleConfig covers any chat-completions API that speaks
// the OpenAI wire format (DeepSeek, Moonshot, OpenAI itself).
func OpenAICompatibleConfig(name, endpoint, apiKey, model string, timeout time.Duration) *ProviderConfig {
	return &ProviderConfig{
		Name:          name,
		Endpoint:      endpoint,
		APIKey:        apiKey,
		Model:         model,
		AuthHeader:    "Authorization",
		AuthPrefix:    "Bearer ",
		Timeout:       timeout,
		BuildBody:     buildOpenAIBody,
		ParseResponse: parseOpenAIResponse,
	}
}

// OllamaConfig builds a provider for a local Ollama instance. No auth.
func OllamaConfig(host, model string, timeout time.Duration) *ProviderConfig {
	if host == "" {
		host = "http://localhost:11434"
	}
	return &ProviderConfig{
		Name:          "ollama",
		Endpoint:      strings.TrimSuffix(host, "/") + "/api/generate",
		Model:         model,
		AuthHeader:    "",
		Timeout:       timeout,
		BuildBody:     buildOllamaBody,
		ParseResponse: parseOllamaResponse,
	}
}

// Body builders

func buildOpenAIBody(cfg *ProviderConfig, req Request) map[string]any {
	messages := []map[string]string{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserPrompt})

	return map[string]any{
		"model":      cfg.Model,
		"max_tokens": maxTokensOr(req.MaxTokens, 2048),
		"messages":   messages,
	}
}

func buildOllamaBody(cfg *ProviderConfig, req Request) map[string]any {
	prompt := req.UserPrompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.UserPrompt
	}
	return map[string]any{
		"model":  cfg.Model,
		"prompt": prompt,
		"stream": false,
	}
}

// Response parsers

func parseOpenAIResponse(body []byte) (string, string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, resp.Model, nil
	}
	return "", resp.Model, nil
}

func parseOllamaResponse(body []byte) (string, string, error) {
	var resp struct {
		Response string `json:"response"`
		Model    string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	return resp.Response, resp.Model, nil
}

func maxTokensOr(v, defaultVal int) int {
	if v > 0 {
		return v
	}
	return defaultVal
}
