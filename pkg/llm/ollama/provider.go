package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ai-companion-be/pkg/llm"
)

const generateEndpoint = "/api/generate"

// GenerateRequest is the request payload for the Ollama generate API.
type GenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateChunk is one NDJSON line of a streaming generate response.
type GenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type Provider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewProvider creates an Ollama-backed streaming provider. The HTTP client
// carries no timeout: a reply can take minutes on cold models, and the
// caller controls cancellation through the context.
func NewProvider(baseURL, model string) *Provider {
	return &Provider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

func (p *Provider) GenerateStream(ctx context.Context, system, prompt string, onToken llm.StreamHandler) (string, error) {
	payload := GenerateRequest{
		Model:  p.model,
		System: system,
		Prompt: prompt,
		Stream: true,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+generateEndpoint, bytes.NewBuffer(payloadJSON))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("ollama error: status %d, body: %s", res.StatusCode, string(body))
	}

	var full bytes.Buffer
	scanner := bufio.NewScanner(res.Body)
	// Room for long single-line chunks
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk GenerateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("unmarshal stream line: %w", err)
		}

		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if onToken != nil {
				onToken(chunk.Response)
			}
		}
		if chunk.Done {
			return full.String(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	// Stream ended without a done marker
	return "", fmt.Errorf("ollama stream closed before completion")
}
