package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// OpenAIEmbedder talks to any OpenAI-compatible /embeddings endpoint
// (OpenAI itself, or a local ollama behind an adapter).
type OpenAIEmbedder struct {
	client *resty.Client
	model  string
}

var _ embedding.Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(baseURL, apiKey, model string) *OpenAIEmbedder {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &OpenAIEmbedder{client: client, model: model}
}

func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": e.model,
			"input": texts,
		}).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("embedding request failed: %d - %s", resp.StatusCode(), resp.String())
	}

	data := gjson.GetBytes(resp.Body(), "data")
	if !data.Exists() {
		return nil, fmt.Errorf("embedding response missing data field")
	}

	vectors := make([][]float64, 0, len(texts))
	data.ForEach(func(_, item gjson.Result) bool {
		raw := item.Get("embedding").Array()
		vec := make([]float64, 0, len(raw))
		for _, v := range raw {
			vec = append(vec, v.Float())
		}
		vectors = append(vectors, vec)
		return true
	})
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}
