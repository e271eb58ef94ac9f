package recommendation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const (
	defaultGeneratorTimeout = 15 * time.Second
	maxResponseBytes        = 1 << 20
)

// HTTPGenerator обращается к внешнему генератору рекомендаций по HTTP.
//
// Запрос: POST <baseURL>/<flow> с телом {"inputs": [...]}.
// Ответ: {"recommendations": [{"name": "...", "description": "..."}]}.
type HTTPGenerator struct {
	baseURL string
	client  *http.Client
}

var _ domain.RecommendationGenerator = (*HTTPGenerator)(nil)

// NewHTTPGenerator создаёт клиент. client == nil означает http.Client с таймаутом по умолчанию.
func NewHTTPGenerator(baseURL string, client *http.Client) *HTTPGenerator {
	if client == nil {
		client = &http.Client{Timeout: defaultGeneratorTimeout}
	}
	return &HTTPGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type generatorRequest struct {
	Inputs []string `json:"inputs"`
}

type generatorResponse struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// Recommend реализует domain.RecommendationGenerator.
func (g *HTTPGenerator) Recommend(ctx context.Context, flow domain.RecommendationFlow, inputs []string) ([]domain.Recommendation, error) {
	body, err := json.Marshal(generatorRequest{Inputs: inputs})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/"+string(flow), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("generator responded with status %d", resp.StatusCode)
	}

	var out generatorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Recommendations, nil
}
