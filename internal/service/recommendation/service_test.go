package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

type stubGenerator struct {
	calls int
	flow  domain.RecommendationFlow
	recs  []domain.Recommendation
	err   error
}

func (g *stubGenerator) Recommend(_ context.Context, flow domain.RecommendationFlow, _ []string) ([]domain.Recommendation, error) {
	g.calls++
	g.flow = flow
	return g.recs, g.err
}

func recs(n int) []domain.Recommendation {
	out := make([]domain.Recommendation, n)
	for i := range out {
		out[i] = domain.Recommendation{Name: string(rune('A' + i)), Description: "item"}
	}
	return out
}

func TestForCart_EmptyInputSkipsGenerator(t *testing.T) {
	gen := &stubGenerator{recs: recs(2)}
	svc := NewService(gen)

	got, err := svc.ForCart(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Zero(t, gen.calls)

	got, err = svc.ForHistory(context.Background(), []string{})
	require.NoError(t, err)
	require.Empty(t, got)
	require.Zero(t, gen.calls)
}

func TestForCart_TruncatesToThree(t *testing.T) {
	gen := &stubGenerator{recs: recs(5)}
	svc := NewService(gen)

	got, err := svc.ForCart(context.Background(), []string{"a soft cotton tee"})
	require.NoError(t, err)
	require.Len(t, got, domain.MaxRecommendations)
	require.Equal(t, "A", got[0].Name)
	require.Equal(t, domain.RecommendationFlowCart, gen.flow)
}

func TestForHistory_UsesHistoryFlow(t *testing.T) {
	gen := &stubGenerator{recs: recs(1)}
	svc := NewService(gen)

	got, err := svc.ForHistory(context.Background(), []string{"denim jacket"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.RecommendationFlowHistory, gen.flow)
}

func TestForCart_GeneratorFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := NewService(&stubGenerator{err: errors.New("model overloaded")},
		WithMetrics(metrics.NewWithRegisterer(reg)))

	got, err := svc.ForCart(context.Background(), []string{"x"})
	require.ErrorIs(t, err, domain.ErrRecommendationsUnavailable)
	require.NotContains(t, err.Error(), "overloaded")
	require.Nil(t, got)

	families, err := reg.Gather()
	require.NoError(t, err)
	var failed float64
	for _, mf := range families {
		if mf.GetName() != "storefront_recommendation_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == metrics.OutcomeFailed {
					failed += m.GetCounter().GetValue()
				}
			}
		}
	}
	require.Equal(t, 1.0, failed)
}

func TestForCart_NoGenerator(t *testing.T) {
	_, err := NewService(nil).ForCart(context.Background(), []string{"x"})
	require.ErrorIs(t, err, domain.ErrRecommendationsUnavailable)
}

func TestHTTPGenerator_Recommend(t *testing.T) {
	var gotPath string
	var gotBody generatorRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generatorResponse{Recommendations: recs(4)})
	}))
	defer srv.Close()

	svc := NewService(NewHTTPGenerator(srv.URL+"/", srv.Client()))
	got, err := svc.ForHistory(context.Background(), []string{"linen shirt", "wool scarf"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "/history", gotPath)
	require.Equal(t, []string{"linen shirt", "wool scarf"}, gotBody.Inputs)
}

func TestHTTPGenerator_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPGenerator(srv.URL, nil).Recommend(context.Background(), domain.RecommendationFlowCart, []string{"x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
