package domain

// Recommendation: товар, предложенный внешним сервисом рекомендаций.
type Recommendation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RecommendationFlow определяет источник входных описаний.
type RecommendationFlow string

const (
	// RecommendationFlowCart: по товарам в корзине.
	RecommendationFlowCart RecommendationFlow = "cart"
	// RecommendationFlowHistory: по истории просмотров.
	RecommendationFlowHistory RecommendationFlow = "history"
)

// MaxRecommendations: сколько рекомендаций максимум отдаётся клиенту.
const MaxRecommendations = 3
