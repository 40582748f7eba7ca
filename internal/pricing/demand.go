package pricing

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"pricing-service/internal/models"
)

// DemandScorer supplies the demand score in [0,1] fed to the evaluator
type DemandScorer interface {
	Score(ctx context.Context, tenantID string, product *models.Product) (float64, error)
}

// Demand strategies selectable through configuration
const (
	StrategyRandom = "random"
	StrategyOrders = "orders"
	StrategyStatic = "static"
)

// RandomDemandScorer draws a uniform score. It stands in for a real demand signal.
type RandomDemandScorer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomDemandScorer creates a scorer seeded with seed
func NewRandomDemandScorer(seed int64) *RandomDemandScorer {
	return &RandomDemandScorer{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandomDemandScorer) Score(_ context.Context, _ string, _ *models.Product) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64(), nil
}

// StaticDemandScorer always returns the same score
type StaticDemandScorer float64

func (s StaticDemandScorer) Score(_ context.Context, _ string, _ *models.Product) (float64, error) {
	return float64(s), nil
}

// DemandLevelSource classifies a product's recent reorder frequency
type DemandLevelSource interface {
	CalculateDemandLevel(ctx context.Context, tenantID string, productID uuid.UUID) models.DemandLevel
}

var levelScores = map[models.DemandLevel]float64{
	models.DemandLevelHigh:    0.9,
	models.DemandLevelMedium:  0.5,
	models.DemandLevelLow:     0.2,
	models.DemandLevelUnknown: 0.5,
}

// OrderFrequencyDemandScorer derives the score from stock order frequency
type OrderFrequencyDemandScorer struct {
	source DemandLevelSource
}

func NewOrderFrequencyDemandScorer(source DemandLevelSource) *OrderFrequencyDemandScorer {
	return &OrderFrequencyDemandScorer{source: source}
}

func (s *OrderFrequencyDemandScorer) Score(ctx context.Context, tenantID string, product *models.Product) (float64, error) {
	level := s.source.CalculateDemandLevel(ctx, tenantID, product.ID)
	score, ok := levelScores[level]
	if !ok {
		return 0, fmt.Errorf("unknown demand level %q", level)
	}
	return score, nil
}
