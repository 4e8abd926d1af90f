package agents

import (
	"fmt"
	"time"

	"github.com/terrafirm-ai/go-swarm/swarm"
)

// ValuationAgentID is the default routing key for the valuation agent.
const ValuationAgentID = "valuation-agent"

// Content types handled and produced by the valuation agent.
const (
	ContentTypeValuationRequest  = "property-valuation-request"
	ContentTypeValuationResponse = "property-valuation-response"
	ContentTypeMarketRequest     = "market-analysis-request"
	ContentTypeMarketResponse    = "market-analysis-response"
)

// ValuationAgent produces property value estimates from a simple
// per-square-foot model with bedroom, bathroom, and age adjustments. The
// comparables and market trends are canned demo data.
type ValuationAgent struct {
	*swarm.BaseAgent

	pricePerSquareFoot float64
}

// NewValuationAgent creates a valuation agent with the default id.
func NewValuationAgent(logger swarm.Logger) *ValuationAgent {
	return NewValuationAgentWithID(ValuationAgentID, logger)
}

// NewValuationAgentWithID creates a valuation agent with a custom id.
func NewValuationAgentWithID(id string, logger swarm.Logger) *ValuationAgent {
	return &ValuationAgent{
		BaseAgent: swarm.NewBaseAgent(id, []string{
			"property-valuation",
			"market-analysis",
			"comparable-sales",
			"trend-analysis",
		}, logger),
		pricePerSquareFoot: 175.0,
	}
}

// Handle processes valuation and market analysis requests.
func (a *ValuationAgent) Handle(msg *swarm.Message) *swarm.ResponseMessage {
	a.TrackActivity()
	a.Logger().Info("Processing message", swarm.Field{Key: "content_type", Value: msg.ContentType()})

	switch msg.ContentType() {
	case ContentTypeValuationRequest:
		property := payloadMap(msg.Payload())
		result := a.calculateMarketValue(property)
		return swarm.NewSuccessResponse(a.ID(), msg, ContentTypeValuationResponse, map[string]interface{}{
			"valuation_result": result,
			"model_version":    "2024.1",
		})

	case ContentTypeMarketRequest:
		return swarm.NewSuccessResponse(a.ID(), msg, ContentTypeMarketResponse, map[string]interface{}{
			"market_trends": a.marketTrends(),
			"analysis_date": time.Now().UTC().Format(time.RFC3339),
		})

	default:
		a.Logger().Warn("Unknown message type", swarm.Field{Key: "content_type", Value: msg.ContentType()})
		return swarm.NewErrorResponse(a.ID(), msg, fmt.Sprintf("unknown message type: %s", msg.ContentType()))
	}
}

// HealthCheck reports the agent operational with throughput metrics.
func (a *ValuationAgent) HealthCheck() swarm.Health {
	health := swarm.Healthy("Valuation agent operational")
	health.LastActivity = a.LastActivity()
	health.Metrics["messages_handled"] = float64(a.MessagesHandled())
	health.Metrics["price_per_square_foot"] = a.pricePerSquareFoot
	return health
}

// calculateMarketValue derives an estimated value from the property fields,
// applying defaults for anything missing.
func (a *ValuationAgent) calculateMarketValue(property map[string]interface{}) map[string]interface{} {
	address := stringField(property, "address", "Unknown")
	squareFeet := floatField(property, "square_feet", 2000)
	bedrooms := floatField(property, "bedrooms", 3)
	bathrooms := floatField(property, "bathrooms", 2)
	yearBuilt := floatField(property, "year_built", 1990)

	a.Logger().Info("Calculating valuation", swarm.Field{Key: "address", Value: address})

	baseValue := squareFeet * a.pricePerSquareFoot
	bedroomAdjustment := (bedrooms - 3) * 5000
	bathroomAdjustment := (bathrooms - 2) * 3000
	ageAdjustment := (float64(time.Now().Year()) - yearBuilt) * -500

	estimatedValue := baseValue + bedroomAdjustment + bathroomAdjustment + ageAdjustment

	return map[string]interface{}{
		"estimated_value": estimatedValue,
		"confidence":      0.87,
		"adjustments": []map[string]interface{}{
			{
				"factor":      "Square Footage",
				"amount":      baseValue,
				"explanation": fmt.Sprintf("%.0f sq ft × $%.0f/sq ft", squareFeet, a.pricePerSquareFoot),
			},
			{
				"factor":      "Bedrooms",
				"amount":      bedroomAdjustment,
				"explanation": fmt.Sprintf("%.0f bedrooms adjustment", bedrooms),
			},
			{
				"factor":      "Bathrooms",
				"amount":      bathroomAdjustment,
				"explanation": fmt.Sprintf("%.1f bathrooms adjustment", bathrooms),
			},
			{
				"factor":      "Age",
				"amount":      ageAdjustment,
				"explanation": fmt.Sprintf("Built in %.0f, age adjustment", yearBuilt),
			},
		},
		"comparable_sales": a.comparableSales(),
		"market_trends":    a.marketTrends(),
	}
}

func (a *ValuationAgent) comparableSales() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"address":     "125 Oak Street",
			"sale_price":  365000,
			"sale_date":   "2024-03-15",
			"square_feet": 2100,
			"adjustments": -15000,
		},
		{
			"address":     "200 Maple Avenue",
			"sale_price":  340000,
			"sale_date":   "2024-02-28",
			"square_feet": 1950,
			"adjustments": 8000,
		},
		{
			"address":     "87 Pine Court",
			"sale_price":  358000,
			"sale_date":   "2024-01-20",
			"square_feet": 2050,
			"adjustments": -4000,
		},
	}
}

func (a *ValuationAgent) marketTrends() map[string]interface{} {
	return map[string]interface{}{
		"median_price_change_pct": 4.2,
		"days_on_market":          28,
		"inventory_months":        2.1,
		"direction":               "appreciating",
	}
}
