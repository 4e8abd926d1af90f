package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrafirm-ai/go-swarm/swarm"
)

func TestValuationAgentEstimatesValue(t *testing.T) {
	agent := NewValuationAgent(swarm.NewNoOpLogger())

	msg := swarm.NewMessage("app", agent.ID(), ContentTypeValuationRequest, map[string]interface{}{
		"address":     "123 Main St",
		"square_feet": 2400.0,
		"bedrooms":    4.0,
		"bathrooms":   3.0,
		"year_built":  2010.0,
	})

	resp := agent.Handle(msg)
	require.Equal(t, swarm.StatusSuccess, resp.Status)
	assert.Equal(t, msg.ID(), resp.InResponseTo)
	assert.Equal(t, ContentTypeValuationResponse, resp.Message.ContentType())
	assert.Equal(t, "app", resp.Message.Recipient())

	payload := resp.Message.Payload().(map[string]interface{})
	result := payload["valuation_result"].(map[string]interface{})

	expected := 2400*175.0 + // base
		(4-3)*5000 + // bedrooms
		(3-2)*3000 + // bathrooms
		(float64(time.Now().Year())-2010)*-500 // age
	assert.Equal(t, expected, result["estimated_value"])
	assert.Equal(t, 0.87, result["confidence"])
	assert.Len(t, result["adjustments"], 4)
	assert.Len(t, result["comparable_sales"], 3)
}

func TestValuationAgentAppliesDefaults(t *testing.T) {
	agent := NewValuationAgent(swarm.NewNoOpLogger())

	msg := swarm.NewMessage("app", agent.ID(), ContentTypeValuationRequest, map[string]interface{}{})

	resp := agent.Handle(msg)
	require.Equal(t, swarm.StatusSuccess, resp.Status)

	payload := resp.Message.Payload().(map[string]interface{})
	result := payload["valuation_result"].(map[string]interface{})

	// 2000 sq ft, 3 bed, 2 bath, built 1990.
	expected := 2000*175.0 + (float64(time.Now().Year())-1990)*-500
	assert.Equal(t, expected, result["estimated_value"])
}

func TestValuationAgentMarketAnalysis(t *testing.T) {
	agent := NewValuationAgent(swarm.NewNoOpLogger())

	msg := swarm.NewMessage("app", agent.ID(), ContentTypeMarketRequest, nil)

	resp := agent.Handle(msg)
	require.Equal(t, swarm.StatusSuccess, resp.Status)
	assert.Equal(t, ContentTypeMarketResponse, resp.Message.ContentType())

	payload := resp.Message.Payload().(map[string]interface{})
	trends := payload["market_trends"].(map[string]interface{})
	assert.Equal(t, "appreciating", trends["direction"])
}

func TestValuationAgentRejectsUnknownContentType(t *testing.T) {
	agent := NewValuationAgent(swarm.NewNoOpLogger())

	resp := agent.Handle(swarm.NewMessage("app", agent.ID(), "mystery-request", nil))

	require.Equal(t, swarm.StatusError, resp.Status)
	assert.Contains(t, resp.Error, "unknown message type")
	assert.Equal(t, swarm.ContentTypeError, resp.Message.ContentType())
}

func TestValuationAgentHealthAndActivity(t *testing.T) {
	agent := NewValuationAgent(swarm.NewNoOpLogger())

	agent.Handle(swarm.NewMessage("app", agent.ID(), ContentTypeMarketRequest, nil))

	health := agent.HealthCheck()
	assert.Equal(t, swarm.HealthHealthy, health.Status)
	assert.Equal(t, 1.0, health.Metrics["messages_handled"])
	assert.Equal(t, 175.0, health.Metrics["price_per_square_foot"])
}
