// Package agents provides the appraisal business agents that plug into the
// swarm core: valuation, compliance, and sketch analysis. Their handler
// payloads are demo output; the swarm core treats them as opaque.
package agents

import (
	"github.com/terrafirm-ai/go-swarm/swarm"
)

// Factory type tags usable in a SwarmConfig agent list.
const (
	FactoryTypeValuation  = "valuation"
	FactoryTypeCompliance = "compliance"
	FactoryTypeSketch     = "sketch"
)

// RegisterFactories registers a factory for every agent in this package. An
// "id" option on the agent spec overrides the default agent id.
func RegisterFactories(registry *swarm.FactoryRegistry, logger swarm.Logger) {
	registry.Register(swarm.NewSimpleAgentFactory(FactoryTypeValuation, func(config swarm.Config) (swarm.Agent, error) {
		if id := config.GetString("id"); id != "" {
			return NewValuationAgentWithID(id, logger), nil
		}
		return NewValuationAgent(logger), nil
	}))

	registry.Register(swarm.NewSimpleAgentFactory(FactoryTypeCompliance, func(config swarm.Config) (swarm.Agent, error) {
		if id := config.GetString("id"); id != "" {
			return NewComplianceAgentWithID(id, logger), nil
		}
		return NewComplianceAgent(logger), nil
	}))

	registry.Register(swarm.NewSimpleAgentFactory(FactoryTypeSketch, func(config swarm.Config) (swarm.Agent, error) {
		if id := config.GetString("id"); id != "" {
			return NewSketchAgentWithID(id, logger), nil
		}
		return NewSketchAgent(logger), nil
	}))
}
