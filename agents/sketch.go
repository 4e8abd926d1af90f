package agents

import (
	"fmt"

	"github.com/terrafirm-ai/go-swarm/swarm"
)

// SketchAgentID is the default routing key for the sketch agent.
const SketchAgentID = "sketch-agent"

// Content types handled and produced by the sketch agent.
const (
	ContentTypeSketchRequest  = "sketch-analysis-request"
	ContentTypeSketchResponse = "sketch-analysis-response"
	ContentTypeGLARequest     = "gla-calculation-request"
	ContentTypeGLAResponse    = "gla-calculation-response"
)

// SketchAgent extracts floor plan geometry from sketch images and computes
// gross living area. The extraction output is canned demo geometry.
type SketchAgent struct {
	*swarm.BaseAgent
}

// NewSketchAgent creates a sketch agent with the default id.
func NewSketchAgent(logger swarm.Logger) *SketchAgent {
	return NewSketchAgentWithID(SketchAgentID, logger)
}

// NewSketchAgentWithID creates a sketch agent with a custom id.
func NewSketchAgentWithID(id string, logger swarm.Logger) *SketchAgent {
	return &SketchAgent{
		BaseAgent: swarm.NewBaseAgent(id, []string{
			"sketch-analysis",
			"floor-plan-extraction",
			"gla-calculation",
			"room-schedule-generation",
		}, logger),
	}
}

// Handle processes sketch analysis and GLA calculation requests.
func (a *SketchAgent) Handle(msg *swarm.Message) *swarm.ResponseMessage {
	a.TrackActivity()
	a.Logger().Info("Processing message", swarm.Field{Key: "content_type", Value: msg.ContentType()})

	switch msg.ContentType() {
	case ContentTypeSketchRequest:
		payload := payloadMap(msg.Payload())
		imageData := stringField(payload, "image_data", "")
		if imageData == "" {
			return swarm.NewErrorResponse(a.ID(), msg, "no image data provided")
		}
		return swarm.NewSuccessResponse(a.ID(), msg, ContentTypeSketchResponse, map[string]interface{}{
			"sketch_analysis": a.analyzeSketch(imageData),
		})

	case ContentTypeGLARequest:
		payload := payloadMap(msg.Payload())
		rooms := sliceField(payload, "rooms")
		if rooms == nil {
			return swarm.NewErrorResponse(a.ID(), msg, "invalid floor plan data")
		}
		gla, schedule := a.calculateGLA(rooms)
		return swarm.NewSuccessResponse(a.ID(), msg, ContentTypeGLAResponse, map[string]interface{}{
			"gross_living_area":  gla,
			"room_schedule":      schedule,
			"calculation_method": "ANSI Z765-2013",
		})

	default:
		a.Logger().Warn("Unknown message type", swarm.Field{Key: "content_type", Value: msg.ContentType()})
		return swarm.NewErrorResponse(a.ID(), msg, fmt.Sprintf("unknown message type: %s", msg.ContentType()))
	}
}

// HealthCheck reports the agent operational with throughput metrics.
func (a *SketchAgent) HealthCheck() swarm.Health {
	health := swarm.Healthy("Sketch agent operational")
	health.LastActivity = a.LastActivity()
	health.Metrics["messages_handled"] = float64(a.MessagesHandled())
	return health
}

// analyzeSketch produces a demo floor plan extraction for the given image.
func (a *SketchAgent) analyzeSketch(imageData string) map[string]interface{} {
	return map[string]interface{}{
		"image_bytes": len(imageData),
		"floors":      1,
		"rooms": []map[string]interface{}{
			{"name": "Living Room", "width_ft": 18.0, "length_ft": 14.0},
			{"name": "Kitchen", "width_ft": 12.0, "length_ft": 10.0},
			{"name": "Bedroom 1", "width_ft": 14.0, "length_ft": 12.0},
			{"name": "Bedroom 2", "width_ft": 12.0, "length_ft": 11.0},
		},
		"confidence": 0.91,
	}
}

// calculateGLA sums per-room areas into a gross living area and produces a
// room schedule.
func (a *SketchAgent) calculateGLA(rooms []interface{}) (float64, []map[string]interface{}) {
	var gla float64
	schedule := make([]map[string]interface{}, 0, len(rooms))

	for _, raw := range rooms {
		room := payloadMap(raw)
		width := floatField(room, "width_ft", 0)
		length := floatField(room, "length_ft", 0)
		area := width * length
		gla += area

		schedule = append(schedule, map[string]interface{}{
			"name":       stringField(room, "name", "Room"),
			"area_sq_ft": area,
		})
	}

	return gla, schedule
}
