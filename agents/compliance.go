package agents

import (
	"fmt"
	"time"

	"github.com/terrafirm-ai/go-swarm/swarm"
)

// ComplianceAgentID is the default routing key for the compliance agent.
const ComplianceAgentID = "compliance-agent"

// Content types handled and produced by the compliance agent.
const (
	ContentTypeComplianceRequest  = "compliance-check-request"
	ContentTypeComplianceResponse = "compliance-check-response"
)

// Violation severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Violation describes one failed compliance rule.
type Violation struct {
	Rule        string `json:"rule"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Field       string `json:"field,omitempty"`
	Suggestion  string `json:"suggestion"`
}

// ComplianceAgent checks appraisal data against USPAP and UAD rule subsets
// and produces violation reports. The rulesets are a fixed demo selection.
type ComplianceAgent struct {
	*swarm.BaseAgent
}

// NewComplianceAgent creates a compliance agent with the default id.
func NewComplianceAgent(logger swarm.Logger) *ComplianceAgent {
	return NewComplianceAgentWithID(ComplianceAgentID, logger)
}

// NewComplianceAgentWithID creates a compliance agent with a custom id.
func NewComplianceAgentWithID(id string, logger swarm.Logger) *ComplianceAgent {
	return &ComplianceAgent{
		BaseAgent: swarm.NewBaseAgent(id, []string{
			"uspap-compliance",
			"uad-compliance",
			"form-validation",
			"regulatory-review",
		}, logger),
	}
}

// Handle processes compliance check requests.
func (a *ComplianceAgent) Handle(msg *swarm.Message) *swarm.ResponseMessage {
	a.TrackActivity()
	a.Logger().Info("Processing message", swarm.Field{Key: "content_type", Value: msg.ContentType()})

	switch msg.ContentType() {
	case ContentTypeComplianceRequest:
		payload := payloadMap(msg.Payload())
		var violations []Violation

		if appraisal, ok := payload["appraisal_data"]; ok {
			violations = append(violations, a.checkUSPAP(payloadMap(appraisal))...)
		}
		if form, ok := payload["form_data"]; ok {
			violations = append(violations, a.checkUAD(payloadMap(form))...)
		}

		return swarm.NewSuccessResponse(a.ID(), msg, ContentTypeComplianceResponse, map[string]interface{}{
			"compliance_report": a.buildReport(violations),
			"checked_at":        time.Now().UTC().Format(time.RFC3339),
		})

	default:
		a.Logger().Warn("Unknown message type", swarm.Field{Key: "content_type", Value: msg.ContentType()})
		return swarm.NewErrorResponse(a.ID(), msg, fmt.Sprintf("unknown message type: %s", msg.ContentType()))
	}
}

// HealthCheck reports the agent operational with throughput metrics.
func (a *ComplianceAgent) HealthCheck() swarm.Health {
	health := swarm.Healthy("Compliance agent operational")
	health.LastActivity = a.LastActivity()
	health.Metrics["messages_handled"] = float64(a.MessagesHandled())
	return health
}

// checkUSPAP validates the appraisal data against a subset of USPAP
// standards rules.
func (a *ComplianceAgent) checkUSPAP(appraisal map[string]interface{}) []Violation {
	var violations []Violation

	if !hasField(appraisal, "subject_property_address") {
		violations = append(violations, Violation{
			Rule:        "USPAP SR1-2(e)",
			Severity:    SeverityCritical,
			Description: "Subject property address is required",
			Field:       "subject_property_address",
			Suggestion:  "Add complete subject property address",
		})
	}

	if !hasField(appraisal, "effective_date") {
		violations = append(violations, Violation{
			Rule:        "USPAP SR1-1(a)",
			Severity:    SeverityCritical,
			Description: "Effective date of appraisal is required",
			Field:       "effective_date",
			Suggestion:  "Specify the effective date of the appraisal",
		})
	}

	if comparables := sliceField(appraisal, "comparables"); len(comparables) < 3 {
		violations = append(violations, Violation{
			Rule:        "USPAP SR1-4(b)",
			Severity:    SeverityWarning,
			Description: "Minimum of 3 comparable sales recommended",
			Field:       "comparables",
			Suggestion:  fmt.Sprintf("Add %d more comparable sales", 3-len(comparables)),
		})
	}

	return violations
}

// checkUAD validates form data against a subset of UAD field requirements.
func (a *ComplianceAgent) checkUAD(form map[string]interface{}) []Violation {
	var violations []Violation

	required := []struct {
		field string
		rule  string
	}{
		{"condition_rating", "UAD C1-C6"},
		{"quality_rating", "UAD Q1-Q6"},
	}

	for _, req := range required {
		if !hasField(form, req.field) {
			violations = append(violations, Violation{
				Rule:        req.rule,
				Severity:    SeverityCritical,
				Description: fmt.Sprintf("UAD field %s is required", req.field),
				Field:       req.field,
				Suggestion:  fmt.Sprintf("Provide a %s value", req.field),
			})
		}
	}

	return violations
}

// buildReport summarizes violations into a compliance report.
func (a *ComplianceAgent) buildReport(violations []Violation) map[string]interface{} {
	critical := 0
	warning := 0
	for _, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			critical++
		case SeverityWarning:
			warning++
		}
	}

	score := 100.0 - float64(critical)*25.0 - float64(warning)*5.0
	if score < 0 {
		score = 0
	}

	return map[string]interface{}{
		"total_violations": len(violations),
		"critical_count":   critical,
		"warning_count":    warning,
		"compliance_score": score,
		"compliant":        critical == 0,
		"violations":       violations,
	}
}
