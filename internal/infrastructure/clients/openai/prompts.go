package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

var triageSystemPrompt = `You are a clinical triage assistant for a hospital patient-flow dashboard. A patient has just been flagged as a hyper-emergency.
Decide which single department should handle the case, the urgency level, and give a 1-2 sentence clinical rationale.
Valid departments (choose exactly one, spelling must match): ` + strings.Join(entities.KnownDepartments, ", ") + `.
Urgency levels:
- critical: life-threatening, seconds matter (cardiac arrest, stroke, severe trauma)
- high: serious, needs care within minutes (chest pain, acute neurological, fractures)
- medium: urgent but stable (moderate pain, infections, minor injuries)
- low: can wait (skin rashes, follow-ups, mild symptoms)
Respond with ONLY a JSON object: {"department": string, "urgency_level": "critical|high|medium|low", "reasoning": string}`

const explainSystemPrompt = `You explain hospital operations events to front-desk and nursing staff. Be concise, factual and calm. Use short paragraphs or bullet points. Do not give medical advice.`

type triagePayload struct {
	Department   string `json:"department"`
	UrgencyLevel string `json:"urgency_level"`
	Reasoning    string `json:"reasoning"`
}

func buildTriageUserPrompt(req entities.TriageRequest) string {
	age := "unknown"
	if req.Age > 0 {
		age = fmt.Sprintf("%d", req.Age)
	}
	return fmt.Sprintf("Patient age: %s\nChief complaint: %s\n", age, req.ProblemText)
}

func buildExplainUserPrompt(eventType string, details map[string]interface{}) (string, error) {
	raw, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode event context: %w", err)
	}
	return fmt.Sprintf("Event type: %s\nContext:\n%s\n", eventType, raw), nil
}

func parseTriagePayload(data []byte) (*triagePayload, error) {
	var payload triagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse triage payload: %w", err)
	}
	return &payload, nil
}
