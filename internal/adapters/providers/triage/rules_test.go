package triage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

func TestRuleClassifier_Classify(t *testing.T) {
	tests := []struct {
		name       string
		complaint  string
		age        int
		department string
		urgency    entities.UrgencyLevel
		reasoning  string
	}{
		{
			name:       "cardiac keywords",
			complaint:  "Severe chest pain and palpitations",
			age:        40,
			department: "Cardiology",
			urgency:    entities.UrgencyHigh,
			reasoning:  `Rule-based match on "chest pain", "palpitation" → routed to Cardiology with high urgency.`,
		},
		{
			name:       "child routed to pediatrics",
			complaint:  "rash on arm",
			age:        8,
			department: "Pediatrics",
			urgency:    entities.UrgencyMedium,
			reasoning:  `Rule-based match on "rash" → routed to Pediatrics with medium urgency. Patient is a child (8y), priority escalated.`,
		},
		{
			name:       "child stays in adult-only department",
			complaint:  "cardiac arrest",
			age:        3,
			department: "ICU",
			urgency:    entities.UrgencyCritical,
			reasoning:  `Rule-based match on "cardiac arrest" → routed to ICU with critical urgency. Patient is a child (3y), priority escalated.`,
		},
		{
			name:       "very elderly escalates one step",
			complaint:  "fracture of the wrist",
			age:        80,
			department: "Orthopedics",
			urgency:    entities.UrgencyCritical,
			reasoning:  `Rule-based match on "fracture" → routed to Orthopedics with critical urgency. Elderly patient (80y), priority escalated.`,
		},
		{
			name:       "no keyword",
			complaint:  "feeling tired",
			age:        40,
			department: "General",
			urgency:    entities.UrgencyMedium,
			reasoning:  "No specific keyword matched; defaulting to General department with medium urgency.",
		},
	}

	classifier := NewRuleClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := classifier.Classify(context.Background(), entities.TriageRequest{ProblemText: tt.complaint, Age: tt.age})
			require.NoError(t, err)
			assert.Equal(t, tt.department, result.Department)
			assert.Equal(t, tt.urgency, result.UrgencyLevel)
			assert.Equal(t, tt.reasoning, result.Reasoning)
			assert.Equal(t, SourceRuleBased, result.Source)
		})
	}
}

func TestRuleClassifier_ReasoningKeepsThreeKeywords(t *testing.T) {
	result := classifyByRules("chest pain, angina, arrhythmia and ecg changes", 50)

	assert.Equal(t, `Rule-based match on "chest pain", "angina", "arrhythmia" → routed to Cardiology with high urgency.`, result.Reasoning)
}

func TestAgeBoost(t *testing.T) {
	assert.Equal(t, entities.UrgencyMedium, ageBoost(10, entities.UrgencyLow))
	assert.Equal(t, entities.UrgencyMedium, ageBoost(10, entities.UrgencyMedium))
	assert.Equal(t, entities.UrgencyHigh, ageBoost(4, entities.UrgencyMedium))
	assert.Equal(t, entities.UrgencyMedium, ageBoost(70, entities.UrgencyLow))
	assert.Equal(t, entities.UrgencyCritical, ageBoost(90, entities.UrgencyCritical))
	assert.Equal(t, entities.UrgencyLow, ageBoost(40, entities.UrgencyLow))
}

func TestSanitizeDepartment(t *testing.T) {
	assert.Equal(t, "ICU", SanitizeDepartment("icu"))
	assert.Equal(t, "Cardiology", SanitizeDepartment("  Cardiology "))
	assert.Equal(t, "Neurology", SanitizeDepartment("neurology department"))
	assert.Equal(t, "General", SanitizeDepartment("Oncology"))
	assert.Equal(t, "General", SanitizeDepartment(""))
}

func TestSanitizeUrgency(t *testing.T) {
	assert.Equal(t, entities.UrgencyCritical, SanitizeUrgency("CRITICAL"))
	assert.Equal(t, entities.UrgencyLow, SanitizeUrgency(" low"))
	assert.Equal(t, entities.UrgencyHigh, SanitizeUrgency("urgent"))
	assert.Equal(t, entities.UrgencyHigh, SanitizeUrgency(""))
}
