package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/severity"
)

// SourceRuleBased marks results produced by the keyword table.
const SourceRuleBased = "rule-based"

// defaultComplaintAge is assumed when intake leaves the age blank.
const defaultComplaintAge = 30

type keywordRule struct {
	keywords   []string
	department string
	urgency    entities.UrgencyLevel
}

// keywordRules is evaluated top to bottom; the first rule with any hit wins.
var keywordRules = []keywordRule{
	{[]string{"cardiac arrest", "heart attack", "ventricular", "code blue", "unresponsive", "no pulse", "resuscitat"},
		"ICU", entities.UrgencyCritical},
	{[]string{"septic shock", "multi-organ", "respiratory failure", "ventilat", "intubat", "icu"},
		"ICU", entities.UrgencyCritical},

	{[]string{"chest pain", "chest pressure", "angina", "myocardial", "arrhythmia", "palpitation", "stemi", "nstemi",
		"heart failure", "bradycardia", "tachycardia", "ecg"},
		"Cardiology", entities.UrgencyHigh},
	{[]string{"aortic", "endocarditis", "cardiomyopathy"},
		"Cardiology", entities.UrgencyHigh},

	{[]string{"stroke", "tia", "seizure", "epilep", "facial droop", "slurred speech", "sudden numbness", "paralysis",
		"altered consciousness", "confusion", "meningitis", "brain", "cerebral", "encephalitis", "migraine severe"},
		"Neurology", entities.UrgencyCritical},
	{[]string{"headache severe", "vision loss sudden", "vertigo severe"},
		"Neurology", entities.UrgencyHigh},

	{[]string{"fracture", "broken bone", "dislocation", "spinal injury", "back injury", "joint pain severe", "ligament",
		"tendon", "orthopedic", "fall injury", "bone"},
		"Orthopedics", entities.UrgencyHigh},

	{[]string{"child", "infant", "baby", "newborn", "pediatric", "toddler", "neonatal", "febrile seizure"},
		"Pediatrics", entities.UrgencyHigh},

	{[]string{"rash severe", "allergic reaction", "anaphylaxis", "urticaria", "angioedema", "skin infection severe",
		"cellulitis", "burns severe", "toxic epidermal"},
		"Dermatology", entities.UrgencyHigh},
	{[]string{"rash", "skin", "dermatitis", "eczema", "psoriasis", "lesion", "wound infection"},
		"Dermatology", entities.UrgencyMedium},

	{[]string{"abdominal pain severe", "appendicitis", "bowel", "gastrointestinal bleed", "hematemesis", "melena",
		"pancreatitis", "peritonitis"},
		"General", entities.UrgencyHigh},
	{[]string{"fever high", "sepsis", "infection severe", "diabetic emergency", "hypoglycemia", "hyperglycemia"},
		"General", entities.UrgencyHigh},
	{[]string{"shortness of breath", "dyspnea", "breathing difficulty", "asthma severe", "pulmonary embolism"},
		"General", entities.UrgencyCritical},
}

// adultOnly departments keep children rather than handing them to Pediatrics.
var adultOnly = map[string]bool{"ICU": true, "Neurology": true, "Cardiology": true}

var escalation = map[entities.UrgencyLevel]entities.UrgencyLevel{
	entities.UrgencyLow:    entities.UrgencyMedium,
	entities.UrgencyMedium: entities.UrgencyHigh,
	entities.UrgencyHigh:   entities.UrgencyCritical,
}

// RuleClassifier is the deterministic keyword and age triage used when no model is available.
type RuleClassifier struct{}

// NewRuleClassifier creates a rule-based classifier
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify never fails.
func (c *RuleClassifier) Classify(_ context.Context, req entities.TriageRequest) (*entities.TriageResult, error) {
	return classifyByRules(req.ProblemText, req.Age), nil
}

func classifyByRules(complaint string, age int) *entities.TriageResult {
	if age <= 0 {
		age = defaultComplaintAge
	}
	text := strings.ToLower(complaint)

	department := entities.DefaultDepartment
	urgency := entities.UrgencyMedium
	var hits []string

	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > 0 {
			department = rule.department
			urgency = rule.urgency
			break
		}
	}

	department = ageOverride(age, department)
	urgency = ageBoost(age, urgency)

	var note string
	switch {
	case age <= 12:
		note = fmt.Sprintf(" Patient is a child (%dy), priority escalated.", age)
	case age >= 65:
		note = fmt.Sprintf(" Elderly patient (%dy), priority escalated.", age)
	}

	var reasoning string
	if len(hits) > 0 {
		if len(hits) > 3 {
			hits = hits[:3]
		}
		quoted := make([]string, len(hits))
		for i, h := range hits {
			quoted[i] = `"` + h + `"`
		}
		reasoning = fmt.Sprintf("Rule-based match on %s → routed to %s with %s urgency.%s",
			strings.Join(quoted, ", "), department, urgency, note)
	} else {
		reasoning = "No specific keyword matched; defaulting to General department with medium urgency." + note
	}

	return &entities.TriageResult{
		Department:   department,
		UrgencyLevel: urgency,
		Reasoning:    reasoning,
		Source:       SourceRuleBased,
	}
}

func ageOverride(age int, department string) string {
	if age <= 14 && !adultOnly[department] {
		return "Pediatrics"
	}
	return department
}

func ageBoost(age int, urgency entities.UrgencyLevel) entities.UrgencyLevel {
	next, ok := escalation[urgency]
	if !ok {
		return urgency
	}
	if age <= 5 || age >= 75 {
		return next
	}
	if (age <= 12 || age >= 65) && urgency == entities.UrgencyLow {
		return next
	}
	return urgency
}

// SanitizeDepartment maps free text onto a known department: exact match, then containment, else General.
func SanitizeDepartment(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, dept := range entities.KnownDepartments {
		if strings.ToLower(dept) == v {
			return dept
		}
	}
	if v != "" {
		for _, dept := range entities.KnownDepartments {
			d := strings.ToLower(dept)
			if strings.Contains(v, d) || strings.Contains(d, v) {
				return dept
			}
		}
	}
	return entities.DefaultDepartment
}

// SanitizeUrgency accepts the four known levels and treats anything else as high.
func SanitizeUrgency(value string) entities.UrgencyLevel {
	return severity.NormalizeUrgency(value)
}
