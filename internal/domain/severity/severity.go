// Package severity turns numeric acuity scores and qualitative urgency levels
// into display labels and weights.
package severity

import (
	"strings"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// Label is a discrete acuity band
type Label string

const (
	LabelCritical Label = "CRITICAL"
	LabelHigh     Label = "HIGH"
	LabelModerate Label = "MODERATE"
	LabelStable   Label = "STABLE"
)

const (
	MinScore = 0
	MaxScore = 10
)

// Classification is the result of classifying a score or urgency level.
type Classification struct {
	Label  Label `json:"label"`
	Weight int   `json:"weight"`
}

var ladder = []struct {
	floor int
	Classification
}{
	{9, Classification{LabelCritical, 4}},
	{7, Classification{LabelHigh, 3}},
	{5, Classification{LabelModerate, 2}},
	{MinScore, Classification{LabelStable, 1}},
}

// Clamp pins a score into [MinScore, MaxScore].
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Classify maps a critical-care score onto the CRITICAL/HIGH/MODERATE/STABLE ladder.
// Scores outside 0..10 are clamped first, so -2 is STABLE and 42 is CRITICAL.
func Classify(score int) Classification {
	score = Clamp(score)
	for _, step := range ladder {
		if score >= step.floor {
			return step.Classification
		}
	}
	return ladder[len(ladder)-1].Classification
}

// ClassifyAppointment classifies an appointment, using the neutral score when it has none.
func ClassifyAppointment(a *entities.Appointment) Classification {
	return Classify(a.Severity())
}

var urgencyBadges = map[entities.UrgencyLevel]Classification{
	entities.UrgencyCritical: {LabelCritical, 4},
	entities.UrgencyHigh:     {LabelHigh, 3},
	entities.UrgencyMedium:   {LabelModerate, 2},
	entities.UrgencyLow:      {LabelStable, 1},
}

// NormalizeUrgency lower-cases and validates a qualitative level; unknown input is high.
func NormalizeUrgency(level string) entities.UrgencyLevel {
	l := entities.UrgencyLevel(strings.ToLower(strings.TrimSpace(level)))
	if _, ok := urgencyBadges[l]; ok {
		return l
	}
	return entities.UrgencyHigh
}

// ClassifyUrgency is the general-urgency lookup: critical/high/medium/low map 1:1 to badges.
func ClassifyUrgency(level string) Classification {
	return urgencyBadges[NormalizeUrgency(level)]
}

// EmergencyUrgency labels a hyper-emergency for listing.
func EmergencyUrgency(score int) entities.UrgencyLevel {
	if score >= 8 {
		return entities.UrgencyCritical
	}
	return entities.UrgencyHigh
}

// IsCritical reports whether a score counts toward a board's critical tally.
func IsCritical(score int) bool {
	return Classify(score).Label == LabelCritical
}
