package queue

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// PriorityLevel is the demographic priority band used by the per-doctor optimizer
type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "HIGH"
	PriorityMedium PriorityLevel = "MEDIUM"
	PriorityLow    PriorityLevel = "LOW"
)

var priorityWeight = map[PriorityLevel]int{
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

// PatientPriority scores a patient on age, disability and the 18-45 female window.
func PatientPriority(age int, gender string, disability bool) (int, PriorityLevel) {
	var score int
	switch {
	case age <= 5:
		score = 60
	case age <= 17:
		score = 40
	case age <= 59:
		score = 20
	case age <= 74:
		score = 50
	default:
		score = 60
	}
	if disability {
		score += 30
	}
	if strings.EqualFold(gender, "female") && age >= 18 && age <= 45 {
		score += 10
	}

	switch {
	case score >= 80:
		return score, PriorityHigh
	case score >= 40:
		return score, PriorityMedium
	default:
		return score, PriorityLow
	}
}

// EstimateServiceMinutes predicts consultation length for one appointment.
func EstimateServiceMinutes(a *entities.Appointment) int {
	var minutes int
	switch entities.AppointmentCategory(strings.ToLower(string(a.Category))) {
	case entities.AppointmentCategoryEmergency:
		minutes = 30
	case entities.AppointmentCategoryRoutine:
		minutes = 20
	default:
		minutes = 15
	}
	minutes += a.Severity() * 2
	if a.Age > 65 || a.Age < 12 {
		minutes += 5
	}
	if a.Disability {
		minutes += 7
	}
	return minutes
}

// Slot is an appointment's position in a doctor's optimized queue.
type Slot struct {
	Appointment      entities.Appointment `json:"appointment"`
	PriorityScore    int                  `json:"priority_score"`
	PriorityLevel    PriorityLevel        `json:"priority_level"`
	EstimatedMinutes int                  `json:"estimated_duration"`
	WaitingMinutes   int                  `json:"waiting_time_minutes"`
	StartTime        time.Time            `json:"start_time"`
	EndTime          time.Time            `json:"end_time"`
}

// Optimize orders one doctor's active queue by priority weight, then severity,
// then arrival, and gives each slot the summed service time of everyone ahead.
func Optimize(appts []entities.Appointment, now time.Time) []Slot {
	slots := lo.Map(Pending(appts), func(a entities.Appointment, _ int) Slot {
		score, level := PatientPriority(a.Age, a.Gender, a.Disability)
		return Slot{
			Appointment:      a,
			PriorityScore:    score,
			PriorityLevel:    level,
			EstimatedMinutes: EstimateServiceMinutes(&a),
		}
	})

	slices.SortStableFunc(slots, func(x, y Slot) int {
		if c := cmp.Compare(priorityWeight[y.PriorityLevel], priorityWeight[x.PriorityLevel]); c != 0 {
			return c
		}
		if c := cmp.Compare(y.Appointment.Severity(), x.Appointment.Severity()); c != 0 {
			return c
		}
		return x.Appointment.AppointmentTime.Compare(y.Appointment.AppointmentTime)
	})

	ahead := 0
	for i := range slots {
		slots[i].WaitingMinutes = ahead
		slots[i].StartTime = now.Add(time.Duration(ahead) * time.Minute)
		slots[i].EndTime = slots[i].StartTime.Add(time.Duration(slots[i].EstimatedMinutes) * time.Minute)
		slots[i].Appointment.WaitingMinutes = ahead
		slots[i].Appointment.PredictedServiceMinutes = slots[i].EstimatedMinutes
		ahead += slots[i].EstimatedMinutes
	}
	return slots
}

// Metrics converts optimized slots into the values persisted after a recompute.
func Metrics(slots []Slot) []entities.QueueMetrics {
	return lo.Map(slots, func(s Slot, _ int) entities.QueueMetrics {
		return entities.QueueMetrics{
			AppointmentID:           s.Appointment.ID,
			WaitingMinutes:          s.WaitingMinutes,
			PredictedServiceMinutes: s.EstimatedMinutes,
			PriorityScore:           s.PriorityScore,
		}
	})
}

// Appointments unwraps slots back into appointments carrying their waiting minutes.
func Appointments(slots []Slot) []entities.Appointment {
	return lo.Map(slots, func(s Slot, _ int) entities.Appointment {
		return s.Appointment
	})
}
