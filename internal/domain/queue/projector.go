package queue

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

const (
	// minutesPerConsult is a display heuristic, not a scheduling guarantee.
	minutesPerConsult = 15

	LabelAvailableNow = "Available Now"
	LabelUnavailable  = "Unavailable"
)

// Projection is one doctor's live queue view.
type Projection struct {
	Doctor         entities.Doctor        `json:"doctor"`
	Available      bool                   `json:"available"`
	CurrentPatient *entities.Appointment  `json:"current_patient"`
	InProgress     []entities.Appointment `json:"in_progress"`
	Queue          []entities.Appointment `json:"queue"`
	QueueDepth     int                    `json:"queue_depth"`
	NextAvailable  string                 `json:"next_available"`
}

// Project derives a doctor's view from a priority-ordered, already assigned board.
func Project(doctor entities.Doctor, board []entities.Appointment) Projection {
	mine := lo.Filter(board, func(a entities.Appointment, _ int) bool {
		return a.DoctorID() == doctor.ID && !a.Status.IsTerminal()
	})
	inProgress := lo.Filter(mine, func(a entities.Appointment, _ int) bool {
		return a.IsInProgress()
	})

	p := Projection{
		Doctor:     doctor,
		Available:  doctor.IsActive(),
		InProgress: inProgress,
		Queue:      ArrangeForDisplay(mine),
		QueueDepth: len(mine),
	}

	if !p.Available {
		p.NextAvailable = LabelUnavailable
		return p
	}

	switch {
	case len(inProgress) > 0:
		current := inProgress[0]
		p.CurrentPatient = &current
	case len(mine) > 0:
		current := mine[0]
		p.CurrentPatient = &current
	}

	p.NextAvailable = nextAvailable(len(mine), len(inProgress))
	return p
}

func nextAvailable(depth, inProgress int) string {
	switch {
	case depth == 0:
		return LabelAvailableNow
	case inProgress > 0:
		return fmt.Sprintf("~%d min", inProgress*minutesPerConsult)
	default:
		return fmt.Sprintf("%d waiting", depth)
	}
}

// ProjectAll projects every doctor on the roster, in roster order.
func ProjectAll(roster []entities.Doctor, board []entities.Appointment) []Projection {
	return lo.Map(roster, func(d entities.Doctor, _ int) Projection {
		return Project(d, board)
	})
}
