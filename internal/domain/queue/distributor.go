package queue

import (
	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// Pair is one row of an assignment. DoctorID is empty when nobody is on duty.
type Pair struct {
	AppointmentID string `json:"appointment_id"`
	DoctorID      string `json:"doctor_id,omitempty"`
}

// Assignment maps sorted appointments onto doctors. It is derived, never stored.
type Assignment struct {
	pairs     []Pair
	byPatient map[string]string
}

// ActiveDoctors filters a roster down to doctors who can take patients, keeping roster order.
func ActiveDoctors(roster []entities.Doctor) []entities.Doctor {
	return lo.Filter(roster, func(d entities.Doctor, _ int) bool {
		return d.IsActive()
	})
}

// Assign distributes round-robin: sorted[i] goes to activeDoctors[i % len(activeDoctors)].
// With no active doctors every patient is left unassigned. The result depends only on
// the two inputs, so earlier pairings are never carried over.
func Assign(sorted []entities.Appointment, activeDoctors []entities.Doctor) Assignment {
	asg := Assignment{
		pairs:     make([]Pair, len(sorted)),
		byPatient: make(map[string]string, len(sorted)),
	}
	for i, a := range sorted {
		p := Pair{AppointmentID: a.ID}
		if len(activeDoctors) > 0 {
			p.DoctorID = activeDoctors[i%len(activeDoctors)].ID
		}
		asg.pairs[i] = p
		asg.byPatient[a.ID] = p.DoctorID
	}
	return asg
}

// Pairs returns the mapping in sorted-patient order.
func (a Assignment) Pairs() []Pair {
	return append([]Pair(nil), a.pairs...)
}

// DoctorFor returns the doctor assigned to an appointment.
func (a Assignment) DoctorFor(appointmentID string) (string, bool) {
	id, ok := a.byPatient[appointmentID]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Unassigned lists appointments that need rework because no doctor was active.
func (a Assignment) Unassigned() []string {
	return lo.FilterMap(a.pairs, func(p Pair, _ int) (string, bool) {
		return p.AppointmentID, p.DoctorID == ""
	})
}

// Apply writes the mapping onto copies of appts.
func (a Assignment) Apply(appts []entities.Appointment) []entities.Appointment {
	return lo.Map(appts, func(appt entities.Appointment, _ int) entities.Appointment {
		if id, ok := a.DoctorFor(appt.ID); ok {
			appt.AssignedDoctorID = &id
		} else {
			appt.AssignedDoctorID = nil
		}
		return appt
	})
}

// Recompute sorts pending appointments, assigns them across the roster's active
// doctors and returns the assigned list in priority order.
func Recompute(p Policy, appts []entities.Appointment, roster []entities.Doctor) ([]entities.Appointment, Assignment) {
	sorted := Sort(p, Pending(appts))
	asg := Assign(sorted, ActiveDoctors(roster))
	return asg.Apply(sorted), asg
}
