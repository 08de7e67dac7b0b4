package queue_test

import (
	"fmt"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

func sev(v int) *int { return &v }

func appt(id string, category entities.AppointmentCategory, wait, priority int) entities.Appointment {
	return entities.Appointment{
		ID:             id,
		PatientName:    "Patient " + id,
		Category:       category,
		WaitingMinutes: wait,
		Priority:       priority,
		Status:         entities.AppointmentStatusWaiting,
	}
}

func withSeverity(a entities.Appointment, s int) entities.Appointment {
	a.SeverityScore = sev(s)
	return a
}

func doctors(n int, status entities.DoctorStatus) []entities.Doctor {
	out := make([]entities.Doctor, n)
	for i := range out {
		out[i] = entities.Doctor{ID: fmt.Sprintf("doc-%d", i), Name: fmt.Sprintf("Dr. %d", i), Status: status}
	}
	return out
}

func ids(appts []entities.Appointment) []string {
	out := make([]string, len(appts))
	for i, a := range appts {
		out[i] = a.ID
	}
	return out
}
