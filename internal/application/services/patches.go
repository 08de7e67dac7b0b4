package services

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// PatchOp is the kind of optimistic board change
type PatchOp string

const (
	PatchComplete     PatchOp = "complete"
	PatchCancel       PatchOp = "cancel"
	PatchUpdate       PatchOp = "update"
	PatchDoctorStatus PatchOp = "doctor_status"
)

// PatchState tracks an optimistic change against the server
type PatchState string

const (
	// PatchPending is applied locally and waiting for the write to finish.
	PatchPending PatchState = "pending"
	// PatchConfirmed was written; it stays applied until a refresh shows the server agrees.
	PatchConfirmed PatchState = "confirmed"
	// PatchFailed could not be written and stays applied until retried or discarded.
	PatchFailed PatchState = "failed"
)

// Patch is a provisional local change layered over the last server snapshot
type Patch struct {
	ID            string                      `json:"id"`
	Department    string                      `json:"department"`
	Op            PatchOp                     `json:"operation"`
	AppointmentID string                      `json:"appointment_id,omitempty"`
	DoctorID      string                      `json:"doctor_id,omitempty"`
	Update        *entities.AppointmentUpdate `json:"update,omitempty"`
	DoctorStatus  entities.DoctorStatus       `json:"doctor_status,omitempty"`
	State         PatchState                  `json:"state"`
	Error         string                      `json:"error,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
}

func newPatch(department string, op PatchOp, now time.Time) *Patch {
	return &Patch{
		ID:         uuid.NewString(),
		Department: department,
		Op:         op,
		State:      PatchPending,
		CreatedAt:  now,
	}
}

// Retryable reports whether a failed patch may be re-sent automatically. Destructive
// changes are only ever re-sent on an explicit user request.
func (p *Patch) Retryable() bool {
	return p.State == PatchFailed && p.Op != PatchCancel
}

func (p *Patch) target() string {
	if p.Op == PatchDoctorStatus {
		return "doctor " + p.DoctorID
	}
	return "appointment " + p.AppointmentID
}

func (p *Patch) warning() string {
	return fmt.Sprintf("Could not save %s for %s: %s. Retry or discard the change.", p.Op, p.target(), p.Error)
}

func (p *Patch) applyToAppointment(a *entities.Appointment) {
	switch p.Op {
	case PatchComplete:
		a.Status = entities.AppointmentStatusCompleted
	case PatchCancel:
		a.Status = entities.AppointmentStatusCancelled
	case PatchUpdate:
		if p.Update == nil {
			return
		}
		if p.Update.Category != "" {
			a.Category = p.Update.Category
		}
		if p.Update.ProblemText != "" {
			a.ProblemText = p.Update.ProblemText
		}
		if p.Update.Department != "" {
			a.Department = p.Update.Department
		}
		if p.Update.Status != "" {
			a.Status = p.Update.Status
		}
	}
}

// movedTo returns the department an update moves its appointment into, or "" when it stays.
func (p *Patch) movedTo() string {
	if p.Op != PatchUpdate || p.Update == nil || p.Update.Department == "" {
		return ""
	}
	if strings.EqualFold(p.Update.Department, p.Department) {
		return ""
	}
	return p.Update.Department
}

// withoutMovedOut drops appointments that a patch moves to another department.
func withoutMovedOut(appts []entities.Appointment, patches []*Patch) []entities.Appointment {
	moved := make(map[string]bool)
	for _, p := range patches {
		if p.movedTo() != "" {
			moved[p.AppointmentID] = true
		}
	}
	if len(moved) == 0 {
		return appts
	}
	return lo.Filter(appts, func(a entities.Appointment, _ int) bool { return !moved[a.ID] })
}

// agrees reports whether the server snapshot already reflects the patch.
func (p *Patch) agrees(appts []entities.Appointment, roster []entities.Doctor) bool {
	if p.Op == PatchDoctorStatus {
		d, ok := lo.Find(roster, func(d entities.Doctor) bool { return d.ID == p.DoctorID })
		return ok && d.Status == p.DoctorStatus
	}

	a, ok := lo.Find(appts, func(a entities.Appointment) bool { return a.ID == p.AppointmentID })
	if !ok {
		return p.Op == PatchComplete || p.Op == PatchCancel || p.movedTo() != ""
	}
	want := a
	p.applyToAppointment(&want)
	return want.Status == a.Status && want.Category == a.Category &&
		want.ProblemText == a.ProblemText && want.Department == a.Department
}

// applyPatches layers patches over copies of the snapshot in creation order.
func applyPatches(appts []entities.Appointment, roster []entities.Doctor, patches []*Patch) ([]entities.Appointment, []entities.Doctor) {
	appts = append([]entities.Appointment(nil), appts...)
	roster = append([]entities.Doctor(nil), roster...)

	ordered := sortedPatches(patches)

	for _, p := range ordered {
		if p.Op == PatchDoctorStatus {
			for i := range roster {
				if roster[i].ID == p.DoctorID {
					roster[i].Status = p.DoctorStatus
				}
			}
			continue
		}
		for i := range appts {
			if appts[i].ID == p.AppointmentID {
				p.applyToAppointment(&appts[i])
			}
		}
	}
	return appts, roster
}

// reconcilePatches drops confirmed patches the server now agrees with. Pending and failed
// patches always survive so a refresh cannot resurrect something the user removed.
func reconcilePatches(patches map[string]*Patch, appts []entities.Appointment, roster []entities.Doctor) {
	for id, p := range patches {
		if p.State == PatchConfirmed && p.agrees(appts, roster) {
			delete(patches, id)
		}
	}
}

func sortedPatches(patches []*Patch) []*Patch {
	ordered := slices.Clone(patches)
	slices.SortStableFunc(ordered, func(a, b *Patch) int {
		return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	})
	return ordered
}
