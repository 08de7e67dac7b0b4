package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/queue"
	"github.com/zatekoja/patientflow/internal/domain/severity"
)

// BoardKey identifies one department board for one shift
type BoardKey struct {
	Department string
	Shift      entities.Shift
}

func (k BoardKey) normalized() BoardKey {
	return BoardKey{Department: strings.ToLower(strings.TrimSpace(k.Department)), Shift: k.Shift}
}

func (k BoardKey) cacheKey() string {
	n := k.normalized()
	return fmt.Sprintf("flow:board:%s:%s", n.Department, n.Shift)
}

// StatusCounts is the number of a department's appointments in each lifecycle state.
type StatusCounts struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Waiting    int `json:"waiting"`
	Cancelled  int `json:"cancelled"`
}

// Board is the sorted, assigned and projected view of one department's queue.
type Board struct {
	Department    string                 `json:"department"`
	Shift         entities.Shift         `json:"shift"`
	Policy        string                 `json:"policy"`
	Patients      []entities.Appointment `json:"patients"`
	Doctors       []queue.Projection     `json:"doctors"`
	Assignment    []queue.Pair           `json:"assignment"`
	Unassigned    []string               `json:"unassigned"`
	Counts        StatusCounts           `json:"today_stats"`
	CriticalCount int                    `json:"critical_count"`
	ActiveDoctors int                    `json:"active_doctors"`
	Patches       []Patch                `json:"patches"`
	Warnings      []string               `json:"warnings"`
	Stale         bool                   `json:"stale"`
	LoadError     string                 `json:"load_error,omitempty"`
	RefreshedAt   time.Time              `json:"refreshed_at"`
}

// designateStandby marks the least experienced active doctor as standby once at least
// two doctors are active. Doctors keep their input order.
func designateStandby(doctors []entities.Doctor, capacity, standbyCapacity int) []entities.Doctor {
	out := slices.Clone(doctors)
	for i := range out {
		out[i].IsStandby = false
		out[i].MaxPatients = capacity
	}

	active := lo.Filter(lo.Range(len(out)), func(i int, _ int) bool { return out[i].IsActive() })
	if len(active) < 2 {
		return out
	}
	standby := lo.MinBy(active, func(a, b int) bool {
		return out[a].ExperienceYears < out[b].ExperienceYears
	})
	out[standby].IsStandby = true
	out[standby].MaxPatients = standbyCapacity
	return out
}

func countStatuses(appts []entities.Appointment) StatusCounts {
	var c StatusCounts
	for _, a := range appts {
		switch a.Status {
		case entities.AppointmentStatusCompleted:
			c.Completed++
		case entities.AppointmentStatusInProgress:
			c.InProgress++
		case entities.AppointmentStatusScheduled, entities.AppointmentStatusWaiting:
			c.Waiting++
		case entities.AppointmentStatusCancelled:
			c.Cancelled++
		}
	}
	return c
}

// buildBoard applies outstanding patches to the server snapshot and derives the whole view.
// Sorting, assignment and projection happen in one pass so the mapping always matches the roster.
func buildBoard(key BoardKey, policy queue.Policy, appts []entities.Appointment, roster []entities.Doctor,
	patches []*Patch, capacity, standbyCapacity int) *Board {

	appts, roster = applyPatches(appts, roster, patches)
	appts = withoutMovedOut(appts, patches)
	roster = designateStandby(roster, capacity, standbyCapacity)

	sorted, asg := queue.Recompute(policy, appts, roster)

	board := &Board{
		Department: key.Department,
		Shift:      key.Shift,
		Policy:     policy.Name(),
		Patients:   queue.ArrangeForDisplay(sorted),
		Doctors:    queue.ProjectAll(roster, sorted),
		Assignment: asg.Pairs(),
		Unassigned: asg.Unassigned(),
		Counts:     countStatuses(appts),
		CriticalCount: lo.CountBy(sorted, func(a entities.Appointment) bool {
			return severity.IsCritical(a.Severity())
		}),
		ActiveDoctors: len(queue.ActiveDoctors(roster)),
		Patches:       make([]Patch, 0, len(patches)),
		Warnings:      []string{},
	}

	for _, p := range sortedPatches(patches) {
		board.Patches = append(board.Patches, *p)
		if p.State == PatchFailed {
			board.Warnings = append(board.Warnings, p.warning())
		}
	}
	if len(board.Unassigned) > 0 {
		board.Warnings = append(board.Warnings,
			fmt.Sprintf("%d patient(s) have no active doctor and need rework", len(board.Unassigned)))
	}
	return board
}
