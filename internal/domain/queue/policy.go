// Package queue orders a department's pending patients, spreads them across
// the active doctors and derives each doctor's live queue view.
package queue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// Policy is a comparator over pending appointments.
type Policy interface {
	Compare(a, b *entities.Appointment) int
	Name() string
}

// StandardPolicy orders general departments: emergency before routine before
// follow-up, then longest wait, then ascending priority, then id.
type StandardPolicy struct{}

var categoryRank = map[entities.AppointmentCategory]int{
	entities.AppointmentCategoryEmergency: 0,
	entities.AppointmentCategoryRoutine:   1,
	entities.AppointmentCategoryFollowUp:  2,
}

func rankOf(c entities.AppointmentCategory) int {
	if r, ok := categoryRank[entities.AppointmentCategory(strings.ToLower(string(c)))]; ok {
		return r
	}
	return len(categoryRank)
}

func (StandardPolicy) Name() string { return "standard" }

// Compare never returns 0 for two distinct ids.
func (StandardPolicy) Compare(a, b *entities.Appointment) int {
	if c := cmp.Compare(rankOf(a.Category), rankOf(b.Category)); c != 0 {
		return c
	}
	if c := cmp.Compare(b.WaitingMinutes, a.WaitingMinutes); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// SeverityPolicy orders critical-care departments by descending severity only.
// Category and waiting time are intentionally ignored here; equal severities
// keep their input order because Sort is stable.
type SeverityPolicy struct{}

func (SeverityPolicy) Name() string { return "severity" }

func (SeverityPolicy) Compare(a, b *entities.Appointment) int {
	return cmp.Compare(b.Severity(), a.Severity())
}

// ForClass picks the policy for a department class.
func ForClass(class entities.DepartmentClass) Policy {
	if class == entities.DepartmentClassCriticalCare {
		return SeverityPolicy{}
	}
	return StandardPolicy{}
}

// Sort returns a priority-ordered copy of appts.
func Sort(p Policy, appts []entities.Appointment) []entities.Appointment {
	out := slices.Clone(appts)
	slices.SortStableFunc(out, func(a, b entities.Appointment) int {
		return p.Compare(&a, &b)
	})
	return out
}

// Pending drops completed and cancelled entries, preserving order.
func Pending(appts []entities.Appointment) []entities.Appointment {
	return lo.Filter(appts, func(a entities.Appointment, _ int) bool {
		return !a.Status.IsTerminal()
	})
}

// ArrangeForDisplay surfaces in-progress entries ahead of the rest. It is a
// stable partition of an already sorted list, so each half keeps the
// comparator's order.
func ArrangeForDisplay(sorted []entities.Appointment) []entities.Appointment {
	inProgress, rest := lo.FilterReject(sorted, func(a entities.Appointment, _ int) bool {
		return a.IsInProgress()
	})
	return append(inProgress, rest...)
}
