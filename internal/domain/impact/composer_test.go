package impact_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/impact"
)

func emergencyCase() *entities.EmergencyCase {
	return &entities.EmergencyCase{
		ID:            "hyper-1",
		PatientName:   "Asha Rao",
		Age:           58,
		Department:    "Cardiology",
		DoctorID:      "d1",
		DoctorName:    "Mehta",
		ProblemText:   "crushing chest pain",
		SeverityScore: 10,
		UrgencyLevel:  entities.UrgencyCritical,
	}
}

func TestCompose_SectionsInOrder(t *testing.T) {
	n := impact.Explain(emergencyCase(), []entities.Appointment{
		waiting("a", entities.AppointmentCategoryEmergency, 8, 40, 5),
		waiting("b", entities.AppointmentCategoryRoutine, 2, 30, 10),
	})

	require.Len(t, n.Sections, 3)
	assert.Equal(t, impact.HeadingReasoning, n.Sections[0].Heading)
	assert.Equal(t, impact.HeadingQueue, n.Sections[1].Heading)
	assert.Equal(t, impact.HeadingActions, n.Sections[2].Heading)

	assert.Contains(t, n.Sections[0].Lines[0], "**Asha Rao** (Age 58)")
	assert.Contains(t, n.Sections[0].Lines[0], "**10/10** in the **Cardiology** department")
	assert.Equal(t, "Chief complaint: *crushing chest pain*, urgency level **CRITICAL**.", n.Sections[0].Lines[1])

	require.Len(t, n.Sections[1].Lines, 2)
	assert.Equal(t,
		"• **Patient a** (Age 40, emergency, severity 8/10, wait ~5 min) — Immediate Transfer to next available emergency doctor *(severity 8/10 emergency, cannot wait)*",
		n.Sections[1].Lines[0])

	actions := n.Sections[2].Lines
	assert.Equal(t, []string{
		"• Notify all **2 patient(s)** in Dr. Mehta's queue about the emergency delay immediately",
		"• **1 high-severity patient(s)** need immediate transfer — contact on-call doctors now",
		"• **1 routine patient(s)** can be rescheduled for later today or tomorrow",
		"• Estimated disruption time: **~30 minutes**",
		"• Update the appointment board and notify waiting patients via SMS or call",
		"• Log the emergency override in the hospital management system",
	}, actions)
}

func TestCompose_EmptyQueueKeepsAllSections(t *testing.T) {
	n := impact.Explain(emergencyCase(), nil)

	require.Len(t, n.Sections, 3)
	assert.Equal(t, []string{"**No patients** are currently in Dr. Mehta's queue. No rescheduling required."}, n.Sections[1].Lines)

	actions := n.Sections[2].Lines
	assert.Contains(t, actions, "• No high-severity transfers required at this time")
	assert.Contains(t, actions, "• Estimated disruption time: **~0 minutes**")
	for _, line := range actions {
		assert.NotContains(t, line, "routine patient(s)")
	}
}

func TestCompose_OnlyRendersSummary(t *testing.T) {
	s := impact.Summary{
		Records:               []impact.Record{{PatientName: "Z", Age: 9, Category: "routine", Severity: 6, Action: impact.ActionPediatricTransfer, Rationale: "given"}},
		QueueLength:           1,
		HighPriorityTransfers: 0,
		RoutineReschedules:    1,
		DisruptionMinutes:     30,
	}

	n := impact.Compose(emergencyCase(), s)

	assert.Contains(t, n.Sections[1].Lines[0], "Transfer to Pediatrics or next available doctor *(given)*")
	assert.Equal(t, s, n.Summary)
}

func TestNarrative_Text(t *testing.T) {
	e := emergencyCase()
	e.ProblemText = ""
	e.UrgencyLevel = ""

	text := impact.Explain(e, nil).Text()

	assert.True(t, strings.HasPrefix(text, "### Why Rescheduling Is Necessary\n"))
	assert.Contains(t, text, "*life-threatening condition*, urgency level **CRITICAL**")
	assert.Contains(t, text, "\n\n### Impact on Current Queue\n")
	assert.Contains(t, text, "\n\n### Recommended Actions for Front Desk / Nursing Staff\n")
}
