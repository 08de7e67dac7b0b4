package impact

import (
	"fmt"
	"strings"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

const (
	HeadingReasoning = "Why Rescheduling Is Necessary"
	HeadingQueue     = "Impact on Current Queue"
	HeadingActions   = "Recommended Actions for Front Desk / Nursing Staff"
)

// Section is one heading with its body lines.
type Section struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}

// Narrative is the three-section explanation. Sections are always present and
// always in reasoning, queue, actions order.
type Narrative struct {
	Sections []Section `json:"sections"`
	Summary  Summary   `json:"summary"`
}

// Text renders the narrative as markdown-ish text for progressive display.
func (n Narrative) Text() string {
	blocks := make([]string, 0, len(n.Sections))
	for _, s := range n.Sections {
		blocks = append(blocks, "### "+s.Heading+"\n"+strings.Join(s.Lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// Compose renders an already computed Summary. It makes no decisions of its own.
func Compose(e *entities.EmergencyCase, s Summary) Narrative {
	return Narrative{
		Sections: []Section{
			reasoningSection(e),
			queueSection(e, s),
			actionsSection(e, s),
		},
		Summary: s,
	}
}

// Explain analyzes the waiting queue and composes the narrative in one step.
func Explain(e *entities.EmergencyCase, waiting []entities.Appointment) Narrative {
	return Compose(e, Analyze(e, waiting))
}

func reasoningSection(e *entities.EmergencyCase) Section {
	severity := e.SeverityScore
	if severity <= 0 {
		severity = entities.HyperEmergencySeverity
	}
	complaint := strings.TrimSpace(e.ProblemText)
	if complaint == "" {
		complaint = "life-threatening condition"
	}
	urgency := string(e.UrgencyLevel)
	if urgency == "" {
		urgency = string(entities.UrgencyCritical)
	}

	return Section{
		Heading: HeadingReasoning,
		Lines: []string{
			fmt.Sprintf("**%s** (Age %d) has been admitted as a **Hyper Emergency** with severity score **%d/10** in the **%s** department.",
				e.PatientName, e.Age, severity, e.Department),
			fmt.Sprintf("Chief complaint: *%s*, urgency level **%s**.", complaint, strings.ToUpper(urgency)),
			fmt.Sprintf("Dr. **%s** must give this patient immediate and undivided attention. All existing appointments must be evaluated for rescheduling or transfer.",
				e.DoctorName),
		},
	}
}

func queueSection(e *entities.EmergencyCase, s Summary) Section {
	sec := Section{Heading: HeadingQueue}
	if len(s.Records) == 0 {
		sec.Lines = []string{
			fmt.Sprintf("**No patients** are currently in Dr. %s's queue. No rescheduling required.", e.DoctorName),
		}
		return sec
	}
	for _, r := range s.Records {
		sec.Lines = append(sec.Lines, fmt.Sprintf("• **%s** (Age %d, %s, severity %d/10, wait ~%d min) — %s *(%s)*",
			r.PatientName, r.Age, r.Category, r.Severity, r.WaitingMinutes, r.Action, r.Rationale))
	}
	return sec
}

func actionsSection(e *entities.EmergencyCase, s Summary) Section {
	lines := []string{
		fmt.Sprintf("• Notify all **%d patient(s)** in Dr. %s's queue about the emergency delay immediately", s.QueueLength, e.DoctorName),
	}
	if s.HighPriorityTransfers > 0 {
		lines = append(lines, fmt.Sprintf("• **%d high-severity patient(s)** need immediate transfer — contact on-call doctors now", s.HighPriorityTransfers))
	} else {
		lines = append(lines, "• No high-severity transfers required at this time")
	}
	if s.RoutineReschedules > 0 {
		lines = append(lines, fmt.Sprintf("• **%d routine patient(s)** can be rescheduled for later today or tomorrow", s.RoutineReschedules))
	}
	lines = append(lines,
		fmt.Sprintf("• Estimated disruption time: **~%d minutes**", s.DisruptionMinutes),
		"• Update the appointment board and notify waiting patients via SMS or call",
		"• Log the emergency override in the hospital management system",
	)
	return Section{Heading: HeadingActions, Lines: lines}
}
