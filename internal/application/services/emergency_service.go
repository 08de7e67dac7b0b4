package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/adapters/loaders"
	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/impact"
	"github.com/zatekoja/patientflow/internal/domain/providers"
	"github.com/zatekoja/patientflow/internal/domain/queue"
	"github.com/zatekoja/patientflow/internal/domain/repositories"
	"github.com/zatekoja/patientflow/internal/domain/severity"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

// emergencyListLimit caps the hyper-emergency list.
const emergencyListLimit = 30

// EmergencyService triages, confirms and resolves hyper-emergencies
type EmergencyService struct {
	classifier   providers.TriageClassifier
	appointments repositories.AppointmentRepository
	doctors      repositories.DoctorRepository
	waitTimes    *WaitTimeService
	events       providers.EventBus
	now          func() time.Time
}

// NewEmergencyService creates a new emergency service
func NewEmergencyService(
	classifier providers.TriageClassifier,
	appointments repositories.AppointmentRepository,
	doctors repositories.DoctorRepository,
	waitTimes *WaitTimeService,
	events providers.EventBus,
) *EmergencyService {
	return &EmergencyService{
		classifier:   classifier,
		appointments: appointments,
		doctors:      doctors,
		waitTimes:    waitTimes,
		events:       events,
		now:          time.Now,
	}
}

// Triage classifies a complaint and ranks the department's active doctors.
// An empty doctor pool is a valid answer, not an error.
func (s *EmergencyService) Triage(ctx context.Context, req entities.TriageRequest) (*entities.TriageResult, error) {
	if req.Age < 0 {
		return nil, apperrors.NewValidationError("age cannot be negative")
	}

	result, err := s.classifier.Classify(ctx, req)
	if err != nil {
		return nil, apperrors.NewExternalError("triage classification failed", err)
	}

	ranked, err := s.doctors.RankForDepartment(ctx, result.Department)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("department", result.Department).
			Msg("Failed to rank doctors for triage")
		ranked = nil
	}

	result.RankedDoctors = ranked
	if result.RankedDoctors == nil {
		result.RankedDoctors = []entities.RankedDoctor{}
	}
	if len(ranked) > 0 {
		first := ranked[0]
		result.RecommendedDoctor = &first
	}
	return result, nil
}

// ConfirmRequest assigns a triaged patient to a chosen doctor
type ConfirmRequest struct {
	Patient    entities.EmergencyIntake `json:"patient"`
	Department string                   `json:"department"`
	DoctorID   string                   `json:"doctor_id"`
}

// Confirm records the hyper-emergency as an appointment and recomputes the doctor's waiting times.
func (s *EmergencyService) Confirm(ctx context.Context, req ConfirmRequest) (*entities.EmergencyCase, error) {
	if strings.TrimSpace(req.Patient.Name) == "" {
		return nil, apperrors.NewValidationError("patient name is required")
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		return nil, apperrors.NewValidationError("doctor_id is required")
	}
	if req.Patient.Age < 0 {
		return nil, apperrors.NewValidationError("age cannot be negative")
	}

	doctor, err := s.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	department := req.Department
	if strings.TrimSpace(department) == "" {
		department = doctor.Department
	}

	score := entities.HyperEmergencySeverity
	doctorID := doctor.ID
	appt := &entities.Appointment{
		PatientName:      strings.TrimSpace(req.Patient.Name),
		Age:              req.Patient.Age,
		Gender:           req.Patient.Gender,
		Disability:       req.Patient.Disability,
		Contact:          req.Patient.Contact,
		Department:       department,
		ProblemText:      req.Patient.ProblemText,
		Category:         entities.AppointmentCategoryEmergency,
		SeverityScore:    &score,
		Status:           entities.AppointmentStatusScheduled,
		AssignedDoctorID: &doctorID,
		DoctorName:       doctor.Name,
		IsHyperEmergency: true,
		AppointmentTime:  s.now(),
	}
	appt.Priority, _ = queue.PatientPriority(appt.Age, appt.Gender, appt.Disability)
	appt.PredictedServiceMinutes = queue.EstimateServiceMinutes(appt)

	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx)
	logger.Info().Str("appointment_id", appt.ID).Str("doctor_id", doctorID).Str("department", department).
		Msg("Hyper-emergency confirmed")

	if _, err := s.waitTimes.Recalculate(ctx, doctorID); err != nil {
		logger.Warn().Err(err).Str("doctor_id", doctorID).Msg("Failed to recalculate waiting times")
	}
	publishQueueEvent(ctx, s.events, entities.NewQueueEvent(department, entities.QueueEventEmergencyConfirmed,
		map[string]interface{}{"appointment_id": appt.ID, "doctor_id": doctorID}))

	ec := toEmergencyCase(appt)
	ec.DoctorActive = doctor.IsActive()
	return ec, nil
}

// resolvedSince is the start of the current shift window: 08:00 during the morning shift,
// 15:00 during the afternoon shift, otherwise the last three hours.
func resolvedSince(now time.Time) time.Time {
	day := func(hour int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	}
	switch h := now.Hour(); {
	case h >= 8 && h < 13:
		return day(8)
	case h >= 15 && h < 20:
		return day(15)
	default:
		return now.Add(-3 * time.Hour)
	}
}

func toEmergencyCase(a *entities.Appointment) *entities.EmergencyCase {
	score := a.Severity()
	return &entities.EmergencyCase{
		ID:            a.ID,
		PatientName:   a.PatientName,
		Age:           a.Age,
		Gender:        a.Gender,
		Disability:    a.Disability,
		Contact:       a.Contact,
		Department:    a.Department,
		DoctorID:      a.DoctorID(),
		DoctorName:    a.DoctorName,
		ProblemText:   a.ProblemText,
		SeverityScore: score,
		UrgencyLevel:  severity.EmergencyUrgency(score),
		Status:        a.Status,
		CreatedAt:     a.AppointmentTime,
	}
}

// List returns active hyper-emergencies plus those resolved during the current shift,
// with each assigned doctor's live availability.
func (s *EmergencyService) List(ctx context.Context) ([]*entities.EmergencyCase, error) {
	appts, err := s.appointments.ListHyperEmergencies(ctx, resolvedSince(s.now()), emergencyListLimit)
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to load emergencies", err)
	}

	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(s.doctors)
	}

	cases := lo.Map(appts, func(a *entities.Appointment, _ int) *entities.EmergencyCase { return toEmergencyCase(a) })

	thunks := make([]func() (*entities.Doctor, error), len(cases))
	for i, c := range cases {
		if c.DoctorID != "" {
			thunks[i] = l.DoctorLoader.Load(ctx, c.DoctorID)
		}
	}
	for i, thunk := range thunks {
		if thunk == nil {
			continue
		}
		doctor, err := thunk()
		if err != nil {
			observability.LoggerFromContext(ctx).Debug().Err(err).Str("doctor_id", cases[i].DoctorID).Msg("Doctor lookup failed")
			continue
		}
		cases[i].DoctorActive = doctor.IsActive()
		if cases[i].DoctorName == "" {
			cases[i].DoctorName = doctor.Name
		}
	}
	return cases, nil
}

func (s *EmergencyService) getEmergency(ctx context.Context, id string) (*entities.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.IsHyperEmergency {
		return nil, apperrors.NewValidationError(fmt.Sprintf("appointment %s is not a hyper-emergency", id))
	}
	return appt, nil
}

// Complete resolves a hyper-emergency. Completing an already resolved case is a no-op.
func (s *EmergencyService) Complete(ctx context.Context, id string) (*entities.EmergencyCase, error) {
	appt, err := s.getEmergency(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return toEmergencyCase(appt), nil
	}

	if err := s.appointments.UpdateStatus(ctx, id, entities.AppointmentStatusCompleted); err != nil {
		return nil, err
	}
	appt.Status = entities.AppointmentStatusCompleted

	logger := observability.LoggerFromContext(ctx)
	logger.Info().Str("appointment_id", id).Msg("Hyper-emergency resolved")

	if appt.DoctorID() != "" {
		if _, err := s.waitTimes.Recalculate(ctx, appt.DoctorID()); err != nil {
			logger.Warn().Err(err).Str("doctor_id", appt.DoctorID()).Msg("Failed to recalculate waiting times")
		}
	}
	publishQueueEvent(ctx, s.events, entities.NewQueueEvent(appt.Department, entities.QueueEventEmergencyResolved,
		map[string]interface{}{"appointment_id": id}))

	return toEmergencyCase(appt), nil
}

// ImpactReport is the narrative for staff plus its rendered text
type ImpactReport struct {
	Emergency *entities.EmergencyCase `json:"emergency"`
	impact.Narrative
	Text string `json:"text"`
}

// Impact analyzes how a hyper-emergency disrupts its doctor's waiting queue.
func (s *EmergencyService) Impact(ctx context.Context, id string) (*ImpactReport, error) {
	appt, err := s.getEmergency(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID() == "" {
		return nil, apperrors.NewValidationError(fmt.Sprintf("emergency %s has no assigned doctor", id))
	}

	waiting, err := s.appointments.ListActiveByDoctor(ctx, appt.DoctorID())
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to load doctor queue", err)
	}

	ec := toEmergencyCase(appt)
	narrative := impact.Explain(ec, lo.Map(waiting, func(a *entities.Appointment, _ int) entities.Appointment { return *a }))
	for _, r := range narrative.Summary.Records {
		observability.ImpactActions.WithLabelValues(string(r.Action)).Inc()
	}

	return &ImpactReport{Emergency: ec, Narrative: narrative, Text: narrative.Text()}, nil
}
