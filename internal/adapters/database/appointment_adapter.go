package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/repositories"
	"github.com/zatekoja/patientflow/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

// maxReportedWait caps stale waiting times in dashboard averages.
const maxReportedWait = 120

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func activeStatusValues() []string {
	return lo.Map(entities.ActiveStatuses, func(s entities.AppointmentStatus, _ int) string {
		return string(s)
	})
}

func terminalStatusValues() []string {
	return []string{string(entities.AppointmentStatusCompleted), string(entities.AppointmentStatusCancelled)}
}

// selectAppointments joins the patient, doctor and department of every queue entry.
func (a *AppointmentAdapter) selectAppointments() *goqu.SelectDataset {
	return a.db.From(goqu.T("appointments").As("a")).
		Select(
			goqu.I("a.appointment_id").As("id"),
			goqu.I("p.name").As("patient_name"),
			goqu.COALESCE(goqu.I("p.age"), 0).As("age"),
			goqu.COALESCE(goqu.I("p.gender"), "").As("gender"),
			goqu.COALESCE(goqu.I("p.disability"), false).As("disability"),
			goqu.COALESCE(goqu.I("p.contact_number"), "").As("contact"),
			goqu.I("dep.name").As("department"),
			goqu.COALESCE(goqu.I("a.problem_text"), "").As("problem_text"),
			goqu.COALESCE(goqu.I("a.appointment_type"), string(entities.AppointmentCategoryRoutine)).As("appointment_type"),
			goqu.I("a.severity_score"),
			goqu.COALESCE(goqu.I("a.waiting_time"), 0).As("waiting_time"),
			goqu.COALESCE(goqu.I("a.priority_score"), 0).As("priority_score"),
			goqu.COALESCE(goqu.I("a.predicted_service_time"), 0).As("predicted_service_time"),
			goqu.I("a.status"),
			goqu.I("a.doctor_id"),
			goqu.COALESCE(goqu.I("d.name"), "").As("doctor_name"),
			goqu.COALESCE(goqu.I("a.is_hyper_emergency"), false).As("is_hyper_emergency"),
			goqu.I("a.appointment_time"),
		).
		Join(goqu.T("patients").As("p"), goqu.On(goqu.I("a.patient_id").Eq(goqu.I("p.patient_id")))).
		LeftJoin(goqu.T("doctors").As("d"), goqu.On(goqu.I("a.doctor_id").Eq(goqu.I("d.doctor_id")))).
		Join(goqu.T("departments").As("dep"), goqu.On(goqu.I("a.department_id").Eq(goqu.I("dep.department_id"))))
}

func (a *AppointmentAdapter) query(ctx context.Context, ds *goqu.SelectDataset, op string) ([]*entities.Appointment, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build "+op+" query", err)
	}

	var appointments []*entities.Appointment
	if err := a.client.DBX().SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to "+op, err)
	}
	return appointments, nil
}

// List retrieves appointments matching the filter, highest priority score first
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.selectAppointments()

	if filter.Department != "" {
		ds = ds.Where(goqu.I("dep.name").Eq(filter.Department))
	}

	if len(filter.Statuses) > 0 {
		statuses := lo.Map(filter.Statuses, func(s entities.AppointmentStatus, _ int) string { return string(s) })
		ds = ds.Where(goqu.I("a.status").In(statuses))
	}

	if filter.DoctorID != "" {
		ds = ds.Where(goqu.I("a.doctor_id").Eq(filter.DoctorID))
	}

	ds = ds.Order(goqu.I("a.priority_score").Desc().NullsLast(), goqu.I("a.appointment_time").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return a.query(ctx, ds, "list appointments")
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.selectAppointments().
		Where(goqu.I("a.appointment_id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment := &entities.Appointment{}
	err = a.client.DBX().GetContext(ctx, appointment, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}

	return appointment, nil
}

// departmentID resolves a department name to its key.
func departmentID(ctx context.Context, db *goqu.Database, q queryRower, name string) (int64, error) {
	query, args, err := db.From("departments").
		Select("department_id").
		Where(goqu.Ex{"name": name}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build department query", err)
	}

	var id int64
	err = q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("department %s not found", name))
	}
	if err != nil {
		return 0, apperrors.NewInternalError("failed to look up department", err)
	}
	return id, nil
}

// nullable turns a nil pointer into SQL NULL.
func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Create stores the patient and their appointment in one transaction
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	tx, err := a.client.BeginTxx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	deptID, err := departmentID(ctx, a.db, tx, appointment.Department)
	if err != nil {
		return err
	}

	query, args, err := a.db.Insert("patients").
		Rows(goqu.Record{
			"name":           appointment.PatientName,
			"age":            appointment.Age,
			"gender":         appointment.Gender,
			"disability":     appointment.Disability,
			"contact_number": appointment.Contact,
		}).
		Returning("patient_id").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build patient insert", err)
	}

	var patientID int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&patientID); err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}

	if appointment.AppointmentTime.IsZero() {
		appointment.AppointmentTime = time.Now()
	}
	if appointment.Status == "" {
		appointment.Status = entities.AppointmentStatusScheduled
	}

	record := goqu.Record{
		"patient_id":             patientID,
		"doctor_id":              nullable(appointment.AssignedDoctorID),
		"department_id":          deptID,
		"appointment_time":       appointment.AppointmentTime,
		"appointment_type":       appointment.Category,
		"problem_text":           appointment.ProblemText,
		"severity_score":         nullable(appointment.SeverityScore),
		"priority_score":         appointment.Priority,
		"predicted_service_time": appointment.PredictedServiceMinutes,
		"waiting_time":           appointment.WaitingMinutes,
		"status":                 appointment.Status,
		"is_hyper_emergency":     appointment.IsHyperEmergency,
	}

	query, args, err = a.db.Insert("appointments").
		Rows(record).
		Returning("appointment_id").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := tx.QueryRowContext(ctx, query, args...).Scan(&appointment.ID); err != nil {
		return apperrors.NewInternalError("failed to create appointment", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit appointment", err)
	}

	return nil
}

// Update applies a staff edit to an appointment. Blank fields are left as stored.
func (a *AppointmentAdapter) Update(ctx context.Context, id string, update entities.AppointmentUpdate) error {
	if update.IsEmpty() {
		return apperrors.NewValidationError("update changes nothing")
	}

	record := goqu.Record{}
	if update.Category != "" {
		record["appointment_type"] = update.Category
	}
	if update.ProblemText != "" {
		record["problem_text"] = update.ProblemText
	}
	if update.Status != "" {
		record["status"] = update.Status
	}
	if update.Department != "" {
		deptID, err := departmentID(ctx, a.db, a.client.DB(), update.Department)
		if err != nil {
			return err
		}
		record["department_id"] = deptID
	}

	query, args, err := a.db.Update("appointments").
		Set(record).
		Where(goqu.Ex{"appointment_id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return a.execOne(ctx, query, args, id, "update appointment")
}

// UpdateStatus moves an appointment through its lifecycle
func (a *AppointmentAdapter) UpdateStatus(ctx context.Context, id string, status entities.AppointmentStatus) error {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{"status": status}).
		Where(goqu.Ex{"appointment_id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status query", err)
	}

	return a.execOne(ctx, query, args, id, "update appointment status")
}

func (a *AppointmentAdapter) execOne(ctx context.Context, query string, args []interface{}, id, op string) error {
	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to "+op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}

	return nil
}

// ListActiveByDoctor retrieves a doctor's scheduled, waiting and in-progress appointments
func (a *AppointmentAdapter) ListActiveByDoctor(ctx context.Context, doctorID string) ([]*entities.Appointment, error) {
	ds := a.selectAppointments().
		Where(
			goqu.I("a.doctor_id").Eq(doctorID),
			goqu.I("a.status").In(activeStatusValues()),
		).
		Order(goqu.I("a.appointment_time").Asc())

	return a.query(ctx, ds, "list doctor queue")
}

// ListDoctorsWithActiveQueues returns every doctor that has at least one active appointment
func (a *AppointmentAdapter) ListDoctorsWithActiveQueues(ctx context.Context) ([]string, error) {
	query, args, err := a.db.From("appointments").
		Select("doctor_id").
		Distinct().
		Where(
			goqu.C("status").In(activeStatusValues()),
			goqu.C("doctor_id").IsNotNull(),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var ids []string
	if err := a.client.DBX().SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors with active queues", err)
	}
	return ids, nil
}

// SaveQueueMetrics persists recomputed waiting and service times in one transaction
func (a *AppointmentAdapter) SaveQueueMetrics(ctx context.Context, metrics []entities.QueueMetrics) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := a.client.BeginTxx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, m := range metrics {
		query, args, err := a.db.Update("appointments").
			Set(goqu.Record{
				"waiting_time":           m.WaitingMinutes,
				"predicted_service_time": m.PredictedServiceMinutes,
				"priority_score":         m.PriorityScore,
			}).
			Where(goqu.Ex{"appointment_id": m.AppointmentID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build queue metrics update", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to save queue metrics", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit queue metrics", err)
	}
	return nil
}

// ListHyperEmergencies retrieves active hyper-emergencies and those resolved since the given time
func (a *AppointmentAdapter) ListHyperEmergencies(ctx context.Context, resolvedSince time.Time, limit int) ([]*entities.Appointment, error) {
	ds := a.selectAppointments().
		Where(
			goqu.I("a.is_hyper_emergency").IsTrue(),
			goqu.Or(
				goqu.I("a.status").NotIn(terminalStatusValues()),
				goqu.I("a.appointment_time").Gte(resolvedSince),
			),
		).
		Order(goqu.I("a.appointment_time").Desc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	return a.query(ctx, ds, "list hyper-emergencies")
}

// Stats computes hospital-wide flow statistics
func (a *AppointmentAdapter) Stats(ctx context.Context) (*entities.FlowStats, error) {
	stats := &entities.FlowStats{Departments: map[string]entities.DepartmentLoad{}}

	total, err := a.count(ctx, a.db.From("appointments"))
	if err != nil {
		return nil, err
	}
	stats.TotalAppointments = total

	emergencies, err := a.count(ctx, a.db.From("appointments").Where(
		goqu.L("LOWER(?)", goqu.C("appointment_type")).Eq(string(entities.AppointmentCategoryEmergency)),
		goqu.C("status").NotIn(terminalStatusValues()),
		goqu.Or(goqu.C("is_hyper_emergency").IsNull(), goqu.C("is_hyper_emergency").IsFalse()),
	))
	if err != nil {
		return nil, err
	}
	stats.EmergencyCases = emergencies

	activeDoctors, err := a.count(ctx, a.db.From("doctors").Where(goqu.Ex{"status": entities.DoctorStatusActive}))
	if err != nil {
		return nil, err
	}
	stats.ActiveDoctors = activeDoctors

	avg, err := a.averageWait(ctx)
	if err != nil {
		return nil, err
	}
	stats.AvgWaitTime = avg

	loads, err := a.departmentLoads(ctx)
	if err != nil {
		return nil, err
	}
	stats.Departments = loads

	return stats, nil
}

func (a *AppointmentAdapter) count(ctx context.Context, ds *goqu.SelectDataset) (int, error) {
	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var n int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count", err)
	}
	return n, nil
}

// averageWait averages recorded waits capped at maxReportedWait. Before any wait has been
// recorded it estimates half the mean queue length times a 25 minute service.
func (a *AppointmentAdapter) averageWait(ctx context.Context) (int, error) {
	query, args, err := a.db.From("appointments").
		Select(goqu.L("ROUND(AVG(LEAST(waiting_time, ?))::numeric, 0)", maxReportedWait)).
		Where(
			goqu.C("status").In(activeStatusValues()),
			goqu.C("waiting_time").IsNotNull(),
			goqu.C("waiting_time").Gt(0),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build average wait query", err)
	}

	var avg sql.NullFloat64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, apperrors.NewInternalError("failed to compute average wait", err)
	}
	if avg.Valid && avg.Float64 > 0 {
		return int(avg.Float64), nil
	}

	query, args, err = a.db.From("appointments").
		Select(goqu.C("doctor_id"), goqu.COUNT(goqu.Star()).As("queue_size")).
		Where(goqu.C("status").In(activeStatusValues())).
		GroupBy(goqu.C("doctor_id")).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build queue size query", err)
	}

	var sizes []doctorQueueSize
	if err := a.client.DBX().SelectContext(ctx, &sizes, query, args...); err != nil {
		return 0, apperrors.NewInternalError("failed to load queue sizes", err)
	}
	if len(sizes) == 0 {
		return 0, nil
	}

	total := lo.SumBy(sizes, func(s doctorQueueSize) int { return s.QueueSize })
	meanQueue := float64(total) / float64(len(sizes))
	return int(meanQueue/2*25 + 0.5), nil
}

type doctorQueueSize struct {
	DoctorID  sql.NullString `db:"doctor_id"`
	QueueSize int            `db:"queue_size"`
}

func (a *AppointmentAdapter) departmentLoads(ctx context.Context) (map[string]entities.DepartmentLoad, error) {
	cappedWait := goqu.L(
		"COALESCE(ROUND(AVG(LEAST(CASE WHEN ? > 0 THEN ? END, ?))::numeric, 0), 0)",
		goqu.I("a.waiting_time"), goqu.I("a.waiting_time"), maxReportedWait,
	)

	query, args, err := a.db.From(goqu.T("appointments").As("a")).
		Select(
			goqu.I("dep.name").As("department"),
			goqu.COUNT(goqu.I("a.appointment_id")).As("queue"),
			cappedWait.As("wait_time"),
		).
		Join(goqu.T("departments").As("dep"), goqu.On(goqu.I("a.department_id").Eq(goqu.I("dep.department_id")))).
		Where(goqu.I("a.status").In(activeStatusValues())).
		GroupBy(goqu.I("dep.name")).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build department load query", err)
	}

	var rows []struct {
		Department string  `db:"department"`
		Queue      int     `db:"queue"`
		WaitTime   float64 `db:"wait_time"`
	}
	if err := a.client.DBX().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to load department stats", err)
	}

	loads := make(map[string]entities.DepartmentLoad, len(rows))
	for _, r := range rows {
		loads[r.Department] = entities.DepartmentLoad{Queue: r.Queue, WaitTime: int(r.WaitTime)}
	}
	return loads, nil
}
