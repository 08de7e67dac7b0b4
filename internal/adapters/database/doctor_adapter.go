package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/repositories"
	"github.com/zatekoja/patientflow/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// activeLoadJoin counts each doctor's scheduled, waiting and in-progress appointments.
func activeLoadJoin(ds *goqu.SelectDataset) *goqu.SelectDataset {
	return ds.LeftJoin(
		goqu.T("appointments").As("a"),
		goqu.On(
			goqu.I("d.doctor_id").Eq(goqu.I("a.doctor_id")),
			goqu.I("a.status").In(activeStatusValues()),
		),
	)
}

func (a *DoctorAdapter) selectDoctors() *goqu.SelectDataset {
	ds := a.db.From(goqu.T("doctors").As("d")).
		Select(
			goqu.I("d.doctor_id").As("id"),
			goqu.I("d.name"),
			goqu.I("dep.name").As("department"),
			goqu.COALESCE(goqu.I("d.experience_years"), 0).As("experience_years"),
			goqu.I("d.status"),
			goqu.COUNT(goqu.I("a.appointment_id")).As("active_patients"),
		).
		Join(goqu.T("departments").As("dep"), goqu.On(goqu.I("d.department_id").Eq(goqu.I("dep.department_id"))))

	return activeLoadJoin(ds).
		GroupBy(goqu.I("d.doctor_id"), goqu.I("d.name"), goqu.I("dep.name"), goqu.I("d.experience_years"), goqu.I("d.status"))
}

// ListByShift retrieves the roster for a shift. Today's schedule entry, when present, overrides the
// doctor's standing status; doctors without one keep their standing status and take the requested shift.
func (a *DoctorAdapter) ListByShift(ctx context.Context, shift entities.Shift) ([]*entities.Doctor, error) {
	effectiveStatus := goqu.L(
		"CASE WHEN ? IS NOT NULL THEN (CASE WHEN ? THEN ? ELSE ? END) ELSE ? END",
		goqu.I("ds.shift"), goqu.I("ds.availability_status"),
		string(entities.DoctorStatusActive), string(entities.DoctorStatusInactive), goqu.I("d.status"),
	)

	ds := a.db.From(goqu.T("doctors").As("d")).
		Select(
			goqu.I("d.doctor_id").As("id"),
			goqu.I("d.name"),
			goqu.I("dep.name").As("department"),
			goqu.COALESCE(goqu.I("d.experience_years"), 0).As("experience_years"),
			effectiveStatus.As("status"),
			goqu.COALESCE(goqu.I("ds.shift"), string(shift)).As("shift"),
			goqu.COUNT(goqu.I("a.appointment_id")).As("active_patients"),
		).
		Join(goqu.T("departments").As("dep"), goqu.On(goqu.I("d.department_id").Eq(goqu.I("dep.department_id")))).
		LeftJoin(
			goqu.T("doctor_schedule").As("ds"),
			goqu.On(
				goqu.I("d.doctor_id").Eq(goqu.I("ds.doctor_id")),
				goqu.I("ds.date").Eq(goqu.L("CURRENT_DATE")),
				goqu.I("ds.shift").Eq(string(shift)),
			),
		)

	ds = activeLoadJoin(ds).
		GroupBy(
			goqu.I("d.doctor_id"), goqu.I("d.name"), goqu.I("dep.name"), goqu.I("d.experience_years"),
			goqu.I("d.status"), goqu.I("ds.shift"), goqu.I("ds.availability_status"),
		).
		Order(goqu.I("dep.name").Asc(), goqu.I("d.experience_years").Desc())

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build roster query", err)
	}

	var doctors []*entities.Doctor
	if err := a.client.DBX().SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	return doctors, nil
}

// GetByID retrieves a doctor by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := a.selectDoctors().
		Where(goqu.I("d.doctor_id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor := &entities.Doctor{}
	err = a.client.DBX().GetContext(ctx, doctor, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return doctor, nil
}

// GetByIDs retrieves several doctors in one round trip. Unknown IDs are skipped.
func (a *DoctorAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := a.selectDoctors().
		Where(goqu.I("d.doctor_id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var doctors []*entities.Doctor
	if err := a.client.DBX().SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to get doctors", err)
	}
	return doctors, nil
}

// Create adds a doctor to the roster and schedules them for today
func (a *DoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	tx, err := a.client.BeginTxx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	deptID, err := departmentID(ctx, a.db, tx, doctor.Department)
	if err != nil {
		return err
	}

	if doctor.Status == "" {
		doctor.Status = entities.DoctorStatusActive
	}
	if doctor.Shift == "" {
		doctor.Shift = entities.ShiftFirst
	}

	query, args, err := a.db.Insert("doctors").
		Rows(goqu.Record{
			"name":             doctor.Name,
			"department_id":    deptID,
			"experience_years": doctor.ExperienceYears,
			"status":           doctor.Status,
		}).
		Returning("doctor_id").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := tx.QueryRowContext(ctx, query, args...).Scan(&doctor.ID); err != nil {
		return apperrors.NewInternalError("failed to create doctor", err)
	}

	query, args, err = a.db.Insert("doctor_schedule").
		Rows(goqu.Record{
			"doctor_id":           doctor.ID,
			"shift":               doctor.Shift,
			"date":                goqu.L("CURRENT_DATE"),
			"availability_status": doctor.IsActive(),
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build schedule insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to schedule doctor", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit doctor", err)
	}
	return nil
}

// UpdateStatus persists an availability change for the doctor and today's schedule together
func (a *DoctorAdapter) UpdateStatus(ctx context.Context, id string, status entities.DoctorStatus) error {
	tx, err := a.client.BeginTxx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Update("doctors").
		Set(goqu.Record{"status": status}).
		Where(goqu.Ex{"doctor_id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update doctor status", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	} else if n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}

	query, args, err = a.db.Update("doctor_schedule").
		Set(goqu.Record{"availability_status": status == entities.DoctorStatusActive}).
		Where(
			goqu.C("doctor_id").Eq(id),
			goqu.C("date").Eq(goqu.L("CURRENT_DATE")),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build schedule update", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to update doctor schedule", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit doctor status", err)
	}
	return nil
}

// RankForDepartment lists active doctors by current load, then by experience. An unknown
// department falls back to General.
func (a *DoctorAdapter) RankForDepartment(ctx context.Context, department string) ([]entities.RankedDoctor, error) {
	deptID, err := departmentID(ctx, a.db, a.client.DB(), department)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) && department != entities.DefaultDepartment {
		deptID, err = departmentID(ctx, a.db, a.client.DB(), entities.DefaultDepartment)
	}
	if err != nil {
		return nil, err
	}

	ds := a.db.From(goqu.T("doctors").As("d")).
		Select(
			goqu.I("d.doctor_id").As("id"),
			goqu.I("d.name"),
			goqu.I("dep.name").As("department"),
			goqu.COUNT(goqu.I("a.appointment_id")).As("active_patients"),
			goqu.COALESCE(goqu.I("d.experience_years"), 0).As("experience_years"),
		).
		Join(goqu.T("departments").As("dep"), goqu.On(goqu.I("d.department_id").Eq(goqu.I("dep.department_id"))))

	query, args, err := activeLoadJoin(ds).
		Where(
			goqu.I("d.department_id").Eq(deptID),
			goqu.I("d.status").Eq(string(entities.DoctorStatusActive)),
		).
		GroupBy(goqu.I("d.doctor_id"), goqu.I("d.name"), goqu.I("dep.name"), goqu.I("d.experience_years")).
		Order(goqu.C("active_patients").Asc(), goqu.I("d.experience_years").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build ranking query", err)
	}

	var ranked []entities.RankedDoctor
	if err := a.client.DBX().SelectContext(ctx, &ranked, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to rank doctors", err)
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}
