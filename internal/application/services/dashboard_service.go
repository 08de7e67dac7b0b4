package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/providers"
	"github.com/zatekoja/patientflow/internal/domain/queue"
	"github.com/zatekoja/patientflow/internal/domain/repositories"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
	"github.com/zatekoja/patientflow/pkg/config"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
	"github.com/zatekoja/patientflow/pkg/retry"
)

// boardState is the last applied server snapshot of one board plus its refresh bookkeeping.
type boardState struct {
	key          BoardKey
	nextSeq      uint64
	appliedSeq   uint64
	appointments []entities.Appointment
	roster       []entities.Doctor
	loaded       bool
	stale        bool
	loadError    string
	refreshedAt  time.Time
	board        *Board
}

// DashboardService owns the live department boards. All board mutation happens under mu;
// repository calls are made outside it.
type DashboardService struct {
	appointments repositories.AppointmentRepository
	doctors      repositories.DoctorRepository
	waitTimes    *WaitTimeService
	cache        providers.CacheProvider
	events       providers.EventBus
	metrics      *observability.Metrics
	cfg          config.FlowConfig
	readRetry    retry.Config
	now          func() time.Time

	mu      sync.Mutex
	boards  map[BoardKey]*boardState
	patches map[string]map[string]*Patch // department -> patch id -> patch
}

// NewDashboardService creates a new dashboard service. cache, events and metrics may be nil.
func NewDashboardService(
	appointments repositories.AppointmentRepository,
	doctors repositories.DoctorRepository,
	waitTimes *WaitTimeService,
	cache providers.CacheProvider,
	events providers.EventBus,
	metrics *observability.Metrics,
	cfg config.FlowConfig,
) *DashboardService {
	return &DashboardService{
		appointments: appointments,
		doctors:      doctors,
		waitTimes:    waitTimes,
		cache:        cache,
		events:       events,
		metrics:      metrics,
		cfg:          cfg,
		readRetry:    retry.ReadPathConfig(),
		now:          time.Now,
		boards:       make(map[BoardKey]*boardState),
		patches:      make(map[string]map[string]*Patch),
	}
}

func (s *DashboardService) policyFor(department string) queue.Policy {
	if s.cfg.IsCriticalCare(department) {
		return queue.ForClass(entities.DepartmentClassCriticalCare)
	}
	return queue.ForClass(entities.DepartmentClassGeneral)
}

func (s *DashboardService) shiftOrDefault(shift entities.Shift) entities.Shift {
	if shift.Valid() {
		return shift
	}
	return entities.Shift(s.cfg.DefaultShift)
}

// state returns the board state for key, creating it. Callers hold mu.
func (s *DashboardService) state(key BoardKey) *boardState {
	n := key.normalized()
	st, ok := s.boards[n]
	if !ok {
		st = &boardState{key: key}
		s.boards[n] = st
	}
	return st
}

// departmentPatches returns the patches of a department as a slice. Callers hold mu.
func (s *DashboardService) departmentPatches(department string) []*Patch {
	return lo.Values(s.patches[strings.ToLower(department)])
}

func (s *DashboardService) addPatch(p *Patch) {
	dept := strings.ToLower(p.Department)
	if s.patches[dept] == nil {
		s.patches[dept] = make(map[string]*Patch)
	}
	s.patches[dept][p.ID] = p
}

// rebuild recomputes one board from its snapshot and the department's patches. Callers hold mu.
func (s *DashboardService) rebuild(st *boardState) *Board {
	board := buildBoard(st.key, s.policyFor(st.key.Department), st.appointments, st.roster,
		s.departmentPatches(st.key.Department), s.cfg.DoctorCapacity, s.cfg.StandbyCapacity)
	board.Stale = st.stale
	board.LoadError = st.loadError
	board.RefreshedAt = st.refreshedAt
	st.board = board

	observability.AssignmentsRecomputed.WithLabelValues(st.key.Department).Inc()
	observability.UnassignedPatients.WithLabelValues(st.key.Department).Set(float64(len(board.Unassigned)))
	return board
}

// rebuildDepartment recomputes every loaded board of a department. Callers hold mu.
func (s *DashboardService) rebuildDepartment(department string) {
	for _, st := range s.boards {
		if strings.EqualFold(st.key.Department, department) && st.loaded {
			s.rebuild(st)
		}
	}
}

// Board returns the current board, loading it on first use.
func (s *DashboardService) Board(ctx context.Context, key BoardKey) (*Board, error) {
	key.Shift = s.shiftOrDefault(key.Shift)
	if strings.TrimSpace(key.Department) == "" {
		return nil, apperrors.NewValidationError("department is required")
	}

	s.mu.Lock()
	st := s.state(key)
	if st.board != nil {
		board := st.board
		s.mu.Unlock()
		return board, nil
	}
	s.mu.Unlock()

	return s.Refresh(ctx, key)
}

type snapshot struct {
	appointments []entities.Appointment
	roster       []entities.Doctor
}

func (s *DashboardService) fetch(ctx context.Context, key BoardKey) (*snapshot, error) {
	var snap snapshot
	err := retry.DoWithLog(ctx, s.readRetry, "board refresh", func() error {
		appts, err := s.appointments.List(ctx, repositories.AppointmentFilter{Department: key.Department})
		if err != nil {
			return err
		}
		roster, err := s.doctors.ListByShift(ctx, key.Shift)
		if err != nil {
			return err
		}
		snap.appointments = lo.Map(appts, func(a *entities.Appointment, _ int) entities.Appointment { return *a })
		snap.roster = lo.FilterMap(roster, func(d *entities.Doctor, _ int) (entities.Doctor, bool) {
			return *d, strings.EqualFold(d.Department, key.Department)
		})
		return nil
	}, func(attempt int, err error, next time.Duration) {
		observability.LoggerFromContext(ctx).Warn().Err(err).Int("attempt", attempt).Dur("next_delay", next).
			Str("department", key.Department).Msg("Board fetch failed, retrying")
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Refresh refetches a board. Each call takes a sequence number before fetching and its result
// is applied only if no later refresh has already been applied. A failed fetch keeps the
// previous board, or the cached snapshot after a restart, and marks it stale.
func (s *DashboardService) Refresh(ctx context.Context, key BoardKey) (*Board, error) {
	key.Shift = s.shiftOrDefault(key.Shift)
	if strings.TrimSpace(key.Department) == "" {
		return nil, apperrors.NewValidationError("department is required")
	}
	logger := observability.LoggerFromContext(ctx)
	start := s.now()

	s.mu.Lock()
	st := s.state(key)
	st.nextSeq++
	seq := st.nextSeq
	s.mu.Unlock()

	snap, fetchErr := s.fetch(ctx, key)

	s.mu.Lock()
	if seq <= st.appliedSeq {
		board := st.board
		s.mu.Unlock()
		observability.StaleRefreshesDiscarded.WithLabelValues(key.Department).Inc()
		logger.Debug().Uint64("sequence", seq).Str("department", key.Department).Msg("Discarded out-of-order refresh")
		return board, nil
	}
	st.appliedSeq = seq

	if fetchErr != nil {
		board := s.degrade(ctx, st, fetchErr)
		s.mu.Unlock()
		observability.RecordRefresh(ctx, s.metrics, key.Department, s.now().Sub(start), true)
		return board, nil
	}

	if len(snap.appointments) == 0 && len(snap.roster) == 0 && len(s.patches[strings.ToLower(key.Department)]) == 0 {
		// Unknown department: answer once, but keep it off the refresh loop.
		if s.boards[key.normalized()] == st {
			delete(s.boards, key.normalized())
		}
	}
	st.appointments = snap.appointments
	st.roster = snap.roster
	st.loaded = true
	st.stale = false
	st.loadError = ""
	st.refreshedAt = s.now()
	if dept := s.patches[strings.ToLower(key.Department)]; dept != nil {
		reconcilePatches(dept, st.appointments, st.roster)
	}
	board := s.rebuild(st)
	s.mu.Unlock()

	s.storeSnapshot(ctx, key, board)
	observability.RecordRefresh(ctx, s.metrics, key.Department, s.now().Sub(start), false)
	return board, nil
}

// degrade keeps the last good board visible with a load error. Callers hold mu.
func (s *DashboardService) degrade(ctx context.Context, st *boardState, fetchErr error) *Board {
	observability.LoggerFromContext(ctx).Warn().Err(fetchErr).Str("department", st.key.Department).
		Msg("Board refresh failed, serving previous snapshot")

	st.stale = true
	st.loadError = "Cannot load the latest queue. Showing the last known state."

	var board Board
	if st.board != nil {
		board = *st.board
	} else if cached := s.loadSnapshot(ctx, st.key); cached != nil {
		board = *cached
	} else {
		st.loadError = "Cannot load the queue."
		board = Board{
			Department: st.key.Department,
			Shift:      st.key.Shift,
			Policy:     s.policyFor(st.key.Department).Name(),
			Patients:   []entities.Appointment{},
			Doctors:    []queue.Projection{},
			Assignment: []queue.Pair{},
			Unassigned: []string{},
			Patches:    []Patch{},
			Warnings:   []string{},
		}
	}
	board.Stale = st.stale
	board.LoadError = st.loadError
	st.board = &board
	return st.board
}

func (s *DashboardService) storeSnapshot(ctx context.Context, key BoardKey, board *Board) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(board)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key.cacheKey(), data, int(s.cfg.SnapshotTTL.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key.cacheKey()).Msg("Failed to cache board snapshot")
	}
}

func (s *DashboardService) loadSnapshot(ctx context.Context, key BoardKey) *Board {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key.cacheKey())
	if err != nil {
		if errors.Is(err, providers.ErrCacheMiss) {
			observability.RecordCacheMiss(ctx, s.metrics, key.cacheKey())
		}
		return nil
	}
	var board Board
	if err := json.Unmarshal(data, &board); err != nil {
		return nil
	}
	observability.RecordCacheHit(ctx, s.metrics, key.cacheKey())
	return &board
}

// RefreshDepartment refreshes every board already open for a department.
func (s *DashboardService) RefreshDepartment(ctx context.Context, department string) error {
	s.mu.Lock()
	keys := lo.FilterMap(lo.Values(s.boards), func(st *boardState, _ int) (BoardKey, bool) {
		return st.key, strings.EqualFold(st.key.Department, department)
	})
	s.mu.Unlock()

	for _, key := range keys {
		if _, err := s.Refresh(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Run refreshes every open board on the configured interval until ctx is done. Failed
// non-destructive patches are re-sent on each tick.
func (s *DashboardService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			keys := lo.Map(lo.Values(s.boards), func(st *boardState, _ int) BoardKey { return st.key })
			s.mu.Unlock()
			for _, key := range keys {
				_, _ = s.Refresh(ctx, key)
			}
			s.retryFailed(ctx)
		}
	}
}

// retryFailed re-sends failed patches that are safe to repeat without asking.
func (s *DashboardService) retryFailed(ctx context.Context) {
	s.mu.Lock()
	var ids []string
	for _, dept := range s.patches {
		for id, p := range dept {
			if p.Retryable() {
				ids = append(ids, id)
			}
		}
	}
	s.mu.Unlock()

	for _, id := range ids {
		if _, err := s.RetryPatch(ctx, id); err != nil {
			observability.LoggerFromContext(ctx).Debug().Err(err).Str("patch_id", id).Msg("Automatic retry skipped")
		}
	}
}

// locateAppointment finds the department of an appointment, preferring the open boards.
func (s *DashboardService) locateAppointment(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	for _, st := range s.boards {
		if _, ok := lo.Find(st.appointments, func(a entities.Appointment) bool { return a.ID == id }); ok {
			dept := st.key.Department
			s.mu.Unlock()
			return dept, nil
		}
	}
	s.mu.Unlock()

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return appt.Department, nil
}

// locateDoctor finds a doctor on the open boards, falling back to the roster.
func (s *DashboardService) locateDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	s.mu.Lock()
	for _, st := range s.boards {
		if d, ok := lo.Find(st.roster, func(d entities.Doctor) bool { return d.ID == id }); ok {
			_, roster := applyPatches(nil, []entities.Doctor{d}, s.departmentPatches(d.Department))
			s.mu.Unlock()
			return &roster[0], nil
		}
	}
	s.mu.Unlock()

	return s.doctors.GetByID(ctx, id)
}

// PatchResult is the outcome of an optimistic change
type PatchResult struct {
	Patch Patch  `json:"patch"`
	Board *Board `json:"board,omitempty"`
}

// commit applies a patch locally at once, writes it, then records the outcome. A failed
// write keeps the local change and surfaces a warning instead of an error.
func (s *DashboardService) commit(ctx context.Context, p *Patch, write func(context.Context) error) Patch {
	logger := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	s.addPatch(p)
	s.rebuildDepartment(p.Department)
	s.mu.Unlock()

	err := write(ctx)

	s.mu.Lock()
	if err != nil {
		p.State = PatchFailed
		p.Error = err.Error()
	} else {
		p.State = PatchConfirmed
		p.Error = ""
	}
	s.rebuildDepartment(p.Department)
	result := *p
	s.mu.Unlock()

	if err != nil {
		observability.PatchFailures.WithLabelValues(string(p.Op)).Inc()
		logger.Warn().Err(err).Str("patch_id", p.ID).Str("operation", string(p.Op)).Msg("Write failed, keeping provisional change")
		return result
	}

	logger.Info().Str("patch_id", p.ID).Str("operation", string(p.Op)).Msg("Board change saved")
	if err := s.RefreshDepartment(ctx, p.Department); err != nil {
		logger.Warn().Err(err).Str("department", p.Department).Msg("Corrective refresh failed")
	}
	return result
}

func (s *DashboardService) boardFor(department string, shift entities.Shift) *Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.boards[BoardKey{Department: department, Shift: s.shiftOrDefault(shift)}.normalized()]; ok {
		return st.board
	}
	return nil
}

// writerFor returns the repository call that persists a patch.
func (s *DashboardService) writerFor(p Patch) func(context.Context) error {
	switch p.Op {
	case PatchComplete:
		return func(ctx context.Context) error {
			return s.appointments.UpdateStatus(ctx, p.AppointmentID, entities.AppointmentStatusCompleted)
		}
	case PatchCancel:
		return func(ctx context.Context) error {
			return s.appointments.UpdateStatus(ctx, p.AppointmentID, entities.AppointmentStatusCancelled)
		}
	case PatchUpdate:
		return func(ctx context.Context) error { return s.appointments.Update(ctx, p.AppointmentID, *p.Update) }
	default:
		return func(ctx context.Context) error { return s.doctors.UpdateStatus(ctx, p.DoctorID, p.DoctorStatus) }
	}
}

// announce runs the follow-ups of a saved patch: the doctor's waiting times are recalculated
// and a queue event is published.
func (s *DashboardService) announce(ctx context.Context, p Patch) {
	logger := observability.LoggerFromContext(ctx)

	if p.Op == PatchDoctorStatus {
		publishQueueEvent(ctx, s.events, entities.NewQueueEvent(p.Department, entities.QueueEventDoctorStatusChanged,
			map[string]interface{}{"doctor_id": p.DoctorID, "status": p.DoctorStatus}))
		return
	}

	fields := map[string]interface{}{"appointment_id": p.AppointmentID}
	var eventType entities.QueueEventType
	switch p.Op {
	case PatchComplete:
		eventType = entities.QueueEventAppointmentCompleted
		fields["status"] = entities.AppointmentStatusCompleted
	case PatchCancel:
		eventType = entities.QueueEventAppointmentCancelled
		fields["status"] = entities.AppointmentStatusCancelled
	default:
		eventType = entities.QueueEventAppointmentUpdated
		if p.Update.Status != "" {
			fields["status"] = p.Update.Status
		}
		if target := p.movedTo(); target != "" {
			fields["department"] = target
			if err := s.RefreshDepartment(ctx, target); err != nil {
				logger.Warn().Err(err).Str("department", target).Msg("Corrective refresh failed")
			}
		}
	}

	if appt, err := s.appointments.GetByID(ctx, p.AppointmentID); err == nil && appt.DoctorID() != "" {
		if _, err := s.waitTimes.Recalculate(ctx, appt.DoctorID()); err != nil {
			logger.Warn().Err(err).Str("doctor_id", appt.DoctorID()).Msg("Failed to recalculate waiting times")
		}
	}
	publishQueueEvent(ctx, s.events, entities.NewQueueEvent(p.Department, eventType, fields))
}

// apply runs a new patch end to end.
func (s *DashboardService) apply(ctx context.Context, p *Patch, shift entities.Shift) *PatchResult {
	result := s.commit(ctx, p, s.writerFor(*p))
	if result.State == PatchConfirmed {
		s.announce(ctx, result)
	}
	return &PatchResult{Patch: result, Board: s.boardFor(p.Department, shift)}
}

// CompleteAppointment marks an appointment completed, optimistically.
func (s *DashboardService) CompleteAppointment(ctx context.Context, id string, shift entities.Shift) (*PatchResult, error) {
	department, err := s.locateAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	p := newPatch(department, PatchComplete, s.now())
	p.AppointmentID = id
	return s.apply(ctx, p, shift), nil
}

// CancelAppointment removes an appointment from the active queues, optimistically.
// A failed cancellation is never re-sent without the user asking.
func (s *DashboardService) CancelAppointment(ctx context.Context, id string, shift entities.Shift) (*PatchResult, error) {
	department, err := s.locateAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	p := newPatch(department, PatchCancel, s.now())
	p.AppointmentID = id
	return s.apply(ctx, p, shift), nil
}

// UpdateAppointment applies a staff edit, optimistically.
func (s *DashboardService) UpdateAppointment(ctx context.Context, id string, update entities.AppointmentUpdate, shift entities.Shift) (*PatchResult, error) {
	if update.Category != "" && !update.Category.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid appointment type %q", update.Category))
	}
	if update.Status != "" && !update.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid status %q", update.Status))
	}
	if update.IsEmpty() {
		return nil, apperrors.NewValidationError("update changes nothing")
	}

	department, err := s.locateAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	p := newPatch(department, PatchUpdate, s.now())
	p.AppointmentID = id
	p.Update = &update
	return s.apply(ctx, p, shift), nil
}

// ToggleDoctor flips a doctor's availability. The roster change and the full reassignment
// are computed under one lock, so no board ever pairs the old mapping with the new roster.
func (s *DashboardService) ToggleDoctor(ctx context.Context, id string) (*PatchResult, error) {
	doctor, err := s.locateDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	p := newPatch(doctor.Department, PatchDoctorStatus, s.now())
	p.DoctorID = id
	p.DoctorStatus = doctor.Status.Toggle()
	return s.apply(ctx, p, doctor.Shift), nil
}

// RetryPatch re-sends a failed change on the user's request. This is the only way a
// failed cancellation is ever re-sent.
func (s *DashboardService) RetryPatch(ctx context.Context, patchID string) (*PatchResult, error) {
	s.mu.Lock()
	p := s.findPatch(patchID)
	if p == nil {
		s.mu.Unlock()
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patch %s not found", patchID))
	}
	if p.State != PatchFailed {
		s.mu.Unlock()
		return nil, apperrors.NewConflictError(fmt.Sprintf("patch %s is %s, only failed changes can be retried", patchID, p.State))
	}
	p.State = PatchPending
	p.Error = ""
	s.mu.Unlock()

	return s.apply(ctx, p, ""), nil
}

// DiscardPatch drops a provisional change so the server state shows again.
func (s *DashboardService) DiscardPatch(ctx context.Context, patchID string) error {
	s.mu.Lock()
	p := s.findPatch(patchID)
	if p == nil {
		s.mu.Unlock()
		return apperrors.NewNotFoundError(fmt.Sprintf("patch %s not found", patchID))
	}
	if p.State == PatchPending {
		s.mu.Unlock()
		return apperrors.NewConflictError(fmt.Sprintf("patch %s is still being saved", patchID))
	}
	delete(s.patches[strings.ToLower(p.Department)], patchID)
	s.rebuildDepartment(p.Department)
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info().Str("patch_id", patchID).Msg("Provisional change discarded")
	return nil
}

// findPatch looks a patch up by id across departments. Callers hold mu.
func (s *DashboardService) findPatch(id string) *Patch {
	for _, dept := range s.patches {
		if p, ok := dept[id]; ok {
			return p
		}
	}
	return nil
}

// AddDoctor puts a doctor on the roster and redistributes the department's queue.
func (s *DashboardService) AddDoctor(ctx context.Context, doctor *entities.Doctor) (*entities.Doctor, error) {
	if strings.TrimSpace(doctor.Name) == "" {
		return nil, apperrors.NewValidationError("doctor name is required")
	}
	if strings.TrimSpace(doctor.Department) == "" {
		return nil, apperrors.NewValidationError("department is required")
	}
	if doctor.ExperienceYears < 0 {
		return nil, apperrors.NewValidationError("experience_years cannot be negative")
	}
	if doctor.Status != "" && !doctor.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid doctor status %q", doctor.Status))
	}
	if doctor.Shift != "" && !doctor.Shift.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid shift %q", doctor.Shift))
	}

	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().Str("doctor_id", doctor.ID).Str("department", doctor.Department).Msg("Doctor added")
	publishQueueEvent(ctx, s.events, entities.NewQueueEvent(doctor.Department, entities.QueueEventDoctorAdded,
		map[string]interface{}{"doctor_id": doctor.ID, "status": doctor.Status}))

	if err := s.RefreshDepartment(ctx, doctor.Department); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("department", doctor.Department).Msg("Corrective refresh failed")
	}
	return doctor, nil
}

// DoctorsByDepartment groups a shift's roster by department with standby designation applied.
func (s *DashboardService) DoctorsByDepartment(ctx context.Context, shift entities.Shift) (map[string][]entities.Doctor, error) {
	roster, err := s.doctors.ListByShift(ctx, s.shiftOrDefault(shift))
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to load roster", err)
	}

	grouped := lo.GroupBy(lo.Map(roster, func(d *entities.Doctor, _ int) entities.Doctor { return *d }),
		func(d entities.Doctor) string { return d.Department })

	return lo.MapValues(grouped, func(doctors []entities.Doctor, _ string) []entities.Doctor {
		return designateStandby(doctors, s.cfg.DoctorCapacity, s.cfg.StandbyCapacity)
	}), nil
}

// NewAppointment is the intake form for a regular queue entry
type NewAppointment struct {
	Name          string                       `json:"name"`
	Age           int                          `json:"age"`
	Gender        string                       `json:"gender"`
	Disability    bool                         `json:"disability"`
	Contact       string                       `json:"contact"`
	Department    string                       `json:"department"`
	Category      entities.AppointmentCategory `json:"appointment_type"`
	ProblemText   string                       `json:"problem_text"`
	SeverityScore *int                         `json:"severity_score"`
}

// AddAppointment books a patient with the least loaded active doctor of the department
// and refreshes that doctor's waiting times.
func (s *DashboardService) AddAppointment(ctx context.Context, req NewAppointment) (*entities.Appointment, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewValidationError("patient name is required")
	}
	if strings.TrimSpace(req.Department) == "" {
		return nil, apperrors.NewValidationError("department is required")
	}
	if req.Age < 0 {
		return nil, apperrors.NewValidationError("age cannot be negative")
	}
	if req.Category == "" {
		req.Category = entities.AppointmentCategoryRoutine
	}
	if !req.Category.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid appointment type %q", req.Category))
	}

	appt := &entities.Appointment{
		PatientName:   strings.TrimSpace(req.Name),
		Age:           req.Age,
		Gender:        req.Gender,
		Disability:    req.Disability,
		Contact:       req.Contact,
		Department:    req.Department,
		ProblemText:   req.ProblemText,
		Category:      req.Category,
		SeverityScore: req.SeverityScore,
		Status:        entities.AppointmentStatusScheduled,
	}

	ranked, err := s.doctors.RankForDepartment(ctx, req.Department)
	if err != nil {
		return nil, err
	}
	if len(ranked) > 0 {
		id := ranked[0].DoctorID
		appt.AssignedDoctorID = &id
		appt.DoctorName = ranked[0].Name
	}

	appt.Priority, _ = queue.PatientPriority(appt.Age, appt.Gender, appt.Disability)
	appt.PredictedServiceMinutes = queue.EstimateServiceMinutes(appt)
	appt.AppointmentTime = s.now()

	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}

	if appt.DoctorID() != "" {
		if _, err := s.waitTimes.Recalculate(ctx, appt.DoctorID()); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("doctor_id", appt.DoctorID()).Msg("Failed to recalculate waiting times")
		}
	}
	publishQueueEvent(ctx, s.events, entities.NewQueueEvent(appt.Department, entities.QueueEventAppointmentCreated,
		map[string]interface{}{"appointment_id": appt.ID, "doctor_id": appt.DoctorID()}))

	if err := s.RefreshDepartment(ctx, appt.Department); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("department", appt.Department).Msg("Corrective refresh failed")
	}
	return appt, nil
}

// DoctorQueue returns a doctor's active queue in optimized order with waiting minutes.
func (s *DashboardService) DoctorQueue(ctx context.Context, doctorID string) ([]queue.Slot, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.waitTimes.DoctorQueue(ctx, doctorID)
}

// RecalculateAll recomputes waiting times for every doctor with an active queue.
func (s *DashboardService) RecalculateAll(ctx context.Context) (int, error) {
	updated, err := s.waitTimes.RecalculateAll(ctx)
	if updated > 0 {
		publishQueueEvent(ctx, s.events, entities.NewQueueEvent("", entities.QueueEventWaitTimesRecomputed,
			map[string]interface{}{"doctors": updated}))
	}
	return updated, err
}

// Stats returns hospital-wide flow statistics.
func (s *DashboardService) Stats(ctx context.Context) (*entities.FlowStats, error) {
	stats, err := s.appointments.Stats(ctx)
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to load statistics", err)
	}
	return stats, nil
}
