package entities

// DoctorStatus is the availability of a doctor on the roster
type DoctorStatus string

const (
	DoctorStatusActive   DoctorStatus = "active"
	DoctorStatusInactive DoctorStatus = "inactive"
)

// Valid reports whether s is a known doctor status.
func (s DoctorStatus) Valid() bool {
	return s == DoctorStatusActive || s == DoctorStatusInactive
}

// Toggle returns the opposite status.
func (s DoctorStatus) Toggle() DoctorStatus {
	if s == DoctorStatusActive {
		return DoctorStatusInactive
	}
	return DoctorStatusActive
}

// Shift identifies the roster half a doctor works
type Shift string

const (
	ShiftFirst  Shift = "first"
	ShiftSecond Shift = "second"
)

// Valid reports whether s is a known shift.
func (s Shift) Valid() bool {
	return s == ShiftFirst || s == ShiftSecond
}

// Doctor is a roster entry
type Doctor struct {
	ID              string       `json:"id" db:"id"`
	Name            string       `json:"name" db:"name"`
	Department      string       `json:"department" db:"department"`
	ExperienceYears int          `json:"experience_years" db:"experience_years"`
	Status          DoctorStatus `json:"status" db:"status"`
	Shift           Shift        `json:"shift" db:"shift"`
	IsStandby       bool         `json:"is_standby" db:"-"`
	MaxPatients     int          `json:"max_patients" db:"-"`
	ActivePatients  int          `json:"patients" db:"active_patients"`
}

// IsActive reports whether the doctor can receive assignments.
func (d *Doctor) IsActive() bool {
	return d.Status == DoctorStatusActive
}

// RankedDoctor is a candidate for an incoming hyper-emergency
type RankedDoctor struct {
	DoctorID        string `json:"doctor_id" db:"id"`
	Name            string `json:"name" db:"name"`
	Department      string `json:"department" db:"department"`
	ActivePatients  int    `json:"patients" db:"active_patients"`
	ExperienceYears int    `json:"experience_years" db:"experience_years"`
	Rank            int    `json:"rank" db:"-"`
}
