package entities

// DepartmentClass selects how a department orders its queue
type DepartmentClass string

const (
	// DepartmentClassGeneral orders by category, wait and priority.
	DepartmentClassGeneral DepartmentClass = "general"
	// DepartmentClassCriticalCare orders by severity alone.
	DepartmentClassCriticalCare DepartmentClass = "critical-care"
)

// Department is a named hospital unit
type Department struct {
	Name  string          `json:"name"`
	Class DepartmentClass `json:"class"`
}

// KnownDepartments lists the departments the triage collaborator may route to.
var KnownDepartments = []string{
	"Cardiology",
	"Neurology",
	"Orthopedics",
	"Pediatrics",
	"Dermatology",
	"General",
	"ICU",
}

// DefaultDepartment receives cases no rule or model could place.
const DefaultDepartment = "General"
