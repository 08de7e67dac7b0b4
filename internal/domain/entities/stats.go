package entities

// DepartmentLoad is the live queue size and capped average wait of one department
type DepartmentLoad struct {
	Queue    int `json:"queue"`
	WaitTime int `json:"wait_time"`
}

// FlowStats summarizes hospital-wide patient flow
type FlowStats struct {
	TotalAppointments int                       `json:"total_appointments"`
	EmergencyCases    int                       `json:"emergency_cases"`
	ActiveDoctors     int                       `json:"active_doctors"`
	AvgWaitTime       int                       `json:"avg_wait_time"`
	Departments       map[string]DepartmentLoad `json:"dept_stats"`
}
