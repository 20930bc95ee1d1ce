package domain

// Status is the moderation tag of a report. It is an open set: loaded files
// may carry values this service never produces.
type Status string

// StatusNew is assigned to every appended report.
const StatusNew Status = "Baru"

// Report is a single citizen submission about a school.
type Report struct {
	ID           string `json:"id"`
	ReporterName string `json:"reporter_name"`
	SchoolName   string `json:"school_name"`
	Description  string `json:"description"`
	Status       Status `json:"status"`
}
