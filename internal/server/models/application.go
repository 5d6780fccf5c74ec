package models

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusShortlisted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Application is a user's application to a job.
type Application struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	JobID       string            `json:"job_id"`
	ResumeURL   string            `json:"resume_url"`
	CoverLetter *string           `json:"cover_letter"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ApplicationStatusHistory records one status transition made by an admin.
type ApplicationStatusHistory struct {
	ID            string            `json:"id"`
	ApplicationID string            `json:"application_id"`
	OldStatus     ApplicationStatus `json:"old_status"`
	NewStatus     ApplicationStatus `json:"new_status"`
	ChangedBy     string            `json:"changed_by"`
	ChangedAt     time.Time         `json:"changed_at"`
}
