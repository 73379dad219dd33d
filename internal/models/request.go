package models

import "time"

// RequestStatus represents the review lifecycle of an enrollment request.
// pending transitions to approved or rejected; approved, rejected and voided
// are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusVoided   RequestStatus = "voided"
)

// EnrollmentRequest is a student's ask to be enrolled for a period,
// reviewed by an admin. Unique per (student, period).
type EnrollmentRequest struct {
	ID                   int64         `db:"id" json:"id"`
	StudentID            int64         `db:"student_id" json:"student_id"`
	CourseID             int64         `db:"course_id" json:"course_id"`
	EnrollmentPeriodID   int64         `db:"enrollment_period_id" json:"enrollment_period_id"`
	AcademicYear         string        `db:"academic_year" json:"academic_year"`
	Semester             Semester      `db:"semester" json:"semester"`
	Status               RequestStatus `db:"status" json:"status"`
	RequestedAt          time.Time     `db:"requested_at" json:"requested_at"`
	ReviewedBy           *int64        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	RejectionReason      *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
	RequirementsVerified bool          `db:"requirements_verified" json:"requirements_verified"`
	Notes                *string       `db:"notes" json:"notes,omitempty"`
}

// RequestDetail enriches EnrollmentRequest with the owning period's course.
type RequestDetail struct {
	EnrollmentRequest
	PeriodCourseID int64  `db:"period_course_id" json:"period_course_id"`
	StudentName    string `db:"student_name" json:"student_name"`
}

// RequestFilter provides filters for listing enrollment requests.
type RequestFilter struct {
	StudentID          int64
	EnrollmentPeriodID int64
	Status             RequestStatus
	AcademicYear       string
	Page               int
	PageSize           int
	SortBy             string
	SortOrder          string
}
