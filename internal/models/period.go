package models

import "time"

// Semester enumerates the academic semesters the school operates.
type Semester string

const (
	SemesterFirst  Semester = "1st"
	SemesterSecond Semester = "2nd"
	SemesterSummer Semester = "Summer"
)

// Valid reports whether the semester is one of the known values.
func (s Semester) Valid() bool {
	switch s {
	case SemesterFirst, SemesterSecond, SemesterSummer:
		return true
	}
	return false
}

// PeriodStatus represents the lifecycle of an enrollment period.
type PeriodStatus string

const (
	PeriodStatusScheduled PeriodStatus = "scheduled"
	PeriodStatusActive    PeriodStatus = "active"
	PeriodStatusClosed    PeriodStatus = "closed"
)

// EnrollmentPeriod is an admin-defined window during which students may
// submit enrollment requests for a course/year/semester.
type EnrollmentPeriod struct {
	ID           int64        `db:"id" json:"id"`
	CourseID     int64        `db:"course_id" json:"course_id"`
	AcademicYear string       `db:"academic_year" json:"academic_year"`
	Semester     Semester     `db:"semester" json:"semester"`
	StartDate    time.Time    `db:"start_date" json:"start_date"`
	EndDate      time.Time    `db:"end_date" json:"end_date"`
	Status       PeriodStatus `db:"status" json:"status"`
	AutoClose    bool         `db:"auto_close" json:"auto_close"`
	CreatedBy    int64        `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// PeriodFilter provides filters for listing enrollment periods.
type PeriodFilter struct {
	CourseID     int64
	AcademicYear string
	Semester     Semester
	Status       PeriodStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
