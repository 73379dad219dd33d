package models

// Student is the slice of the user record this subsystem reads and, for the
// denormalized section/year fields, writes.
type Student struct {
	ID        int64   `db:"id" json:"id"`
	FullName  string  `db:"full_name" json:"full_name"`
	CourseID  *int64  `db:"course_id" json:"course_id,omitempty"`
	Section   *string `db:"section" json:"section,omitempty"`
	YearLevel *string `db:"year_level" json:"year_level,omitempty"`
}

// Subject is the catalog entry scheduled to sections.
type Subject struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Code           string `db:"code" json:"code"`
	PrerequisiteID *int64 `db:"prerequisite_id" json:"prerequisite_id,omitempty"`
}

// PrerequisiteWarning is an advisory produced before enrollment; it never
// blocks the operation.
type PrerequisiteWarning struct {
	SubjectID int64  `json:"subject_id"`
	Met       bool   `json:"met"`
	Message   string `json:"message"`
}
