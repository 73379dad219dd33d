package models

import "time"

// Classroom is the roster-bearing entity joined to a Section via the
// denormalized (section name, program, year level) triple, not a foreign key.
type Classroom struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Program      string    `db:"program" json:"program"`
	YearLevel    string    `db:"year_level" json:"year_level"`
	Section      string    `db:"section" json:"section"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     Semester  `db:"semester" json:"semester"`
	TeacherID    *int64    `db:"teacher_id" json:"teacher_id,omitempty"`
	MaxStudents  int       `db:"max_students" json:"max_students"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ClassroomStudent is a membership row on a classroom roster.
type ClassroomStudent struct {
	ID               int64  `db:"id" json:"id"`
	ClassroomID      int64  `db:"classroom_id" json:"classroom_id"`
	StudentID        int64  `db:"student_id" json:"student_id"`
	EnrollmentStatus string `db:"enrollment_status" json:"enrollment_status"`
}

// MembershipShape is the (section name, year level, program) triple
// reconstructed from a student's most recent roster membership. It feeds the
// carry-forward tier of section resolution.
type MembershipShape struct {
	SectionName string `db:"section_name"`
	YearLevel   string `db:"year_level"`
	Program     string `db:"program"`
}

// RosterEntry is a roster listing row with student context.
type RosterEntry struct {
	ClassroomStudent
	StudentName string `db:"student_name" json:"student_name"`
}
