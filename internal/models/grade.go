package models

import "time"

// GradeTypeParticipation marks grade rows used purely as enrollment
// markers: presence of the row signals "enrolled in this subject for this
// term", the zero grade value is never read as an actual score.
const GradeTypeParticipation = "participation"

// GradeEnrollmentMarker is a row in the shared grades store keyed by
// (student, subject, academic year, semester).
type GradeEnrollmentMarker struct {
	ID           int64     `db:"id" json:"id"`
	StudentID    int64     `db:"student_id" json:"student_id"`
	SubjectID    int64     `db:"subject_id" json:"subject_id"`
	TeacherID    int64     `db:"teacher_id" json:"teacher_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     Semester  `db:"semester" json:"semester"`
	GradeType    string    `db:"grade_type" json:"grade_type"`
	Grade        float64   `db:"grade" json:"grade"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
