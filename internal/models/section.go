package models

// Section is a named cohort of students for a course/year-level/term.
// Owned by the wider system; read-only here except current_students.
type Section struct {
	ID              int64    `db:"id" json:"id"`
	CourseID        int64    `db:"course_id" json:"course_id"`
	SectionName     string   `db:"section_name" json:"section_name"`
	YearLevel       string   `db:"year_level" json:"year_level"`
	AcademicYear    string   `db:"academic_year" json:"academic_year"`
	Semester        Semester `db:"semester" json:"semester"`
	TeacherID       *int64   `db:"teacher_id" json:"teacher_id,omitempty"`
	MaxStudents     int      `db:"max_students" json:"max_students"`
	CurrentStudents int      `db:"current_students" json:"current_students"`
}
