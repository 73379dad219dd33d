package models

// SectionSchedule declares which subjects are taught to a section.
type SectionSchedule struct {
	ID        int64  `db:"id" json:"id"`
	SectionID int64  `db:"section_id" json:"section_id"`
	SubjectID int64  `db:"subject_id" json:"subject_id"`
	TeacherID int64  `db:"teacher_id" json:"teacher_id"`
	Status    string `db:"status" json:"status"`
}

// SubjectTeacher is a distinct (subject, teacher) pair scheduled to a
// section; each pair fans out to one grade enrollment marker.
type SubjectTeacher struct {
	SubjectID int64 `db:"subject_id" json:"subject_id"`
	TeacherID int64 `db:"teacher_id" json:"teacher_id"`
}
