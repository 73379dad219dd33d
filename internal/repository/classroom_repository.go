package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

// ClassroomRepository manages classrooms and their rosters. A classroom is
// keyed by the denormalized (section, program, year_level) triple.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs the repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

const classroomColumns = `id, name, description, program, year_level, section, academic_year, semester, teacher_id, max_students, status, created_at`

// FindByKey looks a classroom up by its join triple.
func (r *ClassroomRepository) FindByKey(ctx context.Context, sectionName, program, yearLevel string) (*models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms WHERE section = $1 AND program = $2 AND year_level = $3 LIMIT 1`, classroomColumns)
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, sectionName, program, yearLevel); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// Create persists a new classroom row.
func (r *ClassroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	const query = `INSERT INTO classrooms (name, description, program, year_level, section, academic_year, semester, teacher_id, max_students, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if classroom.CreatedAt.IsZero() {
		classroom.CreatedAt = time.Now().UTC()
	}
	if err := r.db.GetContext(ctx, &classroom.ID, query,
		classroom.Name, classroom.Description, classroom.Program, classroom.YearLevel, classroom.Section,
		classroom.AcademicYear, classroom.Semester, classroom.TeacherID, classroom.MaxStudents, classroom.Status, classroom.CreatedAt); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// FindMembership returns the membership row for (classroom, student) if any.
func (r *ClassroomRepository) FindMembership(ctx context.Context, q Queryer, classroomID, studentID int64) (*models.ClassroomStudent, error) {
	const query = `SELECT id, classroom_id, student_id, enrollment_status FROM classroom_students WHERE classroom_id = $1 AND student_id = $2 LIMIT 1`
	var membership models.ClassroomStudent
	if err := q.GetContext(ctx, &membership, query, classroomID, studentID); err != nil {
		return nil, err
	}
	return &membership, nil
}

// InsertMembership adds a student to a classroom roster. Runs on the caller's
// transaction when the roster write is part of a larger unit.
func (r *ClassroomRepository) InsertMembership(ctx context.Context, q Queryer, membership *models.ClassroomStudent) error {
	const query = `INSERT INTO classroom_students (classroom_id, student_id, enrollment_status) VALUES ($1, $2, $3) RETURNING id`
	if membership.EnrollmentStatus == "" {
		membership.EnrollmentStatus = "enrolled"
	}
	if err := q.GetContext(ctx, &membership.ID, query, membership.ClassroomID, membership.StudentID, membership.EnrollmentStatus); err != nil {
		return fmt.Errorf("insert classroom membership: %w", err)
	}
	return nil
}

// DeleteMembership removes a student from a roster, reporting whether a row
// was actually deleted.
func (r *ClassroomRepository) DeleteMembership(ctx context.Context, q Queryer, classroomID, studentID int64) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM classroom_students WHERE classroom_id = $1 AND student_id = $2`, classroomID, studentID)
	if err != nil {
		return false, fmt.Errorf("delete classroom membership: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete classroom membership: %w", err)
	}
	return affected > 0, nil
}

// CountDistinctStudents recomputes the roster size from the source of truth.
func (r *ClassroomRepository) CountDistinctStudents(ctx context.Context, q Queryer, classroomID int64) (int, error) {
	var count int
	if err := q.GetContext(ctx, &count, `SELECT COUNT(DISTINCT student_id) FROM classroom_students WHERE classroom_id = $1`, classroomID); err != nil {
		return 0, fmt.Errorf("count classroom students: %w", err)
	}
	return count, nil
}

// LatestEnrolledShape reconstructs the (section, year level, program) triple
// of the student's most recent enrolled membership, most recent first by
// membership id.
func (r *ClassroomRepository) LatestEnrolledShape(ctx context.Context, q Queryer, studentID int64) (*models.MembershipShape, error) {
	const query = `SELECT c.section AS section_name, c.year_level, c.program
        FROM classroom_students cs
        JOIN classrooms c ON c.id = cs.classroom_id
        WHERE cs.student_id = $1 AND cs.enrollment_status = 'enrolled'
        ORDER BY cs.id DESC
        LIMIT 1`
	var shape models.MembershipShape
	if err := q.GetContext(ctx, &shape, query, studentID); err != nil {
		return nil, err
	}
	return &shape, nil
}

// ListRoster returns the classroom roster with student names.
func (r *ClassroomRepository) ListRoster(ctx context.Context, classroomID int64) ([]models.RosterEntry, error) {
	const query = `SELECT cs.id, cs.classroom_id, cs.student_id, cs.enrollment_status, COALESCE(u.full_name, '') AS student_name
        FROM classroom_students cs
        LEFT JOIN users u ON u.id = cs.student_id
        WHERE cs.classroom_id = $1
        ORDER BY u.full_name ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, classroomID); err != nil {
		return nil, fmt.Errorf("list classroom roster: %w", err)
	}
	return roster, nil
}
