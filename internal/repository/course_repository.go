package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-course-enrollment/internal/model"
)

// CourseRepo provides read access to the `courses` table and the
// single mutation this service performs on it: the guarded capacity
// increment. Course CRUD belongs to admin tooling; the enrollment
// workflow only reads course rows and moves the counter.
type CourseRepo struct {
	db *sql.DB
}

// NewCourseRepo returns a CourseRepo bound to the given database.
func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// that span multiple repositories.
func (r *CourseRepo) DB() *sql.DB { return r.db }

const courseColumns = "id,name,trainer_id,price_minor,capacity,current_enrollment,is_active,created_at,updated_at"

func scanCourse(row *sql.Row) (model.Course, error) {
	var c model.Course
	err := row.Scan(&c.ID, &c.Name, &c.TrainerID, &c.PriceMinor, &c.Capacity,
		&c.CurrentEnrollment, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetActive fetches an active course by id. Inactive or missing
// courses both map to ErrCourseNotFound; callers do not distinguish
// them.
func (r *CourseRepo) GetActive(ctx context.Context, id uint64) (model.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE id=? AND is_active=1 LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Course{}, ErrCourseNotFound
	}
	return c, err
}

// ListActive returns all active courses ordered by name, for the
// public catalog.
func (r *CourseRepo) ListActive(ctx context.Context) ([]model.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE is_active=1 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	courses := make([]model.Course, 0)
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.TrainerID, &c.PriceMinor, &c.Capacity,
			&c.CurrentEnrollment, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// IncrementEnrollmentTx atomically claims one place on the course.
// The WHERE clause re-checks the capacity invariant inside the same
// statement, so concurrent commits can never push current_enrollment
// past capacity: the loser sees zero affected rows and gets
// ErrCourseFull. This is the only place the counter is incremented.
func (r *CourseRepo) IncrementEnrollmentTx(ctx context.Context, tx *sql.Tx, courseID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE courses
		    SET current_enrollment = current_enrollment + 1
		  WHERE id = ? AND is_active = 1 AND current_enrollment < capacity`,
		courseID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCourseFull
	}
	return nil
}

// DecrementEnrollmentTx releases one place, flooring at zero. Used
// when an active enrollment is deactivated so the counter keeps
// matching the count of active, non-expired enrollments.
func (r *CourseRepo) DecrementEnrollmentTx(ctx context.Context, tx *sql.Tx, courseID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE courses
		    SET current_enrollment = current_enrollment - 1
		  WHERE id = ? AND current_enrollment > 0`,
		courseID)
	return err
}
