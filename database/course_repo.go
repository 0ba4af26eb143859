package database

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/Brosquire/nodemaster/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseQueryFields maps course JSON field names to database columns.
var CourseQueryFields = map[string]QueryField{
	"id":                   {Column: "id"},
	"title":                {Column: "title"},
	"description":          {Column: "description"},
	"weeks":                {Column: "weeks"},
	"tuition":              {Column: "tuition", Kind: FieldNumber},
	"minimumSkill":         {Column: "minimum_skill"},
	"scholarshipAvailable": {Column: "scholarship_available", Kind: FieldBool},
	"createdAt":            {Column: "created_at"},
	"bootcamp":             {Column: "bootcamp_id"},
	"user":                 {Column: "user_id"},
}

type CourseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) *CourseRepo {
	return &CourseRepo{db}
}

// bootcampRef limits an inline bootcamp reference to name and description.
func bootcampRef(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "description")
}

// List returns one page of courses matching opts, each with a field-limited
// reference to its bootcamp. The bootcamp_id column rides along with any
// projection so the reference can still be resolved.
func (r *CourseRepo) List(ctx context.Context, opts QueryOptions) (Page[models.Course], error) {
	opts.SelectColumns = ensureColumn(opts.SelectColumns, "bootcamp_id")
	return listPage[models.Course](r.db.WithContext(ctx), opts, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Bootcamp", bootcampRef)
	})
}

// ListByBootcamp returns every course of one bootcamp, unpaginated.
func (r *CourseRepo) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).Where("bootcamp_id = ?", bootcampID).
		Order("created_at DESC").Find(&courses).Error
	return courses, err
}

// FindByID returns the course or nil when no such record exists.
func (r *CourseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).Preload("Bootcamp", bootcampRef).First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Add inserts a new course into the database
func (r *CourseRepo) Add(ctx context.Context, course *models.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(course).Error
}

// Update persists every field of an existing course.
func (r *CourseRepo) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

// Delete removes a course from the database by id
func (r *CourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Course{}, "id = ?", id).Error
}

// RecomputeAverageCost aggregates the mean tuition over the bootcamp's live
// courses, rounded up to the nearest multiple of 10, and persists it on the
// bootcamp. When no courses remain the average is reset to null.
func (r *CourseRepo) RecomputeAverageCost(ctx context.Context, bootcampID uuid.UUID) error {
	var avg sql.NullFloat64
	row := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("bootcamp_id = ?", bootcampID).
		Select("AVG(tuition)").Row()
	if err := row.Scan(&avg); err != nil {
		return err
	}

	update := r.db.WithContext(ctx).Model(&models.Bootcamp{}).Where("id = ?", bootcampID)
	if !avg.Valid {
		return update.Update("average_cost", nil).Error
	}
	return update.Update("average_cost", math.Ceil(avg.Float64/10)*10).Error
}
