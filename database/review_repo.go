package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Brosquire/nodemaster/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewQueryFields maps review JSON field names to database columns.
var ReviewQueryFields = map[string]QueryField{
	"id":        {Column: "id"},
	"title":     {Column: "title"},
	"text":      {Column: "text"},
	"rating":    {Column: "rating", Kind: FieldNumber},
	"createdAt": {Column: "created_at"},
	"bootcamp":  {Column: "bootcamp_id"},
	"user":      {Column: "user_id"},
}

type ReviewRepo struct {
	db *gorm.DB
}

func NewReviewRepo(db *gorm.DB) *ReviewRepo {
	return &ReviewRepo{db}
}

// List returns one page of reviews matching opts, each with a field-limited
// reference to its bootcamp. The bootcamp_id column rides along with any
// projection so the reference can still be resolved.
func (r *ReviewRepo) List(ctx context.Context, opts QueryOptions) (Page[models.Review], error) {
	opts.SelectColumns = ensureColumn(opts.SelectColumns, "bootcamp_id")
	return listPage[models.Review](r.db.WithContext(ctx), opts, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Bootcamp", bootcampRef)
	})
}

// ListByBootcamp returns every review of one bootcamp, unpaginated.
func (r *ReviewRepo) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).Where("bootcamp_id = ?", bootcampID).
		Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

// FindByID returns the review or nil when no such record exists.
func (r *ReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Preload("Bootcamp", bootcampRef).First(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Add inserts a new review. The unique (bootcamp_id, user_id) index rejects
// a second review by the same user for the same bootcamp.
func (r *ReviewRepo) Add(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(review).Error
}

// Update persists every field of an existing review.
func (r *ReviewRepo) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

// Delete removes a review from the database by id
func (r *ReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id).Error
}

// RecomputeAverageRating aggregates the unrounded mean rating over the
// bootcamp's live reviews and persists it on the bootcamp. When no reviews
// remain the average is reset to null.
func (r *ReviewRepo) RecomputeAverageRating(ctx context.Context, bootcampID uuid.UUID) error {
	var avg sql.NullFloat64
	row := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("bootcamp_id = ?", bootcampID).
		Select("AVG(rating)").Row()
	if err := row.Scan(&avg); err != nil {
		return err
	}

	update := r.db.WithContext(ctx).Model(&models.Bootcamp{}).Where("id = ?", bootcampID)
	if !avg.Valid {
		return update.Update("average_rating", nil).Error
	}
	return update.Update("average_rating", avg.Float64).Error
}
