package database

import (
	"context"
	"errors"
	"math"

	"github.com/Brosquire/nodemaster/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BootcampQueryFields maps the bootcamp JSON field names clients may
// filter, select or sort on to their database columns.
var BootcampQueryFields = map[string]QueryField{
	"id":            {Column: "id"},
	"name":          {Column: "name"},
	"slug":          {Column: "slug"},
	"description":   {Column: "description"},
	"website":       {Column: "website"},
	"phone":         {Column: "phone"},
	"email":         {Column: "email"},
	"averageCost":   {Column: "average_cost", Kind: FieldNumber},
	"averageRating": {Column: "average_rating", Kind: FieldNumber},
	"photo":         {Column: "photo"},
	"housing":       {Column: "housing", Kind: FieldBool},
	"jobAssistance": {Column: "job_assistance", Kind: FieldBool},
	"jobGuarantee":  {Column: "job_guarantee", Kind: FieldBool},
	"acceptGi":      {Column: "accept_gi", Kind: FieldBool},
	"createdAt":     {Column: "created_at"},
	"user":          {Column: "user_id"},
	"city":          {Column: "location_city"},
	"state":         {Column: "location_state"},
	"zipcode":       {Column: "location_zipcode"},
}

type BootcampRepo struct {
	db *gorm.DB
}

func NewBootcampRepo(db *gorm.DB) *BootcampRepo {
	return &BootcampRepo{db}
}

// List returns one page of bootcamps matching opts, with their courses
// resolved inline.
func (r *BootcampRepo) List(ctx context.Context, opts QueryOptions) (Page[models.Bootcamp], error) {
	return listPage[models.Bootcamp](r.db.WithContext(ctx), opts, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Courses")
	})
}

// FindByID returns the bootcamp or nil when no such record exists.
func (r *BootcampRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Bootcamp, error) {
	var bootcamp models.Bootcamp
	err := r.db.WithContext(ctx).First(&bootcamp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bootcamp, nil
}

// CountByOwner returns how many bootcamps the user already owns.
func (r *BootcampRepo) CountByOwner(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bootcamp{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Add inserts a new bootcamp into the database
func (r *BootcampRepo) Add(ctx context.Context, bootcamp *models.Bootcamp) error {
	if bootcamp.ID == uuid.Nil {
		bootcamp.ID = uuid.New()
	}
	if bootcamp.Photo == "" {
		bootcamp.Photo = models.DefaultPhoto
	}
	return r.db.WithContext(ctx).Create(bootcamp).Error
}

// Update persists every field of an existing bootcamp.
func (r *BootcampRepo) Update(ctx context.Context, bootcamp *models.Bootcamp) error {
	return r.db.WithContext(ctx).Save(bootcamp).Error
}

// UpdatePhoto stores the uploaded photo filename on the bootcamp.
func (r *BootcampRepo) UpdatePhoto(ctx context.Context, id uuid.UUID, filename string) error {
	return r.db.WithContext(ctx).Model(&models.Bootcamp{}).
		Where("id = ?", id).Update("photo", filename).Error
}

// Delete removes a bootcamp together with its courses and reviews. The
// cascade is explicit so it also holds on databases where the foreign-key
// constraint is not enforced.
func (r *BootcampRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bootcamp_id = ?", id).Delete(&models.Course{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bootcamp_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Bootcamp{}, "id = ?", id).Error
	})
}

// earthRadiusMiles matches the radius the distance/zipcode search divides by.
const earthRadiusMiles = 3963.0

// WithinRadius returns bootcamps whose location falls inside a bounding box
// of the given radius (miles) around the center point.
func (r *BootcampRepo) WithinRadius(ctx context.Context, lat, lng, miles float64) ([]models.Bootcamp, error) {
	radiusDeg := miles / earthRadiusMiles * 180 / math.Pi
	latDelta := radiusDeg
	lngDelta := radiusDeg
	if cos := math.Cos(lat * math.Pi / 180); cos > 0.01 {
		lngDelta = radiusDeg / cos
	}

	var bootcamps []models.Bootcamp
	err := r.db.WithContext(ctx).
		Where("location_lat BETWEEN ? AND ?", lat-latDelta, lat+latDelta).
		Where("location_lng BETWEEN ? AND ?", lng-lngDelta, lng+lngDelta).
		Find(&bootcamps).Error
	return bootcamps, err
}
