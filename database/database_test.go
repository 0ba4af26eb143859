package database

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Brosquire/nodemaster/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	user := &models.User{
		Name:  "Test User",
		Email: uuid.NewString() + "@example.com",
		Role:  role,
	}
	require.NoError(t, user.SetPassword("123456"))
	require.NoError(t, NewUserRepo(db).Add(context.Background(), user))
	return user
}

func newTestBootcamp(t *testing.T, db *gorm.DB, name string, ownerID uuid.UUID) *models.Bootcamp {
	t.Helper()

	bootcamp := &models.Bootcamp{
		Name:        name,
		Slug:        models.Slugify(name),
		Description: "A bootcamp",
		Careers:     []string{"Web Development"},
		UserID:      ownerID,
	}
	require.NoError(t, NewBootcampRepo(db).Add(context.Background(), bootcamp))
	return bootcamp
}

func TestBootcampRepo_AddDefaults(t *testing.T) {
	db := newTestDB(t)
	owner := newTestUser(t, db, models.RolePublisher)

	bootcamp := newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	assert.NotEqual(t, uuid.Nil, bootcamp.ID)
	assert.Equal(t, models.DefaultPhoto, bootcamp.Photo)
	assert.Nil(t, bootcamp.AverageCost)
	assert.Nil(t, bootcamp.AverageRating)
}

func TestBootcampRepo_ListFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	repo := NewBootcampRepo(db)
	owner := newTestUser(t, db, models.RoleAdmin)
	ctx := context.Background()

	for i, name := range []string{"Alpha Camp", "Beta Camp", "Gamma Camp"} {
		b := newTestBootcamp(t, db, name, owner.ID)
		b.Housing = i%2 == 0
		cost := float64((i + 1) * 5000)
		b.AverageCost = &cost
		require.NoError(t, repo.Update(ctx, b))
	}

	t.Run("filter on boolean", func(t *testing.T) {
		values, _ := url.ParseQuery("housing=true&sort=name")
		opts, err := ParseQuery(values, BootcampQueryFields)
		require.NoError(t, err)

		page, err := repo.List(ctx, opts)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Alpha Camp", page.Items[0].Name)
		assert.Equal(t, "Gamma Camp", page.Items[1].Name)
	})

	t.Run("range operator", func(t *testing.T) {
		values, _ := url.ParseQuery("averageCost[lte]=10000&sort=averageCost")
		opts, err := ParseQuery(values, BootcampQueryFields)
		require.NoError(t, err)

		page, err := repo.List(ctx, opts)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("pagination window", func(t *testing.T) {
		values, _ := url.ParseQuery("page=2&limit=1&sort=name")
		opts, err := ParseQuery(values, BootcampQueryFields)
		require.NoError(t, err)

		page, err := repo.List(ctx, opts)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Beta Camp", page.Items[0].Name)
		assert.Equal(t, int64(3), page.Total)
		require.NotNil(t, page.Pagination.Next)
		require.NotNil(t, page.Pagination.Prev)
	})

	t.Run("projection", func(t *testing.T) {
		values, _ := url.ParseQuery("select=name&sort=name")
		opts, err := ParseQuery(values, BootcampQueryFields)
		require.NoError(t, err)

		page, err := repo.List(ctx, opts)
		require.NoError(t, err)
		require.NotEmpty(t, page.Items)
		assert.NotEqual(t, uuid.Nil, page.Items[0].ID)
		assert.NotEmpty(t, page.Items[0].Name)
		assert.Empty(t, page.Items[0].Description)
	})
}

// A zipcode is a digit string, not a number: filtering on it must match the
// stored text, leading zero included.
func TestBootcampRepo_ListFiltersZipcodeAsText(t *testing.T) {
	db := newTestDB(t)
	repo := NewBootcampRepo(db)
	owner := newTestUser(t, db, models.RolePublisher)
	ctx := context.Background()

	boston := newTestBootcamp(t, db, "Boston Camp", owner.ID)
	boston.Location.Zipcode = "02108"
	require.NoError(t, repo.Update(ctx, boston))

	denver := newTestBootcamp(t, db, "Denver Camp", owner.ID)
	denver.Location.Zipcode = "80014"
	require.NoError(t, repo.Update(ctx, denver))

	values, _ := url.ParseQuery("zipcode=02108")
	opts, err := ParseQuery(values, BootcampQueryFields)
	require.NoError(t, err)

	page, err := repo.List(ctx, opts)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Boston Camp", page.Items[0].Name)
}

func TestBootcampRepo_UniqueName(t *testing.T) {
	db := newTestDB(t)
	owner := newTestUser(t, db, models.RoleAdmin)
	newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	err := NewBootcampRepo(db).Add(context.Background(), &models.Bootcamp{
		Name:        "Devworks Bootcamp",
		Description: "Duplicate",
		Careers:     []string{"Business"},
		UserID:      owner.ID,
	})
	require.Error(t, err)
}

func TestBootcampRepo_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, db, models.RolePublisher)
	bootcamp := newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	courses := NewCourseRepo(db)
	reviews := NewReviewRepo(db)
	require.NoError(t, courses.Add(ctx, &models.Course{
		Title: "Front End Web Development", Description: "d", Weeks: "8",
		Tuition: 8000, MinimumSkill: "beginner",
		BootcampID: bootcamp.ID, UserID: owner.ID,
	}))
	require.NoError(t, reviews.Add(ctx, &models.Review{
		Title: "Great", Text: "Loved it", Rating: 9,
		BootcampID: bootcamp.ID, UserID: owner.ID,
	}))

	require.NoError(t, NewBootcampRepo(db).Delete(ctx, bootcamp.ID))

	remaining, err := courses.ListByBootcamp(ctx, bootcamp.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	remainingReviews, err := reviews.ListByBootcamp(ctx, bootcamp.ID)
	require.NoError(t, err)
	assert.Empty(t, remainingReviews)
}

func TestBootcampRepo_CountByOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, db, models.RolePublisher)
	other := newTestUser(t, db, models.RolePublisher)
	newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	count, err := NewBootcampRepo(db).CountByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = NewBootcampRepo(db).CountByOwner(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestBootcampRepo_WithinRadius(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewBootcampRepo(db)
	owner := newTestUser(t, db, models.RoleAdmin)

	boston := newTestBootcamp(t, db, "Boston Camp", owner.ID)
	boston.Location = models.Location{Lat: 42.3601, Lng: -71.0589}
	require.NoError(t, repo.Update(ctx, boston))

	denver := newTestBootcamp(t, db, "Denver Camp", owner.ID)
	denver.Location = models.Location{Lat: 39.7392, Lng: -104.9903}
	require.NoError(t, repo.Update(ctx, denver))

	// 50 miles around downtown Boston reaches the Boston camp only.
	near, err := repo.WithinRadius(ctx, 42.35, -71.06, 50)
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "Boston Camp", near[0].Name)
}

func TestCourseRepo_RecomputeAverageCost(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, db, models.RolePublisher)
	bootcamp := newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	repo := NewCourseRepo(db)
	bootcamps := NewBootcampRepo(db)

	course1 := &models.Course{
		Title: "Front End", Description: "d", Weeks: "8",
		Tuition: 8001, MinimumSkill: "beginner",
		BootcampID: bootcamp.ID, UserID: owner.ID,
	}
	course2 := &models.Course{
		Title: "Back End", Description: "d", Weeks: "10",
		Tuition: 10000, MinimumSkill: "intermediate",
		BootcampID: bootcamp.ID, UserID: owner.ID,
	}
	require.NoError(t, repo.Add(ctx, course1))
	require.NoError(t, repo.Add(ctx, course2))
	require.NoError(t, repo.RecomputeAverageCost(ctx, bootcamp.ID))

	got, err := bootcamps.FindByID(ctx, bootcamp.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AverageCost)
	// mean 9000.5, rounded up to the next multiple of 10
	assert.Equal(t, 9010.0, *got.AverageCost)

	require.NoError(t, repo.Delete(ctx, course1.ID))
	require.NoError(t, repo.Delete(ctx, course2.ID))
	require.NoError(t, repo.RecomputeAverageCost(ctx, bootcamp.ID))

	got, err = bootcamps.FindByID(ctx, bootcamp.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AverageCost)
}

func TestReviewRepo_RecomputeAverageRating(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, db, models.RolePublisher)
	reviewer := newTestUser(t, db, models.RoleUser)
	bootcamp := newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	repo := NewReviewRepo(db)
	bootcamps := NewBootcampRepo(db)

	review1 := &models.Review{Title: "Good", Text: "t", Rating: 7, BootcampID: bootcamp.ID, UserID: owner.ID}
	review2 := &models.Review{Title: "Great", Text: "t", Rating: 10, BootcampID: bootcamp.ID, UserID: reviewer.ID}
	require.NoError(t, repo.Add(ctx, review1))
	require.NoError(t, repo.Add(ctx, review2))
	require.NoError(t, repo.RecomputeAverageRating(ctx, bootcamp.ID))

	got, err := bootcamps.FindByID(ctx, bootcamp.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 8.5, *got.AverageRating)

	require.NoError(t, repo.Delete(ctx, review1.ID))
	require.NoError(t, repo.Delete(ctx, review2.ID))
	require.NoError(t, repo.RecomputeAverageRating(ctx, bootcamp.ID))

	got, err = bootcamps.FindByID(ctx, bootcamp.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AverageRating)
}

func TestReviewRepo_OneReviewPerUserPerBootcamp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, db, models.RolePublisher)
	reviewer := newTestUser(t, db, models.RoleUser)
	bootcamp := newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	repo := NewReviewRepo(db)
	require.NoError(t, repo.Add(ctx, &models.Review{
		Title: "First", Text: "t", Rating: 8, BootcampID: bootcamp.ID, UserID: reviewer.ID,
	}))

	err := repo.Add(ctx, &models.Review{
		Title: "Second", Text: "t", Rating: 2, BootcampID: bootcamp.ID, UserID: reviewer.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestCourseRepo_FindByIDResolvesBootcampRef(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, db, models.RolePublisher)
	bootcamp := newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	repo := NewCourseRepo(db)
	course := &models.Course{
		Title: "Front End", Description: "d", Weeks: "8",
		Tuition: 8000, MinimumSkill: "beginner",
		BootcampID: bootcamp.ID, UserID: owner.ID,
	}
	require.NoError(t, repo.Add(ctx, course))

	got, err := repo.FindByID(ctx, course.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Bootcamp)
	assert.Equal(t, "Devworks Bootcamp", got.Bootcamp.Name)
	assert.NotEmpty(t, got.Bootcamp.Description)
	// the reference is field-limited
	assert.Empty(t, got.Bootcamp.Slug)
}

// A projected listing must still resolve each course's bootcamp reference,
// so the foreign key rides along with the selected columns.
func TestCourseRepo_ListProjectionKeepsBootcampRef(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, db, models.RolePublisher)
	bootcamp := newTestBootcamp(t, db, "Devworks Bootcamp", owner.ID)

	repo := NewCourseRepo(db)
	course := &models.Course{
		Title: "Front End", Description: "d", Weeks: "8",
		Tuition: 8000, MinimumSkill: "beginner",
		BootcampID: bootcamp.ID, UserID: owner.ID,
	}
	require.NoError(t, repo.Add(ctx, course))

	values, _ := url.ParseQuery("select=title")
	opts, err := ParseQuery(values, CourseQueryFields)
	require.NoError(t, err)

	page, err := repo.List(ctx, opts)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Front End", page.Items[0].Title)
	assert.Empty(t, page.Items[0].Description)
	require.NotNil(t, page.Items[0].Bootcamp)
	assert.Equal(t, "Devworks Bootcamp", page.Items[0].Bootcamp.Name)
}

func TestUserRepo_FindByResetToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepo(db)
	user := newTestUser(t, db, models.RoleUser)

	raw, err := user.NewResetToken()
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, user))

	t.Run("valid token resolves", func(t *testing.T) {
		got, err := repo.FindByResetToken(ctx, models.HashResetToken(raw))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("raw token never matches directly", func(t *testing.T) {
		got, err := repo.FindByResetToken(ctx, raw)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired token does not resolve", func(t *testing.T) {
		expired := time.Now().Add(-time.Minute)
		user.ResetPasswordExpire = &expired
		require.NoError(t, repo.Update(ctx, user))

		got, err := repo.FindByResetToken(ctx, models.HashResetToken(raw))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestUserRepo_AddDefaultsRole(t *testing.T) {
	db := newTestDB(t)
	user := &models.User{Name: "N", Email: "n@example.com"}
	require.NoError(t, user.SetPassword("123456"))
	require.NoError(t, NewUserRepo(db).Add(context.Background(), user))
	assert.Equal(t, models.RoleUser, user.Role)
}
