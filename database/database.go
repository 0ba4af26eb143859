package database

import (
	"github.com/Brosquire/nodemaster/models"
	"gorm.io/gorm"
)

type Database struct {
	bootcampRepo *BootcampRepo
	courseRepo   *CourseRepo
	reviewRepo   *ReviewRepo
	userRepo     *UserRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		bootcampRepo: NewBootcampRepo(db),
		courseRepo:   NewCourseRepo(db),
		reviewRepo:   NewReviewRepo(db),
		userRepo:     NewUserRepo(db),
	}
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Bootcamp{},
		&models.Course{},
		&models.Review{},
	)
}

// Accessor methods for each repository

func (d Database) BootcampRepo() *BootcampRepo {
	return d.bootcampRepo
}

func (d Database) CourseRepo() *CourseRepo {
	return d.courseRepo
}

func (d Database) ReviewRepo() *ReviewRepo {
	return d.reviewRepo
}

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}
