package api

import (
	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/database"
	"github.com/Brosquire/nodemaster/services"
	"github.com/go-playground/validator/v10"
)

// validate checks request bodies against their struct tags. A single
// instance caches struct metadata across requests.
var validate = validator.New()

type routeHandlers struct {
	bootcampHandler bootcampHandler
	courseHandler   courseHandler
	reviewHandler   reviewHandler
	userHandler     userHandler
	authHandler     authHandler
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, geocoder services.Geocoder, mailer services.Mailer, cfg *config.Config) *routeHandlers {
	return &routeHandlers{
		bootcampHandler: newBootcampHandler(database.BootcampRepo(), geocoder, cfg),
		courseHandler:   newCourseHandler(database.CourseRepo(), database.BootcampRepo()),
		reviewHandler:   newReviewHandler(database.ReviewRepo(), database.BootcampRepo()),
		userHandler:     newUserHandler(database.UserRepo()),
		authHandler:     newAuthHandler(database.UserRepo(), mailer, cfg),
	}
}
