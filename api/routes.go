package api

import (
	"github.com/Brosquire/nodemaster/models"
	"github.com/go-chi/chi/v5"
)

// setupRoutes mounts the versioned API surface. Reads of bootcamps,
// courses and reviews are public; everything mutating requires a token,
// and the user management routes are admin only.
func setupRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware, loginLimiter *limiterStore) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/bootcamps", func(r chi.Router) {
			r.Get("/", handlers.bootcampHandler.getBootcamps())
			r.Get("/{bootcampID}", handlers.bootcampHandler.getBootcamp())
			r.Get("/radius/{zipcode}/{distance}", handlers.bootcampHandler.getBootcampsInRadius())
			r.Get("/{bootcampID}/courses", handlers.courseHandler.getCourses())
			r.Get("/{bootcampID}/reviews", handlers.reviewHandler.getReviews())

			r.Group(func(r chi.Router) {
				r.Use(auth.protect)
				r.With(auth.authorize(models.RolePublisher, models.RoleAdmin)).
					Post("/", handlers.bootcampHandler.createBootcamp())
				r.With(auth.authorize(models.RolePublisher, models.RoleAdmin)).
					Put("/{bootcampID}", handlers.bootcampHandler.updateBootcamp())
				r.With(auth.authorize(models.RolePublisher, models.RoleAdmin)).
					Delete("/{bootcampID}", handlers.bootcampHandler.deleteBootcamp())
				r.With(auth.authorize(models.RolePublisher, models.RoleAdmin)).
					Put("/{bootcampID}/photo", handlers.bootcampHandler.uploadPhoto())
				r.With(auth.authorize(models.RolePublisher, models.RoleAdmin)).
					Post("/{bootcampID}/courses", handlers.courseHandler.addCourse())
				r.With(auth.authorize(models.RoleUser, models.RoleAdmin)).
					Post("/{bootcampID}/reviews", handlers.reviewHandler.addReview())
			})
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", handlers.courseHandler.getCourses())
			r.Get("/{courseID}", handlers.courseHandler.getCourse())

			r.Group(func(r chi.Router) {
				r.Use(auth.protect)
				r.Use(auth.authorize(models.RolePublisher, models.RoleAdmin))
				r.Put("/{courseID}", handlers.courseHandler.updateCourse())
				r.Delete("/{courseID}", handlers.courseHandler.deleteCourse())
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", handlers.reviewHandler.getReviews())
			r.Get("/{reviewID}", handlers.reviewHandler.getReview())

			r.Group(func(r chi.Router) {
				r.Use(auth.protect)
				r.Use(auth.authorize(models.RoleUser, models.RoleAdmin))
				r.Put("/{reviewID}", handlers.reviewHandler.updateReview())
				r.Delete("/{reviewID}", handlers.reviewHandler.deleteReview())
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handlers.authHandler.register())
			r.With(rateLimit(loginLimiter, handlers.authHandler.responder)).
				Post("/login", handlers.authHandler.login())
			r.Post("/forgotpassword", handlers.authHandler.forgotPassword())
			r.Put("/resetpassword/{resettoken}", handlers.authHandler.resetPassword())

			r.Group(func(r chi.Router) {
				r.Use(auth.protect)
				r.Get("/me", handlers.authHandler.me())
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.protect)
			r.Use(auth.authorize(models.RoleAdmin))
			r.Get("/", handlers.userHandler.getUsers())
			r.Get("/{userID}", handlers.userHandler.getUser())
			r.Post("/", handlers.userHandler.createUser())
			r.Put("/{userID}", handlers.userHandler.updateUser())
			r.Delete("/{userID}", handlers.userHandler.deleteUser())
		})
	})
}
