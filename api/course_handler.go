package api

import (
	"encoding/json"
	"net/http"

	"github.com/Brosquire/nodemaster/database"
	"github.com/Brosquire/nodemaster/errs"
	"github.com/Brosquire/nodemaster/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type courseHandler struct {
	responder Responder
	logger    zerolog.Logger
	courses   *database.CourseRepo
	bootcamps *database.BootcampRepo
}

func newCourseHandler(courses *database.CourseRepo, bootcamps *database.BootcampRepo) courseHandler {
	logger := log.With().Str("handlerName", "courseHandler").Logger()
	return courseHandler{
		responder: NewResponder(logger),
		logger:    logger,
		courses:   courses,
		bootcamps: bootcamps,
	}
}

// getCourses serves both the top-level course listing (filtered, paginated)
// and the nested listing of one bootcamp's courses.
func (h courseHandler) getCourses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := chi.URLParam(r, "bootcampID"); raw != "" {
			bootcampID, err := uuid.Parse(raw)
			if err != nil {
				h.responder.WriteError(w, errs.NewBadRequestError("invalid bootcamp id"))
				return
			}
			courses, err := h.courses.ListByBootcamp(r.Context(), bootcampID)
			if err != nil {
				h.responder.WriteError(w, errs.NewDatabaseError("list", "courses", err))
				return
			}
			h.responder.WriteCollection(w, len(courses), courses)
			return
		}

		opts, err := database.ParseQuery(r.URL.Query(), database.CourseQueryFields)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		page, err := h.courses.List(r.Context(), opts)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "courses", err))
			return
		}
		h.responder.WritePage(w, len(page.Items), page.Pagination, page.Items)
	}
}

// getCourse returns a single course with a field-limited reference to its
// bootcamp.
func (h courseHandler) getCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "courseID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid course id"))
			return
		}

		course, err := h.courses.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "course", err))
			return
		}
		if course == nil {
			h.responder.WriteError(w, errs.NewNotFound("course", id))
			return
		}

		h.responder.WriteData(w, http.StatusOK, course)
	}
}

type courseRequest struct {
	Title                string  `json:"title" validate:"required"`
	Description          string  `json:"description" validate:"required"`
	Weeks                string  `json:"weeks" validate:"required"`
	Tuition              float64 `json:"tuition" validate:"required,gt=0"`
	MinimumSkill         string  `json:"minimumSkill" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable bool    `json:"scholarshipAvailable"`
}

// addCourse creates a course under a bootcamp. The caller must own the
// bootcamp (or be an admin); the bootcamp's average cost is recomputed
// afterwards.
func (h courseHandler) addCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		bootcampID, err := uuid.Parse(chi.URLParam(r, "bootcampID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid bootcamp id"))
			return
		}

		bootcamp, err := h.bootcamps.FindByID(r.Context(), bootcampID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "bootcamp", err))
			return
		}
		if bootcamp == nil {
			h.responder.WriteError(w, errs.NewNotFound("bootcamp", bootcampID))
			return
		}
		if !canModify(user, bootcamp.UserID) {
			h.responder.WriteError(w, errs.NewNotOwnerError("bootcamp"))
			return
		}

		var req courseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		course := models.Course{
			Title:                req.Title,
			Description:          req.Description,
			Weeks:                req.Weeks,
			Tuition:              req.Tuition,
			MinimumSkill:         req.MinimumSkill,
			ScholarshipAvailable: req.ScholarshipAvailable,
			BootcampID:           bootcampID,
			UserID:               user.ID,
		}

		if err := h.courses.Add(r.Context(), &course); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "course", err))
			return
		}
		if err := h.courses.RecomputeAverageCost(r.Context(), bootcampID); err != nil {
			h.logger.Error().Err(err).Str("bootcampID", bootcampID.String()).Msg("recomputing average cost")
		}

		h.responder.WriteData(w, http.StatusCreated, course)
	}
}

type courseUpdateRequest struct {
	Title                *string  `json:"title"`
	Description          *string  `json:"description"`
	Weeks                *string  `json:"weeks"`
	Tuition              *float64 `json:"tuition" validate:"omitempty,gt=0"`
	MinimumSkill         *string  `json:"minimumSkill" validate:"omitempty,oneof=beginner intermediate advanced"`
	ScholarshipAvailable *bool    `json:"scholarshipAvailable"`
}

// updateCourse partially updates a course owned by the caller and
// recomputes the bootcamp's average cost.
func (h courseHandler) updateCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "courseID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid course id"))
			return
		}

		course, err := h.courses.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "course", err))
			return
		}
		if course == nil {
			h.responder.WriteError(w, errs.NewNotFound("course", id))
			return
		}
		if !canModify(user, course.UserID) {
			h.responder.WriteError(w, errs.NewNotOwnerError("course"))
			return
		}

		var req courseUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		if req.Title != nil {
			course.Title = *req.Title
		}
		if req.Description != nil {
			course.Description = *req.Description
		}
		if req.Weeks != nil {
			course.Weeks = *req.Weeks
		}
		if req.Tuition != nil {
			course.Tuition = *req.Tuition
		}
		if req.MinimumSkill != nil {
			course.MinimumSkill = *req.MinimumSkill
		}
		if req.ScholarshipAvailable != nil {
			course.ScholarshipAvailable = *req.ScholarshipAvailable
		}
		course.Bootcamp = nil

		if err := h.courses.Update(r.Context(), course); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "course", err))
			return
		}
		if err := h.courses.RecomputeAverageCost(r.Context(), course.BootcampID); err != nil {
			h.logger.Error().Err(err).Str("bootcampID", course.BootcampID.String()).Msg("recomputing average cost")
		}

		h.responder.WriteData(w, http.StatusOK, course)
	}
}

// deleteCourse removes a course owned by the caller and recomputes the
// bootcamp's average cost over the remaining courses.
func (h courseHandler) deleteCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "courseID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid course id"))
			return
		}

		course, err := h.courses.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "course", err))
			return
		}
		if course == nil {
			h.responder.WriteError(w, errs.NewNotFound("course", id))
			return
		}
		if !canModify(user, course.UserID) {
			h.responder.WriteError(w, errs.NewNotOwnerError("course"))
			return
		}

		if err := h.courses.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "course", err))
			return
		}
		if err := h.courses.RecomputeAverageCost(r.Context(), course.BootcampID); err != nil {
			h.logger.Error().Err(err).Str("bootcampID", course.BootcampID.String()).Msg("recomputing average cost")
		}

		h.responder.WriteData(w, http.StatusOK, struct{}{})
	}
}
