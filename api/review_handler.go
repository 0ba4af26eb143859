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

type reviewHandler struct {
	responder Responder
	logger    zerolog.Logger
	reviews   *database.ReviewRepo
	bootcamps *database.BootcampRepo
}

func newReviewHandler(reviews *database.ReviewRepo, bootcamps *database.BootcampRepo) reviewHandler {
	logger := log.With().Str("handlerName", "reviewHandler").Logger()
	return reviewHandler{
		responder: NewResponder(logger),
		logger:    logger,
		reviews:   reviews,
		bootcamps: bootcamps,
	}
}

// getReviews serves both the top-level review listing (filtered, paginated)
// and the nested listing of one bootcamp's reviews.
func (h reviewHandler) getReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := chi.URLParam(r, "bootcampID"); raw != "" {
			bootcampID, err := uuid.Parse(raw)
			if err != nil {
				h.responder.WriteError(w, errs.NewBadRequestError("invalid bootcamp id"))
				return
			}
			reviews, err := h.reviews.ListByBootcamp(r.Context(), bootcampID)
			if err != nil {
				h.responder.WriteError(w, errs.NewDatabaseError("list", "reviews", err))
				return
			}
			h.responder.WriteCollection(w, len(reviews), reviews)
			return
		}

		opts, err := database.ParseQuery(r.URL.Query(), database.ReviewQueryFields)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		page, err := h.reviews.List(r.Context(), opts)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "reviews", err))
			return
		}
		h.responder.WritePage(w, len(page.Items), page.Pagination, page.Items)
	}
}

// getReview returns a single review with a field-limited reference to its
// bootcamp.
func (h reviewHandler) getReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "reviewID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid review id"))
			return
		}

		review, err := h.reviews.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "review", err))
			return
		}
		if review == nil {
			h.responder.WriteError(w, errs.NewNotFound("review", id))
			return
		}

		h.responder.WriteData(w, http.StatusOK, review)
	}
}

type reviewRequest struct {
	Title  string `json:"title" validate:"required,max=100"`
	Text   string `json:"text" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=10"`
}

// addReview creates a review of a bootcamp by the caller. A second review
// of the same bootcamp by the same user is rejected as a duplicate. The
// bootcamp's average rating is recomputed afterwards.
func (h reviewHandler) addReview() http.HandlerFunc {
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

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		review := models.Review{
			Title:      req.Title,
			Text:       req.Text,
			Rating:     req.Rating,
			BootcampID: bootcampID,
			UserID:     user.ID,
		}

		if err := h.reviews.Add(r.Context(), &review); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "review", err))
			return
		}
		if err := h.reviews.RecomputeAverageRating(r.Context(), bootcampID); err != nil {
			h.logger.Error().Err(err).Str("bootcampID", bootcampID.String()).Msg("recomputing average rating")
		}

		h.responder.WriteData(w, http.StatusCreated, review)
	}
}

type reviewUpdateRequest struct {
	Title  *string `json:"title" validate:"omitempty,max=100"`
	Text   *string `json:"text"`
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=10"`
}

// updateReview partially updates a review written by the caller and
// recomputes the bootcamp's average rating.
func (h reviewHandler) updateReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "reviewID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid review id"))
			return
		}

		review, err := h.reviews.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "review", err))
			return
		}
		if review == nil {
			h.responder.WriteError(w, errs.NewNotFound("review", id))
			return
		}
		if !canModify(user, review.UserID) {
			h.responder.WriteError(w, errs.NewNotOwnerError("review"))
			return
		}

		var req reviewUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		if req.Title != nil {
			review.Title = *req.Title
		}
		if req.Text != nil {
			review.Text = *req.Text
		}
		if req.Rating != nil {
			review.Rating = *req.Rating
		}
		review.Bootcamp = nil

		if err := h.reviews.Update(r.Context(), review); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "review", err))
			return
		}
		if err := h.reviews.RecomputeAverageRating(r.Context(), review.BootcampID); err != nil {
			h.logger.Error().Err(err).Str("bootcampID", review.BootcampID.String()).Msg("recomputing average rating")
		}

		h.responder.WriteData(w, http.StatusOK, review)
	}
}

// deleteReview removes a review written by the caller and recomputes the
// bootcamp's average rating over the remaining reviews.
func (h reviewHandler) deleteReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "reviewID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid review id"))
			return
		}

		review, err := h.reviews.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "review", err))
			return
		}
		if review == nil {
			h.responder.WriteError(w, errs.NewNotFound("review", id))
			return
		}
		if !canModify(user, review.UserID) {
			h.responder.WriteError(w, errs.NewNotOwnerError("review"))
			return
		}

		if err := h.reviews.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "review", err))
			return
		}
		if err := h.reviews.RecomputeAverageRating(r.Context(), review.BootcampID); err != nil {
			h.logger.Error().Err(err).Str("bootcampID", review.BootcampID.String()).Msg("recomputing average rating")
		}

		h.responder.WriteData(w, http.StatusOK, struct{}{})
	}
}
