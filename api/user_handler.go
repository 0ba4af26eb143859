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

// userHandler serves the admin-only account management routes.
type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	users     *database.UserRepo
}

func newUserHandler(users *database.UserRepo) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()
	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		users:     users,
	}
}

// getUsers lists accounts with filtering, projection, sorting and
// pagination driven by the query string.
func (h userHandler) getUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := database.ParseQuery(r.URL.Query(), database.UserQueryFields)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		page, err := h.users.List(r.Context(), opts)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "users", err))
			return
		}

		h.responder.WritePage(w, len(page.Items), page.Pagination, page.Items)
	}
}

// getUser returns a single account by id.
func (h userHandler) getUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid user id"))
			return
		}

		user, err := h.users.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "user", err))
			return
		}
		if user == nil {
			h.responder.WriteError(w, errs.NewNotFound("user", id))
			return
		}

		h.responder.WriteData(w, http.StatusOK, user)
	}
}

type userRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user publisher admin"`
}

// createUser adds an account. Unlike registration this route may assign
// any role, including admin.
func (h userHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		user := models.User{
			Name:  req.Name,
			Email: req.Email,
			Role:  req.Role,
		}
		if err := user.SetPassword(req.Password); err != nil {
			h.responder.WriteError(w, errs.NewInternalError("hashing password", err))
			return
		}

		if err := h.users.Add(r.Context(), &user); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "user", err))
			return
		}

		h.responder.WriteData(w, http.StatusCreated, user)
	}
}

type userUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=user publisher admin"`
}

// updateUser partially updates an account.
func (h userHandler) updateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid user id"))
			return
		}

		user, err := h.users.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "user", err))
			return
		}
		if user == nil {
			h.responder.WriteError(w, errs.NewNotFound("user", id))
			return
		}

		var req userUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Email != nil {
			user.Email = *req.Email
		}
		if req.Password != nil {
			if err := user.SetPassword(*req.Password); err != nil {
				h.responder.WriteError(w, errs.NewInternalError("hashing password", err))
				return
			}
		}
		if req.Role != nil {
			user.Role = *req.Role
		}

		if err := h.users.Update(r.Context(), user); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "user", err))
			return
		}

		h.responder.WriteData(w, http.StatusOK, user)
	}
}

// deleteUser removes an account by id.
func (h userHandler) deleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid user id"))
			return
		}

		if err := h.users.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "user", err))
			return
		}

		h.responder.WriteData(w, http.StatusOK, struct{}{})
	}
}
