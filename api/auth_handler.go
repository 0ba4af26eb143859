package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/database"
	"github.com/Brosquire/nodemaster/errs"
	"github.com/Brosquire/nodemaster/models"
	"github.com/Brosquire/nodemaster/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	cfg       *config.Config
	users     *database.UserRepo
	mailer    services.Mailer
}

func newAuthHandler(users *database.UserRepo, mailer services.Mailer, cfg *config.Config) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()
	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		cfg:       cfg,
		users:     users,
		mailer:    mailer,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user publisher"`
}

// register creates an account and responds with a signed token.
func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
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

		h.sendTokenResponse(w, &user, http.StatusCreated)
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// login verifies credentials and responds with a signed token.
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError("please provide an email and password"))
			return
		}

		user, err := h.users.FindByEmail(r.Context(), req.Email)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "user", err))
			return
		}
		if user == nil || !user.MatchPassword(req.Password) {
			h.responder.WriteError(w, errs.NewUnauthorizedError("invalid credentials"))
			return
		}

		h.sendTokenResponse(w, user, http.StatusOK)
	}
}

// me returns the authenticated principal.
func (h authHandler) me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}
		h.responder.WriteData(w, http.StatusOK, user)
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// forgotPassword generates a reset token, stores its digest with an expiry
// and emails the raw token to the account's address.
func (h authHandler) forgotPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		user, err := h.users.FindByEmail(r.Context(), req.Email)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "user", err))
			return
		}
		if user == nil {
			h.responder.WriteError(w, errs.NewNotFound("user", req.Email))
			return
		}

		rawToken, err := user.NewResetToken()
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalError("generating reset token", err))
			return
		}
		if err := h.users.Update(r.Context(), user); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "user", err))
			return
		}

		resetURL := fmt.Sprintf("%s/api/v1/auth/resetpassword/%s", requestBaseURL(r), rawToken)
		message := fmt.Sprintf("You are receiving this email because you (or someone else) requested a password reset. Make a PUT request to:\n\n%s", resetURL)

		if err := h.mailer.Send(r.Context(), user.Email, "Password reset token", message); err != nil {
			// The stored token is useless if the email never went out.
			user.ClearResetToken()
			if updateErr := h.users.Update(r.Context(), user); updateErr != nil {
				h.logger.Error().Err(updateErr).Msg("clearing reset token after failed email")
			}
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteData(w, http.StatusOK, "Email sent")
	}
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// resetPassword matches a non-expired reset token, sets the new password
// and clears the token pair.
func (h authHandler) resetPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		hashed := models.HashResetToken(chi.URLParam(r, "resettoken"))
		user, err := h.users.FindByResetToken(r.Context(), hashed)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "user", err))
			return
		}
		if user == nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid token"))
			return
		}

		if err := user.SetPassword(req.Password); err != nil {
			h.responder.WriteError(w, errs.NewInternalError("hashing password", err))
			return
		}
		user.ClearResetToken()
		if err := h.users.Update(r.Context(), user); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "user", err))
			return
		}

		h.sendTokenResponse(w, user, http.StatusOK)
	}
}

// sendTokenResponse signs a token, sets it as an HttpOnly cookie and
// returns it in the body as {success, token}.
func (h authHandler) sendTokenResponse(w http.ResponseWriter, user *models.User, status int) {
	token, err := signToken(user, h.cfg)
	if err != nil {
		h.responder.WriteError(w, errs.NewInternalError("signing token", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.JWTCookieExpire),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})

	h.responder.writeJSON(w, status, envelope{Success: true, Token: token})
}

// requestBaseURL reconstructs the externally visible scheme://host.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
