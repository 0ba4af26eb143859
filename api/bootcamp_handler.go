package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/database"
	"github.com/Brosquire/nodemaster/errs"
	"github.com/Brosquire/nodemaster/models"
	"github.com/Brosquire/nodemaster/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

type bootcampHandler struct {
	responder Responder
	logger    zerolog.Logger
	cfg       *config.Config
	bootcamps *database.BootcampRepo
	geocoder  services.Geocoder
}

func newBootcampHandler(bootcamps *database.BootcampRepo, geocoder services.Geocoder, cfg *config.Config) bootcampHandler {
	logger := log.With().Str("handlerName", "bootcampHandler").Logger()
	return bootcampHandler{
		responder: NewResponder(logger),
		logger:    logger,
		cfg:       cfg,
		bootcamps: bootcamps,
		geocoder:  geocoder,
	}
}

// getBootcamps lists bootcamps with filtering, projection, sorting and
// pagination driven by the query string.
func (h bootcampHandler) getBootcamps() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := database.ParseQuery(r.URL.Query(), database.BootcampQueryFields)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		page, err := h.bootcamps.List(r.Context(), opts)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "bootcamps", err))
			return
		}

		h.responder.WritePage(w, len(page.Items), page.Pagination, page.Items)
	}
}

// getBootcamp returns a single bootcamp by id.
func (h bootcampHandler) getBootcamp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "bootcampID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid bootcamp id"))
			return
		}

		bootcamp, err := h.bootcamps.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "bootcamp", err))
			return
		}
		if bootcamp == nil {
			h.responder.WriteError(w, errs.NewNotFound("bootcamp", id))
			return
		}

		h.responder.WriteData(w, http.StatusOK, bootcamp)
	}
}

type bootcampRequest struct {
	Name          string   `json:"name" validate:"required,max=50"`
	Description   string   `json:"description" validate:"required,max=500"`
	Website       string   `json:"website" validate:"omitempty,url"`
	Phone         string   `json:"phone" validate:"omitempty,max=20"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Address       string   `json:"address" validate:"required"`
	Careers       []string `json:"careers" validate:"required,min=1,dive,oneof='Web Development' 'Mobile Development' 'UI/UX' 'Data Science' 'Business' 'Other'"`
	Housing       bool     `json:"housing"`
	JobAssistance bool     `json:"jobAssistance"`
	JobGuarantee  bool     `json:"jobGuarantee"`
	AcceptGi      bool     `json:"acceptGi"`
}

// createBootcamp adds a bootcamp owned by the caller. The submitted address
// is geocoded into a structured location and never stored raw. A publisher
// may own at most one bootcamp; admins are exempt.
func (h bootcampHandler) createBootcamp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		var req bootcampRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		if user.Role != models.RoleAdmin {
			count, err := h.bootcamps.CountByOwner(r.Context(), user.ID)
			if err != nil {
				h.responder.WriteError(w, errs.NewDatabaseError("count", "bootcamps", err))
				return
			}
			if count > 0 {
				h.responder.WriteError(w, errs.NewBadRequestError(
					fmt.Sprintf("the user with ID %s has already published a bootcamp", user.ID)))
				return
			}
		}

		location, err := h.geocoder.Geocode(r.Context(), req.Address)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		bootcamp := models.Bootcamp{
			Name:          req.Name,
			Slug:          models.Slugify(req.Name),
			Description:   req.Description,
			Website:       req.Website,
			Phone:         req.Phone,
			Email:         req.Email,
			Location:      location,
			Careers:       datatypes.NewJSONSlice(req.Careers),
			Housing:       req.Housing,
			JobAssistance: req.JobAssistance,
			JobGuarantee:  req.JobGuarantee,
			AcceptGi:      req.AcceptGi,
			UserID:        user.ID,
		}

		if err := h.bootcamps.Add(r.Context(), &bootcamp); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "bootcamp", err))
			return
		}

		h.responder.WriteData(w, http.StatusCreated, bootcamp)
	}
}

type bootcampUpdateRequest struct {
	Name          *string   `json:"name" validate:"omitempty,max=50"`
	Description   *string   `json:"description" validate:"omitempty,max=500"`
	Website       *string   `json:"website" validate:"omitempty,url"`
	Phone         *string   `json:"phone" validate:"omitempty,max=20"`
	Email         *string   `json:"email" validate:"omitempty,email"`
	Address       *string   `json:"address"`
	Careers       *[]string `json:"careers" validate:"omitempty,min=1,dive,oneof='Web Development' 'Mobile Development' 'UI/UX' 'Data Science' 'Business' 'Other'"`
	Housing       *bool     `json:"housing"`
	JobAssistance *bool     `json:"jobAssistance"`
	JobGuarantee  *bool     `json:"jobGuarantee"`
	AcceptGi      *bool     `json:"acceptGi"`
}

// updateBootcamp partially updates a bootcamp: only fields present in the
// body change. Renaming regenerates the slug; a new address is re-geocoded.
func (h bootcampHandler) updateBootcamp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "bootcampID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid bootcamp id"))
			return
		}

		bootcamp, err := h.bootcamps.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "bootcamp", err))
			return
		}
		if bootcamp == nil {
			h.responder.WriteError(w, errs.NewNotFound("bootcamp", id))
			return
		}
		if !canModify(user, bootcamp.UserID) {
			h.responder.WriteError(w, errs.NewNotOwnerError("bootcamp"))
			return
		}

		var req bootcampUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError(err.Error()))
			return
		}

		if req.Name != nil {
			bootcamp.Name = *req.Name
			bootcamp.Slug = models.Slugify(*req.Name)
		}
		if req.Description != nil {
			bootcamp.Description = *req.Description
		}
		if req.Website != nil {
			bootcamp.Website = *req.Website
		}
		if req.Phone != nil {
			bootcamp.Phone = *req.Phone
		}
		if req.Email != nil {
			bootcamp.Email = *req.Email
		}
		if req.Address != nil {
			location, err := h.geocoder.Geocode(r.Context(), *req.Address)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			bootcamp.Location = location
		}
		if req.Careers != nil {
			bootcamp.Careers = datatypes.NewJSONSlice(*req.Careers)
		}
		if req.Housing != nil {
			bootcamp.Housing = *req.Housing
		}
		if req.JobAssistance != nil {
			bootcamp.JobAssistance = *req.JobAssistance
		}
		if req.JobGuarantee != nil {
			bootcamp.JobGuarantee = *req.JobGuarantee
		}
		if req.AcceptGi != nil {
			bootcamp.AcceptGi = *req.AcceptGi
		}

		if err := h.bootcamps.Update(r.Context(), bootcamp); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "bootcamp", err))
			return
		}

		h.responder.WriteData(w, http.StatusOK, bootcamp)
	}
}

// deleteBootcamp removes a bootcamp together with all of its courses and
// reviews.
func (h bootcampHandler) deleteBootcamp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "bootcampID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid bootcamp id"))
			return
		}

		bootcamp, err := h.bootcamps.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "bootcamp", err))
			return
		}
		if bootcamp == nil {
			h.responder.WriteError(w, errs.NewNotFound("bootcamp", id))
			return
		}
		if !canModify(user, bootcamp.UserID) {
			h.responder.WriteError(w, errs.NewNotOwnerError("bootcamp"))
			return
		}

		if err := h.bootcamps.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "bootcamp", err))
			return
		}

		h.responder.WriteData(w, http.StatusOK, struct{}{})
	}
}

// getBootcampsInRadius lists bootcamps within a distance (miles) of a
// zipcode. The zipcode is geocoded to a center point first.
func (h bootcampHandler) getBootcampsInRadius() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zipcode := chi.URLParam(r, "zipcode")
		distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
		if err != nil || distance <= 0 {
			h.responder.WriteError(w, errs.NewBadRequestError("distance must be a positive number of miles"))
			return
		}

		center, err := h.geocoder.Geocode(r.Context(), zipcode)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		bootcamps, err := h.bootcamps.WithinRadius(r.Context(), center.Lat, center.Lng, distance)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "bootcamps", err))
			return
		}

		h.responder.WriteCollection(w, len(bootcamps), bootcamps)
	}
}

// uploadPhoto stores an uploaded image for a bootcamp under the configured
// upload directory as photo_<bootcampID><ext> and records the filename.
func (h bootcampHandler) uploadPhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromCtx(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "bootcampID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid bootcamp id"))
			return
		}

		bootcamp, err := h.bootcamps.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "bootcamp", err))
			return
		}
		if bootcamp == nil {
			h.responder.WriteError(w, errs.NewNotFound("bootcamp", id))
			return
		}
		if !canModify(user, bootcamp.UserID) {
			h.responder.WriteError(w, errs.NewNotOwnerError("bootcamp"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxFileUpload)
		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError(
				fmt.Sprintf("please upload an image file smaller than %d bytes", h.cfg.MaxFileUpload)))
			return
		}
		defer file.Close()

		if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
			h.responder.WriteError(w, errs.NewBadRequestError("please upload an image file"))
			return
		}

		filename := fmt.Sprintf("photo_%s%s", bootcamp.ID, filepath.Ext(header.Filename))
		if err := os.MkdirAll(h.cfg.FileUploadPath, 0o755); err != nil {
			h.responder.WriteError(w, errs.NewInternalError("creating upload directory", err))
			return
		}

		dst, err := os.Create(filepath.Join(h.cfg.FileUploadPath, filename))
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalError("storing uploaded photo", err))
			return
		}
		defer dst.Close()
		if _, err := io.Copy(dst, file); err != nil {
			h.responder.WriteError(w, errs.NewInternalError("storing uploaded photo", err))
			return
		}

		if err := h.bootcamps.UpdatePhoto(r.Context(), bootcamp.ID, filename); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "bootcamp", err))
			return
		}

		h.responder.WriteData(w, http.StatusOK, filename)
	}
}
