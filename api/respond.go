package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Brosquire/nodemaster/database"
	"github.com/Brosquire/nodemaster/errs"
	"github.com/rs/zerolog"
)

// envelope is the uniform response body: {success, data?, count?,
// pagination?, token?, msg?}.
type envelope struct {
	Success    bool                 `json:"success"`
	Count      *int                 `json:"count,omitempty"`
	Pagination *database.Pagination `json:"pagination,omitempty"`
	Data       any                  `json:"data,omitempty"`
	Token      string               `json:"token,omitempty"`
	Msg        string               `json:"msg,omitempty"`
}

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// WriteData writes {success:true, data}.
func (r Responder) WriteData(w http.ResponseWriter, status int, data any) {
	r.writeJSON(w, status, envelope{Success: true, Data: data})
}

// WriteCollection writes {success:true, count, data} for unpaginated listings.
func (r Responder) WriteCollection(w http.ResponseWriter, count int, data any) {
	r.writeJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: data})
}

// WritePage writes {success:true, count, pagination, data} for one page of
// a listing. Count is the number of items on the page, not the total.
func (r Responder) WritePage(w http.ResponseWriter, count int, pagination database.Pagination, data any) {
	r.writeJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Pagination: &pagination, Data: data})
}

// WriteError maps an *errs.ApiErr onto its status code and the error
// envelope. Anything else is unexpected: it is logged in full and surfaces
// as a bare 500 so internals never reach the client.
func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Msg: "Server Error"})
		return
	}

	if apiErr.Cause != nil {
		r.logger.Error().Err(apiErr.Cause).Int("status", apiErr.StatusCode).Msg(apiErr.Error())
	}
	r.writeJSON(w, apiErr.StatusCode, envelope{Success: false, Msg: apiErr.Error()})
}
