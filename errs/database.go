package errs

import (
	"fmt"
	"net/http"
	"strings"
)

// NewDatabaseError translates a persistence failure into an ApiErr.
// Record-not-found and unique-constraint conditions become client errors;
// everything else is an internal error with the cause preserved for logging.
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("failed to %s %s", operation, entity)

	if cause != nil {
		errStr := cause.Error()
		switch {
		case strings.Contains(errStr, "record not found"):
			return &ApiErr{
				StatusCode: http.StatusNotFound,
				err:        fmt.Errorf("%s %w", entity, ErrNotFound),
				Cause:      cause,
			}
		case strings.Contains(errStr, "duplicate key"),
			strings.Contains(errStr, "duplicated key"),
			strings.Contains(errStr, "UNIQUE constraint failed"):
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        ErrDuplicate,
				Details:    fmt.Sprintf("%s already exists", entity),
				Cause:      cause,
			}
		case strings.Contains(errStr, "invalid input syntax"),
			strings.Contains(errStr, "unable to parse"):
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        ErrBadRequest,
				Details:    details,
				Cause:      cause,
			}
		}
	}

	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrInternal,
		Details:    details,
		Cause:      cause,
	}
}
