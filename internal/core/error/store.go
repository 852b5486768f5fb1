package errx

import "net/http"

// WrapStore wraps a persistence failure with a generic safe message. The
// original cause stays attached for logging and errors.Is checks.
func WrapStore(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, StoreErrorMessage)
}
