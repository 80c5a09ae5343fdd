package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes caps request bodies unless a handler asks for more
const DefaultMaxBodyBytes int64 = 2_500_000

var (
	ErrBodyTooLarge = errors.New("request body too large")
	ErrInvalidBody  = errors.New("invalid request body")
)

// DecodeJSON reads at most maxBytes from the request body into dst.
// An empty body leaves dst untouched and is not an error, so handlers can
// apply their own "missing field" validation.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrBodyTooLarge
	}
	return ErrInvalidBody
}

// RespondDecodeError translates a DecodeJSON error into a response
func RespondDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		RespondErrorWithCode(w, "request body too large", CodeBodyTooLarge, http.StatusRequestEntityTooLarge)
		return
	}
	RespondErrorWithCode(w, "invalid request body", CodeInvalidRequestBody, http.StatusBadRequest)
}
