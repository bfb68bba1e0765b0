/*
Package req provides helper functions for HTTP request parsing and data binding.

It decodes JSON bodies on the local bridge strictly: the content type must be JSON,
unknown fields and trailing data are rejected, and the body size is capped.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"roomchat/internal/pkg/errs"
)

// MaxBodyBytes caps the size of a bridge request body.
const MaxBodyBytes int64 = 16 << 10 // 16 KB

// BindJSON decodes the JSON body of r into dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
