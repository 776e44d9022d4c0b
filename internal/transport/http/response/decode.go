package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

// DecodeJSON decodes a single JSON value from the request body into dst.
// Unknown fields are ignored; trailing values are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return decodeErr(err)
	}

	// Disallow trailing data: {}{}
	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return decodeErr(err)
	}

	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}

func decodeErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.ErrBodyTooLarge()
	}
	return domain.ErrInvalidJSON(err)
}
