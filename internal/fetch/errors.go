package fetch

import "errors"

var (
	// ErrBodyTooLarge is returned when a response body exceeds the
	// configured maximum size.
	ErrBodyTooLarge = errors.New("response body exceeds maximum size")

	// ErrTooManyRedirects is returned when a request exceeds the
	// configured redirect limit.
	ErrTooManyRedirects = errors.New("stopped after too many redirects")

	// ErrInvalidURL is returned for URLs that are not absolute http or
	// https URLs.
	ErrInvalidURL = errors.New("invalid URL: must be absolute http or https")
)
