package models

import "errors"

var (
	// ErrRateLimited marks a provider response that may succeed if retried later.
	ErrRateLimited = errors.New("rate limited")

	ErrMalformedHistogram = errors.New("malformed price histogram")
	ErrEmptyHistogram     = errors.New("price histogram has no listings")
	ErrCityNotFound       = errors.New("city not found")
	ErrInvalidParams      = errors.New("invalid search parameters")
)
