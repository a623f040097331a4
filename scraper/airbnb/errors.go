package airbnb

import "errors"

var (
	ErrMissingAPIKey  = errors.New("search API key is required (set AIRBNB_API_KEY or enable airbnb.discoverKey)")
	ErrAPIKeyNotFound = errors.New("no API key found in page source")
)
