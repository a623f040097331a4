package pipeline

import "errors"

var ErrMissingProvider = errors.New("weather and price providers are required")
