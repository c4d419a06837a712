package domain

import "errors"

// ErrValidation is returned when a link cannot be saved as entered.
var ErrValidation = errors.New("validation failed")
