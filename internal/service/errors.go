package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks an upstream payload that could not be normalized.
	ErrValidation = errors.New("invalid upstream weather payload")
	// ErrUpstream marks any failure talking to the upstream weather API other than an unknown city.
	ErrUpstream = errors.New("weather provider request failed")
	// ErrStore marks a history store failure.
	ErrStore = errors.New("history store request failed")
)

// CityNotFoundError is returned when the upstream API does not know the requested city.
type CityNotFoundError struct {
	City string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("city '%s' not found", e.City)
}
