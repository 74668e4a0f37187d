package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedEvent marks an envelope whose topic is not part of
	// the telemetry contract. Callers log it and keep consuming.
	ErrUnrecognizedEvent = errors.New("unrecognized event topic")

	// ErrVehicleNotFound is returned by the vehicle registry client.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrReportNotFound is returned when a report id does not exist.
	ErrReportNotFound = errors.New("report not found")
)

// ValidationError rejects input at the accumulator/recorder boundary:
// unrecognized metric types, negative magnitudes, non-finite values.
// It is never fatal to the consumer; the caller logs and continues.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
