package planner

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError means the options were malformed; the request never
// reached candidate selection. The API maps it to a 4xx problem.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ErrNoCandidates: the radius+criteria query produced nothing and no
// required venues were given.
var ErrNoCandidates = errors.New("no venues within the search radius match the criteria")

// InsufficientVenuesError: fewer feasible venues than minVenues. No
// partial route is ever returned.
type InsufficientVenuesError struct {
	Need, Have int
}

func (e *InsufficientVenuesError) Error() string {
	return fmt.Sprintf("route needs at least %d venues but only %d are feasible", e.Need, e.Have)
}

// InfeasibleWindowError: a venue that must stay in the route is closed at
// its assigned visit instant.
type InfeasibleWindowError struct {
	VenueName string
	At        time.Time
}

func (e *InfeasibleWindowError) Error() string {
	return fmt.Sprintf("%s is closed at the planned visit time %s", e.VenueName, e.At.Format(time.RFC3339))
}

// TourTooLongError: even the smallest admissible route exceeds the time
// budget.
type TourTooLongError struct {
	Elapsed, Budget time.Duration
}

func (e *TourTooLongError) Error() string {
	return fmt.Sprintf("tour takes %s, exceeding the %s budget", e.Elapsed.Round(time.Minute), e.Budget)
}

// ResultMessage returns the user-facing message for result-level
// failures, the ones callers surface in the response errors array.
// Validation and upstream failures are not result errors and return
// false.
func ResultMessage(err error) (string, bool) {
	var insuff *InsufficientVenuesError
	var window *InfeasibleWindowError
	var long *TourTooLongError
	switch {
	case errors.Is(err, ErrNoCandidates),
		errors.As(err, &insuff),
		errors.As(err, &window),
		errors.As(err, &long):
		return err.Error(), true
	}
	return "", false
}
