package progress

import (
	"errors"
	"fmt"

	"iso2god-desktop/internal/domain"
)

// ErrInvalidTransition is returned when a status change is not an edge of the machine.
var ErrInvalidTransition = errors.New("invalid status transition")

// CanTransition reports whether the status machine allows from -> to.
// Leaving COMPLETED or ERROR requires an explicit reset to IDLE.
func CanTransition(from, to domain.ConversionStatus) bool {
	switch from {
	case domain.ConversionStatusIdle:
		return to == domain.ConversionStatusConverting
	case domain.ConversionStatusConverting:
		return to == domain.ConversionStatusCompleted || to == domain.ConversionStatusError
	case domain.ConversionStatusCompleted, domain.ConversionStatusError:
		return to == domain.ConversionStatusIdle
	default:
		return false
	}
}

// IsConverting reports whether status blocks job mutation.
func IsConverting(status domain.ConversionStatus) bool {
	return status == domain.ConversionStatusConverting
}

func transitionError(from, to domain.ConversionStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
