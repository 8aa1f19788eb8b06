package figmasvgexport

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is the parent of every configuration error.
	ErrConfig = errors.New("invalid configuration")
	// ErrMissingToken is returned when no access token is configured.
	ErrMissingToken = fmt.Errorf("%w: missing Figma access token", ErrConfig)
	// ErrInvalidOption wraps a rejected option value.
	ErrInvalidOption = fmt.Errorf("%w: invalid option", ErrConfig)
	// ErrEmptyScope is returned when explicitly requested nodes contain nothing to export.
	ErrEmptyScope = fmt.Errorf("%w: no exportable nodes in the requested scope", ErrConfig)
	// ErrNoRoots is returned when neither the requested nodes nor any page could be loaded.
	ErrNoRoots = errors.New("no nodes to traverse")
)

// IsConfigError reports whether err was caused by invalid configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

func invalidOption(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOption, fmt.Sprintf(format, args...))
}
