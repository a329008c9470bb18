// Where: internal/template/errors.go
// What: Error kinds raised while rendering a template.
// Why: Let callers assert failure categories with errors.Is.
package template

import (
	"errors"
	"fmt"
)

// Every failure inside the renderer wraps exactly one of these kinds.
// Nothing is caught and suppressed internally except the documented
// enhanced Fn::FindInMap default fallback.
var (
	// ErrShape marks a wrong argument type or arity passed to an
	// intrinsic function.
	ErrShape = errors.New("invalid argument shape")

	// ErrReference marks an unknown parameter, resource, condition,
	// pseudo variable, export or dynamic-reference key.
	ErrReference = errors.New("unknown reference")

	// ErrConstraint marks a parameter value failing its declared
	// type, pattern, length or bound checks.
	ErrConstraint = errors.New("parameter constraint violated")

	// ErrNotAllowed marks an intrinsic function used in a position
	// where CloudFormation forbids it.
	ErrNotAllowed = errors.New("function not allowed here")

	// ErrUnsupported marks unimplemented functions, unknown transforms
	// and unsupported parameter types.
	ErrUnsupported = errors.New("unsupported feature")

	// ErrLookup marks a failed Mappings lookup.
	ErrLookup = errors.New("lookup failed")

	// ErrConversion marks a failed Fn::Cidr subnet computation.
	ErrConversion = errors.New("conversion failed")
)

func shapeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrShape, fmt.Sprintf(format, args...))
}

func referenceErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrReference, fmt.Sprintf(format, args...))
}

func constraintErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstraint, fmt.Sprintf(format, args...))
}

func notAllowedErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotAllowed, fmt.Sprintf(format, args...))
}

func unsupportedErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

func lookupErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLookup, fmt.Sprintf(format, args...))
}

func conversionErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConversion, fmt.Sprintf(format, args...))
}
