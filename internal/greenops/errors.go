package greenops

type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors returned by this package.
var (
	// ErrInvalidUnit is returned for a carbon unit that cannot be normalised to kg.
	ErrInvalidUnit = constError("invalid carbon unit")

	// ErrNegativeValue is returned for negative carbon amounts.
	ErrNegativeValue = constError("negative carbon value")

	// ErrCalculationOverflow is returned when an input or result is not finite.
	ErrCalculationOverflow = constError("calculation overflow")

	// ErrUnknownEquivalency is returned when decoding an unrecognised comparison name.
	ErrUnknownEquivalency = constError("unknown equivalency type")
)
