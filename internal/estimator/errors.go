package estimator

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors, comparable with errors.Is.
var (
	// ErrInvalidVehicleType indicates a vehicle type name that is not in the factor table.
	ErrInvalidVehicleType = constError("invalid vehicle type")

	// ErrInvalidTimeRange indicates a time range other than day, week or month.
	ErrInvalidTimeRange = constError("invalid time range")

	// ErrInvalidConfig indicates an estimator configuration that cannot produce sane results.
	ErrInvalidConfig = constError("invalid estimator configuration")
)
