package lifecycle

import "errors"

var (
	// ErrPublisherMissing is returned when a filed record references a publisher that no longer exists.
	ErrPublisherMissing = errors.New("lifecycle: publisher referenced by record is missing")
	// ErrNoActivePeriod indicates that no service month is open.
	ErrNoActivePeriod = errors.New("lifecycle: no active period")
	// ErrPeriodNotFound indicates an unknown period key.
	ErrPeriodNotFound = errors.New("lifecycle: period not found")
	// ErrPeriodClosed blocks edits to a period that is already done.
	ErrPeriodClosed = errors.New("lifecycle: period is closed")
	// ErrRecordNotFound indicates an unknown record identifier.
	ErrRecordNotFound = errors.New("lifecycle: record not found")
	// ErrAttendanceNotFound indicates an unknown attendance group.
	ErrAttendanceNotFound = errors.New("lifecycle: attendance group not found")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("lifecycle: invalid input")
	// ErrSyncDisabled is returned by manual sync requests while online reporting is off.
	ErrSyncDisabled = errors.New("lifecycle: online reporting is disabled")
)
