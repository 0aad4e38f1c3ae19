// Package businessflow contains the coverage, quoting and zone administration use cases
package businessflow

import (
	"errors"
	"fmt"

	"github.com/amirphl/delivery-zones/geo"
)

// Business flow error constants
var (
	// Coordinate and quote input errors
	ErrInvalidCoordinate = geo.ErrInvalidCoordinate
	ErrNegativeAmount    = errors.New("weight and order amount must not be negative")
	ErrQuoteTimeRequired = errors.New("quote time is required")
	ErrInvalidQuoteTime  = errors.New("quote time must be RFC3339")

	// Zone configuration invariants
	ErrOverlappingTier             = errors.New("tier range overlaps an existing active tier")
	ErrDuplicateScheduleEntry      = errors.New("schedule entry already exists for this weekday")
	ErrDuplicateExceptionEntry     = errors.New("date exception already exists for this date and type")
	ErrDuplicateDistrictAssignment = errors.New("district is already assigned to this zone")
	ErrZoneNameExists              = errors.New("zone name already exists")

	// Zone configuration validation errors
	ErrInvalidGeometry         = errors.New("zone geometry is invalid")
	ErrInvalidTierRange        = errors.New("tier range is invalid")
	ErrInvalidDistrict         = errors.New("district id is required")
	ErrInvalidPriority         = errors.New("priority must be 1, 2 or 3")
	ErrInvalidWeekday          = errors.New("weekday must be between 0 and 6")
	ErrInvalidTimeWindow       = errors.New("time window is invalid")
	ErrInvalidDate             = errors.New("date must be YYYY-MM-DD")
	ErrInvalidExceptionType    = errors.New("date exception type is invalid")
	ErrInvalidExceptionPayload = errors.New("date exception payload does not match its type")

	// Not found errors
	ErrZoneNotFound               = errors.New("zone not found")
	ErrTierNotFound               = errors.New("cost tier not found")
	ErrScheduleNotFound           = errors.New("schedule entry not found")
	ErrExceptionNotFound          = errors.New("date exception not found")
	ErrDistrictAssignmentNotFound = errors.New("district assignment not found")

	// Address validation errors
	ErrInvalidAddressID      = errors.New("address id is required")
	ErrAddressNotFound       = errors.New("address has not been validated")
	ErrRevalidationTooLarge  = errors.New("revalidation request selects too many addresses")
	ErrNoRevalidationReport  = errors.New("no revalidation has run yet")
	ErrRevalidationLockBusy  = errors.New("another revalidation is running")
	ErrInvalidRevalidateTime = errors.New("validated_before must be RFC3339")

	// Admin errors
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminInactive     = errors.New("admin account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	ErrCacheNotAvailable = errors.New("cache not available")
	ErrInvalidPage       = errors.New("invalid page")
	ErrInvalidPageSize   = errors.New("invalid page size")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsInvalidCoordinate(err error) bool {
	return errors.Is(err, ErrInvalidCoordinate)
}

func IsNegativeAmount(err error) bool {
	return errors.Is(err, ErrNegativeAmount)
}

func IsOverlappingTier(err error) bool {
	return errors.Is(err, ErrOverlappingTier)
}

func IsDuplicateScheduleEntry(err error) bool {
	return errors.Is(err, ErrDuplicateScheduleEntry)
}

func IsDuplicateExceptionEntry(err error) bool {
	return errors.Is(err, ErrDuplicateExceptionEntry)
}

func IsDuplicateDistrictAssignment(err error) bool {
	return errors.Is(err, ErrDuplicateDistrictAssignment)
}

func IsZoneNameExists(err error) bool {
	return errors.Is(err, ErrZoneNameExists)
}

func IsZoneNotFound(err error) bool {
	return errors.Is(err, ErrZoneNotFound)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsAddressNotFound(err error) bool {
	return errors.Is(err, ErrAddressNotFound)
}

func IsNoRevalidationReport(err error) bool {
	return errors.Is(err, ErrNoRevalidationReport)
}

func IsRevalidationLockBusy(err error) bool {
	return errors.Is(err, ErrRevalidationLockBusy)
}

// IsNotFound reports whether err is any of the not-found sentinels
func IsNotFound(err error) bool {
	return errors.Is(err, ErrZoneNotFound) ||
		errors.Is(err, ErrTierNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrExceptionNotFound) ||
		errors.Is(err, ErrDistrictAssignmentNotFound) ||
		errors.Is(err, ErrAddressNotFound)
}

// IsConflict reports whether err violates a uniqueness or disjointness invariant
func IsConflict(err error) bool {
	return IsOverlappingTier(err) ||
		IsDuplicateScheduleEntry(err) ||
		IsDuplicateExceptionEntry(err) ||
		IsDuplicateDistrictAssignment(err) ||
		IsZoneNameExists(err)
}

// IsValidation reports whether err is caused by invalid caller input
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidCoordinate, ErrNegativeAmount, ErrQuoteTimeRequired, ErrInvalidQuoteTime,
		ErrInvalidGeometry, ErrInvalidTierRange, ErrInvalidDistrict, ErrInvalidPriority, ErrInvalidWeekday,
		ErrInvalidTimeWindow, ErrInvalidDate, ErrInvalidExceptionType, ErrInvalidExceptionPayload,
		ErrInvalidAddressID, ErrRevalidationTooLarge, ErrInvalidRevalidateTime,
		ErrInvalidPage, ErrInvalidPageSize,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
