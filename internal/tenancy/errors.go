package tenancy

import "errors"

// Terminal policy decisions. None of these is retryable: a denial holds for
// the whole request and is never downgraded to a wider scope.
var (
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrBuildingRequired = errors.New("buildingId is required")
	ErrBuildingDenied   = errors.New("building access denied")
	ErrScopeMissing     = errors.New("resident scope missing")
	ErrRoleNotAllowed   = errors.New("role not allowed")
)
