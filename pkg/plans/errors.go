package plans

import "errors"

// Catalog errors. All of these indicate configuration or programming
// problems, not user-facing denials.
var (
	ErrPlanNotFound         = errors.New("plans: plan not found")
	ErrInvalidLimitKey      = errors.New("plans: invalid limit key")
	ErrInvalidPermissionKey = errors.New("plans: invalid permission key")
	ErrLimitNotConfigured   = errors.New("plans: limit not configured for plan")
	ErrInvalidConfiguration = errors.New("plans: invalid plan configuration")
	ErrFailedToLoadPlans    = errors.New("plans: failed to load plans")
)
