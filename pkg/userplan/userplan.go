package userplan

import (
	"time"

	"github.com/google/uuid"

	"github.com/miplata/core/pkg/plans"
)

// UserPlan binds a user to their subscription plan, with denormalized
// copies of the plan's limit map and permission set so entitlement checks
// never re-join plan tables.
type UserPlan struct {
	UserID      uuid.UUID                `json:"user_id"`
	PlanID      string                   `json:"plan_id"`
	PlanName    string                   `json:"plan_name"`
	PlanRank    int                      `json:"plan_rank"`
	Limits      map[plans.LimitKey]int64 `json:"limits"`
	Permissions []plans.PermissionKey    `json:"permissions"`
	UpdatedAt   time.Time                `json:"updated_at"`
}
