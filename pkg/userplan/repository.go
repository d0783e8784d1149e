package userplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/miplata/core/pkg/plans"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DB is the slice of pgxpool.Pool the repository needs; pgxmock satisfies
// it for tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository resolves and mutates the user -> plan binding. Reads return
// the binding denormalized from the catalog; writes validate the target
// plan against the catalog before touching the row.
type Repository struct {
	db      DB
	catalog *plans.Catalog
}

// NewRepository creates a user plan repository over db and catalog.
func NewRepository(db DB, catalog *plans.Catalog) *Repository {
	return &Repository{db: db, catalog: catalog}
}

// Get returns the user's plan binding, with limits and permissions copied
// from the catalog definition of their current plan.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (UserPlan, error) {
	query := psql.Select("plan_id", "updated_at").
		From("users").
		Where(sq.Eq{"id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return UserPlan{}, err
	}

	var planID string
	var updatedAt time.Time
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&planID, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserPlan{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return UserPlan{}, err
	}

	plan, err := r.catalog.Get(planID)
	if err != nil {
		// The row references a plan the catalog no longer defines.
		return UserPlan{}, err
	}

	return UserPlan{
		UserID:      userID,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		PlanRank:    plan.Rank,
		Limits:      plan.Limits,
		Permissions: plan.Permissions,
		UpdatedAt:   updatedAt,
	}, nil
}

// ResolvePlan returns the catalog plan the user is currently on. It is the
// evaluator's PlanResolver.
func (r *Repository) ResolvePlan(ctx context.Context, userID uuid.UUID) (plans.Plan, error) {
	up, err := r.Get(ctx, userID)
	if err != nil {
		return plans.Plan{}, err
	}
	return r.catalog.Get(up.PlanID)
}

// SetPlan moves the user to another plan. Called only from payment
// confirmation or an administrative change.
func (r *Repository) SetPlan(ctx context.Context, userID uuid.UUID, planID string) error {
	if _, err := r.catalog.Get(planID); err != nil {
		return err
	}

	query := psql.Update("users").
		Set("plan_id", planID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

// Email returns the user's contact address, used for quota alerts.
func (r *Repository) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	query := psql.Select("email").
		From("users").
		Where(sq.Eq{"id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return "", err
	}

	var email string
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return "", err
	}
	return email, nil
}
