package userplan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miplata/core/pkg/plans"
	"github.com/miplata/core/pkg/userplan"
)

func newRepo(t *testing.T) (*userplan.Repository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	catalog, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(plans.Builtin()))
	require.NoError(t, err)

	return userplan.NewRepository(mock, catalog), mock
}

func TestRepositoryGet(t *testing.T) {
	t.Parallel()

	t.Run("denormalizes plan from catalog", func(t *testing.T) {
		t.Parallel()

		repo, mock := newRepo(t)
		userID := uuid.New()
		updated := time.Now().UTC()

		mock.ExpectQuery(`SELECT plan_id, updated_at FROM users`).
			WithArgs(userID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"plan_id", "updated_at"}).AddRow("premium", updated))

		up, err := repo.Get(context.Background(), userID)
		require.NoError(t, err)

		assert.Equal(t, "premium", up.PlanID)
		assert.Equal(t, "Premium", up.PlanName)
		assert.Equal(t, 2, up.PlanRank)
		assert.Equal(t, int64(10), up.Limits[plans.LimitMaxCards])
		assert.Contains(t, up.Permissions, plans.PermCartolaUpload)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		repo, mock := newRepo(t)
		userID := uuid.New()

		mock.ExpectQuery(`SELECT plan_id, updated_at FROM users`).
			WithArgs(userID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"plan_id", "updated_at"}))

		_, err := repo.Get(context.Background(), userID)
		assert.ErrorIs(t, err, userplan.ErrUserNotFound)
	})

	t.Run("row references undefined plan", func(t *testing.T) {
		t.Parallel()

		repo, mock := newRepo(t)
		userID := uuid.New()

		mock.ExpectQuery(`SELECT plan_id, updated_at FROM users`).
			WithArgs(userID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"plan_id", "updated_at"}).AddRow("legacy", time.Now()))

		_, err := repo.Get(context.Background(), userID)
		assert.ErrorIs(t, err, plans.ErrPlanNotFound)
	})
}

func TestRepositorySetPlan(t *testing.T) {
	t.Parallel()

	t.Run("updates the binding", func(t *testing.T) {
		t.Parallel()

		repo, mock := newRepo(t)
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users SET plan_id = \$1, updated_at = NOW\(\)`).
			WithArgs("pro", userID.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SetPlan(context.Background(), userID, "pro"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects undefined target plan before touching the row", func(t *testing.T) {
		t.Parallel()

		repo, _ := newRepo(t)

		err := repo.SetPlan(context.Background(), uuid.New(), "enterprise")
		assert.ErrorIs(t, err, plans.ErrPlanNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		repo, mock := newRepo(t)
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users SET plan_id = \$1, updated_at = NOW\(\)`).
			WithArgs("pro", userID.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SetPlan(context.Background(), userID, "pro")
		assert.ErrorIs(t, err, userplan.ErrUserNotFound)
	})
}

func TestRepositoryEmail(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT email FROM users`).
		WithArgs(userID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"email"}).AddRow("ana@example.cl"))

	email, err := repo.Email(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.cl", email)
}
