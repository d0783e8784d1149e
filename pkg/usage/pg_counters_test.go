package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miplata/core/pkg/plans"
	"github.com/miplata/core/pkg/usage"
)

func TestPGCounters(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	since := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	t.Run("manual movements scoped by source and window", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM movements m JOIN cards c ON c\.id = m\.card_id`).
			WithArgs(userID.String(), "manual", since).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

		reg := usage.NewRegistry()
		usage.RegisterPGCounters(reg, mock)

		n, err := reg[plans.LimitManualMovements](context.Background(), userID, since)
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cards counted over lifetime", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cards`).
			WithArgs("manual", userID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

		reg := usage.NewRegistry()
		usage.RegisterPGCounters(reg, mock)

		n, err := reg[plans.LimitMaxCards](context.Background(), userID, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure wraps ErrCountFailed", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT COALESCE\(MAX\(cardinality\(keywords\)\), 0\) FROM category_keywords`).
			WithArgs(userID.String()).
			WillReturnError(assert.AnError)

		reg := usage.NewRegistry()
		usage.RegisterPGCounters(reg, mock)

		_, err = reg[plans.LimitKeywordsPerCategory](context.Background(), userID, time.Time{})
		assert.ErrorIs(t, err, usage.ErrCountFailed)
	})
}
