package usage

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/miplata/core/pkg/plans"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RowQuerier is the slice of pgxpool.Pool the counters need. pgxmock
// satisfies it as well.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RegisterPGCounters wires the Postgres-backed counters into the registry.
// Ownership scoping matches the schema: movements belong to the user through
// their card; cartola uploads, projected movements and keyword sets carry
// the user id directly.
func RegisterPGCounters(r Registry, db RowQuerier) {
	r.Register(plans.LimitManualMovements, movementCounter(db, "manual"))
	r.Register(plans.LimitCartolaMovements, movementCounter(db, "cartola"))
	r.Register(plans.LimitScraperMovements, movementCounter(db, "scraper"))
	r.Register(plans.LimitMaxCards, cardCounter(db))
	r.Register(plans.LimitKeywordsPerCategory, keywordCounter(db))
	r.Register(plans.LimitMonthlyCartolas, cartolaUploadCounter(db))
	r.Register(plans.LimitProjectedMovements, projectedMovementCounter(db))
}

func count(ctx context.Context, db RowQuerier, q sq.SelectBuilder) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, errors.Join(ErrCountFailed, err)
	}

	var n int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, errors.Join(ErrCountFailed, err)
	}
	return n, nil
}

func movementCounter(db RowQuerier, source string) CounterFunc {
	return func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
		q := psql.Select("COUNT(*)").
			From("movements m").
			Join("cards c ON c.id = m.card_id").
			Where(sq.Eq{"c.user_id": userID, "m.movement_source": source}).
			Where(sq.GtOrEq{"m.transaction_date": since})
		return count(ctx, db, q)
	}
}

func cardCounter(db RowQuerier) CounterFunc {
	return func(ctx context.Context, userID uuid.UUID, _ time.Time) (int64, error) {
		q := psql.Select("COUNT(*)").
			From("cards").
			Where(sq.Eq{"user_id": userID, "origin": "manual"})
		return count(ctx, db, q)
	}
}

// keywordCounter reports the size of the user's fullest keyword set. The
// quota is per category, so the gate tracks the category closest to it.
func keywordCounter(db RowQuerier) CounterFunc {
	return func(ctx context.Context, userID uuid.UUID, _ time.Time) (int64, error) {
		q := psql.Select("COALESCE(MAX(cardinality(keywords)), 0)").
			From("category_keywords").
			Where(sq.Eq{"user_id": userID})
		return count(ctx, db, q)
	}
}

func cartolaUploadCounter(db RowQuerier) CounterFunc {
	return func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
		q := psql.Select("COUNT(*)").
			From("cartolas").
			Where(sq.Eq{"user_id": userID}).
			Where(sq.GtOrEq{"uploaded_at": since})
		return count(ctx, db, q)
	}
}

func projectedMovementCounter(db RowQuerier) CounterFunc {
	return func(ctx context.Context, userID uuid.UUID, _ time.Time) (int64, error) {
		q := psql.Select("COUNT(*)").
			From("projected_movements").
			Where(sq.Eq{"user_id": userID})
		return count(ctx, db, q)
	}
}
