package plans

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Querier is the slice of pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgSource struct {
	db Querier
}

// NewPGSource returns a Source that reads the catalog from the plans,
// plan_limits and plan_permissions tables the seed migrations populate.
// Lets operators retune quotas with plain SQL instead of a redeploy.
func NewPGSource(db Querier) Source {
	return &pgSource{db: db}
}

func (s *pgSource) Load(ctx context.Context) (map[string]Plan, error) {
	out, err := s.loadPlans(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if err := s.loadLimits(ctx, out); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if err := s.loadPermissions(ctx, out); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return out, nil
}

func (s *pgSource) loadPlans(ctx context.Context) (map[string]Plan, error) {
	sql, args, err := psql.Select("id", "name", "rank", "price_clp", "features").
		From("plans").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Plan)
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Rank, &p.PriceCLP, &p.Features); err != nil {
			return nil, err
		}
		p.Limits = make(map[LimitKey]int64)
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (s *pgSource) loadLimits(ctx context.Context, plans map[string]Plan) error {
	sql, args, err := psql.Select("plan_id", "limit_key", "limit_value").
		From("plan_limits").ToSql()
	if err != nil {
		return err
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var planID string
		var key LimitKey
		var value int64
		if err := rows.Scan(&planID, &key, &value); err != nil {
			return err
		}
		if p, ok := plans[planID]; ok {
			p.Limits[key] = value
		}
	}
	return rows.Err()
}

func (s *pgSource) loadPermissions(ctx context.Context, plans map[string]Plan) error {
	sql, args, err := psql.Select("plan_id", "permission_key").
		From("plan_permissions").ToSql()
	if err != nil {
		return err
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var planID string
		var key PermissionKey
		if err := rows.Scan(&planID, &key); err != nil {
			return err
		}
		if p, ok := plans[planID]; ok {
			p.Permissions = append(p.Permissions, key)
			plans[planID] = p
		}
	}
	return rows.Err()
}
