package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/miplata/core/pkg/plans"
)

// scraperTaskKey is the per-user sorted set the scraper worker maintains,
// scored by the task's start time (unix seconds).
func scraperTaskKey(userID uuid.UUID) string {
	return fmt.Sprintf("scraper:tasks:%s", userID)
}

// RegisterScraperCounters wires the Redis-backed scraper-run counter.
// Scraper tasks never touch Postgres: the scraper worker records them in
// Redis, so the monthly quota is counted there too.
func RegisterScraperCounters(r Registry, rdb redis.Cmdable) {
	r.Register(plans.LimitMonthlyScrapes, scrapeRunCounter(rdb))
}

func scrapeRunCounter(rdb redis.Cmdable) CounterFunc {
	return func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
		lower := strconv.FormatInt(since.Unix(), 10)
		n, err := rdb.ZCount(ctx, scraperTaskKey(userID), lower, "+inf").Result()
		if err != nil {
			return 0, errors.Join(ErrCountFailed, err)
		}
		return n, nil
	}
}
