package plans_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miplata/core/pkg/plans"
)

func newTestCatalog(t *testing.T) *plans.Catalog {
	t.Helper()

	cat, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(plans.Builtin()))
	require.NoError(t, err)
	return cat
}

func TestCatalogResolution(t *testing.T) {
	t.Parallel()

	cat := newTestCatalog(t)

	t.Run("get by id", func(t *testing.T) {
		t.Parallel()

		p, err := cat.Get("basic")
		require.NoError(t, err)
		assert.Equal(t, "Básico", p.Name)
		assert.Equal(t, int64(2), p.Limits[plans.LimitMaxCards])
	})

	t.Run("get by name", func(t *testing.T) {
		t.Parallel()

		p, err := cat.GetByName("Premium")
		require.NoError(t, err)
		assert.Equal(t, "premium", p.ID)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		_, err := cat.Get("enterprise")
		assert.ErrorIs(t, err, plans.ErrPlanNotFound)
	})

	t.Run("limits map covers every key", func(t *testing.T) {
		t.Parallel()

		for _, p := range cat.List() {
			limits, err := cat.Limits(p.ID)
			require.NoError(t, err)
			for _, key := range plans.LimitKeys() {
				_, ok := limits[key]
				assert.True(t, ok, "plan %s missing %s", p.ID, key)
			}
		}
	})

	t.Run("list ordered by rank", func(t *testing.T) {
		t.Parallel()

		list := cat.List()
		require.Len(t, list, 4)
		for i := 1; i < len(list); i++ {
			assert.Greater(t, list[i].Rank, list[i-1].Rank)
		}
		assert.Equal(t, "free", list[0].ID)
		assert.Equal(t, "pro", list[3].ID)
	})

	t.Run("returned plans are copies", func(t *testing.T) {
		t.Parallel()

		p, err := cat.Get("free")
		require.NoError(t, err)
		p.Limits[plans.LimitMaxCards] = 99

		again, err := cat.Get("free")
		require.NoError(t, err)
		assert.Equal(t, int64(1), again.Limits[plans.LimitMaxCards])
	})
}

func TestCatalogPermissions(t *testing.T) {
	t.Parallel()

	cat := newTestCatalog(t)

	t.Run("granted", func(t *testing.T) {
		t.Parallel()

		ok, err := cat.HasPermission("premium", plans.PermCartolaUpload)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not granted", func(t *testing.T) {
		t.Parallel()

		ok, err := cat.HasPermission("basic", plans.PermScraperAccess)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown key is a configuration error", func(t *testing.T) {
		t.Parallel()

		_, err := cat.HasPermission("basic", plans.PermissionKey("teleportation"))
		assert.ErrorIs(t, err, plans.ErrInvalidPermissionKey)
	})

	t.Run("pro grants everything", func(t *testing.T) {
		t.Parallel()

		for _, key := range plans.PermissionKeys() {
			ok, err := cat.HasPermission("pro", key)
			require.NoError(t, err)
			assert.True(t, ok, "pro missing %s", key)
		}
	})
}

func TestCatalogRank(t *testing.T) {
	t.Parallel()

	cat := newTestCatalog(t)

	free, err := cat.Get("free")
	require.NoError(t, err)
	pro, err := cat.Get("pro")
	require.NoError(t, err)

	assert.True(t, pro.AtLeast(free))
	assert.False(t, free.AtLeast(pro))
	assert.True(t, free.AtLeast(free))

	rank, err := cat.Rank("premium")
	require.NoError(t, err)
	assert.Equal(t, 2, rank)
}

func TestCatalogValidation(t *testing.T) {
	t.Parallel()

	base := func() map[string]plans.Plan { return plans.Builtin() }

	t.Run("missing limit key rejected", func(t *testing.T) {
		t.Parallel()

		broken := base()
		p := broken["free"]
		delete(p.Limits, plans.LimitMaxCards)
		broken["free"] = p

		_, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(broken))
		assert.ErrorIs(t, err, plans.ErrInvalidConfiguration)
	})

	t.Run("quota below -1 rejected", func(t *testing.T) {
		t.Parallel()

		broken := base()
		p := broken["free"]
		p.Limits[plans.LimitMaxCards] = -2
		broken["free"] = p

		_, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(broken))
		assert.ErrorIs(t, err, plans.ErrInvalidConfiguration)
	})

	t.Run("duplicate rank rejected", func(t *testing.T) {
		t.Parallel()

		broken := base()
		p := broken["basic"]
		p.Rank = 0
		broken["basic"] = p

		_, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(broken))
		assert.ErrorIs(t, err, plans.ErrInvalidConfiguration)
	})

	t.Run("unknown permission rejected", func(t *testing.T) {
		t.Parallel()

		broken := base()
		p := broken["basic"]
		p.Permissions = append(p.Permissions, plans.PermissionKey("time_travel"))
		broken["basic"] = p

		_, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(broken))
		assert.ErrorIs(t, err, plans.ErrInvalidConfiguration)
	})
}

func TestUnlimitedSentinel(t *testing.T) {
	t.Parallel()

	assert.True(t, plans.IsUnlimited(-1))
	assert.False(t, plans.IsUnlimited(0), "0 means zero allowance, not unlimited")
	assert.False(t, plans.IsUnlimited(100))
}

func TestLimitKeyCadence(t *testing.T) {
	t.Parallel()

	monthly := []plans.LimitKey{
		plans.LimitManualMovements,
		plans.LimitCartolaMovements,
		plans.LimitScraperMovements,
		plans.LimitMonthlyCartolas,
		plans.LimitMonthlyScrapes,
	}
	lifetime := []plans.LimitKey{
		plans.LimitMaxCards,
		plans.LimitKeywordsPerCategory,
		plans.LimitProjectedMovements,
	}

	for _, key := range monthly {
		assert.Equal(t, plans.CadenceMonthly, key.Cadence(), "%s", key)
	}
	for _, key := range lifetime {
		assert.Equal(t, plans.CadenceLifetime, key.Cadence(), "%s", key)
	}
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	t.Run("loads valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		doc := `plans:
  solo:
    id: solo
    name: Solo
    rank: 0
    price_clp: 0
    limits:
      manual_movements: 10
      max_cards: 1
      keywords_per_category: 2
      cartola_movements: 0
      scraper_movements: 0
      monthly_cartolas: 0
      monthly_scrapes: 0
      projected_movements: 0
    permissions: [manual_movements]
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		cat, err := plans.NewCatalog(context.Background(), plans.NewFileSource(path))
		require.NoError(t, err)

		p, err := cat.Get("solo")
		require.NoError(t, err)
		assert.Equal(t, int64(10), p.Limits[plans.LimitManualMovements])
		assert.True(t, p.HasPermission(plans.PermManualMovements))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := plans.NewCatalog(context.Background(), plans.NewFileSource("/nonexistent/plans.yaml"))
		assert.ErrorIs(t, err, plans.ErrFailedToLoadPlans)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("plans: {}\n"), 0o600))

		_, err := plans.NewCatalog(context.Background(), plans.NewFileSource(path))
		assert.ErrorIs(t, err, plans.ErrFailedToLoadPlans)
	})
}
