package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/profile"
	"github.com/cory-johannsen/farkle/internal/storage/postgres"
	"github.com/cory-johannsen/farkle/internal/testutil"
)

var _ profile.Store = (*postgres.ProfileRepository)(nil)

func TestProfileRepository_NotFound(t *testing.T) {
	repo := postgres.NewProfileRepository(testutil.NewPool(t))
	_, err := repo.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestProfileRepository_SaveLoadUpdate(t *testing.T) {
	repo := postgres.NewProfileRepository(testutil.NewPool(t))
	ctx := context.Background()

	p := profile.Default(uuid.New(), 50)
	p.AddDie("LOADED")
	require.NoError(t, p.Equip(3, "LOADED"))
	p.Settings = profile.Settings{TargetScore: 3000, Difficulty: ai.Hard, ChallengerID: "a-san"}
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Credit(1200)
	require.NoError(t, repo.Save(ctx, p))
	got, err = repo.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1250, got.Groschen)
	assert.Equal(t, dice.VariantID("LOADED"), got.Loadout[3])

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Load(ctx, p.ID)
	assert.ErrorIs(t, err, profile.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, p.ID))
}

// Property: any balance and ownership map survives a round trip.
func TestProfileRepository_PropertyRoundTrip(t *testing.T) {
	repo := postgres.NewProfileRepository(testutil.NewPool(t))
	ctx := context.Background()
	rapid.Check(t, func(rt *rapid.T) {
		p := profile.Default(uuid.New(), rapid.IntRange(0, 1_000_000).Draw(rt, "groschen"))
		for _, id := range []dice.VariantID{"EVEN", "DEMON", "LUCKY"} {
			n := rapid.IntRange(0, 3).Draw(rt, string(id))
			for i := 0; i < n; i++ {
				p.AddDie(id)
			}
		}
		if err := repo.Save(ctx, p); err != nil {
			rt.Fatalf("save: %v", err)
		}
		got, err := repo.Load(ctx, p.ID)
		if err != nil {
			rt.Fatalf("load: %v", err)
		}
		if got.Groschen != p.Groschen || len(got.Owned) != len(p.Owned) {
			rt.Fatalf("round trip mismatch: %+v vs %+v", got, p)
		}
	})
}

func TestNewProfileRepository_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { postgres.NewProfileRepository(nil) })
}

func TestMigrate_InvalidDirection(t *testing.T) {
	_, err := postgres.Migrate("postgres://x@localhost/x", "migrations", "sideways", 0)
	assert.Error(t, err)
}
