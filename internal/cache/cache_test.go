package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/models"
	"github.com/spot-annotator/backend/internal/projection"
)

const owner = "angler@example.com"

func newCache(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := New(client, time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestAnnotations(t *testing.T) {
	mr, c := newCache(t)
	ctx := context.Background()

	_, ok := c.GetAnnotations(ctx, owner)
	assert.False(t, ok)

	annotations := []models.Annotation{
		models.NewDraft(models.TypeDropoff, models.PathGeometry(models.ShapeLine, []models.GeoPoint{{Lng: 1, Lat: 1}, {Lng: 2, Lat: 2}}), "A", owner),
		models.NewDraft(models.TypeNote, models.PointGeometry(models.GeoPoint{Lng: -7, Lat: 54}), "A", owner),
	}
	require.NoError(t, c.SetAnnotations(ctx, owner, annotations))

	got, ok := c.GetAnnotations(ctx, owner)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.IsType(t, models.Dropoff{}, got[0])
	assert.Equal(t, annotations[1].Meta().ID, got[1].Meta().ID)
	assert.Equal(t, annotations[0].Geometry(), got[0].Geometry())

	mr.FastForward(2 * time.Minute)
	_, ok = c.GetAnnotations(ctx, owner)
	assert.False(t, ok, "entries expire after the ttl")
}

func TestEmptyCollectionIsAHit(t *testing.T) {
	_, c := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetSpots(ctx, owner, []models.Spot{}))

	spots, ok := c.GetSpots(ctx, owner)
	assert.True(t, ok)
	assert.Empty(t, spots)
}

func TestInvalidate(t *testing.T) {
	_, c := newCache(t)
	ctx := context.Background()
	spot := models.NewSpot(owner, "Weir", models.GeoPoint{Lng: -7, Lat: 54}, 12)

	require.NoError(t, c.SetSpots(ctx, owner, []models.Spot{spot}))
	require.NoError(t, c.SetAnnotations(ctx, owner, nil))
	require.NoError(t, c.SetSpots(ctx, "other@example.com", []models.Spot{spot}))

	require.NoError(t, c.Invalidate(ctx, owner))

	_, ok := c.GetSpots(ctx, owner)
	assert.False(t, ok)
	_, ok = c.GetAnnotations(ctx, owner)
	assert.False(t, ok)
	_, ok = c.GetSpots(ctx, "other@example.com")
	assert.True(t, ok)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	mr, c := newCache(t)
	require.NoError(t, mr.Set(annotationsKeyPrefix+owner, "{not json"))

	_, ok := c.GetAnnotations(context.Background(), owner)

	assert.False(t, ok)
}

func TestUnavailableRedisIsAMiss(t *testing.T) {
	mr, c := newCache(t)
	mr.Close()

	_, ok := c.GetSpots(context.Background(), owner)

	assert.False(t, ok)
}

func TestVisibilityKV(t *testing.T) {
	mr, c := newCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, projection.ErrMissing)

	store := projection.NewVisibilityStore(c, owner, zap.NewNop())
	store.Load(ctx)
	store.Toggle(ctx, models.TypeSpawnZone)

	assert.True(t, mr.Exists(prefsKeyPrefix+projection.StorageKey+":"+owner))
	assert.Zero(t, mr.TTL(prefsKeyPrefix+projection.StorageKey+":"+owner))

	flags := projection.NewVisibilityStore(c, owner, zap.NewNop()).Load(ctx)
	assert.False(t, flags[models.TypeSpawnZone])
}
