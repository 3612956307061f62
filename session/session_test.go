package session

import (
	"context"
	"testing"
	"time"

	"eduscan-api/scoring"
	"eduscan-api/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreWithoutRedisUsesMemory(t *testing.T) {
	s := NewStore(services.NewCacheServiceWithClient(nil), time.Hour)
	_, ok := s.(*MemoryStore)
	assert.True(t, ok, "got %T", s)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	sess := New("Somali")
	sess.Page = "prediction"
	sess.LastResult = &CachedResult{StudentName: "Ana", Outcome: &scoring.Outcome{Variant: scoring.VariantScreening}}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "prediction", got.Page)
	assert.Equal(t, "Somali", got.Language)
	require.NotNil(t, got.LastResult)
	assert.Equal(t, "Ana", got.LastResult.StudentName)

	got.Page = "changed"
	again, _ := store.Load(ctx, sess.ID)
	assert.Equal(t, "prediction", again.Page, "loaded copies must not alias stored state")
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	sess := New("English")
	require.NoError(t, store.Save(ctx, sess))

	now = now.Add(2 * time.Minute)
	_, err := store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetForm(t *testing.T) {
	sess := New("English")
	sess.LastResult = &CachedResult{StudentName: "x"}
	sess.ResetForm()
	sess.ResetForm()
	assert.Equal(t, 2, sess.FormResetCounter)
	assert.Nil(t, sess.LastResult)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	sess := New("English")
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err := store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
