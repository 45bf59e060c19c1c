package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage"
	"github.com/steveuk2021/thescammershort/internal/storage/postgres"
)

func TestLegStore_InsertAndGetByRunID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestRun(t, ctx, postgres.NewRunStore(pool), "run-legs", domain.ModePaper, "a", 0)
	store := postgres.NewLegStore(pool)

	exit := at(30)
	require.NoError(t, store.Insert(ctx, &domain.Leg{
		RunID: "run-legs", Symbol: "BBB", Status: domain.LegStatusOpen,
		EntryPrice: 2, Qty: 10, EntryTS: at(5), Margin: ptr(60.0),
	}))
	require.NoError(t, store.Insert(ctx, &domain.Leg{
		RunID: "run-legs", Symbol: "AAA", Status: domain.LegStatusClosed,
		EntryPrice: 10, ExitPrice: ptr(8.0), Qty: 5, EntryTS: at(1), ExitTS: &exit,
		MaxFavorablePnL: ptr(12.0), MaxAdversePnL: ptr(-3.0),
	}))
	// A closed leg does not block reopening the symbol.
	require.NoError(t, store.Insert(ctx, &domain.Leg{
		RunID: "run-legs", Symbol: "AAA", Status: domain.LegStatusOpen,
		EntryPrice: 9, Qty: 5, EntryTS: at(40),
	}))

	legs, err := store.GetByRunID(ctx, "run-legs")
	require.NoError(t, err)
	require.Len(t, legs, 3)
	assert.Equal(t, "AAA", legs[0].Symbol)
	assert.Equal(t, domain.LegStatusClosed, legs[0].Status)
	pnl, ok := legs[0].RealizedPnL()
	require.True(t, ok)
	assert.InDelta(t, 10.0, pnl, 1e-9)
	assert.Equal(t, "AAA", legs[1].Symbol)
	assert.Nil(t, legs[1].ExitTS)
	assert.Equal(t, "BBB", legs[2].Symbol)
	require.NotNil(t, legs[2].Margin)
	assert.Equal(t, 60.0, *legs[2].Margin)

	empty, err := store.GetByRunID(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLegStore_Constraints(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestRun(t, ctx, postgres.NewRunStore(pool), "run-c", domain.ModeLive, "a", 0)
	store := postgres.NewLegStore(pool)

	open := &domain.Leg{RunID: "run-c", Symbol: "AAA", Status: domain.LegStatusOpen, EntryPrice: 1, Qty: 1, EntryTS: at(0)}
	require.NoError(t, store.Insert(ctx, open))
	assert.ErrorIs(t, store.Insert(ctx, open), storage.ErrDuplicateKey)

	// Exit price without exit timestamp.
	err := store.Insert(ctx, &domain.Leg{
		RunID: "run-c", Symbol: "BBB", Status: domain.LegStatusClosed,
		EntryPrice: 1, ExitPrice: ptr(0.5), Qty: 1, EntryTS: at(0),
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	// Exit before entry.
	before := at(-5)
	err = store.Insert(ctx, &domain.Leg{
		RunID: "run-c", Symbol: "CCC", Status: domain.LegStatusClosed,
		EntryPrice: 1, ExitPrice: ptr(0.5), Qty: 1, EntryTS: at(0), ExitTS: &before,
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	// Unknown run.
	err = store.Insert(ctx, &domain.Leg{RunID: "ghost", Symbol: "AAA", Status: domain.LegStatusOpen, EntryTS: at(0)})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
