package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tf2automatic/internal/store"
	"tf2automatic/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func openStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore(filepath.Join(t.TempDir(), "db", "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndFindDecision(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	first := &model.DecisionModel{OfferID: "1", Partner: "p", Action: "decline", Reason: "INVALID_VALUE",
		MetaJSON: datatypes.JSON(`{"diff":{"263;6":1}}`), DecidedAt: base}
	second := &model.DecisionModel{OfferID: "1", Partner: "p", Action: "accept", Reason: "VALID_OFFER",
		DecidedAt: base.Add(time.Second)}
	require.NoError(t, s.SaveDecision(ctx, first))
	require.NoError(t, s.SaveDecision(ctx, second))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := s.FindDecision(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "accept", got.Action)
	assert.Equal(t, second.DecidedAt, got.DecidedAt)

	_, err = s.FindDecision(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListDecisions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)
	for i, partner := range []string{"a", "b", "a"} {
		require.NoError(t, s.SaveDecision(ctx, &model.DecisionModel{
			OfferID: string(rune('1' + i)), Partner: partner, Action: "accept",
			DecidedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := s.ListDecisions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].OfferID)

	forA, err := s.ListDecisions(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, forA, 1)
	assert.Equal(t, "3", forA[0].OfferID)
}

func TestNewGormStoreRequiresPath(t *testing.T) {
	_, err := NewGormStore("  ")
	assert.Error(t, err)
}
