package offerlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tf2automatic/internal/offer"
	"tf2automatic/internal/store"
	"tf2automatic/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLog(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "offers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordOfferUpserts(t *testing.T) {
	db := openLog(t)
	ctx := context.Background()
	clock := time.UnixMilli(1_000)
	db.now = func() time.Time { return clock }

	require.NoError(t, db.RecordOffer(ctx, model.OfferRecord{
		ID: "10", Partner: "p", State: int(offer.StateActive), Ours: true, HandledByUs: true, Summary: "Asked: 1 x 263;6",
	}))
	clock = time.UnixMilli(2_000)
	require.NoError(t, db.RecordOffer(ctx, model.OfferRecord{ID: "10", Partner: "p", State: int(offer.StateAccepted), Ours: true, HandledByUs: true}))

	got, err := db.GetOffer(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, int(offer.StateAccepted), got.State)
	assert.Equal(t, "Asked: 1 x 263;6", got.Summary)
	assert.Equal(t, int64(1_000), got.CreatedAt)
	assert.Equal(t, int64(2_000), got.UpdatedAt)
	assert.True(t, got.Ours)

	_, err = db.GetOffer(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Error(t, db.RecordOffer(ctx, model.OfferRecord{Partner: "p"}))
}

func TestActiveOffer(t *testing.T) {
	db := openLog(t)
	ctx := context.Background()

	_, ok, err := db.ActiveOffer(ctx, "p")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.RecordOffer(ctx, model.OfferRecord{ID: "1", Partner: "p", State: int(offer.StateActive), Ours: false}))
	require.NoError(t, db.RecordOffer(ctx, model.OfferRecord{ID: "2", Partner: "p", State: int(offer.StateDeclined), Ours: true}))
	_, ok, err = db.ActiveOffer(ctx, "p")
	require.NoError(t, err)
	assert.False(t, ok, "inbound and finished offers are not ours to wait on")

	require.NoError(t, db.RecordOffer(ctx, model.OfferRecord{ID: "3", Partner: "p", State: int(offer.StateActive), Ours: true}))
	id, ok, err := db.ActiveOffer(ctx, "p")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", id)
}
