package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/repo"
)

// createTrip inserts a trip through TripRepo on the same transaction so
// segment rows have a parent to reference.
func createTrip(t *testing.T, tx pgx.Tx) domain.Trip {
	t.Helper()
	trip, err := repo.NewTripRepo(tx).Create(context.Background(), tripFixture())
	require.NoError(t, err)
	return trip
}

func segmentFixture(tripID uuid.UUID, name string) domain.Segment {
	utcStart := time.Date(2026, 4, 2, 0, 1, 0, 0, time.UTC)
	utcEnd := time.Date(2026, 4, 5, 23, 59, 59, 0, time.UTC)
	return domain.Segment{
		TripID: tripID,
		Name:   name,
		Type:   domain.SegmentStay,
		Start:  domain.Place{Name: "Tokyo", Zone: "Asia/Tokyo"},
		End:    domain.Place{Name: "Tokyo", Zone: "Asia/Tokyo"},
		WallStart: domain.WallClock{Date: "2026-04-02", Zone: "Asia/Tokyo"},
		WallEnd:   domain.WallClock{Date: "2026-04-05", Zone: "Asia/Tokyo"},
		UTCStart:  &utcStart,
		UTCEnd:    &utcEnd,
	}
}

func TestSegmentRepo_Create_AssignsNextOrder(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewSegmentRepo(tx)
	ctx := context.Background()

	first, err := r.Create(ctx, segmentFixture(trip.ID, "Tokyo"))
	require.NoError(t, err)
	assert.Equal(t, 0, first.Order)

	second, err := r.Create(ctx, segmentFixture(trip.ID, "Kyoto"))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Order)

	assert.Equal(t, "Tokyo", first.Start.Name)
	assert.Equal(t, "2026-04-02", first.WallStart.Date)
	require.NotNil(t, first.UTCStart)
}

func TestSegmentRepo_InsertAt_ShiftsSiblings(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewSegmentRepo(tx)
	ctx := context.Background()

	_, err := r.Create(ctx, segmentFixture(trip.ID, "Tokyo"))
	require.NoError(t, err)
	_, err = r.Create(ctx, segmentFixture(trip.ID, "Osaka"))
	require.NoError(t, err)

	inserted := segmentFixture(trip.ID, "Kyoto")
	inserted.Order = 1
	got, err := r.InsertAt(ctx, inserted)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Order)

	segs, err := r.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, segs, 3)

	names := []string{segs[0].Name, segs[1].Name, segs[2].Name}
	assert.Equal(t, []string{"Tokyo", "Kyoto", "Osaka"}, names)
	assert.Equal(t, []int{0, 1, 2}, []int{segs[0].Order, segs[1].Order, segs[2].Order})
}

func TestSegmentRepo_Delete_ClosesGap(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewSegmentRepo(tx)
	ctx := context.Background()

	_, err := r.Create(ctx, segmentFixture(trip.ID, "Tokyo"))
	require.NoError(t, err)
	middle, err := r.Create(ctx, segmentFixture(trip.ID, "Kyoto"))
	require.NoError(t, err)
	_, err = r.Create(ctx, segmentFixture(trip.ID, "Osaka"))
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, middle.ID))

	segs, err := r.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "Tokyo", segs[0].Name)
	assert.Equal(t, 0, segs[0].Order)
	assert.Equal(t, "Osaka", segs[1].Name)
	assert.Equal(t, 1, segs[1].Order)
}

func TestSegmentRepo_Delete_NotFound(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewSegmentRepo(tx)

	err := r.Delete(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSegmentRepo_Update(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewSegmentRepo(tx)
	ctx := context.Background()

	created, err := r.Create(ctx, segmentFixture(trip.ID, "Tokyo"))
	require.NoError(t, err)

	created.Name = "Tokyo extended"
	created.WallEnd = domain.WallClock{Date: "2026-04-07", Zone: "Asia/Tokyo"}
	newEnd := time.Date(2026, 4, 7, 23, 59, 59, 0, time.UTC)
	created.UTCEnd = &newEnd

	got, err := r.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo extended", got.Name)
	assert.Equal(t, "2026-04-07", got.WallEnd.Date)
	require.NotNil(t, got.UTCEnd)
	assert.True(t, got.UTCEnd.Equal(newEnd))
	assert.Equal(t, created.Order, got.Order, "order not touched by Update")
}
