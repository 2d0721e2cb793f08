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

func createSegment(t *testing.T, tx pgx.Tx) domain.Segment {
	t.Helper()
	trip := createTrip(t, tx)
	seg, err := repo.NewSegmentRepo(tx).Create(context.Background(), segmentFixture(trip.ID, "Tokyo"))
	require.NoError(t, err)
	return seg
}

func reservationFixture(segmentID uuid.UUID) domain.Reservation {
	utcStart := time.Date(2026, 4, 2, 1, 30, 0, 0, time.UTC)
	utcEnd := time.Date(2026, 4, 2, 13, 45, 0, 0, time.UTC)
	cost := 842.50
	return domain.Reservation{
		SegmentID:          segmentID,
		Kind:               domain.KindFlight,
		Status:             domain.StatusConfirmed,
		Name:               "NH 216 to Tokyo",
		Vendor:             "ANA",
		ConfirmationNumber: "ABC123",
		Cost:               &cost,
		Currency:           "USD",
		StartLocation:      "San Francisco (SFO)",
		EndLocation:        "Tokyo (HND)",
		WallStart:          domain.WallClock{Date: "2026-04-01", Clock: "18:30", Zone: "America/Los_Angeles"},
		WallEnd:            domain.WallClock{Date: "2026-04-02", Clock: "22:45", Zone: "Asia/Tokyo"},
		UTCStart:           &utcStart,
		UTCEnd:             &utcEnd,
		Metadata: domain.Metadata{
			Flight: &domain.FlightMetadata{
				FlightNumber:     "NH216",
				AirlineCode:      "NH",
				DepartureAirport: "SFO",
				ArrivalAirport:   "HND",
			},
		},
	}
}

func TestReservationRepo_Create_RoundTripsMetadata(t *testing.T) {
	tx := newTestTx(t)
	seg := createSegment(t, tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	got, err := r.Create(ctx, reservationFixture(seg.ID))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, domain.KindFlight, got.Kind)
	assert.Equal(t, "America/Los_Angeles", got.WallStart.Zone)
	require.NotNil(t, got.Cost)
	assert.InDelta(t, 842.50, *got.Cost, 0.001)
	require.NotNil(t, got.Metadata.Flight)
	assert.Equal(t, "NH216", got.Metadata.Flight.FlightNumber)
	assert.Nil(t, got.Metadata.Hotel)
}

func TestReservationRepo_SetDerivedTimes_LeavesWallClockAlone(t *testing.T) {
	tx := newTestTx(t)
	seg := createSegment(t, tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	input := reservationFixture(seg.ID)
	input.WallStart.Zone = ""
	input.WallEnd.Zone = ""
	input.UTCStart = nil
	input.UTCEnd = nil
	created, err := r.Create(ctx, input)
	require.NoError(t, err)

	utcStart := time.Date(2026, 4, 2, 1, 30, 0, 0, time.UTC)
	utcEnd := time.Date(2026, 4, 2, 13, 45, 0, 0, time.UTC)
	err = r.SetDerivedTimes(ctx, created.ID, "America/Los_Angeles", "Asia/Tokyo", &utcStart, &utcEnd)
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", got.WallStart.Zone)
	assert.Equal(t, "Asia/Tokyo", got.WallEnd.Zone)
	require.NotNil(t, got.UTCStart)
	assert.True(t, got.UTCStart.Equal(utcStart))

	// Traveller-entered fields untouched.
	assert.Equal(t, "2026-04-01", got.WallStart.Date)
	assert.Equal(t, "18:30", got.WallStart.Clock)
	assert.Equal(t, "NH 216 to Tokyo", got.Name)
}

func TestReservationRepo_SetImage_RespectsCustomImage(t *testing.T) {
	tx := newTestTx(t)
	seg := createSegment(t, tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	plain, err := r.Create(ctx, reservationFixture(seg.ID))
	require.NoError(t, err)

	custom := reservationFixture(seg.ID)
	custom.ImageURL = "https://example.com/mine.jpg"
	custom.ImageIsCustom = true
	pinned, err := r.Create(ctx, custom)
	require.NoError(t, err)

	require.NoError(t, r.SetImage(ctx, plain.ID, "https://photos.example/a.jpg"))
	require.NoError(t, r.SetImage(ctx, pinned.ID, "https://photos.example/b.jpg"))

	got, err := r.GetByID(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://photos.example/a.jpg", got.ImageURL)

	got, err = r.GetByID(ctx, pinned.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/mine.jpg", got.ImageURL, "custom image must not be overwritten")
}

func TestReservationRepo_ListBySegment_OrdersByUTCStart(t *testing.T) {
	tx := newTestTx(t)
	seg := createSegment(t, tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	later := reservationFixture(seg.ID)
	later.Name = "Later"
	ls := time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)
	later.UTCStart = &ls

	noTime := reservationFixture(seg.ID)
	noTime.Name = "No time"
	noTime.UTCStart = nil
	noTime.UTCEnd = nil

	earlier := reservationFixture(seg.ID)
	earlier.Name = "Earlier"

	for _, res := range []domain.Reservation{later, noTime, earlier} {
		_, err := r.Create(ctx, res)
		require.NoError(t, err)
	}

	got, err := r.ListBySegment(ctx, seg.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Earlier", got[0].Name)
	assert.Equal(t, "Later", got[1].Name)
	assert.Equal(t, "No time", got[2].Name, "rows without UTC sort last")
}

func TestReservationRepo_GetByID_NotFound(t *testing.T) {
	r := repo.NewReservationRepo(newTestTx(t))

	_, err := r.GetByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
