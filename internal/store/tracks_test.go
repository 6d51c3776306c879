package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackColumnNames = []string{
	"id", "user_id", "title", "description", "artist", "audio_file", "cover_image",
	"genre", "duration", "likes_count", "is_liked", "created_at", "updated_at",
}

func trackRow(id, userID int64, title string, likes int64, liked bool) *sqlmock.Rows {
	return sqlmock.NewRows(trackColumnNames).AddRow(
		id, userID, title, "", "", "", "",
		"techno", nil, likes, liked, testTime, testTime,
	)
}

func TestCreateTrackStampsOwner(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO tracks`).
		WithArgs(int64(1), "Warehouse", "", "", nil, nil, "techno", nil, sqlmock.AnyArg()).
		WillReturnRows(trackRow(8, 1, "Warehouse", 0, false))

	track, err := st.CreateTrack(context.Background(), 1, Track{Title: "Warehouse", Genre: "techno"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), track.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTrackForeignRowIsNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM tracks t`).
		WithArgs(int64(2), int64(8)).
		WillReturnRows(sqlmock.NewRows(trackColumnNames))

	_, err := st.GetTrack(context.Background(), 2, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTrackCarriesLikeCounters(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM tracks t`).
		WithArgs(int64(1), int64(8)).
		WillReturnRows(trackRow(8, 1, "Warehouse", 12, true))

	track, err := st.GetTrack(context.Background(), 1, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(12), track.LikesCount)
	assert.True(t, track.IsLiked)
}

func TestBrowseTracksIncludesForeignRows(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows(append(trackColumnNames, "total")).
		AddRow(int64(8), int64(99), "Theirs", "", "", "", "", "techno", nil, int64(3), false, testTime, testTime, int64(1))
	mock.ExpectQuery(`FROM tracks t`).
		WithArgs(int64(1), 10, 0).
		WillReturnRows(rows)

	tracks, total, err := st.BrowseTracks(context.Background(), 1, TrackFilter{}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tracks, 1)
	assert.Equal(t, int64(99), tracks[0].UserID)
}

func TestUpdateTrackPartialPatch(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM tracks t`).
		WithArgs(int64(1), int64(8)).
		WillReturnRows(trackRow(8, 1, "Old", 0, false))

	artist := "Ana Logue"
	mock.ExpectQuery(`UPDATE tracks`).
		WithArgs(int64(1), "Ana Logue", sqlmock.AnyArg(), int64(8)).
		WillReturnRows(trackRow(8, 1, "Old", 0, false))

	track, err := st.UpdateTrack(context.Background(), 1, 8, TrackPatch{Artist: &artist})
	require.NoError(t, err)
	assert.Equal(t, int64(8), track.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTrackForeignRowIsNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM tracks t`).
		WithArgs(int64(2), int64(8)).
		WillReturnRows(sqlmock.NewRows(trackColumnNames))

	err := st.DeleteTrack(context.Background(), 2, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}
