package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loopColumnNames = []string{
	"id", "user_id", "title", "description", "audio_file", "thumbnail",
	"bpm", "duration", "genre", "tags", "is_public", "play_count", "created_at", "updated_at",
}

func loopRow(id, userID int64, title string) *sqlmock.Rows {
	return sqlmock.NewRows(loopColumnNames).AddRow(
		id, userID, title, "", "", "",
		nil, nil, "house", "{}", true, int64(0), testTime, testTime,
	)
}

func TestCreateLoopStampsOwner(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO music_loops`).
		WithArgs(int64(1), "Deep Groove", "", nil, nil, nil, nil, "house",
			sqlmock.AnyArg(), true, sqlmock.AnyArg()).
		WillReturnRows(loopRow(3, 1, "Deep Groove"))

	loop, err := st.CreateLoop(context.Background(), 1, MusicLoop{
		Title:    "  Deep Groove  ",
		Genre:    "house",
		IsPublic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), loop.UserID)
	assert.Equal(t, "Deep Groove", loop.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLoopForeignRowIsNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	// The scoped query returns nothing for rows owned by someone else, so a
	// foreign loop and a missing loop are the same from the caller's view.
	mock.ExpectQuery(`FROM music_loops`).
		WithArgs(int64(7), int64(2)).
		WillReturnRows(sqlmock.NewRows(loopColumnNames))

	_, err := st.GetLoop(context.Background(), 2, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLoopPartialPatch(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM music_loops`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(loopRow(3, 1, "Old Title"))

	title := "New Title"
	bpm := 128
	mock.ExpectQuery(`UPDATE music_loops`).
		WithArgs("New Title", 128, sqlmock.AnyArg(), int64(3), int64(1)).
		WillReturnRows(loopRow(3, 1, "New Title"))

	loop, err := st.UpdateLoop(context.Background(), 1, 3, LoopPatch{Title: &title, BPM: &bpm})
	require.NoError(t, err)
	assert.Equal(t, "New Title", loop.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLoopEmptyPatchIsNoOp(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM music_loops`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(loopRow(3, 1, "Unchanged"))

	loop, err := st.UpdateLoop(context.Background(), 1, 3, LoopPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Unchanged", loop.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLoopForeignRowIsNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM music_loops`).
		WithArgs(int64(3), int64(2)).
		WillReturnRows(sqlmock.NewRows(loopColumnNames))

	err := st.DeleteLoop(context.Background(), 2, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteLoopOwnRow(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM music_loops`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(loopRow(3, 1, "Doomed"))
	mock.ExpectExec(`DELETE FROM music_loops`).
		WithArgs(int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, st.DeleteLoop(context.Background(), 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPlayCount(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SET play_count = play_count \+ 1`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"play_count"}).AddRow(int64(6)))

	count, err := st.IncrementPlayCount(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}

func TestIncrementPlayCountPrivateForeignLoop(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SET play_count = play_count \+ 1`).
		WithArgs(int64(3), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"play_count"}))

	_, err := st.IncrementPlayCount(context.Background(), 2, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLoopsScopedToOwner(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows(append(loopColumnNames, "total")).AddRow(
		int64(3), int64(1), "Mine", "", "", "",
		nil, nil, "house", "{}", true, int64(0), testTime, testTime,
		int64(1),
	)
	mock.ExpectQuery(`WHERE user_id = \$1`).
		WithArgs(int64(1), 10, 0).
		WillReturnRows(rows)

	loops, total, err := st.ListLoops(context.Background(), 1, LoopFilter{}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, loops, 1)
	assert.Equal(t, int64(1), loops[0].UserID)
}
